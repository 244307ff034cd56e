// Package kafka appends win notifications to a topic for offline consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"betting-backend/internal/config"
	"betting-backend/internal/models"
)

const pingTimeout = 5 * time.Second

type Producer struct {
	client *kgo.Client

	topic string
}

// NewProducer pings the seed brokers, since the client itself connects lazily.
func NewProducer(ctx context.Context, cfg config.KafkaConfig) (*Producer, error) {
	cli, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
	)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := cli.Ping(pingCtx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to reach kafka brokers: %w", err)
	}

	return &Producer{
		client: cli,
		topic:  cfg.Topic,
	}, nil
}

// Broadcast waits for the record to be acknowledged. Records are keyed by
// username so one player's wins stay ordered within a partition.
func (p *Producer) Broadcast(ctx context.Context, evt models.Notification) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(evt.Username),
		Value: value,
		Topic: p.topic,
	}

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce notification: %w", err)
	}

	return nil
}

func (p *Producer) Close() {
	p.client.Close()
}
