package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"betting-backend/internal/config"
	"betting-backend/internal/models"
)

var rateLimitScript = redis.NewScript(`
	local current = redis.call("INCR", KEYS[1])
	if current == 1 then
		redis.call("PEXPIRE", KEYS[1], ARGV[1])
	end
	return current
`)

// RedisService owns the shared Redis connection. Besides backing the redis
// store driver it rate limits bets and relays win notifications between API
// processes over pub/sub.
type RedisService struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisService(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisServiceWithClient(client, cfg.Channel, logger), nil
}

func NewRedisServiceWithClient(client *redis.Client, channel string, logger *zap.Logger) *RedisService {
	return &RedisService{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (s *RedisService) Client() *redis.Client {
	return s.client
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// CheckRateLimit counts action against a fixed window and reports whether the
// caller is still within limit.
func (s *RedisService) CheckRateLimit(ctx context.Context, accountID uuid.UUID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, accountID, action)

	count, err := rateLimitScript.Run(ctx, s.client, []string{key}, window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	return count <= int64(limit), nil
}

// Broadcast publishes evt to every subscribed API process.
func (s *RedisService) Broadcast(ctx context.Context, evt models.Notification) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	return s.client.Publish(ctx, s.channel, data).Err()
}

// Relay forwards notifications published by any process to the local sink
// until ctx is cancelled.
func (s *RedisService) Relay(ctx context.Context, sink Broadcaster) {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var evt models.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				s.logger.Warn("dropping malformed notification", zap.Error(err))
				continue
			}

			if err := sink.Broadcast(ctx, evt); err != nil {
				s.logger.Warn("relay delivery failed", zap.Error(err))
			}
		}
	}
}
