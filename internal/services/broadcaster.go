package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"betting-backend/internal/metrics"
	"betting-backend/internal/models"
)

const sinkTimeout = 5 * time.Second

// Broadcaster delivers a win notification to one audience.
type Broadcaster interface {
	Broadcast(ctx context.Context, evt models.Notification) error
}

// Bus decouples settlement from fan-out. Publish never blocks; a dispatcher
// drains the queue and hands each event to a per-sink queue, and every sink
// is served by its own worker, so one slow sink cannot hold back the others.
// Delivery is best effort and sink failures are only logged.
type Bus struct {
	queue   chan models.Notification
	workers []*sinkWorker
	logger  *zap.Logger
}

type sinkWorker struct {
	sink  Broadcaster
	queue chan models.Notification
}

func NewBus(size int, logger *zap.Logger, sinks ...Broadcaster) *Bus {
	workers := make([]*sinkWorker, len(sinks))
	for i, sink := range sinks {
		workers[i] = &sinkWorker{
			sink:  sink,
			queue: make(chan models.Notification, size),
		}
	}

	return &Bus{
		queue:   make(chan models.Notification, size),
		workers: workers,
		logger:  logger,
	}
}

func (b *Bus) Publish(evt models.Notification) bool {
	select {
	case b.queue <- evt:
		return true
	default:
		metrics.NotificationsDropped.Inc()
		return false
	}
}

// Run dispatches queued events until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) {
	for _, w := range b.workers {
		go b.serve(ctx, w)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-b.queue:
			b.dispatch(evt)
		}
	}
}

func (b *Bus) dispatch(evt models.Notification) {
	for _, w := range b.workers {
		select {
		case w.queue <- evt:
		default:
			metrics.NotificationsDropped.Inc()
			b.logger.Warn("notification sink backlogged, dropping event",
				zap.String("sink", fmt.Sprintf("%T", w.sink)),
				zap.String("username", evt.Username))
		}
	}
}

func (b *Bus) serve(ctx context.Context, w *sinkWorker) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-w.queue:
			b.deliver(ctx, w.sink, evt)
		}
	}
}
func (b *Bus) deliver(ctx context.Context, sink Broadcaster, evt models.Notification) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("notification sink panicked",
				zap.String("sink", fmt.Sprintf("%T", sink)),
				zap.Any("panic", r))
		}
	}()

	sctx, cancel := context.WithTimeout(ctx, sinkTimeout)
	defer cancel()

	if err := sink.Broadcast(sctx, evt); err != nil {
		b.logger.Warn("notification delivery failed",
			zap.String("sink", fmt.Sprintf("%T", sink)),
			zap.String("username", evt.Username),
			zap.Error(err))
	}
}
