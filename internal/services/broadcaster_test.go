package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"betting-backend/internal/models"
	"betting-backend/internal/services"
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.Notification
	err    error
	panics bool
}

func (s *recordingSink) Broadcast(_ context.Context, evt models.Notification) error {
	if s.panics {
		panic("sink exploded")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestBusDeliversToEverySink(t *testing.T) {
	failing := &recordingSink{err: errors.New("broker down")}
	exploding := &recordingSink{panics: true}
	healthy := &recordingSink{}

	bus := services.NewBus(8, zap.NewNop(), failing, exploding, healthy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	assert.True(t, bus.Publish(models.Notification{Username: "alice", Profit: 500, Game: "Coinflip"}))
	assert.True(t, bus.Publish(models.Notification{Username: "bob", Profit: 900, Game: "Crash"}))

	assert.Eventually(t, func() bool {
		return healthy.count() == 2 && failing.count() == 2
	}, time.Second, 10*time.Millisecond)

	healthy.mu.Lock()
	defer healthy.mu.Unlock()
	assert.Equal(t, "alice", healthy.events[0].Username)
	assert.Equal(t, "bob", healthy.events[1].Username)
}

func TestBusPublishNeverBlocks(t *testing.T) {
	bus := services.NewBus(1, zaptest.NewLogger(t))

	assert.True(t, bus.Publish(models.Notification{Username: "first"}))
	assert.False(t, bus.Publish(models.Notification{Username: "second"}))
}

type stuckSink struct{}

func (stuckSink) Broadcast(ctx context.Context, _ models.Notification) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestBusSlowSinkDoesNotDelayOthers(t *testing.T) {
	fast := &recordingSink{}
	bus := services.NewBus(16, zap.NewNop(), stuckSink{}, fast)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	for i := 0; i < 5; i++ {
		assert.True(t, bus.Publish(models.Notification{Username: "alice", Profit: models.Money(i + 1)}))
	}

	assert.Eventually(t, func() bool {
		return fast.count() == 5
	}, time.Second, 10*time.Millisecond)
}
