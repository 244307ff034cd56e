package services_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"betting-backend/internal/models"
	"betting-backend/internal/services"
)

func newRedisService(t *testing.T) *services.RedisService {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	require.NoError(t, client.FlushDB(context.Background()).Err())

	svc := services.NewRedisServiceWithClient(client, "test:big_wins", zaptest.NewLogger(t))
	t.Cleanup(func() { svc.Close() })

	return svc
}

func TestRedisRateLimit(t *testing.T) {
	svc := newRedisService(t)
	ctx := context.Background()
	accountID := uuid.New()

	for i := 0; i < 3; i++ {
		ok, err := svc.CheckRateLimit(ctx, accountID, "bet", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}

	ok, err := svc.CheckRateLimit(ctx, accountID, "bet", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CheckRateLimit(ctx, uuid.New(), "bet", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

type collectingSink struct {
	mu     sync.Mutex
	events []models.Notification
}

func (s *collectingSink) Broadcast(_ context.Context, evt models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func TestRedisRelay(t *testing.T) {
	svc := newRedisService(t)
	sink := &collectingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Relay(ctx, sink)

	multiplier := models.Multiplier(300)
	evt := models.Notification{Username: "alice", Profit: 2000, Game: "Crash", Multiplier: &multiplier}

	// The subscription is established asynchronously, so keep publishing
	// until the first copy arrives.
	assert.Eventually(t, func() bool {
		_ = svc.Broadcast(context.Background(), evt)

		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.events) > 0
	}, 2*time.Second, 50*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, evt, sink.events[0])
}
