package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"betting-backend/internal/models"
	"betting-backend/internal/services"
	"betting-backend/internal/store"
	"betting-backend/internal/svcerr"
)

const maxBet = models.Money(10000000)

type fixedSource struct {
	mu     sync.Mutex
	values []float64
	next   int
}

func newFixedSource(values ...float64) *fixedSource {
	return &fixedSource{values: values}
}

func (f *fixedSource) Float64() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.values[f.next%len(f.values)]
	f.next++
	return v
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Publish(evt models.Notification) bool {
	args := m.Called(evt)
	return args.Bool(0)
}

type failingLedger struct{}

func (failingLedger) SettleWager(context.Context, *models.Wager) (*models.Account, error) {
	return nil, fmt.Errorf("%w: connection refused", svcerr.ErrStorageUnavailable)
}

func setupEngine(t *testing.T, rng services.RandomSource, balance models.Money) (*services.GameEngine, *store.Memory, *mockNotifier, uuid.UUID) {
	t.Helper()

	ledger := store.NewMemory()
	account := &models.Account{
		ID:        uuid.New(),
		Username:  "player",
		Email:     "player@example.com",
		Balance:   balance,
		CreatedAt: time.Now(),
	}
	require.NoError(t, ledger.CreateAccount(context.Background(), account))

	notifier := &mockNotifier{}
	engine := services.NewGameEngine(ledger, rng, notifier, zaptest.NewLogger(t), maxBet)

	return engine, ledger, notifier, account.ID
}

func TestCrashPoint(t *testing.T) {
	assert.Equal(t, models.Multiplier(100), services.CrashPoint(0))
	assert.Equal(t, models.Multiplier(100), services.CrashPoint(0.005))
	assert.Equal(t, models.Multiplier(150), services.CrashPoint(0.3422))

	rng := services.NewSeededSource(7)
	for i := 0; i < 100000; i++ {
		if point := services.CrashPoint(rng.Float64()); point < 100 {
			t.Fatalf("crash point %s below 1.00", point)
		}
	}
}

func TestCrashWinRateMatchesHouseEdge(t *testing.T) {
	const trials = 200000

	rng := services.NewSeededSource(42)
	draws := make([]float64, trials)
	for i := range draws {
		draws[i] = rng.Float64()
	}

	targets := []struct {
		target    models.Multiplier
		tolerance float64
	}{
		{target: 150, tolerance: 0.01},
		{target: 200, tolerance: 0.01},
		{target: 1000, tolerance: 0.005},
	}

	for _, tt := range targets {
		wins := 0
		for _, u := range draws {
			if services.CrashPoint(u) >= tt.target {
				wins++
			}
		}

		expected := 0.99 / tt.target.Decimal().InexactFloat64()
		rate := float64(wins) / trials
		assert.InDelta(t, expected, rate, tt.tolerance, "target %s", tt.target)
	}
}

func TestCoinflipWinRate(t *testing.T) {
	const trials = 200000

	rng := services.NewSeededSource(99)
	heads := 0
	for i := 0; i < trials; i++ {
		if services.CoinSide(rng.Float64()) == models.SideHeads {
			heads++
		}
	}

	assert.InDelta(t, 0.5, float64(heads)/trials, 0.01)
}

func TestCoinflipWinScenario(t *testing.T) {
	engine, ledger, notifier, accountID := setupEngine(t, newFixedSource(0.1), 10000)
	notifier.On("Publish", models.Notification{
		Username: "player",
		Profit:   2000,
		Game:     "Coinflip",
	}).Return(true).Once()

	resp, err := engine.PlayCoinflip(context.Background(), accountID, models.CoinflipRequest{
		BetAmount: 2000,
		Choice:    models.SideHeads,
	})
	require.NoError(t, err)

	assert.Equal(t, models.SideHeads, resp.Result)
	assert.True(t, resp.IsWin)
	assert.Equal(t, models.Money(2000), resp.Profit)
	assert.Equal(t, models.Money(12000), resp.NewBalance)
	notifier.AssertExpectations(t)

	history, err := ledger.ListWagers(context.Background(), accountID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.GameCoinflip, history[0].Game)
	assert.Equal(t, models.SideHeads, history[0].Choice)
	assert.Equal(t, models.SideHeads, history[0].Outcome)
	assert.Equal(t, models.ResultWin, history[0].Result)
}

func TestCrashLossScenario(t *testing.T) {
	engine, ledger, notifier, accountID := setupEngine(t, newFixedSource(0.3422), 10000)

	resp, err := engine.PlayCrash(context.Background(), accountID, models.CrashRequest{
		BetAmount:   5000,
		AutoCashout: 200,
	})
	require.NoError(t, err)

	assert.Equal(t, models.Multiplier(150), resp.CrashPoint)
	assert.Equal(t, models.Multiplier(200), resp.UserTarget)
	assert.False(t, resp.IsWin)
	assert.Equal(t, models.Money(-5000), resp.Profit)
	assert.Equal(t, models.Money(5000), resp.NewBalance)
	notifier.AssertNotCalled(t, "Publish", mock.Anything)

	history, err := ledger.ListWagers(context.Background(), accountID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.ResultLoss, history[0].Result)
	assert.Equal(t, models.Multiplier(150), history[0].CrashPoint)
}

func TestCrashWinPaysTargetMultiplier(t *testing.T) {
	engine, _, notifier, accountID := setupEngine(t, newFixedSource(0.9), 10000)
	target := models.Multiplier(250)
	notifier.On("Publish", models.Notification{
		Username:   "player",
		Profit:     4950,
		Game:       "Crash",
		Multiplier: &target,
	}).Return(true).Once()

	resp, err := engine.PlayCrash(context.Background(), accountID, models.CrashRequest{
		BetAmount:   3300,
		AutoCashout: target,
	})
	require.NoError(t, err)

	assert.True(t, resp.IsWin)
	assert.GreaterOrEqual(t, resp.CrashPoint, target)
	assert.Equal(t, models.Money(4950), resp.Profit)
	assert.Equal(t, models.Money(14950), resp.NewBalance)
	notifier.AssertExpectations(t)
}

func TestInsufficientFundsLeavesNoTrace(t *testing.T) {
	for _, req := range []models.BetRequest{
		{Game: models.GameCrash, Amount: 5000, Target: 200},
		{Game: models.GameCoinflip, Amount: 5000, Choice: models.SideTails},
	} {
		t.Run(string(req.Game), func(t *testing.T) {
			engine, ledger, notifier, accountID := setupEngine(t, newFixedSource(0.9), 1000)

			_, err := engine.Settle(context.Background(), accountID, req)
			assert.True(t, svcerr.IsInsufficientFunds(err), "got %v", err)

			balance, err := ledger.GetBalance(context.Background(), accountID)
			require.NoError(t, err)
			assert.Equal(t, models.Money(1000), balance)

			history, err := ledger.ListWagers(context.Background(), accountID, 10)
			require.NoError(t, err)
			assert.Empty(t, history)
			notifier.AssertNotCalled(t, "Publish", mock.Anything)
		})
	}
}

func TestSettleRejectsInvalidWagers(t *testing.T) {
	tests := []struct {
		name string
		req  models.BetRequest
	}{
		{name: "zero amount", req: models.BetRequest{Game: models.GameCoinflip, Amount: 0, Choice: models.SideHeads}},
		{name: "negative amount", req: models.BetRequest{Game: models.GameCoinflip, Amount: -100, Choice: models.SideHeads}},
		{name: "above max bet", req: models.BetRequest{Game: models.GameCoinflip, Amount: maxBet + 1, Choice: models.SideHeads}},
		{name: "unknown game", req: models.BetRequest{Game: "roulette", Amount: 100}},
		{name: "bad side", req: models.BetRequest{Game: models.GameCoinflip, Amount: 100, Choice: "edge"}},
		{name: "target too low", req: models.BetRequest{Game: models.GameCrash, Amount: 100, Target: 100}},
		{name: "target too high", req: models.BetRequest{Game: models.GameCrash, Amount: 100, Target: models.MaxCrashTarget + 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, ledger, _, accountID := setupEngine(t, newFixedSource(0.5), 10000)

			_, err := engine.Settle(context.Background(), accountID, tt.req)
			assert.True(t, svcerr.IsInvalidWager(err), "got %v", err)

			balance, err := ledger.GetBalance(context.Background(), accountID)
			require.NoError(t, err)
			assert.Equal(t, models.Money(10000), balance)
		})
	}
}

func TestBalanceMovesByProfit(t *testing.T) {
	engine, ledger, notifier, accountID := setupEngine(t, services.NewSeededSource(1), 100000000)
	notifier.On("Publish", mock.Anything).Return(true)

	ctx := context.Background()
	for i := 0; i < 500; i++ {
		before, err := ledger.GetBalance(ctx, accountID)
		require.NoError(t, err)

		req := models.BetRequest{Game: models.GameCoinflip, Amount: models.Money(100 + i), Choice: models.SideTails}
		if i%2 == 0 {
			req = models.BetRequest{Game: models.GameCrash, Amount: models.Money(100 + i), Target: models.Multiplier(101 + i)}
		}

		settlement, err := engine.Settle(ctx, accountID, req)
		require.NoError(t, err)

		wager := settlement.Wager
		assert.Equal(t, before+wager.Profit, settlement.NewBalance)

		switch wager.Game {
		case models.GameCoinflip:
			if wager.IsWin() {
				assert.Equal(t, req.Amount, wager.Profit)
			} else {
				assert.Equal(t, -req.Amount, wager.Profit)
			}
		case models.GameCrash:
			assert.Equal(t, wager.CrashPoint >= req.Target, wager.IsWin())
			if wager.IsWin() {
				assert.Equal(t, req.Amount.MulFloor(req.Target)-req.Amount, wager.Profit)
			} else {
				assert.Equal(t, -req.Amount, wager.Profit)
			}
		}
	}
}

func TestConcurrentWagersSettleExactlyAffordableCount(t *testing.T) {
	const (
		bet        = models.Money(1000)
		affordable = 7
		attempts   = 50
	)

	// A draw of 0 crashes at 1.00x, so every settled wager loses its stake.
	engine, ledger, _, accountID := setupEngine(t, newFixedSource(0), bet*affordable)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		settled  int
		rejected int
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := engine.Settle(context.Background(), accountID, models.BetRequest{
				Game:   models.GameCrash,
				Amount: bet,
				Target: 200,
			})

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				settled++
			} else if svcerr.IsInsufficientFunds(err) {
				rejected++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, affordable, settled)
	assert.Equal(t, attempts-affordable, rejected)

	balance, err := ledger.GetBalance(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, models.Money(0), balance)
}

func TestDroppedNotificationDoesNotFailSettlement(t *testing.T) {
	engine, _, notifier, accountID := setupEngine(t, newFixedSource(0.1), 10000)
	notifier.On("Publish", mock.Anything).Return(false).Once()

	resp, err := engine.PlayCoinflip(context.Background(), accountID, models.CoinflipRequest{
		BetAmount: 1000,
		Choice:    models.SideHeads,
	})
	require.NoError(t, err)
	assert.True(t, resp.IsWin)
	assert.Equal(t, models.Money(11000), resp.NewBalance)
	notifier.AssertExpectations(t)
}

func TestStorageFailureSurfaces(t *testing.T) {
	notifier := &mockNotifier{}
	engine := services.NewGameEngine(failingLedger{}, newFixedSource(0.1), notifier, zaptest.NewLogger(t), maxBet)

	_, err := engine.PlayCoinflip(context.Background(), uuid.New(), models.CoinflipRequest{
		BetAmount: 1000,
		Choice:    models.SideHeads,
	})
	assert.True(t, svcerr.IsStorage(err), "got %v", err)
	notifier.AssertNotCalled(t, "Publish", mock.Anything)
}
