package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"betting-backend/internal/metrics"
	"betting-backend/internal/models"
	"betting-backend/internal/svcerr"
)

const houseReturn = 0.99

// Ledger is the atomic settlement primitive of the account store.
type Ledger interface {
	SettleWager(ctx context.Context, wager *models.Wager) (*models.Account, error)
}

// Notifier accepts win notifications without blocking.
type Notifier interface {
	Publish(evt models.Notification) bool
}

type GameEngine struct {
	ledger   Ledger
	rng      RandomSource
	notifier Notifier
	logger   *zap.Logger
	maxBet   models.Money
	now      func() time.Time
}

func NewGameEngine(ledger Ledger, rng RandomSource, notifier Notifier, logger *zap.Logger, maxBet models.Money) *GameEngine {
	return &GameEngine{
		ledger:   ledger,
		rng:      rng,
		notifier: notifier,
		logger:   logger,
		maxBet:   maxBet,
		now:      time.Now,
	}
}

// CrashPoint maps a uniform draw to the round's crash multiplier. The chance
// of reaching m is 0.99/m, which leaves the house a 1% edge at every target.
func CrashPoint(u float64) models.Multiplier {
	point := models.Multiplier(math.Floor(houseReturn / (1 - u) * 100))
	if point < 100 {
		point = 100
	}
	return point
}

func CoinSide(u float64) models.Side {
	if u < 0.5 {
		return models.SideHeads
	}
	return models.SideTails
}

func (ge *GameEngine) PlayCrash(ctx context.Context, accountID uuid.UUID, req models.CrashRequest) (*models.CrashResponse, error) {
	settlement, err := ge.Settle(ctx, accountID, models.BetRequest{
		Game:   models.GameCrash,
		Amount: req.BetAmount,
		Target: req.AutoCashout,
	})
	if err != nil {
		return nil, err
	}

	return &models.CrashResponse{
		CrashPoint: settlement.Wager.CrashPoint,
		UserTarget: settlement.Wager.Target,
		IsWin:      settlement.Wager.IsWin(),
		Profit:     settlement.Wager.Profit,
		NewBalance: settlement.NewBalance,
	}, nil
}

func (ge *GameEngine) PlayCoinflip(ctx context.Context, accountID uuid.UUID, req models.CoinflipRequest) (*models.CoinflipResponse, error) {
	settlement, err := ge.Settle(ctx, accountID, models.BetRequest{
		Game:   models.GameCoinflip,
		Amount: req.BetAmount,
		Choice: req.Choice,
	})
	if err != nil {
		return nil, err
	}

	return &models.CoinflipResponse{
		Result:     settlement.Wager.Outcome,
		IsWin:      settlement.Wager.IsWin(),
		Profit:     settlement.Wager.Profit,
		NewBalance: settlement.NewBalance,
	}, nil
}

// Settle validates the bet, draws its outcome and hands the resulting wager to
// the ledger, which applies it only if the balance still covers the bet. The
// engine never retries: an error means nothing was applied.
func (ge *GameEngine) Settle(ctx context.Context, accountID uuid.UUID, req models.BetRequest) (*models.Settlement, error) {
	if err := ge.validate(req); err != nil {
		metrics.WagerRejections.WithLabelValues("invalid").Inc()
		return nil, err
	}

	wager := ge.resolve(accountID, req)

	start := time.Now()
	account, err := ge.ledger.SettleWager(ctx, wager)
	metrics.SettlementDuration.WithLabelValues(string(req.Game)).Observe(time.Since(start).Seconds())
	if err != nil {
		switch {
		case svcerr.IsInsufficientFunds(err):
			metrics.WagerRejections.WithLabelValues("insufficient_funds").Inc()
		case svcerr.IsNotFound(err):
			metrics.WagerRejections.WithLabelValues("unknown_account").Inc()
		default:
			metrics.WagerRejections.WithLabelValues("storage").Inc()
			ge.logger.Error("wager settlement failed",
				zap.String("account_id", accountID.String()),
				zap.String("game", string(req.Game)),
				zap.Error(err))
		}
		return nil, fmt.Errorf("failed to settle %s wager: %w", req.Game, err)
	}

	metrics.WagersSettled.WithLabelValues(string(wager.Game), string(wager.Result)).Inc()

	if wager.IsWin() {
		ge.announce(account.Username, wager)
	}

	return &models.Settlement{
		Wager:      wager,
		NewBalance: account.Balance,
	}, nil
}

func (ge *GameEngine) validate(req models.BetRequest) error {
	if req.Amount <= 0 {
		return fmt.Errorf("%w: bet amount must be positive", svcerr.ErrInvalidWager)
	}
	if req.Amount > ge.maxBet {
		return fmt.Errorf("%w: maximum bet is %s", svcerr.ErrInvalidWager, ge.maxBet)
	}

	switch req.Game {
	case models.GameCrash:
		if req.Target < models.MinCrashTarget || req.Target > models.MaxCrashTarget {
			return fmt.Errorf("%w: auto cashout must be between %s and %s",
				svcerr.ErrInvalidWager, models.MinCrashTarget, models.MaxCrashTarget)
		}
	case models.GameCoinflip:
		if !req.Choice.Valid() {
			return fmt.Errorf("%w: choice must be %q or %q",
				svcerr.ErrInvalidWager, models.SideHeads, models.SideTails)
		}
	default:
		return fmt.Errorf("%w: unknown game %q", svcerr.ErrInvalidWager, req.Game)
	}

	return nil
}

func (ge *GameEngine) resolve(accountID uuid.UUID, req models.BetRequest) *models.Wager {
	wager := &models.Wager{
		ID:        uuid.New(),
		AccountID: accountID,
		Game:      req.Game,
		BetAmount: req.Amount,
		Result:    models.ResultLoss,
		Profit:    -req.Amount,
		CreatedAt: ge.now().UTC(),
	}

	u := ge.rng.Float64()

	switch req.Game {
	case models.GameCrash:
		wager.Target = req.Target
		wager.CrashPoint = CrashPoint(u)
		if wager.CrashPoint >= req.Target {
			wager.Result = models.ResultWin
			wager.Profit = req.Amount.MulFloor(req.Target) - req.Amount
		}
	case models.GameCoinflip:
		wager.Choice = req.Choice
		wager.Outcome = CoinSide(u)
		if wager.Outcome == req.Choice {
			wager.Result = models.ResultWin
			wager.Profit = req.Amount
		}
	}

	return wager
}

func (ge *GameEngine) announce(username string, wager *models.Wager) {
	evt := models.Notification{
		Username: username,
		Profit:   wager.Profit,
		Game:     wager.Game.DisplayName(),
	}
	if wager.Game == models.GameCrash {
		multiplier := wager.Target
		evt.Multiplier = &multiplier
	}

	if !ge.notifier.Publish(evt) {
		ge.logger.Warn("win notification dropped",
			zap.String("wager_id", wager.ID.String()))
	}
}
