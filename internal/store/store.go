// Package store persists accounts and the wager history. Every driver
// implements SettleWager as a single atomic primitive: the balance moves by
// the wager's profit only while the balance still covers the bet, and the
// history record is appended in the same unit of work.
package store

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"betting-backend/internal/models"
	"betting-backend/internal/svcerr"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

type Store interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetBalance(ctx context.Context, id uuid.UUID) (models.Money, error)
	SettleWager(ctx context.Context, wager *models.Wager) (*models.Account, error)
	Credit(ctx context.Context, id uuid.UUID, amount models.Money) (*models.Account, error)
	ListWagers(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Wager, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	Stats(ctx context.Context) (*models.HouseStats, error)
	Close()
}

// ClampLimit bounds a history page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, svcerr.ErrStorageUnavailable, err)
}

func accountNotFound(id uuid.UUID) error {
	return fmt.Errorf("account %s: %w", id, svcerr.ErrNotFound)
}

func insufficientFunds(id uuid.UUID, bet models.Money) error {
	return fmt.Errorf("account %s cannot cover %s: %w", id, bet, svcerr.ErrInsufficientFunds)
}

func balanceOverflow(id uuid.UUID) error {
	return fmt.Errorf("account %s: %w: balance out of range", id, svcerr.ErrBadField)
}

// addOverflows reports whether balance+delta leaves the int64 range.
func addOverflows(balance, delta models.Money) bool {
	if delta > 0 {
		return balance > math.MaxInt64-delta
	}
	return balance < math.MinInt64-delta
}
