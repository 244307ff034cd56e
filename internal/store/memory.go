package store

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"betting-backend/internal/models"
	"betting-backend/internal/svcerr"
)

// Memory keeps everything in process. Its mutex only orders callers inside
// one process, so it is meant for local development and tests.
type Memory struct {
	mu          sync.Mutex
	accounts    map[uuid.UUID]*models.Account
	byEmail     map[string]uuid.UUID
	wagers      map[uuid.UUID][]models.Wager
	games       int64
	houseProfit models.Money
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[uuid.UUID]*models.Account),
		byEmail:  make(map[string]uuid.UUID),
		wagers:   make(map[uuid.UUID][]models.Wager),
	}
}

func (m *Memory) CreateAccount(ctx context.Context, account *models.Account) error {
	if err := ctx.Err(); err != nil {
		return storageErr("create account", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[account.Email]; ok {
		return fmt.Errorf("email %s: %w", account.Email, svcerr.ErrConflict)
	}

	stored := *account
	m.accounts[account.ID] = &stored
	m.byEmail[account.Email] = account.ID
	return nil
}

func (m *Memory) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("get account", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, accountNotFound(id)
	}
	out := *account
	return &out, nil
}

func (m *Memory) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("get account by email", err)
	}

	m.mu.Lock()
	id, ok := m.byEmail[email]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("email %s: %w", email, svcerr.ErrNotFound)
	}

	return m.GetAccount(ctx, id)
}

func (m *Memory) GetBalance(ctx context.Context, id uuid.UUID) (models.Money, error) {
	account, err := m.GetAccount(ctx, id)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func (m *Memory) SettleWager(ctx context.Context, wager *models.Wager) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("settle wager", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[wager.AccountID]
	if !ok {
		return nil, accountNotFound(wager.AccountID)
	}
	if account.Balance < wager.BetAmount {
		return nil, insufficientFunds(wager.AccountID, wager.BetAmount)
	}
	if addOverflows(account.Balance, wager.Profit) {
		return nil, balanceOverflow(wager.AccountID)
	}

	account.Balance += wager.Profit
	m.wagers[wager.AccountID] = append(m.wagers[wager.AccountID], *wager)
	m.games++
	m.houseProfit -= wager.Profit

	out := *account
	return &out, nil
}

func (m *Memory) Credit(ctx context.Context, id uuid.UUID, amount models.Money) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("credit", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, accountNotFound(id)
	}
	if addOverflows(account.Balance, amount) {
		return nil, balanceOverflow(id)
	}
	account.Balance += amount

	out := *account
	return &out, nil
}

func (m *Memory) ListWagers(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Wager, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("list wagers", err)
	}
	limit = ClampLimit(limit)

	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.wagers[accountID]
	out := make([]models.Wager, 0, min(limit, len(history)))
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, history[i])
	}
	return out, nil
}

func (m *Memory) ListAccounts(ctx context.Context) ([]models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("list accounts", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		out = append(out, *account)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

func (m *Memory) Stats(ctx context.Context) (*models.HouseStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("stats", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return &models.HouseStats{
		Users:  int64(len(m.accounts)),
		Games:  m.games,
		Profit: m.houseProfit,
	}, nil
}

func (m *Memory) Close() {}
