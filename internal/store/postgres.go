package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"betting-backend/internal/config"
	"betting-backend/internal/models"
	"betting-backend/internal/svcerr"
)

const (
	uniqueViolation        = "23505"
	numericValueOutOfRange = "22003"
)

const accountColumns = `id, username, email, password_hash, balance, is_admin, created_at`

type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgresWithPool(db *pgxpool.Pool) *Postgres {
	return &Postgres{
		db: db,
	}
}

func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return NewPostgresWithPool(pool), nil
}

func (p *Postgres) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, username, email, password_hash, balance, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := p.db.Exec(ctx, query,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		int64(account.Balance),
		account.IsAdmin,
		account.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("email %s: %w", account.Email, svcerr.ErrConflict)
		}
		return storageErr("create account", err)
	}

	return nil
}

func (p *Postgres) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(p.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, accountNotFound(id)
		}
		return nil, storageErr("get account", err)
	}

	return account, nil
}

func (p *Postgres) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	account, err := scanAccount(p.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("email %s: %w", email, svcerr.ErrNotFound)
		}
		return nil, storageErr("get account by email", err)
	}

	return account, nil
}

func (p *Postgres) GetBalance(ctx context.Context, id uuid.UUID) (models.Money, error) {
	var balance int64

	err := p.db.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, accountNotFound(id)
		}
		return 0, storageErr("get balance", err)
	}

	return models.Money(balance), nil
}

// SettleWager applies the wager's profit with a conditional update that only
// matches while the balance covers the bet, then appends the history row in
// the same transaction. Concurrent settlements for one account serialize on
// the row lock taken by the UPDATE and each re-evaluates the condition
// against the committed balance.
func (p *Postgres) SettleWager(ctx context.Context, wager *models.Wager) (*models.Account, error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storageErr("begin settlement", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	update := `
		UPDATE accounts SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 AND balance >= $3
		RETURNING ` + accountColumns

	account, err := scanAccount(tx.QueryRow(ctx, update, wager.AccountID, int64(wager.Profit), int64(wager.BetAmount)))
	if err != nil {
		if isOutOfRange(err) {
			return nil, balanceOverflow(wager.AccountID)
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, storageErr("apply wager", err)
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, wager.AccountID).Scan(&exists); err != nil {
			return nil, storageErr("check account", err)
		}
		if !exists {
			return nil, accountNotFound(wager.AccountID)
		}
		return nil, insufficientFunds(wager.AccountID, wager.BetAmount)
	}

	insert := `
		INSERT INTO wagers (id, account_id, game, bet_amount, target, choice, crash_point, outcome, profit, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = tx.Exec(ctx, insert,
		wager.ID,
		wager.AccountID,
		string(wager.Game),
		int64(wager.BetAmount),
		int64(wager.Target),
		string(wager.Choice),
		int64(wager.CrashPoint),
		string(wager.Outcome),
		int64(wager.Profit),
		string(wager.Result),
		wager.CreatedAt,
	)
	if err != nil {
		return nil, storageErr("append wager", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr("commit settlement", err)
	}

	return account, nil
}

func (p *Postgres) Credit(ctx context.Context, id uuid.UUID, amount models.Money) (*models.Account, error) {
	query := `
		UPDATE accounts SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	account, err := scanAccount(p.db.QueryRow(ctx, query, id, int64(amount)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, accountNotFound(id)
		}
		if isOutOfRange(err) {
			return nil, balanceOverflow(id)
		}
		return nil, storageErr("credit", err)
	}

	return account, nil
}

func (p *Postgres) ListWagers(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Wager, error) {
	query := `
		SELECT id, account_id, game, bet_amount, target, choice, crash_point, outcome, profit, result, created_at
		FROM wagers
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := p.db.Query(ctx, query, accountID, ClampLimit(limit))
	if err != nil {
		return nil, storageErr("list wagers", err)
	}
	defer rows.Close()

	var resp []models.Wager
	for rows.Next() {
		var (
			w                                    models.Wager
			game, choice, outcome, result        string
			bet, target, crashPoint, profitCents int64
		)

		if err := rows.Scan(&w.ID, &w.AccountID, &game, &bet, &target, &choice, &crashPoint, &outcome, &profitCents, &result, &w.CreatedAt); err != nil {
			return nil, storageErr("scan wager", err)
		}

		w.Game = models.GameKind(game)
		w.BetAmount = models.Money(bet)
		w.Target = models.Multiplier(target)
		w.Choice = models.Side(choice)
		w.CrashPoint = models.Multiplier(crashPoint)
		w.Outcome = models.Side(outcome)
		w.Profit = models.Money(profitCents)
		w.Result = models.Result(result)

		resp = append(resp, w)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list wagers", err)
	}

	return resp, nil
}

func (p *Postgres) ListAccounts(ctx context.Context) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at ASC, id ASC`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, storageErr("list accounts", err)
	}
	defer rows.Close()

	var resp []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, storageErr("scan account", err)
		}
		resp = append(resp, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list accounts", err)
	}

	return resp, nil
}

func (p *Postgres) Stats(ctx context.Context) (*models.HouseStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM accounts),
			COUNT(*),
			COALESCE(-SUM(profit), 0)::BIGINT
		FROM wagers
	`

	var stats models.HouseStats
	var profit int64
	if err := p.db.QueryRow(ctx, query).Scan(&stats.Users, &stats.Games, &profit); err != nil {
		return nil, storageErr("stats", err)
	}
	stats.Profit = models.Money(profit)

	return &stats, nil
}

func (p *Postgres) Close() {
	p.db.Close()
}

func isOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == numericValueOutOfRange
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var (
		account models.Account
		balance int64
	)

	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&balance,
		&account.IsAdmin,
		&account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	account.Balance = models.Money(balance)

	return &account, nil
}
