package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"betting-backend/internal/models"
	"betting-backend/internal/svcerr"
)

const (
	keyAccount        = "account:%s"
	keyAccountEmail   = "account:email:%s"
	keyAccountWagers  = "account:%s:wagers"
	keyAccounts       = "accounts"
	keyWager          = "wager:%s"
	keyStatsGames     = "stats:games"
	keyStatsHouseTake = "stats:house_profit"

	replyAccountNotFound = "account not found"
	replyInsufficient    = "insufficient funds"
	replyEmailTaken      = "email taken"
	replyOverflow        = "would overflow"
)

var createAccountScript = redis.NewScript(`
	if redis.call("SETNX", KEYS[1], ARGV[1]) == 0 then
		return redis.error_reply("email taken")
	end

	redis.call("HSET", KEYS[2],
		"id", ARGV[1],
		"username", ARGV[2],
		"email", ARGV[3],
		"password_hash", ARGV[4],
		"balance", ARGV[5],
		"is_admin", ARGV[6],
		"created_at", ARGV[7])
	redis.call("ZADD", KEYS[3], ARGV[7], ARGV[1])

	return "OK"
`)

// settleScript is the whole settlement: the funds check, the balance move and
// the history append run inside one script, so no other command can observe
// or interleave with a half-applied wager.
var settleScript = redis.NewScript(`
	local balance = redis.call("HGET", KEYS[1], "balance")
	if not balance then
		return redis.error_reply("account not found")
	end

	if tonumber(balance) < tonumber(ARGV[1]) then
		return redis.error_reply("insufficient funds")
	end

	local updated = redis.call("HINCRBY", KEYS[1], "balance", ARGV[2])
	redis.call("SET", KEYS[2], ARGV[3])
	redis.call("ZADD", KEYS[3], ARGV[4], ARGV[5])
	redis.call("INCR", KEYS[4])
	redis.call("DECRBY", KEYS[5], ARGV[2])

	return {updated, redis.call("HGET", KEYS[1], "username")}
`)

var creditScript = redis.NewScript(`
	if redis.call("EXISTS", KEYS[1]) == 0 then
		return redis.error_reply("account not found")
	end

	return redis.call("HINCRBY", KEYS[1], "balance", ARGV[1])
`)

// Redis stores accounts as hashes and wagers as JSON strings indexed by a
// per-account sorted set. It assumes a single Redis instance.
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func (r *Redis) CreateAccount(ctx context.Context, account *models.Account) error {
	isAdmin := "0"
	if account.IsAdmin {
		isAdmin = "1"
	}

	keys := []string{
		fmt.Sprintf(keyAccountEmail, account.Email),
		fmt.Sprintf(keyAccount, account.ID),
		keyAccounts,
	}

	err := createAccountScript.Run(ctx, r.client, keys,
		account.ID.String(),
		account.Username,
		account.Email,
		account.PasswordHash,
		int64(account.Balance),
		isAdmin,
		account.CreatedAt.UnixNano(),
	).Err()
	if err != nil {
		if isReply(err, replyEmailTaken) {
			return fmt.Errorf("email %s: %w", account.Email, svcerr.ErrConflict)
		}
		return storageErr("create account", err)
	}

	return nil
}

func (r *Redis) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	fields, err := r.client.HGetAll(ctx, fmt.Sprintf(keyAccount, id)).Result()
	if err != nil {
		return nil, storageErr("get account", err)
	}
	if len(fields) == 0 {
		return nil, accountNotFound(id)
	}

	account, err := accountFromHash(fields)
	if err != nil {
		return nil, storageErr("decode account", err)
	}

	return account, nil
}

func (r *Redis) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	raw, err := r.client.Get(ctx, fmt.Sprintf(keyAccountEmail, email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("email %s: %w", email, svcerr.ErrNotFound)
		}
		return nil, storageErr("get account by email", err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, storageErr("decode account id", err)
	}

	return r.GetAccount(ctx, id)
}

func (r *Redis) GetBalance(ctx context.Context, id uuid.UUID) (models.Money, error) {
	balance, err := r.client.HGet(ctx, fmt.Sprintf(keyAccount, id), "balance").Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, accountNotFound(id)
		}
		return 0, storageErr("get balance", err)
	}

	return models.Money(balance), nil
}

func (r *Redis) SettleWager(ctx context.Context, wager *models.Wager) (*models.Account, error) {
	data, err := json.Marshal(wager)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wager: %w", err)
	}

	keys := []string{
		fmt.Sprintf(keyAccount, wager.AccountID),
		fmt.Sprintf(keyWager, wager.ID),
		fmt.Sprintf(keyAccountWagers, wager.AccountID),
		keyStatsGames,
		keyStatsHouseTake,
	}

	res, err := settleScript.Run(ctx, r.client, keys,
		int64(wager.BetAmount),
		int64(wager.Profit),
		data,
		wager.CreatedAt.UnixNano(),
		wager.ID.String(),
	).Slice()
	if err != nil {
		switch {
		case isReply(err, replyAccountNotFound):
			return nil, accountNotFound(wager.AccountID)
		case isReply(err, replyInsufficient):
			return nil, insufficientFunds(wager.AccountID, wager.BetAmount)
		case isReply(err, replyOverflow):
			return nil, balanceOverflow(wager.AccountID)
		default:
			return nil, storageErr("settle wager", err)
		}
	}

	if len(res) != 2 {
		return nil, storageErr("settle wager", fmt.Errorf("unexpected script reply length %d", len(res)))
	}
	balance, ok := res[0].(int64)
	if !ok {
		return nil, storageErr("settle wager", fmt.Errorf("unexpected balance type %T", res[0]))
	}
	username, _ := res[1].(string)

	return &models.Account{
		ID:       wager.AccountID,
		Username: username,
		Balance:  models.Money(balance),
	}, nil
}

func (r *Redis) Credit(ctx context.Context, id uuid.UUID, amount models.Money) (*models.Account, error) {
	err := creditScript.Run(ctx, r.client, []string{fmt.Sprintf(keyAccount, id)}, int64(amount)).Err()
	if err != nil {
		switch {
		case isReply(err, replyAccountNotFound):
			return nil, accountNotFound(id)
		case isReply(err, replyOverflow):
			return nil, balanceOverflow(id)
		}
		return nil, storageErr("credit", err)
	}

	return r.GetAccount(ctx, id)
}

func (r *Redis) ListWagers(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Wager, error) {
	limit = ClampLimit(limit)

	ids, err := r.client.ZRevRange(ctx, fmt.Sprintf(keyAccountWagers, accountID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, storageErr("list wager ids", err)
	}
	if len(ids) == 0 {
		return []models.Wager{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, fmt.Sprintf(keyWager, id))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, storageErr("list wagers", err)
	}

	wagers := make([]models.Wager, 0, len(ids))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			return nil, storageErr("load wager "+ids[i], err)
		}

		var w models.Wager
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, storageErr("decode wager "+ids[i], err)
		}
		wagers = append(wagers, w)
	}

	return wagers, nil
}

func (r *Redis) ListAccounts(ctx context.Context) ([]models.Account, error) {
	ids, err := r.client.ZRange(ctx, keyAccounts, 0, -1).Result()
	if err != nil {
		return nil, storageErr("list account ids", err)
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, fmt.Sprintf(keyAccount, id))
	}

	if len(ids) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, storageErr("list accounts", err)
		}
	}

	accounts := make([]models.Account, 0, len(ids))
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil {
			return nil, storageErr("load account "+ids[i], err)
		}
		if len(fields) == 0 {
			return nil, storageErr("load account "+ids[i], errors.New("account hash missing"))
		}

		account, err := accountFromHash(fields)
		if err != nil {
			return nil, storageErr("decode account "+ids[i], err)
		}
		accounts = append(accounts, *account)
	}

	return accounts, nil
}

func (r *Redis) Stats(ctx context.Context) (*models.HouseStats, error) {
	pipe := r.client.Pipeline()
	users := pipe.ZCard(ctx, keyAccounts)
	games := pipe.Get(ctx, keyStatsGames)
	profit := pipe.Get(ctx, keyStatsHouseTake)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, storageErr("stats", err)
	}

	stats := &models.HouseStats{Users: users.Val()}
	if n, err := games.Int64(); err == nil {
		stats.Games = n
	}
	if n, err := profit.Int64(); err == nil {
		stats.Profit = models.Money(n)
	}

	return stats, nil
}

func (r *Redis) Close() {}

func isReply(err error, reply string) bool {
	return err != nil && strings.Contains(err.Error(), reply)
}

func accountFromHash(fields map[string]string) (*models.Account, error) {
	id, err := uuid.Parse(fields["id"])
	if err != nil {
		return nil, fmt.Errorf("invalid account id: %w", err)
	}

	balance, err := strconv.ParseInt(fields["balance"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}

	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}

	return &models.Account{
		ID:           id,
		Username:     fields["username"],
		Email:        fields["email"],
		PasswordHash: fields["password_hash"],
		Balance:      models.Money(balance),
		IsAdmin:      fields["is_admin"] == "1",
		CreatedAt:    time.Unix(0, createdAt).UTC(),
	}, nil
}
