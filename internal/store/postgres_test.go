package store

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// TEST_DATABASE_URL points at a disposable database; its tables are truncated.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	runStoreContract(t, func(t *testing.T) Store {
		_, err := pool.Exec(ctx, "TRUNCATE wagers, accounts")
		require.NoError(t, err)
		return NewPostgresWithPool(pool)
	})
}
