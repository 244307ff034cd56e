package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betting-backend/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", DriverMemory)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, models.Money(100000), cfg.StartingBalance)
	assert.Equal(t, models.Money(10000000), cfg.MaxBet)
	assert.Equal(t, 256, cfg.Notify.QueueSize)
	assert.Equal(t, "betting:big_wins", cfg.Redis.Channel)
	assert.False(t, cfg.IsProduction())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_DRIVER", DriverMemory)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadValidatesDriver(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name:    "postgres without database",
			env:     map[string]string{"STORE_DRIVER": DriverPostgres},
			wantErr: true,
		},
		{
			name:    "postgres with url",
			env:     map[string]string{"STORE_DRIVER": DriverPostgres, "DATABASE_URL": "postgres://u:p@db/bets"},
			wantErr: false,
		},
		{
			name:    "redis without addr",
			env:     map[string]string{"STORE_DRIVER": DriverRedis},
			wantErr: true,
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"STORE_DRIVER": "sqlite"},
			wantErr: true,
		},
		{
			name:    "bad starting balance",
			env:     map[string]string{"STORE_DRIVER": DriverMemory, "STARTING_BALANCE": "1.001"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "secret")
			t.Setenv("DATABASE_URL", "")
			t.Setenv("DATABASE_NAME", "")
			t.Setenv("REDIS_ADDR", "")
			t.Setenv("STARTING_BALANCE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     5432,
		Username: "bets",
		Password: "pw",
		Name:     "betting",
		SSLMode:  "disable",
	}
	assert.Equal(t, "postgres://bets:pw@db:5432/betting?sslmode=disable", cfg.DSN())

	cfg.URL = "postgres://override"
	assert.Equal(t, "postgres://override", cfg.DSN())
}
