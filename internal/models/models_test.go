package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betting-backend/internal/models"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    models.Money
		wantErr bool
	}{
		{in: "1000", want: 100000},
		{in: "12.5", want: 1250},
		{in: " 0.01 ", want: 1},
		{in: "-20.00", want: -2000},
		{in: "1.005", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "99999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		got, err := models.ParseMoney(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestMoneyJSON(t *testing.T) {
	var req models.CrashRequest
	require.NoError(t, json.Unmarshal([]byte(`{"betAmount": 50, "autoCashout": "2.5"}`), &req))
	assert.Equal(t, models.Money(5000), req.BetAmount)
	assert.Equal(t, models.Multiplier(250), req.AutoCashout)

	err := json.Unmarshal([]byte(`{"betAmount": 0.001}`), &req)
	assert.Error(t, err)

	out, err := json.Marshal(models.CoinflipResponse{
		Result:     models.SideHeads,
		IsWin:      true,
		Profit:     2000,
		NewBalance: 12000,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":"heads","isWin":true,"profit":20.00,"newBalance":120.00}`, string(out))
}

func TestMoneyMulFloor(t *testing.T) {
	assert.Equal(t, models.Money(10000), models.Money(5000).MulFloor(200))
	assert.Equal(t, models.Money(82), models.Money(33).MulFloor(250))
	assert.Equal(t, models.Money(101), models.Money(100).MulFloor(101))
}

func TestGameKindDisplayName(t *testing.T) {
	assert.Equal(t, "Crash", models.GameCrash.DisplayName())
	assert.Equal(t, "Coinflip", models.GameCoinflip.DisplayName())
	assert.True(t, models.SideTails.Valid())
	assert.False(t, models.Side("edge").Valid())
}
