package models

type GameKind string

const (
	GameCrash    GameKind = "crash"
	GameCoinflip GameKind = "coinflip"
)

// DisplayName is the label shown to viewers of the win feed.
func (g GameKind) DisplayName() string {
	switch g {
	case GameCrash:
		return "Crash"
	case GameCoinflip:
		return "Coinflip"
	default:
		return string(g)
	}
}

type Side string

const (
	SideHeads Side = "heads"
	SideTails Side = "tails"
)

func (s Side) Valid() bool {
	return s == SideHeads || s == SideTails
}

type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
)

const (
	MinCrashTarget Multiplier = 101       // 1.01x
	MaxCrashTarget Multiplier = 100000000 // 1,000,000.00x
)

type CrashRequest struct {
	BetAmount   Money      `json:"betAmount"`
	AutoCashout Multiplier `json:"autoCashout"`
}

type CrashResponse struct {
	CrashPoint Multiplier `json:"crashPoint"`
	UserTarget Multiplier `json:"userTarget"`
	IsWin      bool       `json:"isWin"`
	Profit     Money      `json:"profit"`
	NewBalance Money      `json:"newBalance"`
}

type CoinflipRequest struct {
	BetAmount Money `json:"betAmount"`
	Choice    Side  `json:"choice"`
}

type CoinflipResponse struct {
	Result     Side  `json:"result"`
	IsWin      bool  `json:"isWin"`
	Profit     Money `json:"profit"`
	NewBalance Money `json:"newBalance"`
}
