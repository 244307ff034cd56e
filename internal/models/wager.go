package models

import (
	"time"

	"github.com/google/uuid"
)

// Wager is the immutable history record of one settled bet.
type Wager struct {
	ID         uuid.UUID  `json:"id"`
	AccountID  uuid.UUID  `json:"accountId"`
	Game       GameKind   `json:"game"`
	BetAmount  Money      `json:"betAmount"`
	Target     Multiplier `json:"target,omitempty"`
	Choice     Side       `json:"choice,omitempty"`
	CrashPoint Multiplier `json:"crashPoint,omitempty"`
	Outcome    Side       `json:"outcome,omitempty"`
	Profit     Money      `json:"profit"`
	Result     Result     `json:"result"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (w *Wager) IsWin() bool {
	return w.Result == ResultWin
}

// BetRequest carries one wager into settlement. Target applies to crash,
// Choice to coinflip.
type BetRequest struct {
	Game   GameKind
	Amount Money
	Target Multiplier
	Choice Side
}

type Settlement struct {
	Wager      *Wager
	NewBalance Money
}

// Notification is broadcast to every viewer when a wager wins.
type Notification struct {
	Username   string      `json:"username"`
	Profit     Money       `json:"profit"`
	Game       string      `json:"game"`
	Multiplier *Multiplier `json:"multiplier,omitempty"`
}
