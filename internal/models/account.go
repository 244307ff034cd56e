package models

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Balance      Money     `json:"balance"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string   `json:"token"`
	User  *Account `json:"user"`
}

type CreditRequest struct {
	UserID uuid.UUID `json:"userId" binding:"required"`
	Amount Money     `json:"amount"`
}

// HouseStats is the operator's view of the platform. Profit is the house's
// take, the negated sum of every wager's profit.
type HouseStats struct {
	Users  int64 `json:"users"`
	Games  int64 `json:"games"`
	Profit Money `json:"profit"`
}
