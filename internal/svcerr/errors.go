package svcerr

import "errors"

var (
	ErrInvalidWager       = errors.New("invalid wager")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrBadField           = errors.New("bad field")
)

func IsInvalidWager(err error) bool {
	return errors.Is(err, ErrInvalidWager)
}

func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

func IsStorage(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsBadRequest reports whether err is a caller mistake that left no state behind.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadField) || IsInvalidWager(err) || IsInsufficientFunds(err)
}
