package domain

import "errors"

// Domain errors
var (
	ErrInvalidSeed       = errors.New("invalid seed")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidInput      = errors.New("invalid input")
	ErrAlreadyRunning    = errors.New("transfer loop already running")
	ErrInternalError     = errors.New("internal error")
)

// Validation constants
const (
	MaxSeedsPerRequest = 1000
)
