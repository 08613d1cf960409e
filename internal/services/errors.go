package services

import "errors"

var (
	ErrNoNumbersAvailable         = errors.New("no numbers available for the draw")
	ErrNoPrizesAvailable          = errors.New("every prize already has a winner")
	ErrIllegalLifecycleTransition = errors.New("operation not allowed in the current raffle phase")
	ErrInvalidConfiguration       = errors.New("invalid raffle configuration")

	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicatePrize    = errors.New("prize already exists")
	ErrPrizeClaimed      = errors.New("prize already has a winner")
	ErrNumberUnavailable = errors.New("number is not available")
	ErrNotFound          = errors.New("not found")
	ErrRaffleNotFound    = errors.New("raffle not found")
)
