package model

import "errors"

// Common errors used across the application
var (
	// Input errors
	ErrInvalidUserID       = errors.New("user id is required")
	ErrInvalidTournamentID = errors.New("tournament id is required")
	ErrInvalidCapacity     = errors.New("invalid tournament capacity")
	ErrInvalidMode         = errors.New("invalid registration mode")

	// Tournament errors
	ErrTournamentNotFound = errors.New("tournament not found")

	// Lottery errors
	ErrLotteryInProgress   = errors.New("lottery in progress")
	ErrLotteryAlreadyDrawn = errors.New("lottery already drawn")
	ErrLotteryNotDrawn     = errors.New("lottery has not been drawn")

	// Queue errors
	ErrQueueFull    = errors.New("registration queue is full")
	ErrNotInQueue   = errors.New("user is not in the queue")
	ErrInvalidBatch = errors.New("batch size must be positive")

	// Ledger errors
	ErrOverCapacity = errors.New("registrations would exceed capacity")
)
