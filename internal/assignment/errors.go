package assignment

import "errors"

var (
	ErrNotFound            = errors.New("assignment not found")
	ErrAttemptLimitReached = errors.New("attempt limit reached")
	ErrAlreadyCompleted    = errors.New("already completed")
	ErrExpired             = errors.New("assignment expired")
	ErrNotStarted          = errors.New("must start before submit")
	ErrTimeLimitExceeded   = errors.New("time limit exceeded")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrNoCandidates        = errors.New("no candidates given")
)
