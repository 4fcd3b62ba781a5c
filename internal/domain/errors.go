package domain

import "errors"

var (
	ErrUnauthenticated    = errors.New("sign in required")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateAccount   = errors.New("email already registered")
	ErrAlreadyVoted       = errors.New("already voted")
	ErrClubFull           = errors.New("club is full")
	ErrConflict           = errors.New("record changed concurrently")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrValidation         = errors.New("validation failed")
	ErrUnknownAction      = errors.New("unknown action")
)
