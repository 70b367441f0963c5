package interview

import "errors"

var (
	ErrNotFound     = errors.New("session not found")
	ErrInvalidState = errors.New("invalid session state")
	ErrValidation   = errors.New("invalid request")
	ErrInFlight     = errors.New("answer already being processed")
)
