package daily

import "errors"

var (
	ErrValidation  = errors.New("invalid daily answer")
	ErrUnavailable = errors.New("daily questions are not available yet")
)
