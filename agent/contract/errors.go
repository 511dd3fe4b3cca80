package contract

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")

	// ErrRecoverable marks provider failures the retry executor may retry:
	// value errors and transport errors. Anything else propagates immediately.
	ErrRecoverable = errors.New("recoverable provider failure")
)

// Recoverablef builds an error in the retryable class.
func Recoverablef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrRecoverable}, args...)...)
}
