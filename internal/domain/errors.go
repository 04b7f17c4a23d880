package domain

import (
	"errors"
	"fmt"
)

// Every failure of a room event belongs to exactly one of these kinds.
var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrAuthorization = errors.New("not authorized")
	ErrPersistence   = errors.New("persistence error")
)

func Validation(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Unauthorizedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAuthorization, fmt.Sprintf(format, args...))
}

// Persistence wraps a store failure. Errors that are already classified
// pass through unchanged.
func Persistence(op string, err error) error {
	if err == nil || Kind(err) != nil {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// Kind returns the sentinel an error was classified with, or nil.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrNotFound, ErrAuthorization, ErrPersistence} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
