// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxUsernameLen = 64
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

type UserID string

// User is a read-only view of an account owned by the auth service.
type User struct {
	ID         UserID `json:"id"`
	Username   string `json:"username"`
	ProfilePic string `json:"profilePic"`
	Email      string `json:"email"`
}

func ParseUserID(raw string) (UserID, error) {
	if _, err := uuid.Parse(raw); err != nil {
		return "", Validationf("malformed user id %q", raw)
	}
	return UserID(raw), nil
}

func ValidateUsername(name string) error {
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		return Validation(ErrUsernameEmpty)
	}
	if len(name) > MaxUsernameLen {
		return Validation(ErrUsernameTooLong)
	}
	return nil
}
