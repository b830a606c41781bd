package repository

import (
	"context"
	"errors"
)

var (
	ErrRefreshTokenNotFound  = errors.New("refresh token not found")
	ErrDuplicateRefreshToken = errors.New("a valid refresh token already exists for this user and device")
)

// IsExpected reports store answers that are not outages. A caller that hung
// up is not a store failure; a deadline still counts against the store.
func IsExpected(err error) bool {
	return errors.Is(err, ErrRefreshTokenNotFound) ||
		errors.Is(err, ErrDuplicateRefreshToken) ||
		errors.Is(err, context.Canceled)
}
