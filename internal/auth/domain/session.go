package domain

import "time"

// RevokedSession marks an access token (by jti) as terminated until it would
// have expired on its own.
type RevokedSession struct {
	JTI       string
	UserID    string
	ExpiresAt time.Time
}
