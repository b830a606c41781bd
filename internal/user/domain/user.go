package domain

import "time"

type ID string

// User is an entry of the directory the local strategy authenticates
// against. PasswordHash never leaves the service.
type User struct {
	ID           ID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Fields renders the user as an authentication result entity with its id
// under idField.
func (u User) Fields(idField string) map[string]any {
	return map[string]any{
		idField:     string(u.ID),
		"username":  u.Username,
		"createdAt": u.CreatedAt,
	}
}
