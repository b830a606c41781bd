package domain

import "time"

// RefreshToken is a persisted refresh-token record. Token is immutable once
// created; IsValid only ever flips from true to false.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	IsValid   bool
	DeviceID  string
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Query is an equality filter over refresh-token records. Nil pointers and an
// empty UserID match anything.
type Query struct {
	UserID   string
	IsValid  *bool
	DeviceID *string
	Token    *string
}

func (q Query) Matches(t RefreshToken) bool {
	if q.UserID != "" && t.UserID != q.UserID {
		return false
	}
	if q.IsValid != nil && t.IsValid != *q.IsValid {
		return false
	}
	if q.DeviceID != nil && t.DeviceID != *q.DeviceID {
		return false
	}
	if q.Token != nil && t.Token != *q.Token {
		return false
	}
	return true
}

// Patch lists the mutable fields of a record.
type Patch struct {
	IsValid *bool
}

// Fields renders the record the way clients see it: the token value under
// entityField and the record id under idField.
func (t RefreshToken) Fields(entityField, idField string) map[string]any {
	out := map[string]any{
		idField:     t.ID,
		"userId":    t.UserID,
		entityField: t.Token,
		"isValid":   t.IsValid,
		"createdAt": t.CreatedAt,
		"updatedAt": t.UpdatedAt,
	}
	if t.DeviceID != "" {
		out["deviceId"] = t.DeviceID
	}
	if t.Location != "" {
		out["location"] = t.Location
	}
	return out
}

func Bool(v bool) *bool { return &v }

func String(v string) *string { return &v }
