package service

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// stringValue renders ids and tokens that arrive as JSON strings or numbers.
func stringValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case fmt.Stringer:
		s := t.String()
		return s, s != ""
	}
	return "", false
}

func field(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m[key]
	if !ok {
		return "", false
	}
	return stringValue(v)
}

func hasField(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	_, ok := m[key]
	return ok
}

// userIDFromResult reads result[userEntity][userEntityId], falling back to
// the bare result[userEntityId].
func userIDFromResult(result map[string]any, opts Options) (string, bool) {
	if entity, ok := result[opts.UserEntity].(map[string]any); ok {
		if id, ok := field(entity, opts.UserEntityID); ok {
			return id, true
		}
	}
	return field(result, opts.UserEntityID)
}
