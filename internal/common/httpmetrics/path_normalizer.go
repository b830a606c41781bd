package httpmetrics

import (
	"strings"

	"github.com/google/uuid"
)

// NormalizePath collapses record ids in a request path so metric labels stay
// bounded, e.g. /api/auth/refresh-tokens/<uuid> becomes /api/auth/refresh-tokens/{id}.
func NormalizePath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}

	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if _, err := uuid.Parse(part); err == nil || isNumeric(part) {
			parts[i] = "{id}"
		}
	}

	return strings.Join(parts, "/")
}

func isNumeric(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
