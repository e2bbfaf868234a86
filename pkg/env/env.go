package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key. Unset and blank both fall back, so a
// variable exported as an empty string behaves like a missing one.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if trimmed := strings.TrimSpace(val); trimmed != "" {
		return trimmed
	}
	return fallback
}
