package openai

import (
	"fmt"
	"net/http"
	"strings"
)

// ProviderError describes a failed provider exchange. Transient errors are
// eligible for bounded retry; all others surface immediately.
type ProviderError struct {
	Status    int
	Message   string
	Transient bool
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("provider error (status %d): %s", e.Status, e.Message)
	}
	return "provider error: " + e.Message
}

// transientPatterns mark error messages caused by network conditions.
//
//nolint:gochecknoglobals // Fixed classification table
var transientPatterns = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"connection reset",
	"connection refused",
	"connection closed",
	"econnreset",
	"socket hang up",
	"temporarily unavailable",
	"service unavailable",
	"overloaded",
	"rate limit",
	"too many requests",
	"network",
}

// transientStatus reports whether an HTTP status is retryable.
func transientStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return true
	}
	return status >= http.StatusInternalServerError
}

// transientMessage reports whether an error message matches the
// network/timeout pattern set.
func transientMessage(message string) bool {
	lower := strings.ToLower(message)
	for _, pattern := range transientPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
