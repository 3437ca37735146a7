package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/davidbz/promptforge/internal/config"
)

// rateLimitEntry is a per-key fixed-window counter.
type rateLimitEntry struct {
	count   int
	resetAt time.Time
}

// Store is a fixed-window rate-limit counter store, safe for concurrent
// use. Entries are created lazily and pruned opportunistically: once the
// store grows past its threshold, expired entries are removed on the next
// update. No background sweep.
type Store struct {
	mu             sync.Mutex
	entries        map[string]*rateLimitEntry
	pruneThreshold int
	now            func() time.Time
}

// NewStore creates an empty rate-limit store.
func NewStore(pruneThreshold int) *Store {
	return &Store{
		mu:             sync.Mutex{},
		entries:        make(map[string]*rateLimitEntry),
		pruneThreshold: pruneThreshold,
		now:            time.Now,
	}
}

// Allow records one request for key and reports whether it is admitted,
// the remaining count in the window, and the time until the window resets.
// The check-and-increment is atomic with respect to concurrent callers.
func (s *Store) Allow(key string, limit int, window time.Duration) (bool, int, time.Duration) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[key]
	if !exists || !now.Before(entry.resetAt) {
		entry = &rateLimitEntry{count: 1, resetAt: now.Add(window)}
		s.entries[key] = entry
		s.pruneLocked(now)
		return limit >= 1, max(limit-1, 0), window
	}

	resetIn := entry.resetAt.Sub(now)
	if entry.count < limit {
		entry.count++
		return true, limit - entry.count, resetIn
	}
	return false, 0, resetIn
}

// pruneLocked removes expired entries once the store exceeds its threshold.
func (s *Store) pruneLocked(now time.Time) {
	if s.pruneThreshold <= 0 || len(s.entries) <= s.pruneThreshold {
		return
	}
	for key, entry := range s.entries {
		if !now.Before(entry.resetAt) {
			delete(s.entries, key)
		}
	}
}

// RateLimit creates a fixed-window rate-limiting middleware keyed by
// (purpose, client identity). Every response carries the limit headers;
// denied requests get 429 with Retry-After.
func RateLimit(cfg *config.RateLimitConfig, purpose string, store *Store) Middleware {
	window := time.Duration(cfg.WindowSeconds) * time.Second

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := purpose + "|" + clientIdentity(r)
			allowed, remaining, resetIn := store.Allow(key, cfg.MaxRequests, window)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				retryAfter := int(math.Ceil(resetIn.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIdentity derives the rate-limit identity: the first forwarded
// address token when present, else the direct peer address.
func clientIdentity(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
