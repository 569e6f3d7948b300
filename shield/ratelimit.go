package shield

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitRule defines the rate limit for one path prefix.
type RateLimitRule struct {
	Prefix        string
	MaxRequests   int
	WindowSeconds int
}

type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// RateLimiter provides per-IP, per-prefix rate limiting with fixed windows.
// Expired buckets are garbage collected in the background.
type RateLimiter struct {
	rules   []RateLimitRule
	buckets sync.Map
	exclude []string // path prefixes excluded from rate limiting
}

// NewRateLimiter creates a rate limiter with static rules. The first
// matching rule wins, so list longer prefixes first.
func NewRateLimiter(rules []RateLimitRule, excludePrefixes ...string) *RateLimiter {
	return &RateLimiter{rules: rules, exclude: excludePrefixes}
}

// StartGC starts a background goroutine that drops expired buckets every
// five minutes. Stops when done is closed.
func (rl *RateLimiter) StartGC(done <-chan struct{}) {
	tick := time.NewTicker(5 * time.Minute)
	go func() {
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				rl.gc()
			}
		}
	}()
}

func (rl *RateLimiter) gc() {
	now := time.Now()
	rl.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		expired := now.After(b.resetAt)
		b.mu.Unlock()
		if expired {
			rl.buckets.Delete(key)
		}
		return true
	})
}

func (rl *RateLimiter) rule(path string) *RateLimitRule {
	for i := range rl.rules {
		if strings.HasPrefix(path, rl.rules[i].Prefix) {
			return &rl.rules[i]
		}
	}
	return nil
}

func (rl *RateLimiter) allow(ip string, cfg *RateLimitRule) (bool, time.Time) {
	key := ip + ":" + cfg.Prefix
	now := time.Now()
	window := time.Duration(cfg.WindowSeconds) * time.Second

	val, loaded := rl.buckets.LoadOrStore(key, &bucket{
		count:   1,
		resetAt: now.Add(window),
	})
	b := val.(*bucket)
	if !loaded {
		return true, b.resetAt
	}

	// Buckets are shared across request goroutines.
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.After(b.resetAt) {
		b.count = 1
		b.resetAt = now.Add(window)
		return true, b.resetAt
	}

	b.count++
	return b.count <= cfg.MaxRequests, b.resetAt
}

// Middleware is the HTTP middleware that enforces rate limits. Requests
// over the limit get a 429 JSON response with a Retry-After header.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range rl.exclude {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		cfg := rl.rule(r.URL.Path)
		if cfg == nil || cfg.MaxRequests <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ip := ExtractIP(r)
		ok, resetAt := rl.allow(ip, cfg)
		if ok {
			next.ServeHTTP(w, r)
			return
		}

		slog.Warn("ratelimit: request blocked", "ip", ip, "path", r.URL.Path)

		retry := int(time.Until(resetAt).Seconds()) + 1
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "rate limit exceeded",
		})
	})
}

// ExtractIP returns the client IP from X-Forwarded-For or RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
