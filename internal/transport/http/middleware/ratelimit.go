package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"hrconsole/internal/transport/http/api"
)

// limiter is a fixed-window counter per key. Expired windows are pruned
// lazily, at most once per window length.
type limiter struct {
	name   string
	limit  int
	window time.Duration
	key    func(*http.Request) string
	now    func() time.Time

	mu        sync.Mutex
	hits      map[string]*windowCount
	nextPrune time.Time
}

type windowCount struct {
	n     int
	reset time.Time
}

func newLimiter(name string, limit int, window time.Duration, key func(*http.Request) string) *limiter {
	return &limiter{
		name:   name,
		limit:  limit,
		window: window,
		key:    key,
		now:    time.Now,
		hits:   map[string]*windowCount{},
	}
}

// allow counts r against its key, sets the X-RateLimit headers and writes a
// 429 once the window is exhausted.
func (l *limiter) allow(w http.ResponseWriter, r *http.Request) bool {
	if l.limit <= 0 {
		return true
	}
	key := l.key(r)
	if key == "" {
		key = clientIP(r)
	}

	l.mu.Lock()
	now := l.now()
	if now.After(l.nextPrune) {
		for k, c := range l.hits {
			if now.After(c.reset) {
				delete(l.hits, k)
			}
		}
		l.nextPrune = now.Add(l.window)
	}
	c, ok := l.hits[key]
	if !ok || now.After(c.reset) {
		c = &windowCount{reset: now.Add(l.window)}
		l.hits[key] = c
	}
	c.n++
	count, reset := c.n, c.reset
	l.mu.Unlock()

	resetIn := int((reset.Sub(now) + time.Second - 1) / time.Second)
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(l.limit-count, 0)))
	h.Set("X-RateLimit-Reset", strconv.Itoa(resetIn))
	if count <= l.limit {
		return true
	}
	h.Set("Retry-After", strconv.Itoa(max(resetIn, 1)))
	slog.Warn("rate limit exceeded", "limiter", l.name, "key", key, "method", r.Method, "path", r.URL.Path, "limit", l.limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

// RateLimit throttles every request per signed-in user, or per client IP for
// anonymous callers.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	l := newLimiter("global", limit, window, userOrIP)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.allow(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

type routeClass int

const (
	classOther routeClass = iota
	// credential endpoints, limited by IP and by submitted email
	classCredential
	// privilege-changing mutations, limited per user
	classPrivileged
)

// sensitiveRoutes matches API paths (without the /api/v1 prefix) by prefix and
// suffix; an empty suffix means an exact match on prefix.
var sensitiveRoutes = []struct {
	prefix, suffix string
	class          routeClass
}{
	{"/auth/login", "", classCredential},
	{"/auth/request-reset", "", classCredential},
	{"/auth/reset", "", classCredential},
	{"/auth/mfa/setup", "", classCredential},
	{"/auth/mfa/enable", "", classCredential},
	{"/auth/mfa/disable", "", classCredential},
	{"/settings/roles", "", classPrivileged},
	{"/settings/modules/reorder", "", classPrivileged},
	{"/settings/roles/", "/permissions", classPrivileged},
	{"/settings/users/", "/role", classPrivileged},
	{"/leave/requests/", "/approve", classPrivileged},
	{"/leave/requests/", "/reject", classPrivileged},
	{"/recruitment/candidates/", "/hire", classPrivileged},
}

func classify(r *http.Request) routeClass {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return classOther
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	path = "/" + strings.TrimLeft(path, "/")
	for _, route := range sensitiveRoutes {
		if route.suffix == "" {
			if path == route.prefix || path == route.prefix+"/" {
				return route.class
			}
			continue
		}
		if strings.HasPrefix(path, route.prefix) && strings.HasSuffix(path, route.suffix) && len(path) > len(route.prefix)+len(route.suffix) {
			return route.class
		}
	}
	return classOther
}

// SensitiveMutationRateLimit adds tighter limits on top of RateLimit:
// credential endpoints get a quarter of base, per IP and per email, and
// privilege-changing mutations get half of base per user.
func SensitiveMutationRateLimit(base int, window time.Duration) func(http.Handler) http.Handler {
	credential := max(base/4, 1)
	byIP := newLimiter("credential-ip", credential, window, clientIP)
	byEmail := newLimiter("credential-email", credential, window, bodyEmailOrIP)
	privileged := newLimiter("privileged", max(base/2, 1), window, userOrIP)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch classify(r) {
			case classCredential:
				if !byIP.allow(w, r) || !byEmail.allow(w, r) {
					return
				}
			case classPrivileged:
				if !privileged.allow(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func userOrIP(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.TenantID + ":" + user.UserID
	}
	return clientIP(r)
}

// clientIP prefers the first X-Forwarded-For hop, then the socket peer.
func clientIP(r *http.Request) string {
	if fwd, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(fwd) != "" {
		return strings.TrimSpace(fwd)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// bodyEmailOrIP peeks at a JSON body's "email" field and restores the body
// for the handler.
func bodyEmailOrIP(r *http.Request) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return clientIP(r)
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return clientIP(r)
	}
	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &body) != nil || strings.TrimSpace(body.Email) == "" {
		return clientIP(r)
	}
	return "email:" + strings.ToLower(strings.TrimSpace(body.Email))
}
