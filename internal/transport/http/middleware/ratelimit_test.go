package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hrconsole/internal/domain/auth"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

func send(ctx context.Context, h http.Handler, method, path, remote, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body)).WithContext(ctx)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func userCtx(userID string) context.Context {
	return context.WithValue(context.Background(), ctxKeyUser, auth.UserContext{TenantID: "tenant-1", UserID: userID})
}

func TestRateLimitKeysSignedInUserAcrossIPs(t *testing.T) {
	h := RateLimit(1, time.Minute)(noContent)
	ctx := userCtx("user-1")
	if rec := send(ctx, h, http.MethodGet, "/api/v1/me", "198.51.100.11:2222", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("first request: got %d", rec.Code)
	}
	if rec := send(ctx, h, http.MethodGet, "/api/v1/me", "198.51.100.12:3333", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request from a new IP should still be throttled, got %d", rec.Code)
	}
	if rec := send(userCtx("user-2"), h, http.MethodGet, "/api/v1/me", "198.51.100.12:3333", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("other user should have its own window, got %d", rec.Code)
	}
}

func TestRateLimitAnonymousUsesForwardedIP(t *testing.T) {
	h := RateLimit(1, time.Minute)(noContent)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}
	send(context.Background(), h, http.MethodGet, "/api/v1/healthz", "203.0.113.10:4444", "")
	if rec := send(context.Background(), h, http.MethodGet, "/api/v1/healthz", "203.0.113.10:5555", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("same IP on another port should be throttled, got %d", rec.Code)
	}
}

func TestLimiterWindowResetsAndPrunes(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	l := newLimiter("test", 1, time.Minute, clientIP)
	l.now = func() time.Time { return now }
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.allow(w, r) {
			w.WriteHeader(http.StatusNoContent)
		}
	})

	send(context.Background(), h, http.MethodPost, "/", "192.0.2.20:1111", "")
	send(context.Background(), h, http.MethodPost, "/", "192.0.2.21:1111", "")
	rec := send(context.Background(), h, http.MethodPost, "/", "192.0.2.20:1111", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected throttle inside the window, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" || rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected retry headers %v", rec.Header())
	}
	if !strings.Contains(rec.Body.String(), "rate_limited") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	now = now.Add(61 * time.Second)
	if rec := send(context.Background(), h, http.MethodPost, "/", "192.0.2.20:1111", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected a fresh window, got %d", rec.Code)
	}
	if len(l.hits) != 1 {
		t.Fatalf("expected the expired window of the other IP to be pruned, have %d", len(l.hits))
	}
}

func TestSensitiveMutationRateLimit(t *testing.T) {
	h := SensitiveMutationRateLimit(4, time.Minute)(noContent)

	for i := range 6 {
		if rec := send(context.Background(), h, http.MethodGet, "/api/v1/me/navigation", "198.51.100.40:8888", ""); rec.Code != http.StatusNoContent {
			t.Fatalf("read %d should bypass sensitive limits, got %d", i+1, rec.Code)
		}
	}

	ctx := userCtx("hr-1")
	for i := range 3 {
		rec := send(ctx, h, http.MethodPatch, "/api/v1/settings/roles/r1/permissions", "198.51.100.41:9999", "")
		want := http.StatusNoContent
		if i == 2 {
			want = http.StatusTooManyRequests
		}
		if rec.Code != want {
			t.Fatalf("permission change %d: got %d, want %d", i+1, rec.Code, want)
		}
	}

	// credential limit is base/4 = 1 per email, whatever the source IP
	login := `{"email":"Ada@Example.com","password":"x"}`
	if rec := send(context.Background(), h, http.MethodPost, "/api/v1/auth/login", "192.0.2.1:1", login); rec.Code != http.StatusNoContent {
		t.Fatalf("first login: got %d", rec.Code)
	}
	if rec := send(context.Background(), h, http.MethodPost, "/api/v1/auth/login", "192.0.2.2:1", strings.ToLower(login)); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second login for the same email should be throttled, got %d", rec.Code)
	}
}

func TestBodyEmailKeyRestoresBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":" A@B.io "}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if got := bodyEmailOrIP(req); got != "email:a@b.io" {
		t.Fatalf("unexpected key %q", got)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(req.Body); err != nil || !strings.Contains(buf.String(), "A@B.io") {
		t.Fatalf("body not restored: %q %v", buf.String(), err)
	}
}

func TestClassifyRoutes(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   routeClass
	}{
		{http.MethodPost, "/api/v1/auth/login", classCredential},
		{http.MethodPost, "/api/v1/settings/roles/", classPrivileged},
		{http.MethodPatch, "/api/v1/settings/roles/abc/permissions", classPrivileged},
		{http.MethodGet, "/api/v1/settings/roles/abc/permissions", classOther},
		{http.MethodPut, "/api/v1/settings/users/u1/role", classPrivileged},
		{http.MethodPost, "/api/v1/leave/requests/r1/approve", classPrivileged},
		{http.MethodPost, "/api/v1/leave/requests/r1/cancel", classOther},
		{http.MethodPost, "/api/v1/recruitment/candidates/c1/hire", classPrivileged},
		{http.MethodPost, "/api/v1/recruitment/candidates/c1/move", classOther},
	}
	for _, tc := range tests {
		if got := classify(httptest.NewRequest(tc.method, tc.path, nil)); got != tc.want {
			t.Errorf("%s %s: got %d, want %d", tc.method, tc.path, got, tc.want)
		}
	}
}
