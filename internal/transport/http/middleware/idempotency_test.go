package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"hrconsole/internal/domain/auth"
)

type storedReplay struct {
	hash   string
	status int
	body   string
}

type memoryIdempotency struct {
	mu   sync.Mutex
	rows map[IdempotencyKey]storedReplay
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{rows: map[IdempotencyKey]storedReplay{}}
}

func slot(k IdempotencyKey) IdempotencyKey {
	k.Hash = ""
	return k
}

func (m *memoryIdempotency) Lookup(_ context.Context, k IdempotencyKey) (Replay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[slot(k)]
	if !ok {
		return Replay{}, nil
	}
	if row.hash != k.Hash {
		return Replay{}, ErrIdempotencyConflict
	}
	return Replay{Found: true, Status: row.status, Body: json.RawMessage(row.body)}, nil
}

func (m *memoryIdempotency) Remember(_ context.Context, k IdempotencyKey, status int, body json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[slot(k)] = storedReplay{hash: k.Hash, status: status, body: string(body)}
	return nil
}

func idempotentRequest(user auth.UserContext, key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/leave/requests", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	return req.WithContext(WithUser(req.Context(), user))
}

func TestRequestHashDistinguishesPayloads(t *testing.T) {
	if RequestHash([]byte("payload")) != RequestHash([]byte("payload")) {
		t.Fatal("expected deterministic hash")
	}
	if RequestHash([]byte("payload")) == RequestHash([]byte("other")) {
		t.Fatal("expected different hash for different payload")
	}
}

func TestIdempotentReplaysOriginalStatus(t *testing.T) {
	backend := newMemoryIdempotency()
	calls := 0
	handler := Idempotent(backend, "leave.requests.create")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"req-1"}}`))
	}))
	user := auth.UserContext{TenantID: "t1", UserID: "u1"}

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, idempotentRequest(user, "key-1", `{"days":1}`))
	if first.Code != http.StatusCreated || first.Header().Get("Idempotent-Replayed") != "" {
		t.Fatalf("expected fresh 201, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, idempotentRequest(user, "key-1", `{"days":1}`))
	if second.Code != http.StatusCreated || second.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("expected stored body, got %s", second.Body.String())
	}

	third := httptest.NewRecorder()
	handler.ServeHTTP(third, idempotentRequest(user, "key-1", `{"days":2}`))
	if third.Code != http.StatusConflict {
		t.Fatalf("expected 409 for changed payload, got %d", third.Code)
	}

	other := httptest.NewRecorder()
	handler.ServeHTTP(other, idempotentRequest(auth.UserContext{TenantID: "t1", UserID: "u2"}, "key-1", `{"days":1}`))
	if other.Code != http.StatusCreated || other.Header().Get("Idempotent-Replayed") != "" {
		t.Fatal("keys are scoped per user")
	}
	if calls != 2 {
		t.Fatalf("expected handler to run twice, ran %d times", calls)
	}
}

func TestIdempotentSkipsFailures(t *testing.T) {
	backend := newMemoryIdempotency()
	handler := Idempotent(backend, "x")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), idempotentRequest(auth.UserContext{TenantID: "t1", UserID: "u1"}, "k", "{}"))
	if len(backend.rows) != 0 {
		t.Fatal("non-2xx responses must not be remembered")
	}
}

func TestIdempotentPassThroughAndLongKeys(t *testing.T) {
	calls := 0
	handler := Idempotent(newMemoryIdempotency(), "x")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls++
	}))
	for range 2 {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}")))
	}
	if calls != 2 {
		t.Fatalf("expected two calls, got %d", calls)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, idempotentRequest(auth.UserContext{TenantID: "t1", UserID: "u1"}, strings.Repeat("k", maxIdempotencyKey+1), "{}"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized key, got %d", rec.Code)
	}
}
