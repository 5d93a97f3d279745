package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"

	"hrconsole/internal/platform/querier"
	"hrconsole/internal/transport/http/api"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	maxIdempotencyKey = 200
	idempotencyTTL    = 24 * time.Hour
)

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

// IdempotencyKey identifies one client retry slot. Hash fingerprints the
// request body so a reused key with a different payload is refused.
type IdempotencyKey struct {
	TenantID string
	UserID   string
	Endpoint string
	Key      string
	Hash     string
}

// Replay is a stored response. Found is false when nothing is stored yet.
type Replay struct {
	Found  bool
	Status int
	Body   json.RawMessage
}

type IdempotencyBackend interface {
	Lookup(ctx context.Context, key IdempotencyKey) (Replay, error)
	Remember(ctx context.Context, key IdempotencyKey, status int, body json.RawMessage) error
}

// IdempotencyStore keeps replays in idempotency_keys. Rows older than the
// TTL are treated as absent and overwritten on the next save.
type IdempotencyStore struct {
	db  querier.Querier
	ttl time.Duration
}

func NewIdempotencyStore(db querier.Querier) *IdempotencyStore {
	return &IdempotencyStore{db: db, ttl: idempotencyTTL}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *IdempotencyStore) Lookup(ctx context.Context, k IdempotencyKey) (Replay, error) {
	var (
		hash string
		out  Replay
	)
	err := s.db.QueryRow(ctx, `
    SELECT request_hash, response_status, response_json
    FROM idempotency_keys
    WHERE tenant_id = $1 AND user_id = $2 AND endpoint = $3 AND key = $4
      AND created_at > now() - make_interval(secs => $5)
  `, k.TenantID, k.UserID, k.Endpoint, k.Key, s.ttl.Seconds()).Scan(&hash, &out.Status, &out.Body)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Replay{}, nil
	case err != nil:
		return Replay{}, err
	case hash != k.Hash:
		return Replay{}, ErrIdempotencyConflict
	}
	out.Found = true
	return out, nil
}

func (s *IdempotencyStore) Remember(ctx context.Context, k IdempotencyKey, status int, body json.RawMessage) error {
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (tenant_id, user_id, endpoint, key, request_hash, response_status, response_json)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    ON CONFLICT (tenant_id, user_id, key, endpoint) DO UPDATE
      SET request_hash = EXCLUDED.request_hash,
          response_status = EXCLUDED.response_status,
          response_json = EXCLUDED.response_json,
          created_at = now()
    WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
       OR idempotency_keys.created_at <= now() - make_interval(secs => $8)
  `, k.TenantID, k.UserID, k.Endpoint, k.Key, k.Hash, status, body, s.ttl.Seconds())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Idempotent replays the stored 2xx response, with its original status, when
// a request repeats an Idempotency-Key with the same body. Requests without
// the header, or without a user, pass through.
func Idempotent(backend IdempotencyBackend, endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			user, ok := GetUser(r.Context())
			if raw == "" || !ok || backend == nil {
				next.ServeHTTP(w, r)
				return
			}
			requestID := GetRequestID(r.Context())
			if len(raw) > maxIdempotencyKey {
				api.Fail(w, http.StatusBadRequest, "invalid_idempotency_key", "idempotency key too long", requestID)
				return
			}
			payload, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(payload))

			key := IdempotencyKey{TenantID: user.TenantID, UserID: user.UserID, Endpoint: endpoint, Key: raw, Hash: RequestHash(payload)}
			replay, err := backend.Lookup(r.Context(), key)
			switch {
			case errors.Is(err, ErrIdempotencyConflict):
				api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different payload", requestID)
				return
			case err != nil:
				slog.Error("idempotency lookup failed", "endpoint", endpoint, "err", err)
				api.Fail(w, http.StatusInternalServerError, "idempotency_error", "idempotency check failed", requestID)
				return
			case replay.Found:
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(replay.Status)
				_, _ = w.Write(replay.Body)
				return
			}

			var body bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&body)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status < 200 || status >= 300 || !json.Valid(body.Bytes()) {
				return
			}
			if err := backend.Remember(r.Context(), key, status, body.Bytes()); err != nil {
				slog.Warn("idempotency save failed", "endpoint", endpoint, "err", err)
			}
		})
	}
}
