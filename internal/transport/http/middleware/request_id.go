package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"hrconsole/internal/platform/requestctx"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with an id and records the caller IP for audit
// rows. An inbound X-Request-ID is kept only when it is a UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if uuid.Validate(id) != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := requestctx.With(r.Context(), requestctx.Meta{RequestID: id, ClientIP: clientIP(r)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestctx.From(ctx).RequestID
}
