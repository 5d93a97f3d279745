// Package requestctx carries per-request metadata from the HTTP edge down to
// domain services that record it, such as the audit log.
package requestctx

import "context"

type Meta struct {
	RequestID string
	ClientIP  string
}

type metaKey struct{}

func With(ctx context.Context, m Meta) context.Context {
	return context.WithValue(ctx, metaKey{}, m)
}

// From returns the zero Meta outside a request.
func From(ctx context.Context) Meta {
	m, _ := ctx.Value(metaKey{}).(Meta)
	return m
}
