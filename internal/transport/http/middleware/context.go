package middleware

type userKey struct{}

var ctxKeyUser userKey
