package ctxdata

import (
	"context"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Auth is the per-request identity snapshot resolved by the HTTP middleware.
// ClassID may be empty for an authenticated user whose profile setup is
// unfinished; services treat that as a distinct error, not as "no class".
type Auth struct {
	UserID  string
	Role    Role
	ClassID string
}

type traceIDKey struct{}
type authKey struct{}

var (
	traceIDKeyInstance = traceIDKey{}
	authKeyInstance    = authKey{}
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKeyInstance, traceID)
}

func GetTraceID(ctx context.Context) (string, bool) {
	v := ctx.Value(traceIDKeyInstance)
	traceID, ok := v.(string)
	return traceID, ok
}

func WithAuth(ctx context.Context, auth Auth) context.Context {
	return context.WithValue(ctx, authKeyInstance, auth)
}

func GetAuth(ctx context.Context) (Auth, bool) {
	v := ctx.Value(authKeyInstance)
	auth, ok := v.(Auth)
	return auth, ok
}
