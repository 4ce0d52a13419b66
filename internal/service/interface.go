package service

import (
	"context"
	"errors"
	"time"

	"classwork_service/internal/domain"
	"classwork_service/pkg/ctxdata"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrIncompleteAnswers = errors.New("all questions must be answered")
	ErrAlreadyGraded     = errors.New("submission already graded")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrNotLoggedIn       = errors.New("not logged in")
	ErrProfileIncomplete = errors.New("profile incomplete: no class assigned")
)

// ContentClient produces quiz questions for a topic, count and grade level.
// Implementations must return only entries that satisfy the MCQ invariants,
// plus the number of malformed entries they dropped.
type ContentClient interface {
	Generate(ctx context.Context, topic string, count int, grade string) ([]domain.MCQQuestion, int, error)
}

// EventProducer publishes enveloped domain events to the message broker,
// keyed so events for one entity stay ordered.
type EventProducer interface {
	Send(ctx context.Context, topic, kind, key string, payload interface{}) error
}

// AggregateCache stores last-computed display aggregates.
type AggregateCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// requireAuth resolves the caller's identity snapshot. A request without a
// resolved user is not logged in; a resolved user without a class is a
// distinct condition, the profile setup was never finished.
func requireAuth(ctx context.Context) (ctxdata.Auth, error) {
	auth, ok := ctxdata.GetAuth(ctx)
	if !ok || auth.UserID == "" {
		return ctxdata.Auth{}, ErrNotLoggedIn
	}
	if auth.Role != ctxdata.RoleStudent && auth.Role != ctxdata.RoleTeacher {
		return ctxdata.Auth{}, ErrProfileIncomplete
	}
	return auth, nil
}

func requireClass(auth ctxdata.Auth) (string, error) {
	if auth.ClassID == "" {
		return "", ErrProfileIncomplete
	}
	return auth.ClassID, nil
}
