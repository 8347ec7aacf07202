package ports

import (
	"context"

	"github.com/drbrain/dashboard/internal/core/domain"
)

// AuthService is the session provider: it owns sign-in, sign-out, refresh and
// password recovery against the hosted auth service.
type AuthService interface {
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context, sessionID string) error
	RequestPasswordReset(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, session *domain.Session, password string) error
	SessionSource
}

// SessionSource resolves a session id into a live session, refreshing the
// access token when it is close to expiry.
type SessionSource interface {
	Current(ctx context.Context, sessionID string) (*domain.Session, error)
}
