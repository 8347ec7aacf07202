package ports

import (
	"context"

	"github.com/drbrain/dashboard/internal/core/domain"
)

// SessionRepository persists sessions between requests. Implementations must
// return domain.ErrSessionNotFound for unknown ids.
type SessionRepository interface {
	Save(ctx context.Context, s *domain.Session) error
	Find(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// IdentityProvider is the hosted auth API.
type IdentityProvider interface {
	PasswordGrant(ctx context.Context, email, password string) (*domain.TokenGrant, error)
	RefreshGrant(ctx context.Context, refreshToken string) (*domain.TokenGrant, error)
	Logout(ctx context.Context, accessToken string) error
	Recover(ctx context.Context, email, redirectTo string) error
	UpdateUser(ctx context.Context, accessToken, password string) error
}
