package ports

import (
	"context"

	"github.com/drbrain/dashboard/internal/core/domain"
)

// QueryCache holds the last successful upstream answer per user. Writes
// overwrite unconditionally: the last response wins.
type QueryCache interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, bool, error)
	SetProfile(ctx context.Context, userID string, p *domain.Profile) error
	InvalidateProfile(ctx context.Context, userID string) error
}
