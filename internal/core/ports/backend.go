package ports

import (
	"context"
	"time"

	"github.com/drbrain/dashboard/internal/core/domain"
)

// RetryPolicy is passed explicitly on every upstream call that may be retried.
// Attempts counts the first try; zero or one means no retry.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// NoRetry issues a single attempt.
var NoRetry = RetryPolicy{Attempts: 1}

// ProfileGateway reads and replaces the physician profile.
type ProfileGateway interface {
	GetProfile(ctx context.Context, token string, retry RetryPolicy) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, token string, p domain.Profile) (*domain.Profile, error)
}

// SettingsGateway reads and replaces payout settings.
type SettingsGateway interface {
	GetPixSettings(ctx context.Context, token string) (*domain.PixSettings, error)
	UpdatePixSettings(ctx context.Context, token string, s domain.PixSettings) (*domain.PixSettings, error)
}

// ChatGateway relays chat turns to the remote agents. A nil reply with a nil
// error means the agent chose not to answer.
type ChatGateway interface {
	SendChat(ctx context.Context, token string, kind domain.ChatKind, t domain.ContentType, content string) (*domain.Reply, error)
	ChatHistory(ctx context.Context, token string, kind domain.ChatKind) ([]domain.Message, error)
	ClearChat(ctx context.Context, token string, kind domain.ChatKind) error
}

// IntegrationGateway talks to the WhatsApp and Google Calendar link endpoints.
type IntegrationGateway interface {
	IntegrationStatus(ctx context.Context, token string, in domain.Integration) (*domain.ConnectionStatus, error)
	Connect(ctx context.Context, token string, in domain.Integration) (*domain.ConnectionStatus, error)
	Disconnect(ctx context.Context, token string, in domain.Integration) error
}

// RealtimeSubscription describes one user's row-insert feed.
type RealtimeSubscription struct {
	UserID string
	Tables []string
	Token  func(ctx context.Context) (string, error)
}

// RealtimeSource blocks delivering notifications to sink until ctx is done.
type RealtimeSource interface {
	Subscribe(ctx context.Context, sub RealtimeSubscription, sink func(domain.Notification)) error
}
