package ports

import (
	"context"

	"github.com/drbrain/dashboard/internal/core/domain"
)

// ProfileService backs the profile form and the onboarding gate.
type ProfileService interface {
	Get(ctx context.Context, s *domain.Session) (*domain.Profile, error)
	Update(ctx context.Context, s *domain.Session, p domain.Profile) (*domain.Profile, error)
	OnboardingComplete(ctx context.Context, s *domain.Session, retry RetryPolicy) (bool, error)
	Invalidate(ctx context.Context, userID string) error
}

// SettingsService backs the PIX settings form.
type SettingsService interface {
	GetPix(ctx context.Context, s *domain.Session) (*domain.PixSettings, error)
	UpdatePix(ctx context.Context, s *domain.Session, in domain.PixSettings) (*domain.PixSettings, error)
}

// SendResult is what a chat send appended to the conversation. Completed is
// set once a reply has signalled the end of the conversation.
type SendResult struct {
	Appended  []domain.Message
	Failed    bool
	Completed bool
}

// Conversation is a chat as last loaded from the backend.
type Conversation struct {
	Messages  []domain.Message
	Completed bool
}

// ChatService drives the onboarding and feedback conversations.
type ChatService interface {
	Conversation(ctx context.Context, s *domain.Session, kind domain.ChatKind) (*Conversation, error)
	SendText(ctx context.Context, s *domain.Session, kind domain.ChatKind, text string) (*SendResult, error)
	SendAudio(ctx context.Context, s *domain.Session, kind domain.ChatKind, audio []byte, mimeType string) (*SendResult, error)
	Clear(ctx context.Context, s *domain.Session, kind domain.ChatKind) error
	Forget(userID string)
}

// IntegrationService exposes the connection status widgets.
type IntegrationService interface {
	Status(ctx context.Context, s *domain.Session, in domain.Integration) (*domain.ConnectionStatus, error)
	Connect(ctx context.Context, s *domain.Session, in domain.Integration) (*domain.ConnectionStatus, error)
	Disconnect(ctx context.Context, s *domain.Session, in domain.Integration) (*domain.ConnectionStatus, error)
	Forget(userID string)
}

// NotificationService fans realtime notifications out to open streams.
type NotificationService interface {
	Subscribe(ctx context.Context, s *domain.Session) (<-chan domain.Notification, func(), error)
	Publish(ctx context.Context, n domain.Notification) error
}
