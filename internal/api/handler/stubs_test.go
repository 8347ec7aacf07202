package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

var testSession = &domain.Session{
	ID:          "sid-1",
	AccessToken: "token-1",
	User:        domain.User{ID: "user-1", Email: "dr@example.com"},
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

type stubAuthService struct {
	signInFn   func(ctx context.Context, email, password string) (*domain.Session, error)
	signOutFn  func(ctx context.Context, sessionID string) error
	resetFn    func(ctx context.Context, email, redirectTo string) error
	passwordFn func(ctx context.Context, s *domain.Session, password string) error
	currentFn  func(ctx context.Context, sessionID string) (*domain.Session, error)
}

func (s *stubAuthService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	return s.signInFn(ctx, email, password)
}

func (s *stubAuthService) SignOut(ctx context.Context, sessionID string) error {
	return s.signOutFn(ctx, sessionID)
}

func (s *stubAuthService) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	return s.resetFn(ctx, email, redirectTo)
}

func (s *stubAuthService) UpdatePassword(ctx context.Context, sess *domain.Session, password string) error {
	return s.passwordFn(ctx, sess, password)
}

func (s *stubAuthService) Current(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.currentFn(ctx, sessionID)
}

type stubProfileService struct {
	getFn    func(ctx context.Context, s *domain.Session) (*domain.Profile, error)
	updateFn func(ctx context.Context, s *domain.Session, p domain.Profile) (*domain.Profile, error)
}

func (s *stubProfileService) Get(ctx context.Context, sess *domain.Session) (*domain.Profile, error) {
	return s.getFn(ctx, sess)
}

func (s *stubProfileService) Update(ctx context.Context, sess *domain.Session, p domain.Profile) (*domain.Profile, error) {
	return s.updateFn(ctx, sess, p)
}

func (s *stubProfileService) OnboardingComplete(context.Context, *domain.Session, ports.RetryPolicy) (bool, error) {
	return true, nil
}

func (s *stubProfileService) Invalidate(context.Context, string) error { return nil }

type stubSettingsService struct {
	getFn    func(ctx context.Context, s *domain.Session) (*domain.PixSettings, error)
	updateFn func(ctx context.Context, s *domain.Session, in domain.PixSettings) (*domain.PixSettings, error)
}

func (s *stubSettingsService) GetPix(ctx context.Context, sess *domain.Session) (*domain.PixSettings, error) {
	return s.getFn(ctx, sess)
}

func (s *stubSettingsService) UpdatePix(ctx context.Context, sess *domain.Session, in domain.PixSettings) (*domain.PixSettings, error) {
	return s.updateFn(ctx, sess, in)
}

type stubChatService struct {
	conversationFn func(ctx context.Context, s *domain.Session, kind domain.ChatKind) (*ports.Conversation, error)
	sendTextFn     func(ctx context.Context, s *domain.Session, kind domain.ChatKind, text string) (*ports.SendResult, error)
	sendAudioFn    func(ctx context.Context, s *domain.Session, kind domain.ChatKind, audio []byte, mimeType string) (*ports.SendResult, error)
	clearFn        func(ctx context.Context, s *domain.Session, kind domain.ChatKind) error
}

func (s *stubChatService) Conversation(ctx context.Context, sess *domain.Session, kind domain.ChatKind) (*ports.Conversation, error) {
	return s.conversationFn(ctx, sess, kind)
}

func (s *stubChatService) Forget(string) {}

func (s *stubChatService) SendText(ctx context.Context, sess *domain.Session, kind domain.ChatKind, text string) (*ports.SendResult, error) {
	return s.sendTextFn(ctx, sess, kind, text)
}

func (s *stubChatService) SendAudio(ctx context.Context, sess *domain.Session, kind domain.ChatKind, audio []byte, mimeType string) (*ports.SendResult, error) {
	return s.sendAudioFn(ctx, sess, kind, audio, mimeType)
}

func (s *stubChatService) Clear(ctx context.Context, sess *domain.Session, kind domain.ChatKind) error {
	return s.clearFn(ctx, sess, kind)
}

type stubIntegrationService struct {
	statusFn     func(ctx context.Context, s *domain.Session, in domain.Integration) (*domain.ConnectionStatus, error)
	connectFn    func(ctx context.Context, s *domain.Session, in domain.Integration) (*domain.ConnectionStatus, error)
	disconnectFn func(ctx context.Context, s *domain.Session, in domain.Integration) (*domain.ConnectionStatus, error)
}

func (s *stubIntegrationService) Status(ctx context.Context, sess *domain.Session, in domain.Integration) (*domain.ConnectionStatus, error) {
	return s.statusFn(ctx, sess, in)
}

func (s *stubIntegrationService) Connect(ctx context.Context, sess *domain.Session, in domain.Integration) (*domain.ConnectionStatus, error) {
	return s.connectFn(ctx, sess, in)
}

func (s *stubIntegrationService) Disconnect(ctx context.Context, sess *domain.Session, in domain.Integration) (*domain.ConnectionStatus, error) {
	return s.disconnectFn(ctx, sess, in)
}

func (s *stubIntegrationService) Forget(string) {}

type stubNotificationService struct {
	subscribeFn func(ctx context.Context, s *domain.Session) (<-chan domain.Notification, func(), error)
}

func (s *stubNotificationService) Subscribe(ctx context.Context, sess *domain.Session) (<-chan domain.Notification, func(), error) {
	return s.subscribeFn(ctx, sess)
}

func (s *stubNotificationService) Publish(context.Context, domain.Notification) error { return nil }

type recordingForgetter struct{ forgotten []string }

func (f *recordingForgetter) Forget(userID string) { f.forgotten = append(f.forgotten, userID) }
