package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/drbrain/dashboard/internal/api/metrics"
	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

type flowKey struct {
	userID string
	kind   domain.ChatKind
}

type tokenKey struct{}

func withToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// ChatService keeps one ChatFlow per user and conversation kind. Flows live
// in memory only and are dropped on sign-out.
type ChatService struct {
	gateway         ports.ChatGateway
	profiles        ports.ProfileService
	completionDelay time.Duration
	maxAudioBytes   int
	log             zerolog.Logger

	mu    sync.Mutex
	flows map[flowKey]*ChatFlow
}

func NewChatService(gateway ports.ChatGateway, profiles ports.ProfileService, completionDelay time.Duration, maxAudioBytes int, log zerolog.Logger) *ChatService {
	return &ChatService{
		gateway:         gateway,
		profiles:        profiles,
		completionDelay: completionDelay,
		maxAudioBytes:   maxAudioBytes,
		log:             log,
		flows:           make(map[flowKey]*ChatFlow),
	}
}

// Conversation reloads the history from the backend on every call, so the
// local flow always matches the last server answer. Messages that never
// reached the backend, such as a failed send, do not survive a reload.
func (s *ChatService) Conversation(ctx context.Context, sess *domain.Session, kind domain.ChatKind) (*ports.Conversation, error) {
	f, err := s.flow(sess, kind)
	if err != nil {
		return nil, err
	}
	history, err := s.gateway.ChatHistory(ctx, sess.AccessToken, kind)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	f.Load(history)
	return &ports.Conversation{Messages: f.Messages(), Completed: f.Completed()}, nil
}

func (s *ChatService) SendText(ctx context.Context, sess *domain.Session, kind domain.ChatKind, text string) (*ports.SendResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &domain.ValidationError{Fields: []string{"text is required"}}
	}
	f, err := s.flow(sess, kind)
	if err != nil {
		return nil, err
	}
	appended, sendErr := f.SendText(withToken(ctx, sess.AccessToken), text)
	return s.result(sess, kind, f, domain.ContentText, appended, sendErr), nil
}

func (s *ChatService) SendAudio(ctx context.Context, sess *domain.Session, kind domain.ChatKind, audio []byte, mimeType string) (*ports.SendResult, error) {
	if len(audio) == 0 {
		return nil, &domain.ValidationError{Fields: []string{"audio is required"}}
	}
	if s.maxAudioBytes > 0 && len(audio) > s.maxAudioBytes {
		return nil, &domain.ValidationError{Fields: []string{fmt.Sprintf("audio must be at most %d bytes", s.maxAudioBytes)}}
	}
	if mimeType == "" {
		mimeType = "audio/webm"
	}
	f, err := s.flow(sess, kind)
	if err != nil {
		return nil, err
	}
	appended, sendErr := f.SendAudio(withToken(ctx, sess.AccessToken), audio, mimeType)
	return s.result(sess, kind, f, domain.ContentAudio, appended, sendErr), nil
}

// Clear wipes the remote history (where the kind has one) and the local flow.
func (s *ChatService) Clear(ctx context.Context, sess *domain.Session, kind domain.ChatKind) error {
	if !validKind(kind) {
		return domain.ErrUnknownChat
	}
	if err := s.gateway.ClearChat(ctx, sess.AccessToken, kind); err != nil {
		return fmt.Errorf("clear chat: %w", err)
	}
	s.mu.Lock()
	f, ok := s.flows[flowKey{sess.User.ID, kind}]
	s.mu.Unlock()
	if ok {
		f.Reset()
	}
	return nil
}

// Forget drops a user's flows, typically on sign-out.
func (s *ChatService) Forget(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.flows {
		if key.userID == userID {
			delete(s.flows, key)
		}
	}
}

func (s *ChatService) result(sess *domain.Session, kind domain.ChatKind, f *ChatFlow, t domain.ContentType, appended []domain.Message, err error) *ports.SendResult {
	outcome := "replied"
	switch {
	case err != nil:
		outcome = "failed"
		s.log.Warn().Err(err).Str("user_id", sess.User.ID).Str("kind", string(kind)).Msg("chat send failed")
	case len(appended) == 1:
		outcome = "no_reply"
	}
	metrics.ChatMessagesTotal.WithLabelValues(string(kind), string(t), outcome).Inc()
	return &ports.SendResult{Appended: appended, Failed: err != nil, Completed: f.Completed()}
}

// flow returns the user's flow for kind, creating an empty one on first use.
func (s *ChatService) flow(sess *domain.Session, kind domain.ChatKind) (*ChatFlow, error) {
	if !validKind(kind) {
		return nil, domain.ErrUnknownChat
	}
	key := flowKey{sess.User.ID, kind}

	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.flows[key]; ok {
		return f, nil
	}

	var opts []ChatOption
	if kind == domain.ChatOnboarding {
		userID := sess.User.ID
		opts = append(opts, WithCompletion(func() { s.onboardingFinished(userID) }, s.completionDelay))
	}
	f := NewChatFlow(s.sender(kind), opts...)
	s.flows[key] = f
	return f, nil
}

func (s *ChatService) sender(kind domain.ChatKind) SendFunc {
	return func(ctx context.Context, t domain.ContentType, content string) (*domain.Reply, error) {
		return s.gateway.SendChat(ctx, tokenFrom(ctx), kind, t, content)
	}
}

// onboardingFinished drops the cached profile so the guard re-reads the
// onboarding flag on the next request.
func (s *ChatService) onboardingFinished(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.profiles.Invalidate(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to invalidate profile after onboarding")
		return
	}
	s.log.Info().Str("user_id", userID).Msg("onboarding conversation completed")
}

func validKind(kind domain.ChatKind) bool {
	return kind == domain.ChatOnboarding || kind == domain.ChatFeedback
}
