package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/drbrain/dashboard/internal/api/metrics"
	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

const defaultRefreshMargin = time.Minute

// AuthService is the session provider. Sessions are created on sign-in,
// refreshed lazily on access and destroyed on sign-out; nothing else mutates them.
type AuthService struct {
	idp           ports.IdentityProvider
	repo          ports.SessionRepository
	refreshMargin time.Duration
	log           zerolog.Logger
	now           func() time.Time
}

func NewAuthService(idp ports.IdentityProvider, repo ports.SessionRepository, refreshMargin time.Duration, log zerolog.Logger) *AuthService {
	if refreshMargin <= 0 {
		refreshMargin = defaultRefreshMargin
	}
	return &AuthService{
		idp:           idp,
		repo:          repo,
		refreshMargin: refreshMargin,
		log:           log,
		now:           time.Now,
	}
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	grant, err := s.idp.PasswordGrant(ctx, email, password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sess := &domain.Session{
		ID:           newSessionID(),
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    now.Add(grant.ExpiresIn),
		User:         grant.User,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("sign in: save session: %w", err)
	}

	metrics.SessionEventsTotal.WithLabelValues("sign_in").Inc()
	s.log.Info().Str("user_id", sess.User.ID).Msg("signed in")
	return sess, nil
}

// Current returns the live session for id, refreshing its tokens first when
// the access token is within the refresh margin of expiry.
func (s *AuthService) Current(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, domain.ErrUnauthenticated
	}
	sess, err := s.repo.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	if !sess.Expired(s.now(), s.refreshMargin) {
		return sess, nil
	}
	return s.refresh(ctx, sess)
}

func (s *AuthService) refresh(ctx context.Context, sess *domain.Session) (*domain.Session, error) {
	grant, err := s.idp.RefreshGrant(ctx, sess.RefreshToken)
	if err != nil {
		metrics.SessionEventsTotal.WithLabelValues("refresh_failed").Inc()
		var re *domain.RemoteError
		if errors.Is(err, domain.ErrInvalidCredentials) || (errors.As(err, &re) && re.Status < 500) {
			// The refresh token is dead; the session cannot be revived.
			if delErr := s.repo.Delete(ctx, sess.ID); delErr != nil {
				s.log.Warn().Err(delErr).Str("user_id", sess.User.ID).Msg("failed to drop stale session")
			}
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("refresh session: %w", err)
	}

	now := s.now().UTC()
	sess.AccessToken = grant.AccessToken
	if grant.RefreshToken != "" {
		sess.RefreshToken = grant.RefreshToken
	}
	sess.ExpiresAt = now.Add(grant.ExpiresIn)
	if grant.User.ID != "" {
		sess.User = grant.User
	}
	sess.UpdatedAt = now
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("refresh session: save: %w", err)
	}

	metrics.SessionEventsTotal.WithLabelValues("refresh").Inc()
	s.log.Debug().Str("user_id", sess.User.ID).Msg("session refreshed")
	return sess, nil
}

// SignOut revokes the upstream tokens and forgets the session. The local
// record is removed even when the upstream logout fails.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	sess, err := s.repo.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	if err := s.idp.Logout(ctx, sess.AccessToken); err != nil {
		s.log.Warn().Err(err).Str("user_id", sess.User.ID).Msg("upstream logout failed")
	}
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	metrics.SessionEventsTotal.WithLabelValues("sign_out").Inc()
	s.log.Info().Str("user_id", sess.User.ID).Msg("signed out")
	return nil
}

func (s *AuthService) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return &domain.ValidationError{Fields: []string{"email is required"}}
	}
	return s.idp.Recover(ctx, email, redirectTo)
}

func (s *AuthService) UpdatePassword(ctx context.Context, sess *domain.Session, password string) error {
	if sess == nil {
		return domain.ErrUnauthenticated
	}
	if len(password) < 6 {
		return &domain.ValidationError{Fields: []string{"password must be at least 6 characters"}}
	}
	return s.idp.UpdateUser(ctx, sess.AccessToken, password)
}

// newSessionID returns 32 random bytes hex-encoded.
func newSessionID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("session id: crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}
