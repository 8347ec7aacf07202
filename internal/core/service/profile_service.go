package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

// ProfileService reads and replaces the physician profile, keeping the query
// cache in step with the last upstream answer.
type ProfileService struct {
	gateway ports.ProfileGateway
	cache   ports.QueryCache
	log     zerolog.Logger
}

func NewProfileService(gateway ports.ProfileGateway, cache ports.QueryCache, log zerolog.Logger) *ProfileService {
	return &ProfileService{gateway: gateway, cache: cache, log: log}
}

// Get fetches the profile. A missing profile is not an error: it is the
// empty, not-yet-onboarded profile.
func (s *ProfileService) Get(ctx context.Context, sess *domain.Session) (*domain.Profile, error) {
	return s.fetch(ctx, sess, ports.NoRetry)
}

// Update replaces the editable fields. The upstream write is a full replace,
// so the current onboarding flag is carried over instead of taken from p.
func (s *ProfileService) Update(ctx context.Context, sess *domain.Session, p domain.Profile) (*domain.Profile, error) {
	done, err := s.OnboardingComplete(ctx, sess, ports.NoRetry)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	p.OnboardingConcluido = done

	updated, err := s.gateway.UpdateProfile(ctx, sess.AccessToken, p)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.remember(ctx, sess.User.ID, updated)
	s.log.Info().Str("user_id", sess.User.ID).Msg("profile updated")
	return updated, nil
}

// OnboardingComplete answers the guard's question. The cache is consulted
// first; on a miss the profile is fetched under the given retry policy.
func (s *ProfileService) OnboardingComplete(ctx context.Context, sess *domain.Session, retry ports.RetryPolicy) (bool, error) {
	if cached, ok, err := s.cache.GetProfile(ctx, sess.User.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", sess.User.ID).Msg("profile cache read failed")
	} else if ok {
		return cached.OnboardingConcluido, nil
	}

	p, err := s.fetch(ctx, sess, retry)
	if err != nil {
		return false, err
	}
	return p.OnboardingConcluido, nil
}

func (s *ProfileService) Invalidate(ctx context.Context, userID string) error {
	return s.cache.InvalidateProfile(ctx, userID)
}

func (s *ProfileService) fetch(ctx context.Context, sess *domain.Session, retry ports.RetryPolicy) (*domain.Profile, error) {
	p, err := s.gateway.GetProfile(ctx, sess.AccessToken, retry)
	if errors.Is(err, domain.ErrNotFound) {
		p, err = &domain.Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	s.remember(ctx, sess.User.ID, p)
	return p, nil
}

func (s *ProfileService) remember(ctx context.Context, userID string, p *domain.Profile) {
	if err := s.cache.SetProfile(ctx, userID, p); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("profile cache write failed")
	}
}
