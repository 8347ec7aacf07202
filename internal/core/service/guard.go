package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/drbrain/dashboard/internal/api/metrics"
	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

// Decision is the route guard's verdict for a protected page.
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionLogin
	DecisionOnboarding
)

func (d Decision) String() string {
	switch d {
	case DecisionLogin:
		return "login"
	case DecisionOnboarding:
		return "onboarding"
	default:
		return "allow"
	}
}

// OnboardingChecker reports whether the session's user finished onboarding.
type OnboardingChecker interface {
	OnboardingComplete(ctx context.Context, s *domain.Session, retry ports.RetryPolicy) (bool, error)
}

// ProfileRetry is the guard's retry policy for the profile fetch: one retry.
var ProfileRetry = ports.RetryPolicy{Attempts: 2, Delay: 300 * time.Millisecond}

// Guard decides whether a protected page may render.
type Guard struct {
	profiles       OnboardingChecker
	onboardingPath string
	retry          ports.RetryPolicy
	log            zerolog.Logger
}

func NewGuard(profiles OnboardingChecker, onboardingPath string, retry ports.RetryPolicy, log zerolog.Logger) *Guard {
	return &Guard{profiles: profiles, onboardingPath: onboardingPath, retry: retry, log: log}
}

// OnboardingPath is where DecisionOnboarding redirects to.
func (g *Guard) OnboardingPath() string { return g.onboardingPath }

// Decide returns login when there is no session, onboarding when the profile
// says onboarding is unfinished and path is not the onboarding page itself,
// and allow otherwise. A profile fetch failure other than not-found allows
// access.
func (g *Guard) Decide(ctx context.Context, sess *domain.Session, path string) Decision {
	d := g.decide(ctx, sess, path)
	metrics.GuardDecisionsTotal.WithLabelValues(d.String()).Inc()
	return d
}

func (g *Guard) decide(ctx context.Context, sess *domain.Session, path string) Decision {
	if sess == nil || sess.AccessToken == "" {
		return DecisionLogin
	}

	done, err := g.profiles.OnboardingComplete(ctx, sess, g.retry)
	if err != nil {
		// TODO: decide with product whether a failed profile fetch should block access instead.
		metrics.GuardFallbacksTotal.Inc()
		g.log.Warn().Err(err).Str("user_id", sess.User.ID).Str("path", path).Msg("profile check failed, allowing access")
		return DecisionAllow
	}
	if done || g.isOnboardingPath(path) {
		return DecisionAllow
	}
	return DecisionOnboarding
}

func (g *Guard) isOnboardingPath(path string) bool {
	path = strings.TrimSuffix(path, "/")
	return path == g.onboardingPath || strings.HasPrefix(path, g.onboardingPath+"/")
}
