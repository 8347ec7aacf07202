package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

// terminalStates is the connected state per integration.
var terminalStates = map[domain.Integration]domain.ConnectionState{
	domain.IntegrationWhatsApp:       domain.StateOpen,
	domain.IntegrationGoogleCalendar: domain.StateConnected,
}

type pollerKey struct {
	userID      string
	integration domain.Integration
}

// IntegrationService owns one StatusPoller per user and integration. Pollers
// run under the service's root context and stop on Close.
type IntegrationService struct {
	gateway   ports.IntegrationGateway
	sessions  ports.SessionSource
	intervals map[domain.Integration]time.Duration
	log       zerolog.Logger

	root   context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pollers map[pollerKey]*StatusPoller
}

func NewIntegrationService(
	gateway ports.IntegrationGateway,
	sessions ports.SessionSource,
	whatsAppInterval, calendarInterval time.Duration,
	log zerolog.Logger,
) *IntegrationService {
	root, cancel := context.WithCancel(context.Background())
	return &IntegrationService{
		gateway:  gateway,
		sessions: sessions,
		intervals: map[domain.Integration]time.Duration{
			domain.IntegrationWhatsApp:       whatsAppInterval,
			domain.IntegrationGoogleCalendar: calendarInterval,
		},
		log:     log,
		root:    root,
		cancel:  cancel,
		pollers: make(map[pollerKey]*StatusPoller),
	}
}

// Status returns the current status. While a poller is running its last
// result is fresh enough; otherwise the status is fetched synchronously, so a
// link dropped after reaching the connected state is noticed on the next
// read. Polling resumes whenever the result is not the connected state.
func (s *IntegrationService) Status(ctx context.Context, sess *domain.Session, in domain.Integration) (*domain.ConnectionStatus, error) {
	p, err := s.poller(sess, in)
	if err != nil {
		return nil, err
	}
	if last := p.Status(); !last.Polling {
		if _, err := p.Refresh(ctx); err != nil && last.CheckedAt.IsZero() {
			return nil, fmt.Errorf("integration status: %w", err)
		}
	}
	p.Start(s.root)
	st := p.Status()
	return &st, nil
}

// Connect triggers pairing and returns the pairing material. The state is
// optimistically set to connecting until the next poll says otherwise.
func (s *IntegrationService) Connect(ctx context.Context, sess *domain.Session, in domain.Integration) (*domain.ConnectionStatus, error) {
	p, err := s.poller(sess, in)
	if err != nil {
		return nil, err
	}
	res, err := s.gateway.Connect(ctx, sess.AccessToken, in)
	if err != nil {
		return nil, fmt.Errorf("integration connect: %w", err)
	}

	st := *res
	if st.State == "" || st.State == domain.StateDisconnected {
		st.State = domain.StateConnecting
	}
	st.CheckedAt = time.Now().UTC()
	p.Set(st)
	p.Start(s.root)

	s.log.Info().Str("user_id", sess.User.ID).Str("integration", string(in)).Msg("integration connect requested")
	out := p.Status()
	return &out, nil
}

// Disconnect unlinks the integration and stops its poller.
func (s *IntegrationService) Disconnect(ctx context.Context, sess *domain.Session, in domain.Integration) (*domain.ConnectionStatus, error) {
	p, err := s.poller(sess, in)
	if err != nil {
		return nil, err
	}
	if err := s.gateway.Disconnect(ctx, sess.AccessToken, in); err != nil {
		return nil, fmt.Errorf("integration disconnect: %w", err)
	}
	p.Stop()
	p.Set(domain.ConnectionStatus{State: domain.StateDisconnected, CheckedAt: time.Now().UTC()})

	s.log.Info().Str("user_id", sess.User.ID).Str("integration", string(in)).Msg("integration disconnected")
	out := p.Status()
	return &out, nil
}

// Forget stops and drops a user's pollers, typically on sign-out.
func (s *IntegrationService) Forget(userID string) {
	s.mu.Lock()
	var dropped []*StatusPoller
	for key, p := range s.pollers {
		if key.userID == userID {
			dropped = append(dropped, p)
			delete(s.pollers, key)
		}
	}
	s.mu.Unlock()
	for _, p := range dropped {
		p.Stop()
	}
}

// Close stops every poller.
func (s *IntegrationService) Close() {
	s.cancel()
	s.mu.Lock()
	pollers := make([]*StatusPoller, 0, len(s.pollers))
	for _, p := range s.pollers {
		pollers = append(pollers, p)
	}
	s.mu.Unlock()
	for _, p := range pollers {
		p.Stop()
	}
}

func (s *IntegrationService) poller(sess *domain.Session, in domain.Integration) (*StatusPoller, error) {
	terminal, ok := terminalStates[in]
	if !ok {
		return nil, &domain.ValidationError{Fields: []string{fmt.Sprintf("unknown integration %q", in)}}
	}

	key := pollerKey{sess.User.ID, in}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pollers[key]; ok {
		// The caller's session is the live one; an older session may be gone.
		p.SetFetcher(s.fetcher(sess, in))
		return p, nil
	}
	p := NewStatusPoller(in, s.fetcher(sess, in), s.intervals[in], terminal,
		s.log.With().Str("user_id", sess.User.ID).Logger())
	s.pollers[key] = p
	return p, nil
}

// fetcher resolves a fresh access token on every tick so background polling
// survives token refreshes. Bearer-only sessions have no id and reuse their token.
func (s *IntegrationService) fetcher(sess *domain.Session, in domain.Integration) StatusFetcher {
	sessionID, token := sess.ID, sess.AccessToken
	return func(ctx context.Context) (*domain.ConnectionStatus, error) {
		tok := token
		if sessionID != "" {
			cur, err := s.sessions.Current(ctx, sessionID)
			if err != nil {
				return nil, err
			}
			tok = cur.AccessToken
		}
		return s.gateway.IntegrationStatus(ctx, tok, in)
	}
}
