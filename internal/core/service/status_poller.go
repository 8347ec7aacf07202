package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/drbrain/dashboard/internal/api/metrics"
	"github.com/drbrain/dashboard/internal/core/domain"
)

// StatusFetcher reads the current remote connection status.
type StatusFetcher func(ctx context.Context) (*domain.ConnectionStatus, error)

// StatusPoller polls an integration's status on a fixed interval until the
// terminal state is observed, then stops issuing requests.
type StatusPoller struct {
	integration domain.Integration
	fetch       StatusFetcher
	interval    time.Duration
	terminal    domain.ConnectionState
	log         zerolog.Logger

	mu      sync.Mutex
	last    domain.ConnectionStatus
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewStatusPoller(integration domain.Integration, fetch StatusFetcher, interval time.Duration, terminal domain.ConnectionState, log zerolog.Logger) *StatusPoller {
	return &StatusPoller{
		integration: integration,
		fetch:       fetch,
		interval:    interval,
		terminal:    terminal,
		log:         log,
		last:        domain.ConnectionStatus{Integration: integration, State: domain.StateDisconnected},
	}
}

// Start launches the polling goroutine unless it is already running or the
// terminal state has been reached. It reports whether a goroutine was started.
func (p *StatusPoller) Start(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running || p.last.State == p.terminal {
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	metrics.ActivePollers.WithLabelValues(string(p.integration)).Inc()
	go p.run(ctx, cancel, p.done)
	return true
}

// Stop cancels a running poller and waits for it to exit.
func (p *StatusPoller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Refresh performs a single synchronous poll outside the ticker.
func (p *StatusPoller) Refresh(ctx context.Context) (domain.ConnectionStatus, error) {
	if err := p.tick(ctx); err != nil {
		return p.Status(), err
	}
	return p.Status(), nil
}

// Status returns the last known status.
func (p *StatusPoller) Status() domain.ConnectionStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.last
	st.Polling = p.running
	return st
}

// SetFetcher swaps the fetch function, typically for one bound to a newer
// session. The running goroutine picks it up on its next tick.
func (p *StatusPoller) SetFetcher(fetch StatusFetcher) {
	p.mu.Lock()
	p.fetch = fetch
	p.mu.Unlock()
}

// Set records a status observed outside polling, such as the optimistic
// result of a connect action.
func (p *StatusPoller) Set(st domain.ConnectionStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st.Integration = p.integration
	p.last = st
}

func (p *StatusPoller) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer func() {
		cancel()
		p.mu.Lock()
		p.running = false
		p.cancel = nil
		p.mu.Unlock()
		metrics.ActivePollers.WithLabelValues(string(p.integration)).Dec()
		close(done)
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.tick(ctx); err != nil {
				if ctx.Err() != nil || errors.Is(err, domain.ErrUnauthenticated) {
					return
				}
				continue
			}
			if p.Status().State == p.terminal {
				p.log.Debug().Str("integration", string(p.integration)).Msg("terminal state reached, polling stopped")
				return
			}
		}
	}
}

func (p *StatusPoller) tick(ctx context.Context) error {
	p.mu.Lock()
	fetch := p.fetch
	p.mu.Unlock()

	st, err := fetch(ctx)
	if err != nil {
		metrics.StatusPollsTotal.WithLabelValues(string(p.integration), "error").Inc()
		p.log.Warn().Err(err).Str("integration", string(p.integration)).Msg("status poll failed")
		return err
	}
	metrics.StatusPollsTotal.WithLabelValues(string(p.integration), string(st.State)).Inc()

	p.mu.Lock()
	defer p.mu.Unlock()
	next := *st
	next.Integration = p.integration
	if next.CheckedAt.IsZero() {
		next.CheckedAt = time.Now().UTC()
	}
	// A status answer carries no pairing material; keep showing the last
	// one while the link is still pending.
	if next.State != p.terminal && next.PairingCode == "" && next.QRCode == "" && next.AuthURL == "" {
		next.PairingCode = p.last.PairingCode
		next.QRCode = p.last.QRCode
		next.AuthURL = p.last.AuthURL
	}
	p.last = next
	return nil
}
