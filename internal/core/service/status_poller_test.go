package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drbrain/dashboard/internal/core/domain"
)

// sequenceFetcher returns the given states in order and repeats the last one.
func sequenceFetcher(states ...domain.ConnectionState) (StatusFetcher, *int32) {
	var calls int32
	return func(context.Context) (*domain.ConnectionStatus, error) {
		n := int(atomic.AddInt32(&calls, 1)) - 1
		if n >= len(states) {
			n = len(states) - 1
		}
		return &domain.ConnectionStatus{State: states[n]}, nil
	}, &calls
}

func TestStatusPoller_StopsAtTerminalState(t *testing.T) {
	fetch, calls := sequenceFetcher(domain.StateConnecting, domain.StateConnecting, domain.StateOpen)
	p := NewStatusPoller(domain.IntegrationWhatsApp, fetch, 5*time.Millisecond, domain.StateOpen, zerolog.Nop())

	require.True(t, p.Start(context.Background()))
	require.Eventually(t, func() bool {
		st := p.Status()
		return st.State == domain.StateOpen && !st.Polling
	}, time.Second, 5*time.Millisecond)

	settled := atomic.LoadInt32(calls)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, atomic.LoadInt32(calls), "no requests after terminal state")
	assert.False(t, p.Start(context.Background()), "terminal poller must not restart")
}

func TestStatusPoller_StartIsIdempotent(t *testing.T) {
	fetch, _ := sequenceFetcher(domain.StateConnecting)
	p := NewStatusPoller(domain.IntegrationWhatsApp, fetch, time.Hour, domain.StateOpen, zerolog.Nop())

	require.True(t, p.Start(context.Background()))
	assert.False(t, p.Start(context.Background()))
	assert.True(t, p.Status().Polling)

	p.Stop()
	assert.False(t, p.Status().Polling)
}

func TestStatusPoller_KeepsPairingMaterialWhilePending(t *testing.T) {
	fetch, _ := sequenceFetcher(domain.StateConnecting)
	p := NewStatusPoller(domain.IntegrationWhatsApp, fetch, time.Hour, domain.StateOpen, zerolog.Nop())
	p.Set(domain.ConnectionStatus{State: domain.StateConnecting, PairingCode: "ABCD-1234", QRCode: "qr"})

	st, err := p.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ABCD-1234", st.PairingCode)
	assert.Equal(t, "qr", st.QRCode)
	assert.False(t, st.CheckedAt.IsZero())
}

func TestStatusPoller_StopsWhenSessionIsGone(t *testing.T) {
	var calls int32
	p := NewStatusPoller(domain.IntegrationGoogleCalendar, func(context.Context) (*domain.ConnectionStatus, error) {
		atomic.AddInt32(&calls, 1)
		return nil, domain.ErrUnauthenticated
	}, 5*time.Millisecond, domain.StateConnected, zerolog.Nop())

	require.True(t, p.Start(context.Background()))
	require.Eventually(t, func() bool { return !p.Status().Polling }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestStatusPoller_TransientErrorsKeepPolling(t *testing.T) {
	var mu sync.Mutex
	n := 0
	p := NewStatusPoller(domain.IntegrationGoogleCalendar, func(context.Context) (*domain.ConnectionStatus, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		if n < 3 {
			return nil, errors.New("timeout")
		}
		return &domain.ConnectionStatus{State: domain.StateConnected}, nil
	}, 5*time.Millisecond, domain.StateConnected, zerolog.Nop())

	require.True(t, p.Start(context.Background()))
	require.Eventually(t, func() bool {
		return p.Status().State == domain.StateConnected && !p.Status().Polling
	}, time.Second, 5*time.Millisecond)
}
