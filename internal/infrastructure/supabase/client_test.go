package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

const testAnonKey = "anon-key"

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{URL: srv.URL + "/", AnonKey: testAnonKey, Timeout: 2 * time.Second}, zerolog.Nop())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestInvoke_SendsKeyAndBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/functions/v1/get-profile", r.URL.Path)
		assert.Equal(t, testAnonKey, r.Header.Get("apikey"))
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"nome": "Ana", "onboarding_concluido": true})
	})

	p, err := NewFunctions(c).GetProfile(context.Background(), "user-token", ports.NoRetry)
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.Nome)
	assert.True(t, p.OnboardingConcluido)
}

func TestInvoke_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
	})

	_, err := NewFunctions(c).GetProfile(context.Background(), "tok", ports.NoRetry)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvoke_RemoteErrorCarriesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "not allowed"})
	})

	_, err := NewFunctions(c).GetPixSettings(context.Background(), "tok")
	var re *domain.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusForbidden, re.Status)
	assert.Equal(t, "not allowed", re.Message)
}

func TestInvoke_SchemaViolationIsInvalidPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// onboarding_concluido missing
		writeJSON(w, http.StatusOK, map[string]any{"nome": "Ana"})
	})

	_, err := NewFunctions(c).GetProfile(context.Background(), "tok", ports.NoRetry)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestInvoke_RetriesServerErrorsUnderPolicy(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "cold start"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"onboarding_concluido": false})
	})

	p, err := NewFunctions(c).GetProfile(context.Background(), "tok", ports.RetryPolicy{Attempts: 2, Delay: time.Millisecond})
	require.NoError(t, err)
	assert.False(t, p.OnboardingConcluido)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestInvoke_NoRetryWithoutPolicy(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := NewFunctions(c).GetProfile(context.Background(), "tok", ports.NoRetry)
	var re *domain.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "Internal Server Error", re.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestInvoke_ClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := NewFunctions(c).GetProfile(context.Background(), "tok", ports.RetryPolicy{Attempts: 3})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestInvoke_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(Config{URL: srv.URL, AnonKey: testAnonKey}, zerolog.Nop())

	_, err := NewFunctions(c).GetProfile(context.Background(), "tok", ports.NoRetry)
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/auth/v1/health", r.URL.Path)
		assert.Equal(t, "Bearer "+testAnonKey, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]string{"name": "GoTrue"})
	})
	assert.NoError(t, c.Health(context.Background()))
}
