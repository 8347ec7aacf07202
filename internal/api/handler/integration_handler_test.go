package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/drbrain/dashboard/internal/core/domain"
)

func TestIntegrationHandler_RoutesIntegration(t *testing.T) {
	e := newEcho()
	var calls []string
	svc := &stubIntegrationService{
		statusFn: func(ctx context.Context, s *domain.Session, in domain.Integration) (*domain.ConnectionStatus, error) {
			calls = append(calls, "status:"+string(in))
			return &domain.ConnectionStatus{Integration: in, State: domain.StateOpen}, nil
		},
		connectFn: func(ctx context.Context, s *domain.Session, in domain.Integration) (*domain.ConnectionStatus, error) {
			calls = append(calls, "connect:"+string(in))
			return &domain.ConnectionStatus{Integration: in, State: domain.StateConnecting, PairingCode: "ABCD-EFGH"}, nil
		},
		disconnectFn: func(ctx context.Context, s *domain.Session, in domain.Integration) (*domain.ConnectionStatus, error) {
			calls = append(calls, "disconnect:"+string(in))
			return &domain.ConnectionStatus{Integration: in, State: domain.StateDisconnected}, nil
		},
	}
	h := NewIntegrationHandler(svc)

	run := func(method string, fn echo.HandlerFunc) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(method, "/", nil), rec)
		c.Set(SessionKey, testSession)
		if err := fn(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		return rec
	}

	run(http.MethodGet, h.Status(domain.IntegrationWhatsApp))
	rec := run(http.MethodPost, h.Connect(domain.IntegrationWhatsApp))
	run(http.MethodPost, h.Disconnect(domain.IntegrationGoogleCalendar))

	want := []string{"status:whatsapp", "connect:whatsapp", "disconnect:google_calendar"}
	if len(calls) != len(want) {
		t.Fatalf("unexpected calls %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}

	var st domain.ConnectionStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if st.PairingCode != "ABCD-EFGH" || st.State != domain.StateConnecting {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestIntegrationHandler_UpstreamError(t *testing.T) {
	e := newEcho()
	svc := &stubIntegrationService{
		statusFn: func(ctx context.Context, s *domain.Session, in domain.Integration) (*domain.ConnectionStatus, error) {
			return nil, domain.ErrTransport
		},
	}
	h := NewIntegrationHandler(svc)

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(SessionKey, testSession)
	if err := h.Status(domain.IntegrationGoogleCalendar)(c); !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
