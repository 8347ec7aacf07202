package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/drbrain/dashboard/internal/core/domain"
)

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestProfileHandler_GetProfile(t *testing.T) {
	e := newEcho()
	profiles := &stubProfileService{
		getFn: func(ctx context.Context, s *domain.Session) (*domain.Profile, error) {
			if s.AccessToken != "token-1" {
				t.Fatalf("access token not forwarded")
			}
			return &domain.Profile{Nome: "Dra. Ana", OnboardingConcluido: true}, nil
		},
	}
	h := NewProfileHandler(profiles, &stubSettingsService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/profile", nil), rec)
	c.Set(SessionKey, testSession)

	if err := h.GetProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var p domain.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if p.Nome != "Dra. Ana" || !p.OnboardingConcluido {
		t.Fatalf("unexpected profile %+v", p)
	}
}

func TestProfileHandler_UpdateProfile_EmptyRequiredFieldIssuesNoCall(t *testing.T) {
	e := newEcho()
	profiles := &stubProfileService{
		updateFn: func(ctx context.Context, s *domain.Session, p domain.Profile) (*domain.Profile, error) {
			t.Fatalf("Update must not be called for an invalid form")
			return nil, nil
		},
	}
	h := NewProfileHandler(profiles, &stubSettingsService{})

	body := `{"nome":"Dra. Ana","telefone":"","especialidade":"Neurologia","endereco_clinica":"Rua A, 1"}`
	c := e.NewContext(jsonRequest(http.MethodPut, "/api/profile", body), httptest.NewRecorder())
	c.Set(SessionKey, testSession)

	err := h.UpdateProfile(c)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(ve.Fields) != 1 || ve.Fields[0] != "telefone is required" {
		t.Fatalf("unexpected messages %v", ve.Fields)
	}
}

func TestProfileHandler_UpdateProfile(t *testing.T) {
	e := newEcho()
	var got domain.Profile
	profiles := &stubProfileService{
		updateFn: func(ctx context.Context, s *domain.Session, p domain.Profile) (*domain.Profile, error) {
			got = p
			return &p, nil
		},
	}
	h := NewProfileHandler(profiles, &stubSettingsService{})

	body := `{"nome":"Dra. Ana","telefone":"+5511999999999","especialidade":"Neurologia","endereco_clinica":"Rua A, 1","nome_assistente":"Bia"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/api/profile", body), rec)
	c.Set(SessionKey, testSession)

	if err := h.UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.NomeAssistente != "Bia" || got.EnderecoClinica != "Rua A, 1" {
		t.Fatalf("form not mapped: %+v", got)
	}
}

func TestProfileHandler_UpdatePix(t *testing.T) {
	e := newEcho()
	var got domain.PixSettings
	settings := &stubSettingsService{
		updateFn: func(ctx context.Context, s *domain.Session, in domain.PixSettings) (*domain.PixSettings, error) {
			got = in
			return &in, nil
		},
	}
	h := NewProfileHandler(&stubProfileService{}, settings)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/api/settings/pix", `{"pix_key_type":"email","pix_key":"dr@example.com"}`), rec)
	c.Set(SessionKey, testSession)

	if err := h.UpdatePix(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got.KeyType != domain.PixKeyEmail || got.Key != "dr@example.com" {
		t.Fatalf("unexpected settings %+v", got)
	}
}

func TestProfileHandler_UpdatePix_UnknownKeyType(t *testing.T) {
	e := newEcho()
	settings := &stubSettingsService{
		updateFn: func(ctx context.Context, s *domain.Session, in domain.PixSettings) (*domain.PixSettings, error) {
			t.Fatalf("UpdatePix must not be called")
			return nil, nil
		},
	}
	h := NewProfileHandler(&stubProfileService{}, settings)

	c := e.NewContext(jsonRequest(http.MethodPut, "/api/settings/pix", `{"pix_key_type":"iban","pix_key":"x"}`), httptest.NewRecorder())
	c.Set(SessionKey, testSession)

	if err := h.UpdatePix(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProfileHandler_Unauthenticated(t *testing.T) {
	e := newEcho()
	h := NewProfileHandler(&stubProfileService{}, &stubSettingsService{})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/settings/pix", nil), httptest.NewRecorder())

	err := h.GetPix(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestProfileHandler_UpdateProfile_IgnoresClientOnboardingFlag(t *testing.T) {
	e := newEcho()
	var forwarded *domain.Profile
	profiles := &stubProfileService{
		updateFn: func(ctx context.Context, s *domain.Session, p domain.Profile) (*domain.Profile, error) {
			forwarded = &p
			return &p, nil
		},
	}
	h := NewProfileHandler(profiles, &stubSettingsService{})

	body := `{"nome":"Dra. Ana","telefone":"11999990000","especialidade":"Neurologia","endereco_clinica":"Rua A, 1","onboarding_concluido":true}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/api/profile", body), rec)
	c.Set(SessionKey, testSession)

	if err := h.UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if forwarded == nil || forwarded.Nome != "Dra. Ana" {
		t.Fatalf("profile not forwarded: %+v", forwarded)
	}
	if forwarded.OnboardingConcluido {
		t.Fatalf("client-supplied onboarding flag must not be forwarded")
	}
}
