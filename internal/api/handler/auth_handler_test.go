package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/drbrain/dashboard/internal/core/domain"
)

var cookieOpts = CookieOptions{Name: "drbrain_session", MaxAge: time.Hour}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		signInFn: func(ctx context.Context, email, password string) (*domain.Session, error) {
			if email != "dr@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return testSession, nil
		},
	}
	h := NewAuthHandler(stub, &recordingForgetter{}, cookieOpts, "http://localhost/reset-password")

	body := strings.NewReader(`{"email":"dr@example.com","password":"secret"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login?next=/app/settings", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	ck := findCookie(rec, "drbrain_session")
	if ck == nil || ck.Value != "sid-1" || !ck.HttpOnly {
		t.Fatalf("session cookie not set correctly: %+v", ck)
	}

	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.User.ID != "user-1" || resp.Redirect != "/app/settings" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		signInFn: func(ctx context.Context, email, password string) (*domain.Session, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, &recordingForgetter{}, cookieOpts, "")

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"dr@example.com","password":"nope"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Login(c)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if findCookie(rec, "drbrain_session") != nil {
		t.Fatalf("no cookie expected on failed login")
	}
}

func TestAuthHandler_Login_ValidationError(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		signInFn: func(ctx context.Context, email, password string) (*domain.Session, error) {
			t.Fatalf("SignIn must not be called for an invalid form")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, &recordingForgetter{}, cookieOpts, "")

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"not-an-email"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Login(c)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(ve.Fields) != 2 {
		t.Fatalf("expected email and password messages, got %v", ve.Fields)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := newEcho()
	var signedOut string
	stub := &stubAuthService{
		signOutFn: func(ctx context.Context, sessionID string) error {
			signedOut = sessionID
			return nil
		},
	}
	chrome, chat := &recordingForgetter{}, &recordingForgetter{}
	h := NewAuthHandler(stub, Forgetters{chrome, chat}, cookieOpts, "")

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "drbrain_session", Value: "sid-1"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(SessionKey, testSession)

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if signedOut != "sid-1" {
		t.Fatalf("expected sign out of sid-1, got %q", signedOut)
	}
	for _, f := range []*recordingForgetter{chrome, chat} {
		if len(f.forgotten) != 1 || f.forgotten[0] != "user-1" {
			t.Fatalf("per-user state not forgotten: %v", f.forgotten)
		}
	}
	if ck := findCookie(rec, "drbrain_session"); ck == nil || ck.MaxAge >= 0 {
		t.Fatalf("expected cookie to be cleared, got %+v", ck)
	}
}

func TestAuthHandler_Logout_WithoutSession(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		signOutFn: func(ctx context.Context, sessionID string) error {
			t.Fatalf("SignOut must not be called without a cookie")
			return nil
		},
	}
	h := NewAuthHandler(stub, &recordingForgetter{}, cookieOpts, "")

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestAuthHandler_Reset(t *testing.T) {
	e := newEcho()
	var gotEmail, gotRedirect string
	stub := &stubAuthService{
		resetFn: func(ctx context.Context, email, redirectTo string) error {
			gotEmail, gotRedirect = email, redirectTo
			return nil
		},
	}
	h := NewAuthHandler(stub, &recordingForgetter{}, cookieOpts, "http://localhost/reset-password")

	req := httptest.NewRequest(http.MethodPost, "/auth/reset", strings.NewReader(`{"email":"dr@example.com"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Reset(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if gotEmail != "dr@example.com" || gotRedirect != "http://localhost/reset-password" {
		t.Fatalf("unexpected args: %s %s", gotEmail, gotRedirect)
	}
}

func TestAuthHandler_Password_RequiresSession(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubAuthService{}, &recordingForgetter{}, cookieOpts, "")

	req := httptest.NewRequest(http.MethodPost, "/auth/password", strings.NewReader(`{"password":"newsecret"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Password(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthHandler_Password(t *testing.T) {
	e := newEcho()
	var got string
	stub := &stubAuthService{
		passwordFn: func(ctx context.Context, s *domain.Session, password string) error {
			if s.AccessToken != "token-1" {
				t.Fatalf("access token not forwarded")
			}
			got = password
			return nil
		},
	}
	h := NewAuthHandler(stub, &recordingForgetter{}, cookieOpts, "")

	req := httptest.NewRequest(http.MethodPost, "/auth/password", strings.NewReader(`{"password":"newsecret"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(SessionKey, testSession)

	if err := h.Password(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || got != "newsecret" {
		t.Fatalf("unexpected result: %d %q", rec.Code, got)
	}
}

func TestRedirectTarget(t *testing.T) {
	cases := map[string]string{
		"":                  "/app/dashboard",
		"/app/profile":      "/app/profile",
		"//evil.example":    "/app/dashboard",
		`/\evil.example`:    "/app/dashboard",
		"https://evil.test": "/app/dashboard",
	}
	for in, want := range cases {
		if got := redirectTarget(in); got != want {
			t.Fatalf("redirectTarget(%q) = %q, want %q", in, got, want)
		}
	}
}
