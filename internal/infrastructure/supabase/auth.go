package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

// Auth implements ports.IdentityProvider over the GoTrue API.
type Auth struct {
	c *Client
}

func NewAuth(c *Client) *Auth {
	return &Auth{c: c}
}

var _ ports.IdentityProvider = (*Auth)(nil)

type tokenSchema struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
	ExpiresIn    int64  `json:"expires_in" validate:"gte=0"`
	User         struct {
		ID    string `json:"id" validate:"required"`
		Email string `json:"email"`
	} `json:"user"`
}

func (a *Auth) PasswordGrant(ctx context.Context, email, password string) (*domain.TokenGrant, error) {
	body := map[string]string{"email": email, "password": password}
	return a.grant(ctx, "password", body)
}

func (a *Auth) RefreshGrant(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
	body := map[string]string{"refresh_token": refreshToken}
	return a.grant(ctx, "refresh_token", body)
}

func (a *Auth) grant(ctx context.Context, grantType string, body any) (*domain.TokenGrant, error) {
	var out tokenSchema
	err := a.c.do(ctx, request{
		name:   "auth_token_" + grantType,
		method: http.MethodPost,
		path:   "/auth/v1/token?grant_type=" + url.QueryEscape(grantType),
		body:   body,
		out:    &out,
		retry:  ports.NoRetry,
	})
	if err != nil {
		var re *domain.RemoteError
		if errors.As(err, &re) && (re.Status == http.StatusBadRequest || re.Status == http.StatusUnauthorized) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	ttl := time.Duration(out.ExpiresIn) * time.Second
	if ttl == 0 {
		ttl = tokenTTL(out.AccessToken)
	}
	return &domain.TokenGrant{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    ttl,
		User:         domain.User{ID: out.User.ID, Email: out.User.Email},
	}, nil
}

// Logout revokes the refresh tokens of the session that owns accessToken.
func (a *Auth) Logout(ctx context.Context, accessToken string) error {
	return a.c.do(ctx, request{
		name:   "auth_logout",
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		token:  accessToken,
		retry:  ports.NoRetry,
	})
}

// Recover sends the password reset email. redirectTo is where the link lands.
func (a *Auth) Recover(ctx context.Context, email, redirectTo string) error {
	path := "/auth/v1/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	return a.c.do(ctx, request{
		name:   "auth_recover",
		method: http.MethodPost,
		path:   path,
		body:   map[string]string{"email": email},
		retry:  ports.NoRetry,
	})
}

func (a *Auth) UpdateUser(ctx context.Context, accessToken, password string) error {
	err := a.c.do(ctx, request{
		name:   "auth_update_user",
		method: http.MethodPut,
		path:   "/auth/v1/user",
		token:  accessToken,
		body:   map[string]string{"password": password},
		retry:  ports.NoRetry,
	})
	var re *domain.RemoteError
	if errors.As(err, &re) && re.Status == http.StatusUnauthorized {
		return domain.ErrUnauthenticated
	}
	return err
}

// tokenTTL reads the exp claim when the grant omitted expires_in. The token
// came straight from the auth server, so the signature is not checked here.
func tokenTTL(access string) time.Duration {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, &claims); err != nil || claims.ExpiresAt == nil {
		return 0
	}
	if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
		return ttl
	}
	return 0
}
