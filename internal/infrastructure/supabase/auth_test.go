package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drbrain/dashboard/internal/core/domain"
)

func TestPasswordGrant(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, testAnonKey, r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "s3cret" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": "Invalid login credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "access",
			"refresh_token": "refresh",
			"expires_in":    3600,
			"user":          map[string]string{"id": "user-1", "email": body["email"]},
		})
	})
	a := NewAuth(c)

	grant, err := a.PasswordGrant(context.Background(), "ana@clinic.example", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "access", grant.AccessToken)
	assert.Equal(t, time.Hour, grant.ExpiresIn)
	assert.Equal(t, "user-1", grant.User.ID)

	_, err = a.PasswordGrant(context.Background(), "ana@clinic.example", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRefreshGrant_TTLFromClaims(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute)
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  access,
			"refresh_token": "refresh-2",
			"user":          map[string]string{"id": "user-1"},
		})
	})

	grant, err := NewAuth(c).RefreshGrant(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.InDelta(t, (30 * time.Minute).Seconds(), grant.ExpiresIn.Seconds(), 5)
}

func TestRecover_PassesRedirect(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/recover", r.URL.Path)
		assert.Equal(t, "https://app.example/reset", r.URL.Query().Get("redirect_to"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	})

	assert.NoError(t, NewAuth(c).Recover(context.Background(), "ana@clinic.example", "https://app.example/reset"))
}

func TestLogoutAndUpdateUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		case "/auth/v1/user":
			assert.Equal(t, http.MethodPut, r.Method)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "JWT expired"})
		}
	})
	a := NewAuth(c)

	assert.NoError(t, a.Logout(context.Background(), "access"))
	assert.ErrorIs(t, a.UpdateUser(context.Background(), "access", "n3w-pass"), domain.ErrUnauthenticated)
}
