package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/drbrain/dashboard/internal/api/handler"
	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

// SessionOptions configure how a request is tied to a session.
type SessionOptions struct {
	CookieName string
	// JWTSecret verifies bearer access tokens issued by the hosted auth
	// service. Empty disables the bearer path.
	JWTSecret string
}

// Session resolves the caller's session and stores it under
// handler.SessionKey. It never rejects a request for lacking one; Guard and
// RequireSession decide what anonymous callers may reach. A dead session
// cookie is cleared.
func Session(sessions ports.SessionSource, opts SessionOptions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" && opts.JWTSecret != "" {
				sess, err := bearerSession(authHeader, opts.JWTSecret)
				if err != nil {
					return err
				}
				c.Set(handler.SessionKey, sess)
				return next(c)
			}

			ck, err := c.Cookie(opts.CookieName)
			if err != nil || ck.Value == "" {
				return next(c)
			}
			sess, err := sessions.Current(c.Request().Context(), ck.Value)
			switch {
			case errors.Is(err, domain.ErrUnauthenticated):
				c.SetCookie(&http.Cookie{Name: opts.CookieName, Path: "/", MaxAge: -1, HttpOnly: true})
			case err != nil:
				return err
			default:
				c.Set(handler.SessionKey, sess)
				ctx := zerolog.Ctx(c.Request().Context()).With().Str("user_id", sess.User.ID).Logger().
					WithContext(c.Request().Context())
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}

// bearerSession validates an HS256 access token and builds a request-scoped
// session from its claims.
func bearerSession(authHeader, secret string) (*domain.Session, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tkn.Valid {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	email, _ := claims["email"].(string)

	sess := &domain.Session{
		AccessToken: parts[1],
		User:        domain.User{ID: sub, Email: email},
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		sess.ExpiresAt = exp.Time
	} else {
		sess.ExpiresAt = time.Now().Add(time.Hour)
	}
	return sess, nil
}
