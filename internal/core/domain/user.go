package domain

import "time"

// User is the authenticated physician as known to the hosted auth service.
type User struct {
	ID    string `json:"id"    bson:"id"`
	Email string `json:"email" bson:"email"`
}

// Session is the server-side record behind the browser's session cookie.
// Only the digest of ID is ever persisted.
type Session struct {
	ID           string    `json:"-"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Expired reports whether the access token is expired or expires within margin.
func (s *Session) Expired(now time.Time, margin time.Duration) bool {
	return !now.Add(margin).Before(s.ExpiresAt)
}

// TokenGrant is what the auth service hands back on sign-in or refresh.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	User         User
}
