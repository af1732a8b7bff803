// Package tokeninfo reads the claims of a session token for display. It
// never verifies signatures: the client holds no key and the API stays the
// only authority on whether a token is valid.
package tokeninfo

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Info is what can be learned from a token without verifying it.
type Info struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	// JWT is false for opaque tokens; the other fields are then zero.
	JWT bool
}

// Inspect decodes token. Opaque (non-JWT) tokens are not an error.
func Inspect(token string) Info {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Info{}
	}
	info := Info{Subject: claims.Subject, JWT: true}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info
}

// Expired reports whether the token carries an expiry before now.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Remaining is the time left before expiry, or 0 when unknown or past.
func (i Info) Remaining(now time.Time) time.Duration {
	if i.ExpiresAt.IsZero() || !now.Before(i.ExpiresAt) {
		return 0
	}
	return i.ExpiresAt.Sub(now)
}
