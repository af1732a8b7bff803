package middleware

import (
	"go.uber.org/zap"

	"github.com/fastygo/taskclient/internal/router"
)

// SessionReader is the slice of the session repository the guard needs.
type SessionReader interface {
	Present() bool
}

// RequireSession permits entry to protected views only while the persistent
// store holds both a token and a user. It re-reads the store on every check
// so it never trusts a possibly stale in-memory session.
func RequireSession(sessions SessionReader, logger *zap.Logger) router.Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(target router.Location) bool {
		if sessions == nil || !sessions.Present() {
			logger.Debug("protected view requires a session", zap.String("target", target.Path))
			return false
		}
		return true
	}
}
