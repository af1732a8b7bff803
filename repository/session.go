package repository

import "github.com/fastygo/taskclient/domain"

// SessionRepository persists the session the client holds. It is shared by
// the session manager, the API gateway and the route guard; absent and
// malformed entries both read as "no session".
type SessionRepository interface {
	Token() string
	User() *domain.User
	Load() domain.Session
	Present() bool
	Save(session domain.Session)
	Clear()
}
