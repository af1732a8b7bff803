package local

import (
	"encoding/json"
	"strings"

	"github.com/fastygo/taskclient/domain"
	"github.com/fastygo/taskclient/internal/localstore"
	"github.com/fastygo/taskclient/repository"
)

const (
	KeyToken = "token"
	KeyUser  = "user"
)

type sessionRepository struct {
	store *localstore.Store
}

// NewSessionRepository stores the session under the "token" and "user" keys.
func NewSessionRepository(store *localstore.Store) repository.SessionRepository {
	return &sessionRepository{store: store}
}

// Token accepts both a JSON-quoted and a raw stored value.
func (r *sessionRepository) Token() string {
	raw, ok := r.store.Raw(KeyToken)
	if !ok {
		return ""
	}
	return unwrapToken(raw)
}

func (r *sessionRepository) User() *domain.User {
	user := localstore.Get[*domain.User](r.store, KeyUser, nil)
	if user == nil || (user.ID == 0 && user.Email == "") {
		return nil
	}
	return user
}

func (r *sessionRepository) Load() domain.Session {
	return domain.Session{Token: r.Token(), User: r.User()}
}

func (r *sessionRepository) Present() bool {
	return r.Token() != "" && r.User() != nil
}

func (r *sessionRepository) Save(session domain.Session) {
	if session.Token == "" || session.User == nil {
		r.Clear()
		return
	}
	r.store.Set(KeyToken, session.Token)
	r.store.Set(KeyUser, session.User)
}

func (r *sessionRepository) Clear() {
	r.store.Remove(KeyToken)
	r.store.Remove(KeyUser)
}

func unwrapToken(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return ""
	}
	var decoded string
	if err := json.Unmarshal([]byte(text), &decoded); err == nil {
		return strings.TrimSpace(decoded)
	}
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		// some other JSON value; not a token
		return ""
	}
	return text
}
