package middleware

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/taskclient/domain"
	"github.com/fastygo/taskclient/internal/localstore"
	"github.com/fastygo/taskclient/internal/router"
	"github.com/fastygo/taskclient/repository/local"
	"github.com/fastygo/taskclient/repository/memory"
)

func setup(t *testing.T) (*memory.Store, *router.Router) {
	t.Helper()
	backend := memory.NewStore()
	sessions := local.NewSessionRepository(localstore.New(backend, nil))

	r := router.New(router.PathLogin, router.PathLogin, nil)
	r.Handle(router.Route{Path: router.PathLogin, Auth: true})
	r.Handle(router.Route{Path: router.PathTasks, Protected: true})
	r.Use(RequireSession(sessions, nil))

	sessions.Save(domain.Session{Token: "tok", User: &domain.User{ID: 1, Email: "a@b.com"}})
	return backend, r
}

func TestGuardPermitsWithStoredSession(t *testing.T) {
	_, r := setup(t)
	if _, err := r.Navigate(router.PathTasks, router.Push); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if r.Current().Path != router.PathTasks {
		t.Fatalf("Current = %s", r.Current().Path)
	}
}

func TestGuardRereadsStoreOnEveryCheck(t *testing.T) {
	tests := []struct {
		name   string
		remove []string
	}{
		{"token removed", []string{local.KeyToken}},
		{"user removed", []string{local.KeyUser}},
		{"both removed", []string{local.KeyToken, local.KeyUser}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, r := setup(t)
			if _, err := r.Navigate(router.PathTasks, router.Push); err != nil {
				t.Fatalf("first navigation: %v", err)
			}

			// storage cleared behind everyone's back, no logout involved
			for _, key := range tt.remove {
				_ = backend.Delete(context.Background(), key)
			}

			_, err := r.Navigate(router.PathTasks, router.Push)
			if !errors.Is(err, router.ErrDenied) {
				t.Fatalf("err = %v, want ErrDenied", err)
			}
			if r.Current().Path != router.PathLogin {
				t.Fatalf("Current = %s, want login", r.Current().Path)
			}
		})
	}
}

func TestGuardTreatsMalformedAsAbsent(t *testing.T) {
	backend, r := setup(t)
	_ = backend.Set(context.Background(), local.KeyUser, []byte("{broken"))
	if _, err := r.Navigate(router.PathTasks, router.Push); !errors.Is(err, router.ErrDenied) {
		t.Fatalf("err = %v, want ErrDenied", err)
	}
}

func TestGuardDenialLogsAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	guard := RequireSession(local.NewSessionRepository(localstore.New(memory.NewStore(), nil)), zap.New(core))

	if guard(router.Location{Path: router.PathTasks}) {
		t.Fatal("guard permitted an empty store")
	}
	entries := logs.All()
	if len(entries) != 1 || entries[0].Level != zapcore.DebugLevel {
		t.Fatalf("entries = %+v, want one debug entry", entries)
	}
	if got := logs.FilterLevelExact(zapcore.InfoLevel).Len(); got != 0 {
		t.Fatalf("info entries = %d", got)
	}
}
