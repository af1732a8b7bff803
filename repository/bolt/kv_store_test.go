package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fastygo/taskclient/domain"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	s, err := Open(path, "test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, path
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)
	defer s.Close()

	if _, err := s.Get(ctx, "token"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("Get on empty store: err = %v", err)
	}
	if err := s.Set(ctx, "token", []byte(`"tok"`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "token")
	if err != nil || string(got) != `"tok"` {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if err := s.Delete(ctx, "token"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "token"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("Get after Delete: err = %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	s, path := openTemp(t)
	if err := s.Set(ctx, "user", []byte(`{"id":1}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path, "test")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(ctx, "user")
	if err != nil || string(got) != `{"id":1}` {
		t.Fatalf("Get after reopen = %q, %v", got, err)
	}
}

func TestClosedStoreErrors(t *testing.T) {
	var s *Store
	if _, err := s.Get(context.Background(), "k"); err == nil {
		t.Fatal("nil store Get returned no error")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("nil store Close: %v", err)
	}
}
