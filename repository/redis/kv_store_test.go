package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskclient/domain"
)

// connect returns a client for REDIS_URL (default localhost) or skips the
// test when no server answers.
func connect(t *testing.T) *redislib.Client {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/15"
	}
	opts, err := redislib.ParseURL(url)
	if err != nil {
		t.Fatalf("ParseURL(%q): %v", url, err)
	}
	opts.DialTimeout = 300 * time.Millisecond

	client := redislib.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not reachable at %s: %v", url, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// namespace is unique per test and removed afterwards.
func namespace(t *testing.T, client *redislib.Client) string {
	t.Helper()
	ns := "taskclient-test-" + uuid.NewString()
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, ns+":*").Result()
		if len(keys) > 0 {
			_ = client.Del(ctx, keys...).Err()
		}
	})
	return ns
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	client := connect(t)
	s := NewKeyValueStore(client, namespace(t, client), 0)

	if _, err := s.Get(ctx, "token"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("Get on empty namespace: err = %v", err)
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
	if err := s.Delete(ctx, "token"); err != nil {
		t.Fatalf("Delete of absent key: %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestStoreKeysAreNamespaced(t *testing.T) {
	ctx := context.Background()
	client := connect(t)
	nsA, nsB := namespace(t, client), namespace(t, client)
	a := NewKeyValueStore(client, nsA, 0)
	b := NewKeyValueStore(client, nsB, 0)

	if err := a.Set(ctx, "user", []byte(`{"id":1}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := b.Get(ctx, "user"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("other namespace sees the key: err = %v", err)
	}
	raw, err := client.Get(ctx, nsA+":user").Result()
	if err != nil || raw != `{"id":1}` {
		t.Fatalf("raw key %s:user = %q, %v", nsA, raw, err)
	}
}

func TestStoreAppliesTTL(t *testing.T) {
	ctx := context.Background()
	client := connect(t)
	ns := namespace(t, client)

	if err := NewKeyValueStore(client, ns, time.Hour).Set(ctx, "token", []byte(`"tok"`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ttl, err := client.TTL(ctx, ns+":token").Result()
	if err != nil || ttl <= 0 || ttl > time.Hour {
		t.Fatalf("TTL = %v, %v", ttl, err)
	}

	if err := NewKeyValueStore(client, ns, 0).Set(ctx, "user", []byte(`{}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl, _ := client.TTL(ctx, ns+":user").Result(); ttl != -1 {
		t.Fatalf("TTL without expiry = %v, want -1", ttl)
	}
}

func TestDefaultNamespace(t *testing.T) {
	s := NewKeyValueStore(nil, "", 0).(*kvStore)
	if got := s.key("token"); got != "taskclient:token" {
		t.Fatalf("key = %q", got)
	}
}
