package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskclient/domain"
	"github.com/fastygo/taskclient/repository"
)

type kvStore struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewKeyValueStore creates a Redis-backed store. Keys live under
// "<namespace>:"; a zero ttl keeps them until deleted.
func NewKeyValueStore(client *redislib.Client, namespace string, ttl time.Duration) repository.KeyValueStore {
	if namespace == "" {
		namespace = "taskclient"
	}
	return &kvStore{
		client: client,
		prefix: namespace + ":",
		ttl:    ttl,
	}
}

func (r *kvStore) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, err
	}
	return result, nil
}

func (r *kvStore) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.key(key), value, r.ttl).Err()
}

func (r *kvStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *kvStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *kvStore) Close() error {
	return r.client.Close()
}

func (r *kvStore) key(id string) string {
	return fmt.Sprintf("%s%s", r.prefix, id)
}
