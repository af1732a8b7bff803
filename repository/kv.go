package repository

import "context"

// KeyValueStore is the durable byte store behind the local session storage.
// Get returns domain.ErrKeyNotFound for absent keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
