// Package localstore wraps a KeyValueStore with JSON encoding and swallows
// every storage failure: reads fall back to a caller default, writes become
// no-ops. Failures are only visible in debug logs.
package localstore

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskclient/domain"
	"github.com/fastygo/taskclient/repository"
)

const opTimeout = 2 * time.Second

type Store struct {
	backend repository.KeyValueStore
	logger  *zap.Logger
}

func New(backend repository.KeyValueStore, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, logger: logger}
}

// Get decodes the value under key into a T, or returns fallback when the key
// is absent, unreadable or not valid JSON for T.
func Get[T any](s *Store, key string, fallback T) T {
	raw, ok := s.Raw(key)
	if !ok {
		return fallback
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		s.logger.Debug("local store decode failed", zap.String("key", key), zap.Error(err))
		return fallback
	}
	return out
}

// Raw returns the stored bytes without decoding them.
func (s *Store) Raw(key string) ([]byte, bool) {
	if s == nil || s.backend == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	raw, err := s.safeGet(ctx, key)
	if err != nil {
		if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			s.logger.Debug("local store read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return raw, true
}

// Set stores value as JSON. It returns once the backend write has completed
// or failed.
func (s *Store) Set(key string, value any) {
	if s == nil || s.backend == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Debug("local store encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := s.guard(func() error { return s.backend.Set(ctx, key, payload) }); err != nil {
		s.logger.Debug("local store write failed", zap.String("key", key), zap.Error(err))
	}
}

// Remove deletes key; failures are ignored like in Set.
func (s *Store) Remove(key string) {
	if s == nil || s.backend == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := s.guard(func() error { return s.backend.Delete(ctx, key) }); err != nil {
		s.logger.Debug("local store delete failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) safeGet(ctx context.Context, key string) (raw []byte, err error) {
	err = s.guard(func() error {
		var getErr error
		raw, getErr = s.backend.Get(ctx, key)
		return getErr
	})
	return raw, err
}

// guard turns a backend panic into an error so callers never see one.
func (s *Store) guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.NewError(domain.ErrCodeInternal, "local store backend panicked")
			s.logger.Warn("local store backend panicked", zap.Any("panic", r))
		}
	}()
	return fn()
}
