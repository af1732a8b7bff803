// Package task holds the task query cache: one cached page per shaped
// (status, page, limit) key, de-duplicated fetches and invalidate-all after
// every successful mutation.
package task

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fastygo/taskclient/api/client"
	"github.com/fastygo/taskclient/domain"
	"github.com/fastygo/taskclient/internal/notify"
	"github.com/fastygo/taskclient/pkg/validate"
	"github.com/fastygo/taskclient/usecase"
)

type idLock struct {
	mu   sync.Mutex
	refs int
}

type Cache struct {
	gateway  usecase.TaskGateway
	notifier notify.Notifier
	logger   *zap.Logger
	group    singleflight.Group

	mu         sync.Mutex
	views      map[client.ListParams]*domain.TaskPage
	generation uint64
	busy       map[usecase.Operation]int
	locks      map[int64]*idLock
}

func New(gateway usecase.TaskGateway, notifier notify.Notifier, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Cache{
		gateway:  gateway,
		notifier: notifier,
		logger:   logger.Named("tasks"),
		views:    make(map[client.ListParams]*domain.TaskPage),
		busy:     make(map[usecase.Operation]int),
		locks:    make(map[int64]*idLock),
	}
}

// List returns the page for q, from the cache when possible. Identical
// concurrent calls share one fetch. A caller whose ctx ends stops waiting but
// does not cancel the shared fetch.
func (c *Cache) List(ctx context.Context, q domain.TaskQuery) (*domain.TaskPage, error) {
	key := client.ShapeListQuery(q)

	c.mu.Lock()
	if page, ok := c.views[key]; ok {
		c.mu.Unlock()
		return page.Clone(), nil
	}
	gen := c.generation
	c.mu.Unlock()

	// the generation is part of the flight key so a list issued after an
	// invalidation never joins a fetch that started before it
	flight := fmt.Sprintf("%d|%s|%d|%d", gen, key.Status, key.Page, key.Limit)
	fetchCtx := context.WithoutCancel(ctx)

	ch := c.group.DoChan(flight, func() (interface{}, error) {
		return c.fetch(fetchCtx, key, q, gen)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.TaskPage).Clone(), nil
	case <-ctx.Done():
		return nil, domain.WrapError(domain.ErrCodeTransport, "request cancelled", ctx.Err())
	}
}

func (c *Cache) fetch(ctx context.Context, key client.ListParams, q domain.TaskQuery, gen uint64) (*domain.TaskPage, error) {
	c.mu.Lock()
	if page, ok := c.views[key]; ok && c.generation == gen {
		c.mu.Unlock()
		return page, nil
	}
	c.mu.Unlock()

	c.begin(usecase.OperationList)
	defer c.end(usecase.OperationList)

	page, err := c.gateway.ListTasks(ctx, q)
	if err != nil {
		c.logger.Warn("task list fetch failed", zap.Any("key", key), zap.Error(err))
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		c.logger.Debug("discarding task page fetched before invalidation", zap.Any("key", key))
		return page, nil
	}
	c.views[key] = page.Clone()
	return page, nil
}

// Cached returns the cached page for q without fetching.
func (c *Cache) Cached(q domain.TaskQuery) (*domain.TaskPage, bool) {
	key := client.ShapeListQuery(q)
	c.mu.Lock()
	defer c.mu.Unlock()
	page, ok := c.views[key]
	return page.Clone(), ok
}

// Get reads one task straight from the API; single tasks are not cached.
func (c *Cache) Get(ctx context.Context, id int64) (*domain.Task, error) {
	return c.gateway.GetTask(ctx, id)
}

func (c *Cache) Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	if err := validate.Check(&draft); err != nil {
		return nil, err
	}
	return mutate(c, usecase.OperationCreate, 0,
		func() (*domain.Task, error) { return c.gateway.CreateTask(ctx, draft) },
		func(*domain.Task) string { return "Task created" })
}

func (c *Cache) Update(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	if err := validate.Check(&patch); err != nil {
		return nil, err
	}
	return mutate(c, usecase.OperationUpdate, id,
		func() (*domain.Task, error) { return c.gateway.UpdateTask(ctx, id, patch) },
		func(*domain.Task) string { return "Task updated" })
}

func (c *Cache) Remove(ctx context.Context, id int64) error {
	_, err := mutate(c, usecase.OperationDelete, id,
		func() (struct{}, error) { return struct{}{}, c.gateway.DeleteTask(ctx, id) },
		func(struct{}) string { return "Task deleted" })
	return err
}

func (c *Cache) ToggleStatus(ctx context.Context, id int64) (*domain.Task, error) {
	return mutate(c, usecase.OperationToggle, id,
		func() (*domain.Task, error) { return c.gateway.ToggleTaskStatus(ctx, id) },
		func(t *domain.Task) string {
			if t.IsCompleted() {
				return "Task marked as completed"
			}
			return "Task marked as pending"
		})
}

// mutate runs one gateway mutation. Calls for the same task id run one at a
// time. Success invalidates every cached view; failure leaves the cache as
// it was.
func mutate[T any](c *Cache, op usecase.Operation, id int64, call func() (T, error), success func(T) string) (T, error) {
	c.begin(op)
	defer c.end(op)

	if id != 0 {
		unlock := c.lockID(id)
		defer unlock()
	}

	out, err := call()
	if err != nil {
		c.logger.Warn("task mutation failed", zap.String("op", string(op)), zap.Int64("task_id", id), zap.Error(err))
		c.notifier.Error(domain.Message(err))
		return out, err
	}

	c.Invalidate()
	c.logger.Debug("task mutation applied", zap.String("op", string(op)), zap.Int64("task_id", id))
	c.notifier.Success(success(out))
	return out, nil
}

// Invalidate drops every cached view. Fetches already in flight finish but
// are not stored.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.views = make(map[client.ListParams]*domain.TaskPage)
}

// Clear forgets all task data when the session ends.
func (c *Cache) Clear() {
	c.Invalidate()
	c.logger.Debug("task cache cleared")
}

// Refresh invalidates the cache and fetches q again.
func (c *Cache) Refresh(ctx context.Context, q domain.TaskQuery) (*domain.TaskPage, error) {
	c.Invalidate()
	return c.List(ctx, q)
}

// Busy reports whether an operation of kind op is in flight.
func (c *Cache) Busy(op usecase.Operation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy[op] > 0
}

// Views returns how many pages are cached.
func (c *Cache) Views() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.views)
}

func (c *Cache) begin(op usecase.Operation) {
	c.mu.Lock()
	c.busy[op]++
	c.mu.Unlock()
}

func (c *Cache) end(op usecase.Operation) {
	c.mu.Lock()
	c.busy[op]--
	c.mu.Unlock()
}

func (c *Cache) lockID(id int64) func() {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &idLock{}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, id)
		}
		c.mu.Unlock()
	}
}

var _ usecase.CacheClearer = (*Cache)(nil)
