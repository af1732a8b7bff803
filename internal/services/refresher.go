package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskclient/domain"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// SessionReader reports whether a session is persisted.
type SessionReader interface {
	Present() bool
}

// PageRefresher re-fetches one task view, bypassing the cache.
type PageRefresher interface {
	Refresh(ctx context.Context, q domain.TaskQuery) (*domain.TaskPage, error)
}

// RefresherConfig controls how often the active view is re-fetched.
type RefresherConfig struct {
	Interval time.Duration
}

// Refresher keeps the task view the user is looking at fresh while a
// session exists and the API is reachable.
type Refresher struct {
	cache    PageRefresher
	sessions SessionReader
	monitor  ConnectionHealth
	query    func() domain.TaskQuery
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      RefresherConfig

	mu       sync.Mutex
	onUpdate func(*domain.TaskPage)
	last     *domain.TaskPage
}

func NewRefresher(
	cache PageRefresher,
	sessions SessionReader,
	monitor ConnectionHealth,
	query func() domain.TaskQuery,
	logger *zap.Logger,
	cfg RefresherConfig,
) *Refresher {
	if cfg.Interval < time.Second {
		cfg.Interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Refresher{
		cache:    cache,
		sessions: sessions,
		monitor:  monitor,
		query:    query,
		logger:   logger.Named("refresher"),
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if _, err := r.RefreshNow(ctx); err != nil {
			r.logger.Warn("background refresh failed", zap.Error(err))
		}
	})

	return r
}

// OnUpdate registers fn to receive every page that differs from the
// previous refresh.
func (r *Refresher) OnUpdate(fn func(*domain.TaskPage)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onUpdate = fn
}

// Start launches the cron scheduler.
func (r *Refresher) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("refresher started", zap.Duration("interval", r.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (r *Refresher) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("refresher stopped")
}

// RefreshNow re-fetches the active view. It returns nil, nil when there is
// nothing to refresh: no session or the API is unreachable.
func (r *Refresher) RefreshNow(ctx context.Context) (*domain.TaskPage, error) {
	if r.sessions != nil && !r.sessions.Present() {
		r.logger.Debug("skipping refresh (signed out)")
		return nil, nil
	}
	if r.monitor != nil && !r.monitor.IsOnline() {
		r.logger.Debug("skipping refresh (offline)")
		return nil, nil
	}

	page, err := r.cache.Refresh(ctx, r.query())
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := !samePage(r.last, page)
	r.last = page.Clone()
	fn := r.onUpdate
	r.mu.Unlock()

	if changed && fn != nil {
		fn(page)
	}
	return page, nil
}

func samePage(a, b *domain.TaskPage) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Pagination != b.Pagination || len(a.Tasks) != len(b.Tasks) {
		return false
	}
	for i := range a.Tasks {
		x, y := a.Tasks[i], b.Tasks[i]
		if x.ID != y.ID || x.Title != y.Title || x.Description != y.Description ||
			x.Status != y.Status || !x.UpdatedAt.Equal(y.UpdatedAt) {
			return false
		}
	}
	return true
}
