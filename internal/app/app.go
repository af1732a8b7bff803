// Package app assembles the client: storage, gateway, session manager, task
// cache, navigation and the background services around them.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskclient/api/client"
	"github.com/fastygo/taskclient/domain"
	"github.com/fastygo/taskclient/internal/config"
	"github.com/fastygo/taskclient/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/taskclient/internal/infrastructure/redis"
	"github.com/fastygo/taskclient/internal/localstore"
	"github.com/fastygo/taskclient/internal/middleware"
	"github.com/fastygo/taskclient/internal/notify"
	"github.com/fastygo/taskclient/internal/router"
	"github.com/fastygo/taskclient/internal/services"
	"github.com/fastygo/taskclient/internal/services/lifecycle"
	"github.com/fastygo/taskclient/pkg/logger"
	"github.com/fastygo/taskclient/repository"
	boltRepo "github.com/fastygo/taskclient/repository/bolt"
	"github.com/fastygo/taskclient/repository/local"
	"github.com/fastygo/taskclient/repository/memory"
	redisRepo "github.com/fastygo/taskclient/repository/redis"
	authUC "github.com/fastygo/taskclient/usecase/auth"
	"github.com/fastygo/taskclient/usecase/filter"
	taskUC "github.com/fastygo/taskclient/usecase/task"
)

// Options override pieces of the graph that tests and the shell replace.
type Options struct {
	// Out receives notifications; defaults to stdout.
	Out io.Writer
	// Logger replaces the logger built from the config.
	Logger *zap.Logger
	// Backend replaces the store selected by the config.
	Backend repository.KeyValueStore
	// Dial replaces TCP for both the gateway and the reachability probe.
	Dial fasthttp.DialFunc
}

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     repository.KeyValueStore
	Sessions  repository.SessionRepository
	Router    *router.Router
	Gateway   *client.Client
	Auth      *authUC.UseCase
	Tasks     *taskUC.Cache
	Filter    *filter.Synchronizer
	Monitor   *monitor.Monitor
	Refresher *services.Refresher
	Feed      *notify.Feed
	Lifecycle *lifecycle.Manager

	mu   sync.Mutex
	page int
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	zapLogger := opts.Logger
	if zapLogger == nil {
		var err error
		zapLogger, err = logger.New(logger.Config{
			Level:    cfg.Logger.Level,
			Encoding: cfg.Logger.Encoding,
			Name:     cfg.AppName,
		})
		if err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
	}

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)

	store := opts.Backend
	if store == nil {
		var err error
		store, err = openStore(ctx, cfg, zapLogger)
		if err != nil {
			return nil, err
		}
	}
	manager.RegisterCloser("store", store)

	sessions := local.NewSessionRepository(localstore.New(store, zapLogger.Named("localstore")))

	nav := router.New(router.PathLogin, router.PathLogin, zapLogger.Named("router"))
	nav.Handle(router.Route{Path: router.PathLogin, Auth: true})
	nav.Handle(router.Route{Path: router.PathRegister, Auth: true})
	nav.Handle(router.Route{Path: router.PathTasks, Protected: true})
	nav.Use(middleware.RequireSession(sessions, zapLogger))

	var clientOpts []client.Option
	var monitorOpts []monitor.Option
	if opts.Dial != nil {
		clientOpts = append(clientOpts, client.WithDial(opts.Dial))
		monitorOpts = append(monitorOpts, monitor.WithDial(opts.Dial))
	}

	gateway := client.New(client.Config{
		BaseURL:            cfg.API.BaseURL,
		Timeout:            cfg.API.Timeout,
		MaxConns:           cfg.API.MaxConns,
		Name:               cfg.AppName,
		LoginView:          router.PathLogin,
		BreakerMaxFailures: cfg.Breaker.MaxFailures,
		BreakerOpenTimeout: cfg.Breaker.OpenTimeout,
	}, sessions, nav, zapLogger, clientOpts...)

	notifier := notify.NewFeed(opts.Out, zapLogger)
	tasks := taskUC.New(gateway, notifier, zapLogger)
	session := authUC.New(gateway, sessions, nav, tasks, notifier, zapLogger)
	gateway.OnUnauthorized(session.Expire)

	statusFilter := filter.New(nav, zapLogger.Named("filter"))

	mon := monitor.New(cfg.API.BaseURL, store, gateway, cfg.Tasks.RefreshInterval, zapLogger, monitorOpts...)
	manager.Register("monitor", func(context.Context) error {
		mon.Stop()
		return nil
	})

	a := &App{
		Config:    cfg,
		Logger:    zapLogger,
		Store:     store,
		Sessions:  sessions,
		Router:    nav,
		Gateway:   gateway,
		Auth:      session,
		Tasks:     tasks,
		Filter:    statusFilter,
		Monitor:   mon,
		Feed:      notifier,
		Lifecycle: manager,
		page:      1,
	}

	a.Refresher = services.NewRefresher(tasks, sessions, mon, a.Query, zapLogger, services.RefresherConfig{
		Interval: cfg.Tasks.RefreshInterval,
	})
	manager.Register("refresher", func(ctx context.Context) error {
		a.Refresher.Stop(ctx)
		return nil
	})

	// the filter follows the location; a new filter starts on page 1
	nav.OnChange(func(loc router.Location) {
		if loc.Path != router.PathTasks {
			return
		}
		before := statusFilter.Status()
		if statusFilter.Reload() != before {
			a.SetPage(1)
		}
	})

	if restored := session.Restore(); restored.IsAuthenticated() {
		if _, err := nav.Navigate(router.PathTasks, router.Replace); err != nil {
			zapLogger.Warn("could not open the task view", zap.Error(err))
		}
	}

	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.KeyValueStore, error) {
	switch cfg.Store.Driver {
	case config.StoreRedis:
		rdb, err := redisInfra.NewClient(ctx, cfg.Redis, cfg.AppName, log)
		if err != nil {
			return nil, err
		}
		return redisRepo.NewKeyValueStore(rdb, cfg.Store.Namespace, cfg.Store.TTL), nil
	case config.StoreMemory:
		return memory.NewStore(), nil
	default:
		store, err := boltRepo.Open(cfg.Store.Path, cfg.Store.Namespace)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		log.Debug("session store opened", zap.String("driver", cfg.Store.Driver), zap.String("path", cfg.Store.Path))
		return store, nil
	}
}

// Page is the 1-based page the task view shows.
func (a *App) Page() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.page
}

func (a *App) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	a.mu.Lock()
	a.page = page
	a.mu.Unlock()
}

// Query is the list query of the active view.
func (a *App) Query() domain.TaskQuery {
	return a.Filter.Query(float64(a.Page()), float64(a.Config.Tasks.PageLimit))
}

// SetFilter changes the status filter and returns to the first page.
func (a *App) SetFilter(status domain.StatusFilter) {
	a.SetPage(1)
	a.Filter.SetStatus(status)
}

// Close runs every shutdown hook and flushes the logger.
func (a *App) Close(ctx context.Context) error {
	err := a.Lifecycle.Shutdown(ctx)
	_ = a.Logger.Sync()
	return err
}
