package redis

import (
	"context"
	"time"

	goRedis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/taskclient/domain"
	"github.com/fastygo/taskclient/internal/config"
)

// NewClient connects to the shared session store and checks it answers.
// Connection failures are TRANSPORT errors so the CLI reports them like an
// unreachable API.
func NewClient(ctx context.Context, cfg config.RedisConfig, name string, logger *zap.Logger) (*goRedis.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts, err := goRedis.ParseURL(cfg.URL)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "invalid REDIS_URL", err)
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	opts.ClientName = name
	opts.DialTimeout = timeout
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout
	// one CLI process needs few connections
	opts.PoolSize = 4

	client := goRedis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, domain.WrapError(domain.ErrCodeTransport, "could not reach the session store", err)
	}

	logger.Debug("redis connected", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return client, nil
}
