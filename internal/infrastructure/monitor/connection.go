package monitor

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const dialTimeout = 2 * time.Second

// Pinger is anything with a cheap liveness check, e.g. the key-value store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerReporter exposes the gateway circuit breaker state.
type BreakerReporter interface {
	BreakerState() string
}

type Option func(*Monitor)

// WithDial replaces the TCP probe used for the API.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(m *Monitor) {
		m.dial = dial
	}
}

// Monitor periodically checks whether the API is reachable and the local
// store answers.
type Monitor struct {
	apiAddr string
	store   Pinger
	breaker BreakerReporter
	dial    fasthttp.DialFunc

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(baseURL string, store Pinger, breaker BreakerReporter, interval time.Duration, logger *zap.Logger, opts ...Option) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		apiAddr:  HostPort(baseURL),
		store:    store,
		breaker:  breaker,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger.Named("monitor"),
		dial: func(addr string) (net.Conn, error) {
			return fasthttp.DialTimeout(addr, dialTimeout)
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether the last probe reached the API.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.API
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Check probes everything now and returns the fresh status.
func (m *Monitor) Check() Status {
	status := Status{
		API:       m.checkAPI(),
		APIAddr:   m.apiAddr,
		Store:     m.checkStore(),
		Breaker:   "disabled",
		LastCheck: time.Now(),
	}
	if m.breaker != nil {
		status.Breaker = m.breaker.BreakerState()
	}

	m.mu.Lock()
	changed := m.status.API != status.API
	m.status = status
	m.mu.Unlock()

	if changed {
		m.logger.Info("api reachability changed", zap.String("addr", m.apiAddr), zap.Bool("online", status.API))
	}
	return status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check()
	for {
		select {
		case <-ticker.C:
			m.Check()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) checkAPI() bool {
	if m.apiAddr == "" {
		return false
	}
	conn, err := m.dial(m.apiAddr)
	if err != nil {
		m.logger.Debug("api probe failed", zap.String("addr", m.apiAddr), zap.Error(err))
		return false
	}
	_ = conn.Close()
	return true
}

func (m *Monitor) checkStore() bool {
	if m.store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := m.store.Ping(ctx); err != nil {
		m.logger.Warn("store ping failed", zap.Error(err))
		return false
	}
	return true
}

// HostPort extracts "host:port" from an http(s) base URL, filling in the
// scheme's default port.
func HostPort(baseURL string) string {
	uri := fasthttp.AcquireURI()
	defer fasthttp.ReleaseURI(uri)

	if err := uri.Parse(nil, []byte(baseURL)); err != nil {
		return ""
	}
	host := string(uri.Host())
	if host == "" {
		return ""
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	if strings.EqualFold(string(uri.Scheme()), "https") {
		return net.JoinHostPort(host, "443")
	}
	return net.JoinHostPort(host, "80")
}
