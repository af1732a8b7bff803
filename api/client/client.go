// Package client is the gateway to the remote task API. It is the only
// package in the module that performs network I/O.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskclient/domain"
	"github.com/fastygo/taskclient/pkg/httpcontext"
	appLogger "github.com/fastygo/taskclient/pkg/logger"
)

const (
	pathLogin    = "/login"
	pathRegister = "/register"
	pathTasks    = "/tasks"
)

// SessionStore is the persisted session as the gateway sees it.
type SessionStore interface {
	Token() string
	Clear()
}

// Navigator lets the gateway send the user back to the login view.
type Navigator interface {
	InAuthView() bool
	Redirect(path string)
}

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	MaxConns int
	Name     string
	// LoginView is where a rejected session is sent.
	LoginView string
	// BreakerMaxFailures consecutive transport failures open the breaker; 0 disables it.
	BreakerMaxFailures int
	BreakerOpenTimeout time.Duration
}

type Option func(*Client)

// WithDial replaces the TCP dialer, e.g. with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) {
		c.http.Dial = dial
	}
}

type Client struct {
	http      *fasthttp.Client
	baseURL   string
	loginView string
	sessions  SessionStore
	nav       Navigator
	adapter   *httpcontext.Adapter
	breaker   *gobreaker.CircuitBreaker
	logger    *zap.Logger

	mu             sync.Mutex
	onUnauthorized func()
}

func New(cfg Config, sessions SessionStore, nav Navigator, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 16
	}
	if cfg.LoginView == "" {
		cfg.LoginView = pathLogin
	}
	if cfg.Name == "" {
		cfg.Name = "taskctl"
	}

	c := &Client{
		http: &fasthttp.Client{
			Name:            cfg.Name,
			MaxConnsPerHost: cfg.MaxConns,
			ReadTimeout:     cfg.Timeout,
			WriteTimeout:    cfg.Timeout,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		loginView: cfg.LoginView,
		sessions:  sessions,
		nav:       nav,
		adapter:   httpcontext.NewAdapter(cfg.Timeout),
		logger:    logger.Named("gateway"),
	}

	if cfg.BreakerMaxFailures > 0 {
		c.breaker = newBreaker(cfg, c.logger)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUnauthorized registers fn to run after a rejected session was cleared.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BreakerState reports the circuit breaker state, or "disabled".
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State().String()
}

func (c *Client) do(ctx context.Context, method, path, query string, body, out any) error {
	ctx, cancel := c.adapter.Attach(ctx)
	defer cancel()

	log := appLogger.WithRequestID(ctx, c.logger).With(zap.String("method", method), zap.String("path", path))

	if err := ctx.Err(); err != nil {
		return domain.WrapError(domain.ErrCodeTransport, "request cancelled", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	uri := c.baseURL + path
	if query != "" {
		uri += "?" + query
	}
	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(httpcontext.HeaderRequestID, httpcontext.RequestID(ctx))

	token := c.sessions.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBodyRaw(payload)
	}

	started := time.Now()
	if err := c.send(ctx, req, resp); err != nil {
		log.Warn("api call failed", zap.Error(err))
		return err
	}

	status := resp.StatusCode()
	log.Debug("api call finished", zap.Int("status", status), zap.Duration("took", time.Since(started)))

	if status == fasthttp.StatusUnauthorized {
		c.handleUnauthorized(path, token, log)
	}
	if status >= fasthttp.StatusBadRequest {
		return decodeError(status, resp.Body())
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		log.Error("undecodable api response", zap.Error(err))
		return domain.WrapError(domain.ErrCodeInternal, "unexpected response from server", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}
	exec := func() (interface{}, error) {
		return nil, c.http.DoDeadline(req, resp, deadline)
	}

	var err error
	if c.breaker != nil {
		_, err = c.breaker.Execute(exec)
	} else {
		_, err = exec()
	}
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return domain.WrapError(domain.ErrCodeTransport, "service temporarily unavailable", err)
	case errors.Is(err, fasthttp.ErrTimeout), isTimeout(err):
		return domain.WrapError(domain.ErrCodeTransport, "the server took too long to respond", err)
	default:
		return domain.WrapError(domain.ErrCodeTransport, "could not reach the server", err)
	}
}

// handleUnauthorized clears a session the server rejected and sends the user
// to the login view. Rejections of login/register pass through untouched. A
// rejection of a token that is no longer the stored one is ignored, so
// concurrent 401s for one session clear and redirect exactly once.
func (c *Client) handleUnauthorized(path, sentToken string, log *zap.Logger) {
	if isAuthEndpoint(path) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.sessions.Token()
	if sentToken != current {
		log.Debug("stale rejection ignored")
		return
	}

	if current != "" {
		c.sessions.Clear()
		log.Warn("session rejected by server, cleared")
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}

	if c.nav != nil && !c.nav.InAuthView() {
		c.nav.Redirect(c.loginView)
	}
}

func isAuthEndpoint(path string) bool {
	return path == pathLogin || path == pathRegister
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
