// Package fakeapi is an in-memory stand-in for the remote task API. It
// speaks the same JSON contract and is used by tests and by cmd/mockapi for
// local demos; it is not a production server.
package fakeapi

import (
	"net"
	"sync"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"
)

type Options struct {
	Secret   string
	TokenTTL time.Duration
	// HashCost is the bcrypt cost; tests pass bcrypt.MinCost.
	HashCost int
	Logger   *zap.Logger
}

// Request is what the stand-in saw of one incoming call.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
}

type Server struct {
	store  *Store
	tokens *tokenIssuer
	logger *zap.Logger
	router *router.Router

	mu        sync.Mutex
	hits      map[string]int
	requests  []Request
	revoked   map[string]bool
	revokeAll bool
	delay     time.Duration
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Secret == "" {
		opts.Secret = "dev-secret"
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}

	s := &Server{
		store: NewStore(opts.HashCost),
		tokens: &tokenIssuer{
			secret: []byte(opts.Secret),
			ttl:    opts.TokenTTL,
			now:    time.Now,
		},
		logger:  opts.Logger.Named("fakeapi"),
		hits:    make(map[string]int),
		revoked: make(map[string]bool),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *router.Router {
	base := baseHandler{logger: s.logger}
	auth := &authHandler{baseHandler: base, store: s.store, tokens: s.tokens}
	tasks := &taskHandler{baseHandler: base, store: s.store}
	protected := jwtAuth(s)

	r := router.New()
	r.POST("/login", auth.Login)
	r.POST("/register", auth.Register)

	r.GET("/tasks", protected(tasks.List))
	r.POST("/tasks", protected(tasks.Create))
	r.GET("/tasks/{id}", protected(tasks.Get))
	r.PUT("/tasks/{id}", protected(tasks.Update))
	r.DELETE("/tasks/{id}", protected(tasks.Delete))
	r.PATCH("/tasks/{id}/complete", protected(tasks.Toggle))

	return r
}

// Handler returns the request handler with hit counting and the
// configured artificial latency.
func (s *Server) Handler() fasthttp.RequestHandler {
	next := s.router.Handler
	return func(ctx *fasthttp.RequestCtx) {
		seen := Request{
			Method:        string(ctx.Method()),
			Path:          string(ctx.Path()),
			Query:         string(ctx.QueryArgs().QueryString()),
			Authorization: string(ctx.Request.Header.Peek("Authorization")),
			RequestID:     string(ctx.Request.Header.Peek("X-Request-ID")),
		}
		s.mu.Lock()
		s.hits[seen.Method+" "+seen.Path]++
		s.requests = append(s.requests, seen)
		delay := s.delay
		s.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		next(ctx)
	}
}

// ListenAndServe serves the stand-in API on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) (*fasthttp.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &fasthttp.Server{Handler: s.Handler(), Name: "task-api-standin"}
	go func() {
		if err := srv.Serve(ln); err != nil {
			s.logger.Error("stand-in api stopped", zap.Error(err))
		}
	}()
	return srv, nil
}

// InMemory is a running stand-in reachable only through Dial.
type InMemory struct {
	ln  *fasthttputil.InmemoryListener
	srv *fasthttp.Server
}

// StartInMemory serves the API over an in-memory listener.
func (s *Server) StartInMemory() *InMemory {
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: s.Handler()}
	go func() {
		_ = srv.Serve(ln)
	}()
	return &InMemory{ln: ln, srv: srv}
}

// Dial is a fasthttp.DialFunc connecting to the in-memory listener.
func (m *InMemory) Dial(string) (net.Conn, error) {
	return m.ln.Dial()
}

func (m *InMemory) Close() error {
	_ = m.srv.Shutdown()
	return m.ln.Close()
}

// Hits returns how many requests arrived for "METHOD /path".
func (s *Server) Hits(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key]
}

// Requests returns every call received so far, oldest first.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// SetDelay makes every request wait d before being handled.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Revoke makes token fail authentication from now on.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

// RevokeAll rejects every bearer token, as after a secret rotation.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revokeAll = true
}

func (s *Server) isRevoked(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revokeAll || s.revoked[token]
}
