package client

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/taskclient/domain"
	"github.com/fastygo/taskclient/internal/fakeapi"
	"github.com/fastygo/taskclient/internal/localstore"
	"github.com/fastygo/taskclient/internal/router"
	"github.com/fastygo/taskclient/repository"
	"github.com/fastygo/taskclient/repository/local"
	"github.com/fastygo/taskclient/repository/memory"
)

type harness struct {
	api      *fakeapi.Server
	backend  *memory.Store
	sessions repository.SessionRepository
	nav      *router.Router
	client   *Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	api := fakeapi.New(fakeapi.Options{HashCost: bcrypt.MinCost})
	mem := api.StartInMemory()
	t.Cleanup(func() { _ = mem.Close() })

	backend := memory.NewStore()
	sessions := local.NewSessionRepository(localstore.New(backend, nil))

	nav := router.New(router.PathTasks, router.PathLogin, nil)
	nav.Handle(router.Route{Path: router.PathLogin, Auth: true})
	nav.Handle(router.Route{Path: router.PathRegister, Auth: true})
	nav.Handle(router.Route{Path: router.PathTasks, Protected: true})

	cfg := Config{BaseURL: "http://task-api.test", Timeout: 2 * time.Second}
	c := New(cfg, sessions, nav, zap.NewNop(), WithDial(mem.Dial))

	return &harness{api: api, backend: backend, sessions: sessions, nav: nav, client: c}
}

// signIn registers a user and persists the session the way the session
// manager would.
func (h *harness) signIn(t *testing.T, email string) domain.Session {
	t.Helper()
	res, err := h.client.Register(context.Background(), domain.Registration{
		Name:     "A",
		Email:    email,
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	session := domain.Session{Token: res.Token, User: &res.User}
	h.sessions.Save(session)
	return session
}

func (h *harness) lastRequest(t *testing.T) fakeapi.Request {
	t.Helper()
	reqs := h.api.Requests()
	if len(reqs) == 0 {
		t.Fatal("no request reached the api")
	}
	return reqs[len(reqs)-1]
}

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	reg, err := h.client.Register(ctx, domain.Registration{Name: "A", Email: "a@b.com", Password: "secret1", ConfirmPassword: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.Token == "" || reg.User.Email != "a@b.com" || reg.User.ID == 0 {
		t.Fatalf("Register result = %+v", reg)
	}

	res, err := h.client.Login(ctx, domain.Credentials{Email: "a@b.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.ID != reg.User.ID {
		t.Fatalf("Login user = %+v", res.User)
	}
	if got := h.lastRequest(t); got.Method != "POST" || got.Path != "/login" || got.RequestID == "" {
		t.Fatalf("login request = %+v", got)
	}
}

func TestAuthorizationHeader(t *testing.T) {
	tests := []struct {
		name   string
		stored func(token string) []byte
	}{
		{name: "json quoted", stored: func(tok string) []byte { return []byte(`"` + tok + `"`) }},
		{name: "raw", stored: func(tok string) []byte { return []byte(tok) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			session := h.signIn(t, "a@b.com")

			if err := h.backend.Set(context.Background(), local.KeyToken, tt.stored(session.Token)); err != nil {
				t.Fatalf("seed token: %v", err)
			}
			if _, err := h.client.ListTasks(context.Background(), domain.TaskQuery{Page: 1, Limit: 10}); err != nil {
				t.Fatalf("ListTasks: %v", err)
			}
			if got := h.lastRequest(t).Authorization; got != "Bearer "+session.Token {
				t.Fatalf("Authorization = %q", got)
			}
		})
	}
}

func TestNoAuthorizationWithoutToken(t *testing.T) {
	h := newHarness(t)
	_, _ = h.client.Login(context.Background(), domain.Credentials{Email: "x@y.com", Password: "secret1"})
	if got := h.lastRequest(t).Authorization; got != "" {
		t.Fatalf("Authorization = %q, want none", got)
	}
}

func TestListTasksSendsShapedQuery(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "a@b.com")
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		if _, err := h.client.CreateTask(ctx, domain.TaskDraft{Title: title}); err != nil {
			t.Fatalf("CreateTask(%s): %v", title, err)
		}
	}

	page, err := h.client.ListTasks(ctx, domain.TaskQuery{Status: domain.FilterAll, Page: domain.Unset(), Limit: 2.5})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if got := h.lastRequest(t).Query; got != "limit=2" {
		t.Fatalf("query = %q, want limit=2", got)
	}
	if len(page.Tasks) != 2 || page.Pagination.Total != 3 || page.Pagination.TotalPages != 2 {
		t.Fatalf("page = %+v", page)
	}

	page, err = h.client.ListTasks(ctx, domain.TaskQuery{Status: domain.FilterCompleted, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListTasks(completed): %v", err)
	}
	if page.Tasks == nil || len(page.Tasks) != 0 {
		t.Fatalf("completed tasks = %+v", page.Tasks)
	}
}

func TestTaskLifecycle(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "a@b.com")
	ctx := context.Background()

	created, err := h.client.CreateTask(ctx, domain.TaskDraft{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if created.Status != domain.TaskPending || created.ID == 0 {
		t.Fatalf("created = %+v", created)
	}

	title := "Buy oat milk"
	updated, err := h.client.UpdateTask(ctx, created.ID, domain.TaskPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Title != title {
		t.Fatalf("updated title = %q", updated.Title)
	}

	toggled, err := h.client.ToggleTaskStatus(ctx, created.ID)
	if err != nil {
		t.Fatalf("ToggleTaskStatus: %v", err)
	}
	if !toggled.IsCompleted() {
		t.Fatalf("toggled status = %s", toggled.Status)
	}
	if got := h.lastRequest(t); got.Method != "PATCH" || got.Path != "/tasks/1/complete" {
		t.Fatalf("toggle request = %+v", got)
	}

	got, err := h.client.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Title != title || !got.IsCompleted() {
		t.Fatalf("GetTask = %+v", got)
	}

	if err := h.client.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, err := h.client.GetTask(ctx, created.ID); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("GetTask after delete err = %v", err)
	}
}

func TestServerFieldErrorIsKept(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "a@b.com")

	_, err := h.client.CreateTask(context.Background(), domain.TaskDraft{Title: "  "})
	var dErr *domain.Error
	if !errors.As(err, &dErr) {
		t.Fatalf("err = %v, want *domain.Error", err)
	}
	if dErr.Code != domain.ErrCodeInvalid || dErr.Field != "title" || dErr.Message != "Title is required" {
		t.Fatalf("err = %+v", dErr)
	}
}

func TestLoginRejectionPassesThrough(t *testing.T) {
	h := newHarness(t)
	session := h.signIn(t, "a@b.com")

	var hooked int32
	h.client.OnUnauthorized(func() { atomic.AddInt32(&hooked, 1) })

	_, err := h.client.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "wrong-password"})
	if !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Fatalf("err = %v, want UNAUTHORIZED", err)
	}
	if domain.Message(err) != "Invalid email or password" {
		t.Fatalf("message = %q", domain.Message(err))
	}
	if h.sessions.Token() != session.Token {
		t.Fatal("login rejection cleared the session")
	}
	if h.nav.Current().Path != router.PathTasks {
		t.Fatalf("navigated to %s", h.nav.Current().Path)
	}
	if atomic.LoadInt32(&hooked) != 0 {
		t.Fatal("unauthorized hook fired for a login rejection")
	}
}

func TestConcurrentRejectionsRedirectOnce(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "a@b.com")

	var redirects, hooked int32
	h.nav.OnChange(func(loc router.Location) {
		if loc.Path == router.PathLogin {
			atomic.AddInt32(&redirects, 1)
		}
	})
	h.client.OnUnauthorized(func() { atomic.AddInt32(&hooked, 1) })

	h.api.RevokeAll()
	h.api.SetDelay(20 * time.Millisecond)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.client.ListTasks(context.Background(), domain.TaskQuery{Page: 1, Limit: 10})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
			t.Fatalf("caller %d err = %v, want UNAUTHORIZED", i, err)
		}
	}
	if h.sessions.Present() {
		t.Fatal("session survived a rejection")
	}
	if got := atomic.LoadInt32(&redirects); got != 1 {
		t.Fatalf("redirects = %d, want 1", got)
	}
	if got := atomic.LoadInt32(&hooked); got != 1 {
		t.Fatalf("hook calls = %d, want 1", got)
	}
	if h.nav.Current().Path != router.PathLogin {
		t.Fatalf("current = %s", h.nav.Current().Path)
	}
	hist := h.nav.History()
	if len(hist) != 1 {
		t.Fatalf("redirect pushed history: %v", hist)
	}
}

func TestRejectionInAuthViewDoesNotNavigate(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "a@b.com")
	h.nav.Redirect(router.PathRegister)

	var changes int32
	h.nav.OnChange(func(router.Location) { atomic.AddInt32(&changes, 1) })
	h.api.RevokeAll()

	_, err := h.client.ListTasks(context.Background(), domain.TaskQuery{Page: 1, Limit: 10})
	if !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Fatalf("err = %v", err)
	}
	if h.sessions.Present() {
		t.Fatal("session survived a rejection")
	}
	if atomic.LoadInt32(&changes) != 0 || h.nav.Current().Path != router.PathRegister {
		t.Fatalf("navigated away from the register view to %s", h.nav.Current().Path)
	}
}

func TestStaleRejectionIgnored(t *testing.T) {
	h := newHarness(t)
	session := h.signIn(t, "a@b.com")

	var hooked int32
	h.client.OnUnauthorized(func() { atomic.AddInt32(&hooked, 1) })

	// a response for a token that was replaced while the call was in flight
	h.client.handleUnauthorized(pathTasks, "previous-token", zap.NewNop())

	if h.sessions.Token() != session.Token {
		t.Fatal("stale rejection wiped the newer session")
	}
	if atomic.LoadInt32(&hooked) != 0 || h.nav.Current().Path != router.PathTasks {
		t.Fatal("stale rejection had side effects")
	}
}

func TestDecodeError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    domain.ErrorCode
		message string
		field   string
		fields  int
	}{
		{name: "message and field", status: 400, body: `{"message":"Title is required","field":"title"}`, code: domain.ErrCodeInvalid, message: "Title is required", field: "title"},
		{name: "error key", status: 409, body: `{"error":"Email already exists"}`, code: domain.ErrCodeConflict, message: "Email already exists"},
		{name: "field map", status: 422, body: `{"message":"bad input","errors":{"email":"taken","name":"too long"}}`, code: domain.ErrCodeInvalid, message: "bad input", fields: 2},
		{name: "forbidden", status: 403, body: `{"message":"nope"}`, code: domain.ErrCodeForbidden, message: "nope"},
		{name: "not json", status: 502, body: `<html>bad gateway</html>`, code: domain.ErrCodeInternal, message: "Bad Gateway"},
		{name: "empty 404", status: 404, body: ``, code: domain.ErrCodeNotFound, message: "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeError(tt.status, []byte(tt.body))
			if err.Code != tt.code || err.Message != tt.message || err.Field != tt.field || len(err.Fields) != tt.fields {
				t.Fatalf("decodeError() = %+v", err)
			}
		})
	}
}

func TestTransportFailureOpensBreaker(t *testing.T) {
	backend := memory.NewStore()
	sessions := local.NewSessionRepository(localstore.New(backend, nil))
	refused := func(string) (net.Conn, error) { return nil, errors.New("connection refused") }

	c := New(Config{
		BaseURL:            "http://task-api.test",
		Timeout:            time.Second,
		BreakerMaxFailures: 2,
		BreakerOpenTimeout: time.Minute,
	}, sessions, nil, nil, WithDial(refused))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		err := c.DeleteTask(ctx, 1)
		if !domain.IsDomainError(err, domain.ErrCodeTransport) || domain.Message(err) != "could not reach the server" {
			t.Fatalf("call %d err = %v", i, err)
		}
	}
	if c.BreakerState() != "open" {
		t.Fatalf("breaker = %s, want open", c.BreakerState())
	}

	err := c.DeleteTask(ctx, 1)
	if !domain.IsDomainError(err, domain.ErrCodeTransport) || domain.Message(err) != "service temporarily unavailable" {
		t.Fatalf("open breaker err = %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.client.ListTasks(ctx, domain.TaskQuery{})
	if !domain.IsDomainError(err, domain.ErrCodeTransport) {
		t.Fatalf("err = %v, want TRANSPORT", err)
	}
	if len(h.api.Requests()) != 0 {
		t.Fatal("cancelled call reached the api")
	}
}

func TestBreakerDisabled(t *testing.T) {
	h := newHarness(t)
	if h.client.BreakerState() != "disabled" {
		t.Fatalf("BreakerState = %s", h.client.BreakerState())
	}
}
