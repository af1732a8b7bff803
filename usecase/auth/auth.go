package auth

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/taskclient/domain"
	"github.com/fastygo/taskclient/internal/notify"
	"github.com/fastygo/taskclient/internal/router"
	"github.com/fastygo/taskclient/pkg/validate"
	"github.com/fastygo/taskclient/repository"
	"github.com/fastygo/taskclient/usecase"
)

type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateAuthFailed     State = "auth_failed"
)

var errInProgress = domain.NewError(domain.ErrCodeConflict, "authentication already in progress")

// Snapshot is the session state a view renders.
type Snapshot struct {
	State           State
	User            *domain.User
	IsAuthenticated bool
	Loading         bool
	LoginErrors     domain.FieldErrors
	RegisterErrors  domain.FieldErrors
}

// UseCase is the session manager: the one owner of the in-memory session.
// The persistent store stays the source of truth for the route guard and the
// gateway.
type UseCase struct {
	gateway  usecase.AuthGateway
	sessions repository.SessionRepository
	nav      usecase.Navigator
	cache    usecase.CacheClearer
	notifier notify.Notifier
	logger   *zap.Logger

	mu      sync.Mutex
	state   State
	session domain.Session
	errors  map[Form]domain.FieldErrors
}

func New(
	gateway usecase.AuthGateway,
	sessions repository.SessionRepository,
	nav usecase.Navigator,
	cache usecase.CacheClearer,
	notifier notify.Notifier,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &UseCase{
		gateway:  gateway,
		sessions: sessions,
		nav:      nav,
		cache:    cache,
		notifier: notifier,
		logger:   logger.Named("session"),
		state:    StateAnonymous,
		errors:   make(map[Form]domain.FieldErrors),
	}
}

// Restore loads the persisted session. It is called once at startup.
func (uc *UseCase) Restore() domain.Session {
	session := uc.sessions.Load()

	uc.mu.Lock()
	defer uc.mu.Unlock()
	if session.IsAuthenticated() {
		uc.state = StateAuthenticated
		uc.session = session
	} else {
		uc.state = StateAnonymous
		uc.session = domain.Session{}
	}
	uc.logger.Debug("session restored", zap.String("state", string(uc.state)))
	return uc.session
}

func (uc *UseCase) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	return uc.authenticate(ctx, FormLogin, &creds, func(ctx context.Context) (*domain.AuthResult, error) {
		return uc.gateway.Login(ctx, creds)
	})
}

func (uc *UseCase) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	return uc.authenticate(ctx, FormRegister, &reg, func(ctx context.Context) (*domain.AuthResult, error) {
		return uc.gateway.Register(ctx, reg)
	})
}

func (uc *UseCase) authenticate(
	ctx context.Context,
	form Form,
	input any,
	call func(context.Context) (*domain.AuthResult, error),
) (*domain.User, error) {
	if fields := validate.Struct(input); len(fields) > 0 {
		uc.mu.Lock()
		uc.errors[form] = fields
		uc.mu.Unlock()
		return nil, domain.NewValidationError(fields)
	}

	uc.mu.Lock()
	if uc.state == StateAuthenticating {
		uc.mu.Unlock()
		return nil, errInProgress
	}
	uc.state = StateAuthenticating
	delete(uc.errors, form)
	uc.mu.Unlock()

	res, err := call(ctx)
	if err != nil {
		uc.fail(form, err)
		return nil, err
	}

	session := domain.Session{Token: res.Token, User: &res.User}
	// Save returns once the write has landed, so the guard sees the new
	// session when the navigation below consults it.
	uc.sessions.Save(session)

	uc.mu.Lock()
	uc.state = StateAuthenticated
	uc.session = session
	delete(uc.errors, form)
	uc.mu.Unlock()

	uc.logger.Info("signed in", zap.Int64("user_id", res.User.ID), zap.String("form", string(form)))
	uc.notifier.Success(welcome(form, res.User))

	if _, err := uc.nav.Navigate(router.PathTasks, router.Replace); err != nil {
		uc.logger.Warn("navigation after sign-in failed", zap.Error(err))
	}
	user := res.User
	return &user, nil
}

func (uc *UseCase) fail(form Form, err error) {
	uc.mu.Lock()
	uc.state = StateAuthFailed
	uc.session = domain.Session{}
	if !domain.IsDomainError(err, domain.ErrCodeTransport) {
		fe := Classify(form, err)
		fields := domain.FieldErrors{fe.Field: fe.Message}
		var dErr *domain.Error
		if errors.As(err, &dErr) {
			for field, msg := range dErr.Fields {
				fields[field] = msg
			}
		}
		uc.errors[form] = fields
	}
	uc.mu.Unlock()

	uc.logger.Info("sign-in failed", zap.String("form", string(form)), zap.Error(err))
	uc.notifier.Error(domain.Message(err))
}

// Logout ends the session locally. It never talks to the API and may be
// called any number of times.
func (uc *UseCase) Logout() {
	hadSession := uc.sessions.Present()

	uc.sessions.Clear()
	if uc.cache != nil {
		uc.cache.Clear()
	}

	uc.mu.Lock()
	if uc.state == StateAuthenticated {
		hadSession = true
	}
	uc.state = StateAnonymous
	uc.session = domain.Session{}
	uc.errors = make(map[Form]domain.FieldErrors)
	uc.mu.Unlock()

	if hadSession {
		uc.logger.Info("signed out")
		uc.notifier.Success("Signed out")
	}
	if !uc.nav.InAuthView() {
		if _, err := uc.nav.Navigate(router.PathLogin, router.Push); err != nil {
			uc.logger.Warn("navigation after sign-out failed", zap.Error(err))
		}
	}
}

// Expire resets the in-memory session after the server rejected it. The
// gateway has already cleared the store and redirected; Expire must not call
// back into the gateway.
func (uc *UseCase) Expire() {
	if uc.cache != nil {
		uc.cache.Clear()
	}

	uc.mu.Lock()
	was := uc.state
	uc.state = StateAnonymous
	uc.session = domain.Session{}
	uc.mu.Unlock()

	if was == StateAuthenticated {
		uc.logger.Warn("session expired")
		uc.notifier.Error("Your session has expired, please sign in again")
	}
}

// ClearFieldError drops the inline error of one input; views call it when
// the user edits that input.
func (uc *UseCase) ClearFieldError(form Form, field string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.errors[form].Clear(field)
}

// FieldErrors returns a copy of the inline errors of form.
func (uc *UseCase) FieldErrors(form Form) domain.FieldErrors {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return copyFields(uc.errors[form])
}

func (uc *UseCase) State() State {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.state
}

// Session returns the in-memory session.
func (uc *UseCase) Session() domain.Session {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return copySession(uc.session)
}

func (uc *UseCase) IsAuthenticated() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.session.IsAuthenticated()
}

func (uc *UseCase) Snapshot() Snapshot {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	session := copySession(uc.session)
	return Snapshot{
		State:           uc.state,
		User:            session.User,
		IsAuthenticated: session.IsAuthenticated(),
		Loading:         uc.state == StateAuthenticating,
		LoginErrors:     copyFields(uc.errors[FormLogin]),
		RegisterErrors:  copyFields(uc.errors[FormRegister]),
	}
}

func welcome(form Form, user domain.User) string {
	name := user.Name
	if name == "" {
		name = user.Email
	}
	if form == FormRegister {
		return "Account created, welcome " + name
	}
	return "Welcome back, " + name
}

func copySession(s domain.Session) domain.Session {
	out := domain.Session{Token: s.Token}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}

func copyFields(f domain.FieldErrors) domain.FieldErrors {
	if len(f) == 0 {
		return nil
	}
	out := make(domain.FieldErrors, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
