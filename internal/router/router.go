// Package router models the client's navigable locations: registered views,
// a history stack and the query string of the current entry.
package router

import (
	"fmt"
	"net/url"
	"sync"

	"go.uber.org/zap"
)

// Mode selects whether a navigation adds a history entry or overwrites the
// current one.
type Mode int

const (
	Push Mode = iota
	Replace
)

const (
	PathLogin    = "/login"
	PathRegister = "/register"
	PathTasks    = "/tasks"
)

// Location is one history entry.
type Location struct {
	Path  string
	Query url.Values
}

func (l Location) String() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

func (l Location) clone() Location {
	out := Location{Path: l.Path}
	if len(l.Query) > 0 {
		out.Query = make(url.Values, len(l.Query))
		for k, v := range l.Query {
			out.Query[k] = append([]string(nil), v...)
		}
	}
	return out
}

// Route describes a registered view.
type Route struct {
	Path string
	// Auth marks the login/register views.
	Auth bool
	// Protected views are only entered when the guard permits.
	Protected bool
}

// Guard decides synchronously whether a protected location may be entered.
type Guard func(target Location) bool

// Listener observes every committed location change.
type Listener func(Location)

type Router struct {
	mu        sync.Mutex
	routes    map[string]Route
	history   []Location
	index     int
	guard     Guard
	fallback  string
	listeners []Listener
	logger    *zap.Logger
}

// New creates a router positioned at start. Denied navigations land on
// fallback.
func New(start, fallback string, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		routes:   make(map[string]Route),
		history:  []Location{{Path: start}},
		fallback: fallback,
		logger:   logger,
	}
}

// Handle registers a route.
func (r *Router) Handle(route Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[route.Path] = route
}

// Use installs the guard consulted for protected routes.
func (r *Router) Use(guard Guard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guard = guard
}

// OnChange registers a listener. Listeners run after the router lock is
// released and may navigate.
func (r *Router) OnChange(fn Listener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Navigate moves to target ("/tasks?status=pending"). When the guard denies
// a protected target, the current entry is replaced by the fallback view and
// ErrDenied is returned.
func (r *Router) Navigate(target string, mode Mode) (Location, error) {
	loc, err := parse(target)
	if err != nil {
		return r.Current(), err
	}

	r.mu.Lock()
	route, ok := r.routes[loc.Path]
	if !ok {
		r.mu.Unlock()
		return r.Current(), fmt.Errorf("%w: %s", ErrUnknownRoute, loc.Path)
	}
	guard := r.guard
	r.mu.Unlock()

	// the guard reads the session store; keep it outside the lock
	if route.Protected && guard != nil && !guard(loc) {
		r.logger.Debug("navigation denied", zap.String("target", loc.String()))
		r.commit(Location{Path: r.fallback}, Replace)
		return r.Current(), ErrDenied
	}

	r.commit(loc, mode)
	return loc, nil
}

// Back moves one entry back in history; it reports false at the oldest
// entry. Going back into a protected view consults the guard like Navigate:
// on deny the previous entry is replaced by the fallback view.
func (r *Router) Back() bool {
	r.mu.Lock()
	if r.index == 0 {
		r.mu.Unlock()
		return false
	}
	r.index--
	loc := r.history[r.index].clone()
	route := r.routes[loc.Path]
	guard := r.guard
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	if route.Protected && guard != nil && !guard(loc) {
		r.logger.Debug("back navigation denied", zap.String("target", loc.String()))
		r.commit(Location{Path: r.fallback}, Replace)
		return true
	}

	notify(listeners, loc)
	return true
}

// Current returns a copy of the current entry.
func (r *Router) Current() Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history[r.index].clone()
}

// History returns the entries up to and including the current one.
func (r *Router) History() []Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Location, 0, r.index+1)
	for _, loc := range r.history[:r.index+1] {
		out = append(out, loc.clone())
	}
	return out
}

// InAuthView reports whether the current entry is a login/register view.
func (r *Router) InAuthView() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.routes[r.history[r.index].Path].Auth
}

// Redirect replaces the current entry with path, bypassing the guard.
func (r *Router) Redirect(path string) {
	loc, err := parse(path)
	if err != nil {
		r.logger.Warn("invalid redirect target", zap.String("target", path), zap.Error(err))
		return
	}
	r.commit(loc, Replace)
}

// Query returns the query of the current entry.
func (r *Router) Query() url.Values {
	q := r.Current().Query
	if q == nil {
		q = url.Values{}
	}
	return q
}

// ReplaceQuery swaps the query of the current entry without adding history.
func (r *Router) ReplaceQuery(q url.Values) {
	loc := r.Current()
	loc.Query = q
	r.commit(loc, Replace)
}

func (r *Router) commit(loc Location, mode Mode) {
	r.mu.Lock()
	switch mode {
	case Replace:
		r.history[r.index] = loc.clone()
	default:
		r.history = append(r.history[:r.index+1], loc.clone())
		r.index = len(r.history) - 1
	}
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	r.logger.Debug("location changed", zap.String("location", loc.String()), zap.Bool("replace", mode == Replace))
	notify(listeners, loc)
}

func notify(listeners []Listener, loc Location) {
	for _, fn := range listeners {
		fn(loc.clone())
	}
}

func parse(target string) (Location, error) {
	u, err := url.Parse(target)
	if err != nil {
		return Location{}, err
	}
	loc := Location{Path: u.Path}
	if q := u.Query(); len(q) > 0 {
		loc.Query = q
	}
	return loc, nil
}
