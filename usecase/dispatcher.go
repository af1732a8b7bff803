package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownCommand is returned for names nothing was registered under.
var ErrUnknownCommand = errors.New("unknown command")

// Handler runs one shell command with its already split arguments.
type Handler func(ctx context.Context, args []string) (interface{}, error)

// Dispatcher routes shell input to handlers. Commands change state (sign-in,
// task mutations); queries only read it.
type Dispatcher struct {
	cmdHandlers map[string]Handler
	qryHandlers map[string]Handler
	mu          sync.RWMutex
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		cmdHandlers: make(map[string]Handler),
		qryHandlers: make(map[string]Handler),
	}
}

func (d *Dispatcher) RegisterCommand(name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cmdHandlers[name] = handler
}

func (d *Dispatcher) RegisterQuery(name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.qryHandlers[name] = handler
}

func (d *Dispatcher) ExecuteCommand(ctx context.Context, name string, args []string) (interface{}, error) {
	d.mu.RLock()
	handler, ok := d.cmdHandlers[name]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("command handler %s not registered", name)
	}
	return handler(ctx, args)
}

func (d *Dispatcher) ExecuteQuery(ctx context.Context, name string, args []string) (interface{}, error) {
	d.mu.RLock()
	handler, ok := d.qryHandlers[name]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("query handler %s not registered", name)
	}
	return handler(ctx, args)
}

// Dispatch runs name as a command or, failing that, as a query.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args []string) (interface{}, error) {
	d.mu.RLock()
	handler, ok := d.cmdHandlers[name]
	if !ok {
		handler, ok = d.qryHandlers[name]
	}
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return handler(ctx, args)
}

// Names lists every registered name, sorted.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.cmdHandlers)+len(d.qryHandlers))
	for name := range d.cmdHandlers {
		names = append(names, name)
	}
	for name := range d.qryHandlers {
		if _, dup := d.cmdHandlers[name]; !dup {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
