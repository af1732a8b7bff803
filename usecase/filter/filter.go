// Package filter keeps the task status filter and the "status" query
// parameter of the current location in step.
package filter

import (
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/taskclient/domain"
)

const ParamStatus = "status"

// URLState is the query string of the current location.
type URLState interface {
	Query() url.Values
	ReplaceQuery(q url.Values)
}

type Synchronizer struct {
	state  URLState
	logger *zap.Logger

	mu     sync.Mutex
	status domain.StatusFilter
}

// New reads the initial filter from state.
func New(state URLState, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Synchronizer{state: state, logger: logger}
	s.Reload()
	return s
}

// Reload re-reads the filter from the location; absent or unknown values
// mean FilterAll.
func (s *Synchronizer) Reload() domain.StatusFilter {
	raw := s.state.Query().Get(ParamStatus)
	status, ok := domain.ParseStatusFilter(raw)
	if !ok && raw != "" {
		s.logger.Debug("ignoring unknown status filter", zap.String("status", raw))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	return status
}

func (s *Synchronizer) Status() domain.StatusFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetStatus updates the filter and writes it to the location without adding
// a history entry. FilterAll removes the parameter.
func (s *Synchronizer) SetStatus(status domain.StatusFilter) {
	if _, ok := domain.ParseStatusFilter(string(status)); !ok {
		status = domain.FilterAll
	}

	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	q := s.state.Query()
	if status == domain.FilterAll {
		q.Del(ParamStatus)
	} else {
		q.Set(ParamStatus, string(status))
	}
	s.state.ReplaceQuery(q)
}

// Query builds the list query for the current filter.
func (s *Synchronizer) Query(page, limit float64) domain.TaskQuery {
	return domain.TaskQuery{Status: s.Status(), Page: page, Limit: limit}
}
