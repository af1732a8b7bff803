package filter

import (
	"testing"

	"github.com/fastygo/taskclient/domain"
	"github.com/fastygo/taskclient/internal/router"
)

func newRouterAt(t *testing.T, target string) *router.Router {
	t.Helper()
	r := router.New(router.PathLogin, router.PathLogin, nil)
	r.Handle(router.Route{Path: router.PathLogin, Auth: true})
	r.Handle(router.Route{Path: router.PathTasks, Protected: true})
	r.Use(func(router.Location) bool { return true })
	if _, err := r.Navigate(target, router.Push); err != nil {
		t.Fatalf("Navigate(%s): %v", target, err)
	}
	return r
}

func TestInitialStatusFromLocation(t *testing.T) {
	tests := []struct {
		target string
		want   domain.StatusFilter
	}{
		{"/tasks", domain.FilterAll},
		{"/tasks?status=completed", domain.FilterCompleted},
		{"/tasks?status=pending&page=2", domain.FilterPending},
		{"/tasks?status=bogus", domain.FilterAll},
		{"/tasks?status=all", domain.FilterAll},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			s := New(newRouterAt(t, tt.target), nil)
			if got := s.Status(); got != tt.want {
				t.Fatalf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetStatusRoundTrip(t *testing.T) {
	r := newRouterAt(t, "/tasks?page=3")
	s := New(r, nil)
	depth := len(r.History())

	s.SetStatus(domain.FilterPending)
	q := r.Query()
	if q.Get(ParamStatus) != "pending" || q.Get("page") != "3" {
		t.Fatalf("query = %v", q)
	}

	s.SetStatus(domain.FilterAll)
	if _, present := r.Query()[ParamStatus]; present {
		t.Fatalf("status kept for all: %v", r.Query())
	}

	if len(r.History()) != depth {
		t.Fatalf("SetStatus pushed history: %d entries, want %d", len(r.History()), depth)
	}

	s.SetStatus(domain.FilterCompleted)
	again := New(r, nil)
	if again.Status() != domain.FilterCompleted {
		t.Fatalf("reload = %q", again.Status())
	}
}

func TestSetStatusRejectsUnknownValue(t *testing.T) {
	r := newRouterAt(t, "/tasks?status=pending")
	s := New(r, nil)

	s.SetStatus("archived")
	if s.Status() != domain.FilterAll || r.Query().Get(ParamStatus) != "" {
		t.Fatalf("status = %q query = %v", s.Status(), r.Query())
	}
}

func TestQuery(t *testing.T) {
	s := New(newRouterAt(t, "/tasks?status=completed"), nil)
	q := s.Query(2, 10)
	if q.Status != domain.FilterCompleted || q.Page != 2 || q.Limit != 10 {
		t.Fatalf("Query() = %+v", q)
	}
}
