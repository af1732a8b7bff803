package domain

import (
	"math"
	"strings"
	"time"
)

// TaskStatus is the server-side status of a task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// Valid reports whether s is a status the API accepts.
func (s TaskStatus) Valid() bool {
	return s == TaskPending || s == TaskCompleted
}

// Task represents a user-owned to-do item. Ids and timestamps are assigned
// by the server.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	UserID      int64      `json:"userId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == TaskCompleted
}

// TaskDraft carries the fields of a task about to be created.
type TaskDraft struct {
	Title       string `json:"title" validate:"notblank"`
	Description string `json:"description,omitempty"`
}

// TaskPatch carries the fields of an update; nil fields are left untouched.
type TaskPatch struct {
	Title       *string     `json:"title,omitempty" validate:"omitempty,notblank"`
	Description *string     `json:"description,omitempty"`
	Status      *TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=pending completed"`
}

// StatusFilter selects which tasks a list view shows.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterPending   StatusFilter = "pending"
	FilterCompleted StatusFilter = "completed"
)

// ParseStatusFilter maps raw input to a filter. Unknown values yield
// FilterAll and false.
func ParseStatusFilter(raw string) (StatusFilter, bool) {
	switch StatusFilter(strings.TrimSpace(raw)) {
	case FilterAll:
		return FilterAll, true
	case FilterPending:
		return FilterPending, true
	case FilterCompleted:
		return FilterCompleted, true
	default:
		return FilterAll, false
	}
}

// TaskQuery selects one page of the task collection. Page and Limit are
// taken as given and shaped by the gateway; NaN or an infinity leaves the
// parameter out of the request.
type TaskQuery struct {
	Status StatusFilter
	Page   float64
	Limit  float64
}

// Unset is the value that omits a numeric TaskQuery parameter.
func Unset() float64 {
	return math.NaN()
}

// Pagination describes where a TaskPage sits in the whole collection.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// TaskPage is one filtered, paginated view of the task collection.
type TaskPage struct {
	Tasks      []Task     `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}

// Clone returns a copy that shares nothing with p.
func (p *TaskPage) Clone() *TaskPage {
	if p == nil {
		return nil
	}
	out := &TaskPage{Pagination: p.Pagination}
	if p.Tasks != nil {
		out.Tasks = make([]Task, len(p.Tasks))
		copy(out.Tasks, p.Tasks)
	}
	return out
}
