package usecase

import (
	"context"

	"github.com/fastygo/taskclient/domain"
	"github.com/fastygo/taskclient/internal/router"
)

// Operation names one kind of task operation; each has its own in-flight flag.
type Operation string

const (
	OperationList   Operation = "list"
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
	OperationToggle Operation = "toggle"
)

// Navigator moves between the client's views.
type Navigator interface {
	Navigate(target string, mode router.Mode) (router.Location, error)
	InAuthView() bool
}

// AuthGateway abstracts the remote authentication endpoints.
type AuthGateway interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error)
}

// TaskGateway abstracts the remote task endpoints.
type TaskGateway interface {
	ListTasks(ctx context.Context, q domain.TaskQuery) (*domain.TaskPage, error)
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
	CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error)
	UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	ToggleTaskStatus(ctx context.Context, id int64) (*domain.Task, error)
}

// CacheClearer drops every cached task view; the session manager calls it
// when the session ends.
type CacheClearer interface {
	Clear()
}
