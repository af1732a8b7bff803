package client

import (
	"context"
	"strconv"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskclient/api/transport"
	"github.com/fastygo/taskclient/domain"
)

// ListTasks fetches one page of tasks; see ShapeListQuery for how q is sent.
func (c *Client) ListTasks(ctx context.Context, q domain.TaskQuery) (*domain.TaskPage, error) {
	var resp transport.TasksResponse
	if err := c.do(ctx, fasthttp.MethodGet, pathTasks, ShapeListQuery(q).Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Tasks == nil {
		resp.Tasks = []domain.Task{}
	}
	return &domain.TaskPage{Tasks: resp.Tasks, Pagination: resp.Pagination}, nil
}

func (c *Client) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, fasthttp.MethodGet, taskPath(id), "", nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	req := transport.TaskCreateRequest{Title: draft.Title, Description: draft.Description}
	var task domain.Task
	if err := c.do(ctx, fasthttp.MethodPost, pathTasks, "", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	req := transport.TaskUpdateRequest{Title: patch.Title, Description: patch.Description}
	if patch.Status != nil {
		status := string(*patch.Status)
		req.Status = &status
	}
	var task domain.Task
	if err := c.do(ctx, fasthttp.MethodPut, taskPath(id), "", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, fasthttp.MethodDelete, taskPath(id), "", nil, nil)
}

// ToggleTaskStatus flips a task between pending and completed on the server.
func (c *Client) ToggleTaskStatus(ctx context.Context, id int64) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, fasthttp.MethodPatch, taskPath(id)+"/complete", "", nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func taskPath(id int64) string {
	return pathTasks + "/" + strconv.FormatInt(id, 10)
}
