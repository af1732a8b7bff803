package fakeapi

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskclient/api/transport"
	"github.com/fastygo/taskclient/domain"
)

type taskHandler struct {
	baseHandler
	store *Store
}

func (h *taskHandler) List(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()

	status := string(args.Peek("status"))
	if status != "" && !domain.TaskStatus(status).Valid() {
		h.respondError(ctx, errBadStatus)
		return
	}
	page, ok := h.intArg(ctx, "page", 1, 1, 1<<31-1)
	if !ok {
		return
	}
	limit, ok := h.intArg(ctx, "limit", 10, 1, 100)
	if !ok {
		return
	}

	tasks, pagination := h.store.ListTasks(userID(ctx), status, page, limit)
	h.respondJSON(ctx, http.StatusOK, transport.TasksResponse{Tasks: tasks, Pagination: pagination})
}

func (h *taskHandler) Get(ctx *fasthttp.RequestCtx) {
	id, ok := h.taskID(ctx)
	if !ok {
		return
	}
	task, err := h.store.GetTask(userID(ctx), id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, task)
}

func (h *taskHandler) Create(ctx *fasthttp.RequestCtx) {
	var req transport.TaskCreateRequest
	if !h.decode(ctx, &req) {
		return
	}
	task, err := h.store.CreateTask(userID(ctx), req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusCreated, task)
}

func (h *taskHandler) Update(ctx *fasthttp.RequestCtx) {
	id, ok := h.taskID(ctx)
	if !ok {
		return
	}
	var req transport.TaskUpdateRequest
	if !h.decode(ctx, &req) {
		return
	}
	task, err := h.store.UpdateTask(userID(ctx), id, req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, task)
}

func (h *taskHandler) Delete(ctx *fasthttp.RequestCtx) {
	id, ok := h.taskID(ctx)
	if !ok {
		return
	}
	if err := h.store.DeleteTask(userID(ctx), id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusNoContent, nil)
}

func (h *taskHandler) Toggle(ctx *fasthttp.RequestCtx) {
	id, ok := h.taskID(ctx)
	if !ok {
		return
	}
	task, err := h.store.ToggleTask(userID(ctx), id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, task)
}

func (h *taskHandler) taskID(ctx *fasthttp.RequestCtx) (int64, bool) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.respondJSON(ctx, http.StatusBadRequest, transport.ErrorResponse{Message: "invalid task id"})
		return 0, false
	}
	return id, true
}

// intArg parses an optional integer query parameter and rejects values
// outside [min, max] the way the real API does.
func (h *taskHandler) intArg(ctx *fasthttp.RequestCtx, name string, fallback, min, max int) (int, bool) {
	raw := ctx.QueryArgs().Peek(name)
	if len(raw) == 0 {
		return fallback, true
	}
	v, err := strconv.Atoi(string(raw))
	if err != nil || v < min || v > max {
		h.respondJSON(ctx, http.StatusBadRequest, transport.ErrorResponse{Message: "invalid " + name, Field: name})
		return 0, false
	}
	return v, true
}

func userID(ctx *fasthttp.RequestCtx) int64 {
	id, _ := ctx.UserValue(userIDKey).(int64)
	return id
}
