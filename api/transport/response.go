package transport

import (
	"encoding/json"

	"github.com/fastygo/taskclient/domain"
)

// AuthResponse is returned by /login and /register.
type AuthResponse struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

// TasksResponse is returned by GET /tasks.
type TasksResponse struct {
	Tasks      []domain.Task     `json:"tasks"`
	Pagination domain.Pagination `json:"pagination"`
}

// ErrorResponse is the error body of the API. Only Message (or Error) is
// guaranteed; Field and Errors are honoured when a server sends them.
type ErrorResponse struct {
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Field   string            `json:"field,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Text returns the best human readable message in the body.
func (e ErrorResponse) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e ErrorResponse) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
