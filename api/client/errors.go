package client

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskclient/api/transport"
	"github.com/fastygo/taskclient/domain"
)

func decodeError(status int, body []byte) *domain.Error {
	var payload transport.ErrorResponse
	_ = json.Unmarshal(body, &payload)

	msg := payload.Text()
	if msg == "" {
		msg = fasthttp.StatusMessage(status)
	}

	e := domain.NewError(codeForStatus(status), msg)
	e.Field = payload.Field
	if len(payload.Errors) > 0 {
		e.Fields = domain.FieldErrors(payload.Errors)
	}
	return e
}

func codeForStatus(status int) domain.ErrorCode {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.ErrCodeInvalid
	case http.StatusUnauthorized:
		return domain.ErrCodeUnauthorized
	case http.StatusForbidden:
		return domain.ErrCodeForbidden
	case http.StatusNotFound:
		return domain.ErrCodeNotFound
	case http.StatusConflict:
		return domain.ErrCodeConflict
	default:
		return domain.ErrCodeInternal
	}
}
