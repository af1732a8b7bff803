package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	appLogger "github.com/fastygo/taskclient/pkg/logger"
)

// HeaderRequestID carries the request id on every outgoing call.
const HeaderRequestID = "X-Request-ID"

// Adapter prepares the context of one outbound API call: a deadline and a
// request id the logs and the server can correlate on.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach derives a context bounded by the adapter timeout (or the parent's
// earlier deadline) and tagged with a request id.
func (a *Adapter) Attach(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}

	stdCtx, cancel := context.WithTimeout(parent, a.timeout)

	if strings.TrimSpace(appLogger.RequestID(stdCtx)) == "" {
		stdCtx = appLogger.ContextWithRequestID(stdCtx, uuid.NewString())
	}
	return stdCtx, cancel
}

// RequestID returns the id Attach stored in ctx.
func RequestID(ctx context.Context) string {
	return appLogger.RequestID(ctx)
}
