package client

import (
	"math"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskclient/domain"
)

const (
	maxLimit = 100
	maxPage  = math.MaxInt32
)

// ListParams is a TaskQuery after shaping. Zero Page or Limit and an empty
// Status mean the parameter is left out of the request. ListParams is
// comparable and doubles as the task cache key.
type ListParams struct {
	Status string
	Page   int
	Limit  int
}

// ShapeListQuery drops the "all" status, floors page to at least 1, floors
// and clamps limit into [1, 100] and drops non-finite numbers.
func ShapeListQuery(q domain.TaskQuery) ListParams {
	var p ListParams
	switch q.Status {
	case domain.FilterPending, domain.FilterCompleted:
		p.Status = string(q.Status)
	}
	if isFinite(q.Page) {
		p.Page = int(math.Min(maxPage, math.Max(1, math.Floor(q.Page))))
	}
	if isFinite(q.Limit) {
		p.Limit = int(math.Min(maxLimit, math.Max(1, math.Floor(q.Limit))))
	}
	return p
}

// Encode renders the query string without a leading '?'.
func (p ListParams) Encode() string {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)

	if p.Status != "" {
		args.Set("status", p.Status)
	}
	if p.Page > 0 {
		args.SetUint("page", p.Page)
	}
	if p.Limit > 0 {
		args.SetUint("limit", p.Limit)
	}
	return string(args.QueryString())
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
