package client

import (
	"math"
	"testing"

	"github.com/fastygo/taskclient/domain"
)

func TestShapeListQuery(t *testing.T) {
	nan := domain.Unset()
	tests := []struct {
		name  string
		query domain.TaskQuery
		want  ListParams
		enc   string
	}{
		{
			name:  "all omits status",
			query: domain.TaskQuery{Status: domain.FilterAll, Page: 1, Limit: 10},
			want:  ListParams{Page: 1, Limit: 10},
			enc:   "page=1&limit=10",
		},
		{
			name:  "pending kept",
			query: domain.TaskQuery{Status: domain.FilterPending, Page: 2, Limit: 5},
			want:  ListParams{Status: "pending", Page: 2, Limit: 5},
			enc:   "status=pending&page=2&limit=5",
		},
		{
			name:  "page floored and raised to one",
			query: domain.TaskQuery{Page: -3.7, Limit: 9.9},
			want:  ListParams{Page: 1, Limit: 9},
			enc:   "page=1&limit=9",
		},
		{
			name:  "fractional page floored",
			query: domain.TaskQuery{Page: 3.9, Limit: nan},
			want:  ListParams{Page: 3},
			enc:   "page=3",
		},
		{
			name:  "limit clamped high",
			query: domain.TaskQuery{Page: nan, Limit: 1000},
			want:  ListParams{Limit: 100},
			enc:   "limit=100",
		},
		{
			name:  "limit clamped low",
			query: domain.TaskQuery{Page: nan, Limit: 0},
			want:  ListParams{Limit: 1},
			enc:   "limit=1",
		},
		{
			name:  "non-finite dropped",
			query: domain.TaskQuery{Status: domain.FilterCompleted, Page: math.Inf(1), Limit: math.Inf(-1)},
			want:  ListParams{Status: "completed"},
			enc:   "status=completed",
		},
		{
			name:  "everything omitted",
			query: domain.TaskQuery{Status: "bogus", Page: nan, Limit: nan},
			want:  ListParams{},
			enc:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShapeListQuery(tt.query)
			if got != tt.want {
				t.Fatalf("ShapeListQuery() = %+v, want %+v", got, tt.want)
			}
			if enc := got.Encode(); enc != tt.enc {
				t.Fatalf("Encode() = %q, want %q", enc, tt.enc)
			}
		})
	}
}
