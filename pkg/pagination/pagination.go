// Package pagination turns page/limit query parameters into offsets and
// describes a page of results.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 12
	MaxLimit     = 100
)

// Params is a 1-based page request.
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// New normalises page and limit: page < 1 becomes 1, limit outside
// [1, MaxLimit] becomes defaultLimit.
func New(page, limit, defaultLimit int) Params {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxLimit {
		limit = defaultLimit
	}
	return Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// FromRequest reads ?page= and ?limit= from r.
func FromRequest(r *http.Request, defaultLimit int) Params {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return New(page, limit, defaultLimit)
}

// Info describes where a page sits in the full result set.
type Info struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewInfo computes HasNext as page*limit < total and HasPrev as page > 1.
func NewInfo(p Params, total int) Info {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = total / p.Limit
		if total%p.Limit > 0 {
			totalPages++
		}
	}
	return Info{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page*p.Limit < total,
		HasPrev:    p.Page > 1,
	}
}

// Result is one page of items.
type Result[T any] struct {
	Items      []T  `json:"items"`
	Pagination Info `json:"pagination"`
}

func NewResult[T any](items []T, total int, p Params) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{Items: items, Pagination: NewInfo(p, total)}
}
