package shared

import "time"

// Filter represents paging and ordering options for list queries.
// Repositories whitelist OrderBy; an unknown field falls back to their default.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// Normalize clamps paging values into a usable range
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 500 {
		f.PageSize = 500
	}
	return f
}

// Offset returns the row offset of the current page
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// DateRange bounds a query by creation time. Either side may be nil.
// To is exclusive.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize > 0 {
			totalPages++
		}
	}
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
