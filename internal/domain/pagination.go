package domain

// DefaultPageSize is the page size when none is specified.
const DefaultPageSize = 100

// MaxPageSize is the largest allowed page size.
const MaxPageSize = 1000

// PageRequest holds 1-based page parameters.
type PageRequest struct {
	Page     int
	PageSize int
}

// Limit returns the effective page size, clamped to [1, MaxPageSize].
func (p PageRequest) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// Offset returns the row offset of the page. Pages below 1 count as 1.
func (p PageRequest) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Pagination describes the position of a page within the full result.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int64 `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewPagination computes page metadata for total rows.
func NewPagination(req PageRequest, total int64) Pagination {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.Limit()
	pages := (total + int64(size) - 1) / int64(size)
	return Pagination{
		Page:       page,
		PageSize:   size,
		TotalCount: total,
		TotalPages: pages,
		HasNext:    int64(page) < pages,
		HasPrev:    page > 1,
	}
}
