package shared

// Filter carries paging and ordering for list queries. OrderBy is checked
// against a per-table allowlist before it reaches SQL.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// DefaultFilter is the first page of 20, newest first.
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: 20, OrderBy: "created_at", OrderDir: "desc"}
}

// Offset returns the number of rows before the page
func (f Filter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Paginated is one page of a list result.
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// NewPaginated wraps items with page metadata
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return Paginated[T]{Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: pages}
}
