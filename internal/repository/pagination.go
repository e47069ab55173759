package repository

// Admin listings are the only paged surface today; the bounds below keep a
// single page from scanning the whole users table.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is the caller's raw paging input, before bounds are applied.
type PageRequest struct {
	Page     int
	PageSize int
}

// offset converts the 1-based page number into a row offset for the query.
func (p PageRequest) offset() int {
	return (p.Page - 1) * p.PageSize
}

// PageResult wraps one page of rows together with the totals the list
// endpoints report.
type PageResult[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

// normalizePageRequest clamps the request into the bounds above. Zero and
// negative values fall back to the defaults rather than erroring, so a bare
// list call without query parameters returns the first page.
func normalizePageRequest(in PageRequest) PageRequest {
	page := in.Page
	if page < 1 {
		page = DefaultPage
	}
	pageSize := in.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return PageRequest{Page: page, PageSize: pageSize}
}

func calcTotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	ps := int64(pageSize)
	pages := total / ps
	if total%ps != 0 {
		pages++
	}
	maxInt := int64(^uint(0) >> 1)
	if pages > maxInt {
		return int(maxInt)
	}
	return int(pages)
}
