package shared

const DefaultPageSize = 20

// Filter is one page of a list query. Filters holds equality conditions
// by key; repositories decide which keys and OrderBy columns they honour.
type Filter struct {
	Page, PageSize    int
	OrderBy, OrderDir string
	Filters           map[string]any
}

// DefaultFilter is page 1, newest first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: DefaultPageSize, OrderBy: "created_at", OrderDir: "desc", Filters: map[string]any{}}
}

// Offset counts the rows before Page; pages start at 1
func (f Filter) Offset() int {
	return max(f.Page-1, 0) * f.PageSize
}
