package shared

// Filter represents list query options
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}
}

// Normalize clamps paging values into a usable range
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	if f.OrderDir != "asc" {
		f.OrderDir = "desc"
	}
	if f.OrderBy == "" {
		f.OrderBy = "created_at"
	}
	return f
}

// Offset returns the row offset of the page
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
