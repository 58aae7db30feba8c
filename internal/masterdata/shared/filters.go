// Package shared holds filter types common to the masterdata modules.
package shared

// ListFilters narrows masterdata listings.
type ListFilters struct {
	Search   string
	Category string
	Type     string
	SortBy   string
	SortDir  string
	Page     int
	Limit    int
}

// Offset returns the SQL offset for the current page.
func (f ListFilters) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
