package shared

import (
	"net/url"
	"strconv"
	"strings"
)

// ListFilters represents standard list page filters
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string

	// Entity specific filters
	CategoryID    *int64
	SubcategoryID *int64
}

// Offset returns the row offset for the current page.
func (f ListFilters) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// ParseListFilters reads page, limit, search, sort, dir, category_id and
// subcategory_id from a query string. Unparseable values fall back to defaults.
func ParseListFilters(q url.Values) ListFilters {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = DefaultPage
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	dir := SortAsc
	if strings.EqualFold(q.Get("dir"), SortDesc) {
		dir = SortDesc
	}

	filters := ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  strings.TrimSpace(q.Get("search")),
		SortBy:  q.Get("sort"),
		SortDir: dir,
	}
	if id, err := strconv.ParseInt(q.Get("category_id"), 10, 64); err == nil && id > 0 {
		filters.CategoryID = &id
	}
	if id, err := strconv.ParseInt(q.Get("subcategory_id"), 10, 64); err == nil && id > 0 {
		filters.SubcategoryID = &id
	}
	return filters
}
