package utils

import "gorm.io/gorm"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a resolved offset/limit pair.
type Page struct {
	Offset int
	Limit  int
}

// Paginate resolves optional query values: a missing or negative offset becomes 0, a
// missing or non-positive limit becomes DefaultPageSize, and limits are capped at MaxPageSize.
func Paginate(offset, limit *int) Page {
	page := Page{Limit: DefaultPageSize}
	if offset != nil && *offset >= 0 {
		page.Offset = *offset
	}
	if limit != nil && *limit > 0 {
		page.Limit = min(*limit, MaxPageSize)
	}
	return page
}

// Scope applies the page to a gorm query.
func (p Page) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(p.Offset).Limit(p.Limit)
}
