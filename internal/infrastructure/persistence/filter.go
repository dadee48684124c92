package persistence

import (
	"github.com/lending/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// applyPagination applies page-based offset/limit from the filter
func applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}

// applySort applies whitelisted ordering from the filter, falling back to
// created_at when the requested field is not allowed
func applySort(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, "created_at")
	dir := ValidateSortOrder(filter.OrderDir)
	return query.Order(field + " " + dir)
}
