package persistence

import (
	"strings"

	"gorm.io/gorm"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField if it is whitelisted, otherwise
// defaultField. Sort columns are interpolated into SQL, so nothing outside
// the whitelist may pass.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ShopSortFields contains allowed sort fields for shops
var ShopSortFields = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"is_featured": true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"title":      true,
	"price":      true,
	"stock":      true,
	"status":     true,
}

// OrderSortFields contains allowed sort fields for product orders
var OrderSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"total":      true,
	"status":     true,
	"paid_at":    true,
}

// ExperienceSortFields contains allowed sort fields for experiences
var ExperienceSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"title":      true,
}

// ExperienceOrderSortFields contains allowed sort fields for bookings
var ExperienceOrderSortFields = map[string]bool{
	"created_at": true,
	"total":      true,
}

// paginate applies ordering and paging from filter to query
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	filter = filter.Normalize()
	column := ValidateSortField(filter.OrderBy, allowed, "created_at")
	return query.
		Order(column + " " + ValidateSortOrder(filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize)
}

// likeEscape is the LIKE escape character. '!' needs no quoting on MySQL,
// PostgreSQL or SQLite.
const likeEscape = "!"

var likeReplacer = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// searchPattern lowercases a user search term into a LIKE pattern with the
// wildcards in the term escaped. Use it with "LOWER(col) LIKE ? ESCAPE '!'".
func searchPattern(term string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

// likeClause builds a case-insensitive LIKE condition on column
func likeClause(column string) string {
	return "LOWER(" + column + ") LIKE ? ESCAPE '" + likeEscape + "'"
}
