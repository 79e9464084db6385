package persistence

import (
	"strings"

	"github.com/retailops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when whitelisted, defaultField otherwise.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// Sort whitelists per table.
var (
	BucketSortFields = map[string]bool{
		"created_at":      true,
		"updated_at":      true,
		"product_id":      true,
		"total_stock":     true,
		"available_stock": true,
		"allocated_stock": true,
	}

	MovementSortFields = map[string]bool{
		"created_at": true,
		"product_id": true,
		"type":       true,
		"quantity":   true,
	}

	ReceiptSortFields = map[string]bool{
		"created_at":        true,
		"updated_at":        true,
		"status":            true,
		"received_quantity": true,
		"verified_at":       true,
	}

	DistributionSortFields = map[string]bool{
		"created_at":      true,
		"updated_at":      true,
		"delivery_status": true,
		"payment_status":  true,
		"total_amount":    true,
		"quantity":        true,
	}

	LedgerSortFields = map[string]bool{
		"created_at": true,
		"amount":     true,
		"type":       true,
	}
)

// paginate applies whitelisted ordering and the page window. id is always the
// tie-breaker so pages are stable.
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, "created_at")
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir)).Order("id")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}
