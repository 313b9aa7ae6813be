package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
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

// TransactionSortFields contains allowed sort fields for the ledger listing
var TransactionSortFields = map[string]bool{
	"created_at":       true,
	"transaction_code": true,
	"updated_at":       true,
	"type":             true,
}

// transactionOrder builds the ORDER BY of a ledger listing. transaction_code
// breaks ties so pages stay stable.
func transactionOrder(field, dir string) string {
	field = ValidateSortField(field, TransactionSortFields, "created_at")
	dir = ValidateSortOrder(dir)
	if field == "transaction_code" {
		return field + " " + dir
	}
	return field + " " + dir + ", transaction_code " + dir
}
