package persistence

import "strings"

// orderSortColumns maps the sort keys accepted by order listings to columns.
// Sort columns end up in raw SQL, so nothing outside this map may pass.
var orderSortColumns = map[string]string{
	"created_at":        "order_date",
	"order_date":        "order_date",
	"order_number":      "order_number",
	"status":            "status",
	"total":             "total",
	"status_updated_at": "status_updated_at",
}

// orderClause builds "column DIR" for a listing. Unknown keys fall back to
// fallback; any direction other than asc sorts descending.
func orderClause(key, dir string, columns map[string]string, fallback string) string {
	column, ok := columns[strings.TrimSpace(key)]
	if !ok {
		column = fallback
	}
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return column + " ASC"
	}
	return column + " DESC"
}
