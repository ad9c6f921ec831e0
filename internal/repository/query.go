package repository

import (
	"strings"

	"github.com/iliyamo/restaurant-reservation/internal/pagination"
)

// ListQuery defines the free-text filter, sort order and page window
// shared by every collection.
type ListQuery struct {
	Search  string // case-insensitive substring matched against the entity's text fields
	SortBy  string // API field name; ignored unless it is on the entity's allow-list
	SortDir string // "asc" or "desc"; anything else means asc
	Page    pagination.Params
}

// ReservationListQuery adds the reservation specific filters.  Zero
// values mean "no filter".
type ReservationListQuery struct {
	ListQuery
	Date      string // YYYY-MM-DD
	DinerID   uint64
	TableID   uint64
	PartySize int
}

// likePattern builds a LIKE pattern matching term anywhere in a column.
// Wildcards typed by the user are escaped so that "50%" is matched
// literally.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(term)) + "%"
}

// orderBy resolves the ORDER BY clause for a list query.  Unknown sort
// fields fall back to def silently.
func orderBy(allowed map[string]string, q ListQuery, def string) string {
	col, ok := allowed[strings.TrimSpace(q.SortBy)]
	if !ok {
		return def
	}
	dir := "ASC"
	if strings.EqualFold(strings.TrimSpace(q.SortDir), "desc") {
		dir = "DESC"
	}
	// keep a stable order between rows sharing the sort value
	return col + " " + dir + ", " + def
}

// whereClause joins conditions with AND, defaulting to a tautology.
func whereClause(conds []string) string {
	if len(conds) == 0 {
		return "1=1"
	}
	return strings.Join(conds, " AND ")
}
