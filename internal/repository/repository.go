package repository

import (
	"strings"

	"gorm.io/gorm"
)

// ScopeFunc narrows a query to the caller's tenant partition.
type ScopeFunc func(db *gorm.DB) (*gorm.DB, error)

func applyScope(db *gorm.DB, scope ScopeFunc) (*gorm.DB, error) {
	if scope == nil {
		return db, nil
	}
	return scope(db)
}

// likeEscape is the ESCAPE character used with likePattern. Backslash is not
// portable across drivers.
const likeEscape = "!"

// likePattern builds a lower-cased LIKE pattern for a search term.
func likePattern(term string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(term))) + "%"
}

// searchClause ORs a LIKE match over columns.
func searchClause(columns ...string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = "LOWER(" + c + ") LIKE ? ESCAPE '" + likeEscape + "'"
	}
	return strings.Join(parts, " OR ")
}

func repeatArg(v interface{}, n int) []interface{} {
	out := make([]interface{}, n)
	for i := range out {
		out[i] = v
	}
	return out
}
