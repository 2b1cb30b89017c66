package repository

import (
	"strconv"
	"strings"
	"time"

	"account-ledger/internal/domain"
)

// whereBuilder accumulates AND-ed predicates with positional parameters.
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

// arg registers v and returns its placeholder.
func (w *whereBuilder) arg(v interface{}) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *whereBuilder) and(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) dateRange(column string, r domain.DateRange) {
	if r.From != nil {
		w.and(column + " >= " + w.arg(r.From.UTC()))
	}
	if r.To != nil {
		w.and(column + " <= " + w.arg(r.To.UTC()))
	}
}

func (w *whereBuilder) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching term anywhere.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func nullTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
