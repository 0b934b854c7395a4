package postgres

import (
	"strconv"
	"strings"

	"food-order-backend/internal/admin"
)

// where accumulates AND-ed conditions with positional arguments.
type where struct {
	conds []string
	args  []any
}

// arg registers v and returns its placeholder.
func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *where) and(cond string) {
	w.conds = append(w.conds, cond)
}

// search adds an ILIKE match of term against any of columns.
func (w *where) search(term string, columns ...string) {
	if term == "" || len(columns) == 0 {
		return
	}
	p := w.arg(likePattern(term))
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = c + " ILIKE " + p
	}
	w.and("(" + strings.Join(parts, " OR ") + ")")
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *where) page(p admin.Page) string {
	return " LIMIT " + w.arg(p.Limit) + " OFFSET " + w.arg(p.Offset)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
