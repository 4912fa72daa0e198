package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Cond is a single SQL predicate using ? placeholders
type Cond struct {
	Expr string
	Args []interface{}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike makes term match literally inside a LIKE pattern
func EscapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// ILike builds a case-insensitive substring predicate
func ILike(column, term string) Cond {
	return Cond{Expr: column + " ILIKE ?", Args: []interface{}{"%" + EscapeLike(term) + "%"}}
}

// IEq adds a case-insensitive exact match
func (q *Query) IEq(column, value string) *Query {
	return q.Where(column+" ILIKE ?", EscapeLike(value))
}

// EqCond builds an equality predicate for use inside Or
func EqCond(column string, value interface{}) Cond {
	return Cond{Expr: column + " = ?", Args: []interface{}{value}}
}

// Query composes a filtered, ordered, paginated SELECT.
// Predicates are written with ? and rebound to $n when the SQL is rendered.
type Query struct {
	from    string
	columns string
	conds   []Cond
	orders  []string
	limit   int
	offset  int
}

// From starts a query over a table (or join expression)
func From(from, columns string) *Query {
	return &Query{from: from, columns: columns}
}

// Where adds a raw predicate
func (q *Query) Where(expr string, args ...interface{}) *Query {
	q.conds = append(q.conds, Cond{Expr: expr, Args: args})
	return q
}

// Eq adds column = value
func (q *Query) Eq(column string, value interface{}) *Query {
	return q.Where(column+" = ?", value)
}

// Gte adds column >= value
func (q *Query) Gte(column string, value interface{}) *Query {
	return q.Where(column+" >= ?", value)
}

// Lte adds column <= value
func (q *Query) Lte(column string, value interface{}) *Query {
	return q.Where(column+" <= ?", value)
}

// IsNull adds column IS NULL
func (q *Query) IsNull(column string) *Query {
	return q.Where(column + " IS NULL")
}

// In adds column = ANY(values). An empty list is ignored.
func (q *Query) In(column string, values []string) *Query {
	if len(values) == 0 {
		return q
	}
	return q.Where(column+" = ANY(?)", pq.Array(values))
}

// Or adds a parenthesised disjunction of conds
func (q *Query) Or(conds ...Cond) *Query {
	if len(conds) == 0 {
		return q
	}
	parts := make([]string, 0, len(conds))
	var args []interface{}
	for _, c := range conds {
		parts = append(parts, c.Expr)
		args = append(args, c.Args...)
	}
	return q.Where("("+strings.Join(parts, " OR ")+")", args...)
}

// Search adds an ILIKE disjunction of term across columns. A blank term is ignored.
func (q *Query) Search(term string, columns ...string) *Query {
	term = strings.TrimSpace(term)
	if term == "" {
		return q
	}
	conds := make([]Cond, 0, len(columns))
	for _, col := range columns {
		conds = append(conds, ILike(col, term))
	}
	return q.Or(conds...)
}

// Order appends an ORDER BY term
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "DESC"
	if ascending {
		dir = "ASC"
	}
	q.orders = append(q.orders, column+" "+dir)
	return q
}

// Range selects rows from..to inclusive (zero-based)
func (q *Query) Range(from, to int) *Query {
	if from < 0 {
		from = 0
	}
	q.offset = from
	q.limit = to - from + 1
	return q
}

// Limit caps the number of rows returned
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

func (q *Query) whereClause() (string, []interface{}) {
	if len(q.conds) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(q.conds))
	var args []interface{}
	for _, c := range q.conds {
		parts = append(parts, c.Expr)
		args = append(args, c.Args...)
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// ToSQL renders the SELECT with $n placeholders
func (q *Query) ToSQL() (string, []interface{}) {
	where, args := q.whereClause()
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s%s", q.columns, q.from, where)
	if len(q.orders) > 0 {
		sb.WriteString(" ORDER BY " + strings.Join(q.orders, ", "))
	}
	if q.limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.limit)
	}
	if q.offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", q.offset)
	}
	return sqlx.Rebind(sqlx.DOLLAR, sb.String()), args
}

// CountSQL renders a COUNT(*) over the same predicates, ignoring order and range
func (q *Query) CountSQL() (string, []interface{}) {
	where, args := q.whereClause()
	return sqlx.Rebind(sqlx.DOLLAR, fmt.Sprintf("SELECT COUNT(*) FROM %s%s", q.from, where)), args
}
