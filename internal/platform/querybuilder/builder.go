// Package querybuilder renders Postgres statements with positional ($n) arguments.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// args collects bound values and hands out the next positional placeholder.
type args struct {
	values []any
}

func (a *args) bind(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

// expand replaces each '?' in expr with a fresh placeholder for the matching value.
// Surplus '?' are left alone.
func (a *args) expand(expr string, values []any) string {
	if len(values) == 0 {
		return expr
	}

	var out strings.Builder
	out.Grow(len(expr) + len(values)*2)
	next := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] == '?' && next < len(values) {
			out.WriteString(a.bind(values[next]))
			next++
			continue
		}
		out.WriteByte(expr[i])
	}
	return out.String()
}

type Condition interface {
	render(buf *strings.Builder, a *args)
}

type compare struct {
	column string
	op     string
	value  any
}

func (c compare) render(buf *strings.Builder, a *args) {
	buf.WriteString(c.column)
	buf.WriteString(c.op)
	buf.WriteString(a.bind(c.value))
}

func Eq(column string, value any) Condition    { return compare{column, " = ", value} }
func NotEq(column string, value any) Condition { return compare{column, " <> ", value} }
func Gte(column string, value any) Condition   { return compare{column, " >= ", value} }
func Lte(column string, value any) Condition   { return compare{column, " <= ", value} }

type anyOf struct {
	column string
	value  any
}

// Any renders "column = ANY($n)"; value is expected to be a driver array such as pq.Array.
func Any(column string, value any) Condition {
	return anyOf{column: column, value: value}
}

func (c anyOf) render(buf *strings.Builder, a *args) {
	buf.WriteString(c.column)
	buf.WriteString(" = ANY(")
	buf.WriteString(a.bind(c.value))
	buf.WriteString(")")
}

type isNull string

func IsNull(column string) Condition {
	return isNull(column)
}

func (c isNull) render(buf *strings.Builder, _ *args) {
	buf.WriteString(string(c))
	buf.WriteString(" IS NULL")
}

type or []Condition

// Or joins conditions with OR inside parentheses.
func Or(conditions ...Condition) Condition {
	return or(conditions)
}

func (c or) render(buf *strings.Builder, a *args) {
	if len(c) == 0 {
		buf.WriteString("1=0")
		return
	}
	buf.WriteString("(")
	for i, cond := range c {
		if i > 0 {
			buf.WriteString(" OR ")
		}
		cond.render(buf, a)
	}
	buf.WriteString(")")
}

type expr struct {
	sql    string
	values []any
}

func (c expr) render(buf *strings.Builder, a *args) {
	buf.WriteString(a.expand(c.sql, c.values))
}

func renderWhere(buf *strings.Builder, a *args, conditions []Condition) {
	for i, c := range conditions {
		if i == 0 {
			buf.WriteString(" WHERE ")
		} else {
			buf.WriteString(" AND ")
		}
		c.render(buf, a)
	}
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	switch {
	case len(b.columns) == 0:
		return "", nil, fmt.Errorf("select columns are required")
	case strings.TrimSpace(b.table) == "":
		return "", nil, fmt.Errorf("select table is required")
	}

	var buf strings.Builder
	var a args
	fmt.Fprintf(&buf, "SELECT %s FROM %s", strings.Join(b.columns, ", "), b.table)
	renderWhere(&buf, &a, b.where)
	if len(b.orderBy) > 0 {
		buf.WriteString(" ORDER BY ")
		buf.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		buf.WriteString(" LIMIT ")
		buf.WriteString(strconv.Itoa(b.limit))
	}
	return buf.String(), a.values, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(b.table) == "":
		return "", nil, fmt.Errorf("insert table is required")
	case len(b.columns) == 0:
		return "", nil, fmt.Errorf("insert columns are required")
	case len(b.rows) == 0:
		return "", nil, fmt.Errorf("insert values are required")
	}

	var buf strings.Builder
	a := args{values: make([]any, 0, len(b.rows)*len(b.columns))}
	fmt.Fprintf(&buf, "INSERT INTO %s (%s) VALUES ", b.table, strings.Join(b.columns, ", "))
	for i, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", i, len(row), len(b.columns))
		}
		if i > 0 {
			buf.WriteString(", ")
		}
		placeholders := make([]string, len(row))
		for j, value := range row {
			placeholders[j] = a.bind(value)
		}
		buf.WriteString("(" + strings.Join(placeholders, ", ") + ")")
	}
	if b.suffix != "" {
		buf.WriteString(" ")
		buf.WriteString(b.suffix)
	}
	return buf.String(), a.values, nil
}

type UpdateBuilder struct {
	table  string
	sets   []expr
	cols   []string
	where  []Condition
	suffix string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	return b.SetExpr(column, "?", value)
}

// SetExpr assigns a raw expression; '?' markers bind values in order.
func (b *UpdateBuilder) SetExpr(column, sql string, values ...any) *UpdateBuilder {
	b.cols = append(b.cols, column)
	b.sets = append(b.sets, expr{sql: sql, values: values})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) Suffix(sql string) *UpdateBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(b.table) == "":
		return "", nil, fmt.Errorf("update table is required")
	case len(b.sets) == 0:
		return "", nil, fmt.Errorf("update sets are required")
	}

	var buf strings.Builder
	var a args
	buf.WriteString("UPDATE " + b.table + " SET ")
	for i, set := range b.sets {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(b.cols[i] + " = ")
		set.render(&buf, &a)
	}
	renderWhere(&buf, &a, b.where)
	if b.suffix != "" {
		buf.WriteString(" ")
		buf.WriteString(b.suffix)
	}
	return buf.String(), a.values, nil
}

// OnConflictUpdate renders an upsert suffix that overwrites every listed column with the incoming row.
func OnConflictUpdate(conflict []string, columns []string) string {
	skip := make(map[string]struct{}, len(conflict))
	for _, col := range conflict {
		skip[col] = struct{}{}
	}

	sets := make([]string, 0, len(columns))
	for _, col := range columns {
		if _, ok := skip[col]; !ok {
			sets = append(sets, col+" = EXCLUDED."+col)
		}
	}

	target := "ON CONFLICT (" + strings.Join(conflict, ", ") + ")"
	if len(sets) == 0 {
		return target + " DO NOTHING"
	}
	return target + " DO UPDATE SET " + strings.Join(sets, ", ")
}
