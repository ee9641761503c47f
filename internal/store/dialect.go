package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Dialect abstracts database-specific SQL generation and behavior.
type Dialect interface {
	// Name returns "postgres" or "sqlite".
	Name() string

	// DriverName returns the database/sql driver name ("pgx" or "sqlite").
	DriverName() string

	// Placeholder returns the parameter placeholder for the given 1-based index.
	Placeholder(index int) string

	// NewParamBuilder creates a dialect-aware parameter builder.
	NewParamBuilder() ParamBuilder

	// NowExpr returns the SQL expression for the current timestamp.
	NowExpr() string

	// ColumnType maps a metadata field type to the database DDL type.
	ColumnType(fieldType string) string

	// BoolLiteral renders a boolean DEFAULT value.
	BoolLiteral(v bool) string

	// TableExists checks whether a table exists.
	TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error)

	// GetColumns returns existing column names and types for a table.
	GetColumns(ctx context.Context, db *sql.DB, tableName string) (map[string]string, error)

	// InExpr builds "field IN (...)" expanding the slice into placeholders.
	InExpr(field string, pb ParamBuilder, values []any) string

	// NotInExpr builds "field NOT IN (...)".
	NotInExpr(field string, pb ParamBuilder, values []any) string

	// LikeExpr builds a case-insensitive substring match.
	LikeExpr(field string, pb ParamBuilder, pattern string) string

	// MapError inspects a driver error and returns a well-known sentinel error if applicable.
	MapError(err error) error

	// DecodeValue converts a scanned, non-null column value of the given
	// field type to its API form.
	DecodeValue(fieldType string, v any) any
}

// ParamBuilder accumulates query parameters and generates dialect-specific placeholders.
type ParamBuilder interface {
	// Add appends a value and returns the placeholder string.
	Add(v any) string

	// Params returns all accumulated parameter values.
	Params() []any

	// Count returns the number of parameters added so far.
	Count() int
}

// NewDialect creates a Dialect for the given driver name ("postgres" or "sqlite").
func NewDialect(driver string) Dialect {
	switch driver {
	case "sqlite":
		return &SQLiteDialect{}
	default:
		return &PostgresDialect{}
	}
}

type paramBuilder struct {
	params []any
	format string
}

func (p *paramBuilder) Add(v any) string {
	p.params = append(p.params, v)
	return fmt.Sprintf(p.format, len(p.params))
}

func (p *paramBuilder) Params() []any { return p.params }
func (p *paramBuilder) Count() int    { return len(p.params) }

func expandPlaceholders(pb ParamBuilder, values []any) string {
	marks := make([]string, len(values))
	for i, v := range values {
		marks[i] = pb.Add(v)
	}
	return strings.Join(marks, ", ")
}

// membership renders "field IN (...)" or "field NOT IN (...)". An empty set
// matches nothing for IN and everything for NOT IN.
func membership(field, op string, pb ParamBuilder, values []any) string {
	if len(values) == 0 {
		if op == "IN" {
			return "1=0"
		}
		return "1=1"
	}
	return fmt.Sprintf("%s %s (%s)", field, op, expandPlaceholders(pb, values))
}

// scanColumns reads (name, type) pairs from an introspection query.
func scanColumns(rows *sql.Rows) (map[string]string, error) {
	defer rows.Close()
	cols := make(map[string]string)
	for rows.Next() {
		var name, colType string
		if err := rows.Scan(&name, &colType); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols[name] = colType
	}
	return cols, rows.Err()
}
