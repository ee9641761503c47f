package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }

func (d *SQLiteDialect) Placeholder(index int) string {
	return fmt.Sprintf("?%d", index)
}

func (d *SQLiteDialect) NewParamBuilder() ParamBuilder {
	return &paramBuilder{format: "?%d"}
}

func (d *SQLiteDialect) NowExpr() string { return "CURRENT_TIMESTAMP" }

// DecodeValue turns INTEGER booleans into bool, parses timestamps the driver
// left as text and unmarshals JSON stored in TEXT columns.
func (d *SQLiteDialect) DecodeValue(fieldType string, v any) any {
	switch fieldType {
	case "boolean":
		switch n := v.(type) {
		case int64:
			return n != 0
		case float64:
			return n != 0
		}
	case "timestamp":
		return decodeTimestamp(v)
	case "json":
		return decodeJSON(v)
	}
	return v
}

func (d *SQLiteDialect) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (d *SQLiteDialect) ColumnType(fieldType string) string {
	switch fieldType {
	case "int":
		return "INTEGER"
	case "boolean":
		return "BOOLEAN"
	case "timestamp":
		// Declared as TIMESTAMP so the driver parses stored values back into time.Time.
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func (d *SQLiteDialect) TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?1", tableName,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("look up table %s: %w", tableName, err)
	}
	return n > 0, nil
}

func (d *SQLiteDialect) GetColumns(ctx context.Context, db *sql.DB, tableName string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name, type FROM pragma_table_info(?1)", tableName)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", tableName, err)
	}
	return scanColumns(rows)
}

func (d *SQLiteDialect) InExpr(field string, pb ParamBuilder, values []any) string {
	return membership(field, "IN", pb, values)
}

func (d *SQLiteDialect) NotInExpr(field string, pb ParamBuilder, values []any) string {
	return membership(field, "NOT IN", pb, values)
}

func (d *SQLiteDialect) LikeExpr(field string, pb ParamBuilder, pattern string) string {
	// LIKE is case-insensitive for ASCII in SQLite.
	return fmt.Sprintf("%s LIKE %s", field, pb.Add(pattern))
}

func (d *SQLiteDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}
