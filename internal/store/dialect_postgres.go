package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresDialect implements Dialect for PostgreSQL via pgx/stdlib.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *PostgresDialect) NewParamBuilder() ParamBuilder {
	return &paramBuilder{format: "$%d"}
}

func (d *PostgresDialect) NowExpr() string { return "NOW()" }

// DecodeValue normalizes TIMESTAMPTZ values to UTC and unmarshals JSONB,
// which pgx/stdlib scans as text. Booleans already arrive as bool.
func (d *PostgresDialect) DecodeValue(fieldType string, v any) any {
	switch fieldType {
	case "timestamp":
		return decodeTimestamp(v)
	case "json":
		return decodeJSON(v)
	}
	return v
}

func (d *PostgresDialect) BoolLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

var postgresColumnTypes = map[string]string{
	"int":       "INTEGER",
	"boolean":   "BOOLEAN",
	"uuid":      "UUID",
	"timestamp": "TIMESTAMPTZ",
	"json":      "JSONB",
}

func (d *PostgresDialect) ColumnType(fieldType string) string {
	if t, ok := postgresColumnTypes[fieldType]; ok {
		return t
	}
	return "TEXT"
}

func (d *PostgresDialect) TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var regclass sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT to_regclass($1)::text", "public."+tableName).Scan(&regclass); err != nil {
		return false, fmt.Errorf("look up table %s: %w", tableName, err)
	}
	return regclass.Valid, nil
}

func (d *PostgresDialect) GetColumns(ctx context.Context, db *sql.DB, tableName string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1",
		tableName,
	)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", tableName, err)
	}
	return scanColumns(rows)
}

func (d *PostgresDialect) InExpr(field string, pb ParamBuilder, values []any) string {
	return membership(field, "IN", pb, values)
}

func (d *PostgresDialect) NotInExpr(field string, pb ParamBuilder, values []any) string {
	return membership(field, "NOT IN", pb, values)
}

func (d *PostgresDialect) LikeExpr(field string, pb ParamBuilder, pattern string) string {
	return fmt.Sprintf("%s::text ILIKE %s", field, pb.Add(pattern))
}

func (d *PostgresDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	// Some pgx/stdlib paths keep only the message text.
	if msg := err.Error(); strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "duplicate key") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}
