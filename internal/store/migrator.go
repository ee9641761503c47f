package store

import (
	"context"
	"fmt"
	"strings"

	"newsdesk/internal/metadata"
)

type Migrator struct {
	store *Store
}

func NewMigrator(store *Store) *Migrator {
	return &Migrator{store: store}
}

// Migrate ensures the table matches the entity metadata.
// Creates the table if it doesn't exist, or adds missing columns.
func (m *Migrator) Migrate(ctx context.Context, entity *metadata.Entity) error {
	exists, err := m.store.Dialect.TableExists(ctx, m.store.DB, entity.Table)
	if err != nil {
		return fmt.Errorf("check table exists: %w", err)
	}

	if !exists {
		return m.createTable(ctx, entity)
	}

	return m.alterTable(ctx, entity)
}

// MigrateAll migrates every entity in order.
func (m *Migrator) MigrateAll(ctx context.Context, entities []*metadata.Entity) error {
	for _, e := range entities {
		if err := m.Migrate(ctx, e); err != nil {
			return fmt.Errorf("migrate %s: %w", e.Name, err)
		}
	}
	return nil
}

func (m *Migrator) createTable(ctx context.Context, entity *metadata.Entity) error {
	var cols []string
	for _, f := range entity.Fields {
		cols = append(cols, m.buildColumnDef(entity, &f))
	}

	sql := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", entity.Table, strings.Join(cols, ",\n  "))

	if _, err := m.store.DB.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("create table %s: %w", entity.Table, err)
	}

	if err := m.createIndexes(ctx, entity); err != nil {
		return fmt.Errorf("create indexes for %s: %w", entity.Table, err)
	}

	return nil
}

func (m *Migrator) alterTable(ctx context.Context, entity *metadata.Entity) error {
	existing, err := m.store.Dialect.GetColumns(ctx, m.store.DB, entity.Table)
	if err != nil {
		return fmt.Errorf("get columns for %s: %w", entity.Table, err)
	}

	for _, f := range entity.Fields {
		if _, ok := existing[f.Name]; ok {
			continue
		}
		colType := m.store.Dialect.ColumnType(f.Type)
		def := m.defaultClause(&f)
		if def == "" && f.Required && !f.Nullable {
			def = " NOT NULL DEFAULT ''" // safe default for existing rows
		}
		sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s%s", entity.Table, f.Name, colType, def)
		if _, err := m.store.DB.ExecContext(ctx, sql); err != nil {
			return fmt.Errorf("add column %s.%s: %w", entity.Table, f.Name, err)
		}
	}

	if err := m.createIndexes(ctx, entity); err != nil {
		return fmt.Errorf("create indexes for %s: %w", entity.Table, err)
	}

	return nil
}

func (m *Migrator) buildColumnDef(entity *metadata.Entity, f *metadata.Field) string {
	col := f.Name + " " + m.store.Dialect.ColumnType(f.Type)

	if f.Name == entity.PrimaryKey.Field {
		return col + " PRIMARY KEY"
	}

	if f.Required && !f.Nullable {
		col += " NOT NULL"
	}

	return col + m.defaultClause(f)
}

func (m *Migrator) defaultClause(f *metadata.Field) string {
	if f.Default == nil {
		return ""
	}
	switch v := f.Default.(type) {
	case string:
		return fmt.Sprintf(" DEFAULT '%s'", strings.ReplaceAll(v, "'", "''"))
	case float64, int, int64:
		return fmt.Sprintf(" DEFAULT %v", v)
	case bool:
		return " DEFAULT " + m.store.Dialect.BoolLiteral(v)
	default:
		return fmt.Sprintf(" DEFAULT '%v'", v)
	}
}

func (m *Migrator) createIndexes(ctx context.Context, entity *metadata.Entity) error {
	for _, f := range entity.Fields {
		if !f.Unique {
			continue
		}
		sql := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)",
			entity.Table, f.Name, entity.Table, f.Name)
		if _, err := m.store.DB.ExecContext(ctx, sql); err != nil {
			return fmt.Errorf("create unique index on %s.%s: %w", entity.Table, f.Name, err)
		}
	}
	return nil
}
