package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"newsdesk/internal/metadata"
	"newsdesk/internal/store"
)

// WritePlan describes a single-record write.
type WritePlan struct {
	IsCreate bool
	Entity   *metadata.Entity
	Fields   map[string]any
	ID       string // empty for create
}

// PlanWrite builds a WritePlan from the request body without executing any SQL.
// Engine-managed fields are dropped, unknown keys are rejected.
func PlanWrite(entity *metadata.Entity, body map[string]any, existingID string) (*WritePlan, error) {
	isCreate := existingID == ""
	fields := make(map[string]any, len(body))

	var unknown []ErrorDetail
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !entity.HasField(key) {
			unknown = append(unknown, ErrorDetail{
				Field:   key,
				Rule:    "unknown",
				Message: fmt.Sprintf("Unknown field: %s", key),
			})
			continue
		}
		if entity.IsReadOnly(key) {
			continue
		}
		f := entity.GetField(key)
		// An empty password on update keeps the current one.
		if f.Type == "password" && !isCreate {
			if s, ok := body[key].(string); ok && s == "" {
				continue
			}
		}
		fields[key] = body[key]
	}
	if len(unknown) > 0 {
		return nil, UnknownFieldError(unknown)
	}

	if errs := ValidateFields(entity, fields, isCreate); len(errs) > 0 {
		return nil, ValidationError(errs)
	}

	return &WritePlan{
		IsCreate: isCreate,
		Entity:   entity,
		Fields:   fields,
		ID:       existingID,
	}, nil
}

// ExecuteWritePlan runs rules, the write and the re-fetch inside a single transaction.
// Returns the created/updated record.
func ExecuteWritePlan(ctx context.Context, s *store.Store, reg *metadata.Registry, plan *WritePlan, now time.Time) (map[string]any, error) {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	entity := plan.Entity
	old := map[string]any{}
	if !plan.IsCreate {
		old, err = fetchRecord(ctx, tx, s.Dialect, entity, plan.ID, nil)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, NotFoundError(entity.Name, plan.ID)
			}
			return nil, fmt.Errorf("fetch %s/%s: %w", entity.Name, plan.ID, err)
		}
	}

	if ruleErrs := EvaluateRules(reg, entity.Name, "before_write", plan.Fields, old, plan.IsCreate, now); len(ruleErrs) > 0 {
		return nil, ValidationError(ruleErrs)
	}

	if err := applySlug(ctx, tx, s.Dialect, plan, old); err != nil {
		return nil, err
	}

	values, err := prepareValues(plan, now)
	if err != nil {
		return nil, err
	}

	id := plan.ID
	if plan.IsCreate {
		id, _ = values[entity.PrimaryKey.Field].(string)
		sql, params := BuildInsertSQL(entity, s.Dialect, values)
		if _, err := tx.ExecContext(ctx, sql, params...); err != nil {
			return nil, fmt.Errorf("insert %s: %w", entity.Table, store.MapError(s.Dialect, err))
		}
	} else {
		sql, params := BuildUpdateSQL(entity, s.Dialect, id, values)
		if _, err := tx.ExecContext(ctx, sql, params...); err != nil {
			return nil, fmt.Errorf("update %s: %w", entity.Table, store.MapError(s.Dialect, err))
		}
	}

	record, err := fetchRecord(ctx, tx, s.Dialect, entity, id, nil)
	if err != nil {
		return nil, fmt.Errorf("refetch %s/%s: %w", entity.Name, id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", store.MapError(s.Dialect, err))
	}

	return record, nil
}

// prepareValues adds engine-managed columns and converts values to their
// storage representation.
func prepareValues(plan *WritePlan, now time.Time) (map[string]any, error) {
	entity := plan.Entity
	values := make(map[string]any, len(plan.Fields)+3)
	for k, v := range plan.Fields {
		values[k] = v
	}

	if plan.IsCreate && entity.PrimaryKey.Generated {
		values[entity.PrimaryKey.Field] = uuid.NewString()
	}

	for _, f := range entity.Fields {
		switch {
		case f.Auto == "create" && plan.IsCreate, f.Auto == "update":
			values[f.Name] = now.UTC()
		}

		v, ok := values[f.Name]
		if !ok || v == nil {
			continue
		}
		switch f.Type {
		case "password":
			hash, err := bcrypt.GenerateFromPassword([]byte(v.(string)), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("hash %s: %w", f.Name, err)
			}
			values[f.Name] = string(hash)
		case "json":
			b, err := json.Marshal(v)
			if err != nil {
				return nil, InvalidPayloadError(fmt.Sprintf("%s is not valid JSON", f.Name))
			}
			values[f.Name] = string(b)
		case "timestamp":
			if t, ok := v.(time.Time); ok {
				values[f.Name] = t.UTC()
			}
		}
	}

	return values, nil
}

// BuildInsertSQL builds an INSERT with columns in entity field order.
func BuildInsertSQL(entity *metadata.Entity, d store.Dialect, values map[string]any) (string, []any) {
	pb := d.NewParamBuilder()
	var cols, placeholders []string
	for _, f := range entity.Fields {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		cols = append(cols, f.Name)
		placeholders = append(placeholders, pb.Add(v))
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		entity.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return sql, pb.Params()
}

// BuildUpdateSQL builds an UPDATE of the provided columns by primary key.
func BuildUpdateSQL(entity *metadata.Entity, d store.Dialect, id string, values map[string]any) (string, []any) {
	pb := d.NewParamBuilder()
	var sets []string
	for _, f := range entity.Fields {
		v, ok := values[f.Name]
		if !ok || f.Name == entity.PrimaryKey.Field {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = %s", f.Name, pb.Add(v)))
	}
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		entity.Table, strings.Join(sets, ", "), entity.PrimaryKey.Field, pb.Add(id))
	return sql, pb.Params()
}

func fetchRecord(ctx context.Context, q store.Querier, d store.Dialect, entity *metadata.Entity, id string, filters []WhereClause) (map[string]any, error) {
	pb := d.NewParamBuilder()
	where := []string{fmt.Sprintf("%s = %s", entity.PrimaryKey.Field, pb.Add(id))}
	for _, f := range filters {
		where = append(where, buildWhereClause(f, d, pb))
	}
	return fetchOne(ctx, q, d, entity, where, pb)
}

func fetchBySlug(ctx context.Context, q store.Querier, d store.Dialect, entity *metadata.Entity, slug string, filters []WhereClause) (map[string]any, error) {
	pb := d.NewParamBuilder()
	where := []string{fmt.Sprintf("%s = %s", entity.Slug.Field, pb.Add(slug))}
	for _, f := range filters {
		where = append(where, buildWhereClause(f, d, pb))
	}
	return fetchOne(ctx, q, d, entity, where, pb)
}

func fetchOne(ctx context.Context, q store.Querier, d store.Dialect, entity *metadata.Entity, where []string, pb store.ParamBuilder) (map[string]any, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(entity.SelectableFields(), ", "), entity.Table, strings.Join(where, " AND "))
	row, err := store.QueryRow(ctx, q, sql, pb.Params()...)
	if err != nil {
		return nil, err
	}
	rows := []map[string]any{row}
	store.DecodeRows(d, entity, rows)
	return rows[0], nil
}
