package engine

import (
	"context"
	"fmt"

	"newsdesk/internal/metadata"
	"newsdesk/internal/store"
)

// HandleCascadeDelete processes on_delete policies for all relations
// where the deleted entity is the source.
func HandleCascadeDelete(ctx context.Context, q store.Querier, dialect store.Dialect, reg *metadata.Registry, entity *metadata.Entity, recordID string) error {
	for _, rel := range reg.GetRelationsForSource(entity.Name) {
		if err := executeCascade(ctx, q, dialect, reg, rel, recordID); err != nil {
			return fmt.Errorf("cascade delete for relation %s: %w", rel.Name, err)
		}
	}
	return nil
}

func executeCascade(ctx context.Context, q store.Querier, dialect store.Dialect, reg *metadata.Registry, rel *metadata.Relation, parentID string) error {
	target := reg.GetEntity(rel.Target)
	if target == nil {
		return nil
	}

	switch rel.OnDelete {
	case "cascade":
		// Grandchildren first so their own policies still see the rows.
		for _, child := range reg.GetRelationsForSource(target.Name) {
			ids, err := childIDs(ctx, q, dialect, target, rel.TargetKey, parentID)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if err := executeCascade(ctx, q, dialect, reg, child, id); err != nil {
					return err
				}
			}
		}
		sql := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", target.Table, rel.TargetKey, dialect.Placeholder(1))
		if _, err := store.Exec(ctx, q, sql, parentID); err != nil {
			return err
		}

	case "set_null":
		sql := fmt.Sprintf("UPDATE %s SET %s = NULL WHERE %s = %s",
			target.Table, rel.TargetKey, rel.TargetKey, dialect.Placeholder(1))
		if _, err := store.Exec(ctx, q, sql, parentID); err != nil {
			return err
		}

	case "restrict":
		countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = %s", target.Table, rel.TargetKey, dialect.Placeholder(1))
		count, err := store.Count(ctx, q, countSQL, parentID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ConflictError(fmt.Sprintf("Cannot delete: %d related %s records exist", count, rel.Target))
		}
	}

	return nil
}

func childIDs(ctx context.Context, q store.Querier, dialect store.Dialect, entity *metadata.Entity, key, parentID string) ([]string, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s", entity.PrimaryKey.Field, entity.Table, key, dialect.Placeholder(1))
	rows, err := store.QueryRows(ctx, q, sql, parentID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, fmt.Sprint(r[entity.PrimaryKey.Field]))
	}
	return ids, nil
}
