package engine

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"newsdesk/internal/store"
)

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// applySlug fills the slug field from its source when the client sent none.
// Generated slugs get a -2, -3... suffix until unique.
func applySlug(ctx context.Context, q store.Querier, d store.Dialect, plan *WritePlan, old map[string]any) error {
	cfg := plan.Entity.Slug
	if cfg == nil || cfg.Source == "" {
		return nil
	}

	if v, ok := plan.Fields[cfg.Field].(string); ok && v != "" {
		plan.Fields[cfg.Field] = Slugify(v)
		return nil
	}

	source, ok := plan.Fields[cfg.Source].(string)
	if !ok {
		return nil
	}
	if !plan.IsCreate {
		if !cfg.RegenerateOnUpdate || old[cfg.Source] == source {
			return nil
		}
	}

	base := Slugify(source)
	if base == "" {
		base = "item"
	}
	slug, err := uniqueSlug(ctx, q, d, plan, base)
	if err != nil {
		return err
	}
	plan.Fields[cfg.Field] = slug
	return nil
}

func uniqueSlug(ctx context.Context, q store.Querier, d store.Dialect, plan *WritePlan, base string) (string, error) {
	entity := plan.Entity
	candidate := base
	for n := 2; ; n++ {
		pb := d.NewParamBuilder()
		sql := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = %s", entity.Table, entity.Slug.Field, pb.Add(candidate))
		if plan.ID != "" {
			sql += fmt.Sprintf(" AND %s != %s", entity.PrimaryKey.Field, pb.Add(plan.ID))
		}
		count, err := store.Count(ctx, q, sql, pb.Params()...)
		if err != nil {
			return "", fmt.Errorf("check slug %s: %w", candidate, err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
