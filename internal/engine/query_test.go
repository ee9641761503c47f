package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"newsdesk/internal/metadata"
	"newsdesk/internal/store"
)

func TestBuildSelectSQL_PublicScope(t *testing.T) {
	entity := metadata.NewNewsRegistry().GetEntity("announcements")
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	plan := &QueryPlan{
		Entity:  entity,
		Filters: PublicFilterClauses(entity, now),
		Sorts:   []OrderClause{{Field: "created_at", Dir: "DESC"}},
		Page:    2,
		Limit:   10,
	}

	qr := BuildSelectSQL(plan, store.NewDialect("postgres"))
	assert.Contains(t, qr.SQL, "WHERE is_active = $1 AND (starts_at IS NULL OR starts_at <= $2) AND (ends_at IS NULL OR ends_at >= $3)")
	assert.Contains(t, qr.SQL, "ORDER BY created_at DESC LIMIT $4 OFFSET $5")
	assert.Equal(t, []any{true, now, now, 10, 10}, qr.Params)

	cr := BuildCountSQL(plan, store.NewDialect("sqlite"))
	assert.Equal(t, "SELECT COUNT(*) FROM announcements WHERE is_active = ?1 AND (starts_at IS NULL OR starts_at <= ?2) AND (ends_at IS NULL OR ends_at >= ?3)", cr.SQL)
}

func TestBuildSelectSQL_SearchAndNeverSelectsPassword(t *testing.T) {
	entity := metadata.NewNewsRegistry().GetEntity("users")
	plan := &QueryPlan{Entity: entity, Search: "ana", Page: 1, Limit: 20}

	qr := BuildSelectSQL(plan, store.NewDialect("sqlite"))
	assert.NotContains(t, qr.SQL, "password")
	assert.Contains(t, qr.SQL, "(name LIKE ?1 OR email LIKE ?2)")
	assert.Equal(t, "%ana%", qr.Params[0])
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 1, Limit: 20, Total: 0, Pages: 0}, NewPagination(1, 20, 0))
	assert.Equal(t, 3, NewPagination(1, 20, 41).Pages)
	assert.Equal(t, 2, NewPagination(1, 20, 40).Pages)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "maritime", Slugify("Maritime"))
	assert.Equal(t, "port-of-spain-2026", Slugify("  Port of Spain -- 2026! "))
	assert.Equal(t, "café-news", Slugify("Café News"))
	assert.Equal(t, "", Slugify("!!!"))
}
