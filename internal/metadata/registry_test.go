package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsRegistry_AllEntitiesRegistered(t *testing.T) {
	reg := NewNewsRegistry()

	names := make([]string, 0)
	for _, e := range reg.AllEntities() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{
		"announcements", "apps", "categories", "comments",
		"departments", "posts", "tags", "users",
	}, names)
}

func TestEntity_SelectableFieldsSkipsPassword(t *testing.T) {
	users := NewNewsRegistry().GetEntity("users")
	require.NotNil(t, users)

	assert.NotContains(t, users.SelectableFields(), "password")
	assert.Contains(t, users.SelectableFields(), "email")
	assert.True(t, users.IsReadOnly("id"))
	assert.True(t, users.IsReadOnly("created_at"))
	assert.False(t, users.IsReadOnly("email"))
}

func TestEntity_AllowsRole(t *testing.T) {
	reg := NewNewsRegistry()

	assert.True(t, reg.GetEntity("posts").AllowsRole("editor"))
	assert.True(t, reg.GetEntity("posts").AllowsRole("admin"))
	assert.False(t, reg.GetEntity("posts").AllowsRole("author"))
	assert.False(t, reg.GetEntity("users").AllowsRole("editor"))
	assert.True(t, reg.GetEntity("users").AllowsRole("admin"))
}

func TestRegistry_RulesFilteredByHookAndActive(t *testing.T) {
	reg := NewRegistry()
	reg.LoadRules([]*Rule{
		{Entity: "posts", Hook: "before_write", Type: "field", Active: true, Priority: 2},
		{Entity: "posts", Hook: "before_write", Type: "expression", Active: true, Priority: 1},
		{Entity: "posts", Hook: "before_write", Type: "field", Active: false},
		{Entity: "posts", Hook: "after_write", Type: "field", Active: true},
	})

	rules := reg.GetRulesForEntity("posts", "before_write")
	require.Len(t, rules, 2)
	assert.Equal(t, "expression", rules[0].Type)
	assert.Equal(t, "field", rules[1].Type)
}

func TestRegistry_RelationsBySource(t *testing.T) {
	reg := NewNewsRegistry()

	rels := reg.GetRelationsForSource("posts")
	require.Len(t, rels, 1)
	assert.Equal(t, "comments", rels[0].Target)
	assert.Equal(t, "cascade", rels[0].OnDelete)
	assert.Empty(t, reg.GetRelationsForSource("tags"))
}
