package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/metadata"
)

func fieldRule(field, op string, value any) *metadata.Rule {
	return &metadata.Rule{
		Type:       "field",
		Definition: metadata.RuleDefinition{Field: field, Operator: op, Value: value},
	}
}

func TestEvaluateFieldRule_Operators(t *testing.T) {
	tests := []struct {
		name   string
		rule   *metadata.Rule
		record map[string]any
		fails  bool
	}{
		{"min below", fieldRule("views", "min", float64(0)), map[string]any{"views": int64(-1)}, true},
		{"min at", fieldRule("views", "min", float64(0)), map[string]any{"views": int64(0)}, false},
		{"max above", fieldRule("sort_order", "max", float64(10)), map[string]any{"sort_order": float64(11)}, true},
		{"min_length short", fieldRule("password", "min_length", float64(8)), map[string]any{"password": "abc"}, true},
		{"min_length counts runes", fieldRule("name", "min_length", float64(3)), map[string]any{"name": "Åsa"}, false},
		{"max_length long", fieldRule("name", "max_length", float64(3)), map[string]any{"name": "Piraeus"}, true},
		{"pattern mismatch", fieldRule("email", "pattern", `^[^@]+@[^@]+$`), map[string]any{"email": "nope"}, true},
		{"pattern match", fieldRule("email", "pattern", `^[^@]+@[^@]+$`), map[string]any{"email": "a@b"}, false},
		{"absent field passes", fieldRule("email", "pattern", `^x$`), map[string]any{}, false},
		{"nil field passes", fieldRule("email", "pattern", `^x$`), map[string]any{"email": nil}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := EvaluateFieldRule(tt.rule, tt.record)
			if tt.fails {
				require.NotNil(t, detail)
				assert.Equal(t, tt.rule.Definition.Field, detail.Field)
				assert.Equal(t, tt.rule.Definition.Operator, detail.Rule)
			} else {
				assert.Nil(t, detail)
			}
		})
	}
}

func TestEvaluateExpressionRule_UsesOldValues(t *testing.T) {
	reg := metadata.NewNewsRegistry()
	rules := reg.GetRulesForEntity("announcements", "before_write")
	require.Len(t, rules, 1)

	start := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	env := map[string]any{
		"record": map[string]any{"ends_at": start.Add(-time.Hour)},
		"old":    map[string]any{"starts_at": start},
		"action": "update",
	}
	detail := EvaluateExpressionRule(rules[0], env)
	require.NotNil(t, detail)
	assert.Equal(t, "End date must be after start date", detail.Message)

	env["record"] = map[string]any{"ends_at": start.Add(time.Hour)}
	assert.Nil(t, EvaluateExpressionRule(rules[0], env))

	env["record"] = map[string]any{}
	env["old"] = map[string]any{}
	assert.Nil(t, EvaluateExpressionRule(rules[0], env))
}

func TestEvaluateExpressionRule_CompileErrorIsReported(t *testing.T) {
	rule := &metadata.Rule{Type: "expression", Definition: metadata.RuleDefinition{Expression: "record.("}}
	detail := EvaluateExpressionRule(rule, map[string]any{"record": map[string]any{}})
	require.NotNil(t, detail)
	assert.Contains(t, detail.Message, "compile error")
}

func TestEvaluateRules_ComputedPublishedAt(t *testing.T) {
	reg := metadata.NewNewsRegistry()
	now := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)

	fields := map[string]any{"status": "published"}
	errs := EvaluateRules(reg, "posts", "before_write", fields, map[string]any{"status": "draft"}, false, now)
	assert.Empty(t, errs)
	assert.Equal(t, now, fields["published_at"])

	earlier := now.Add(-48 * time.Hour)
	fields = map[string]any{"title": "Renamed"}
	EvaluateRules(reg, "posts", "before_write", fields, map[string]any{"status": "published", "published_at": earlier}, false, now)
	assert.Equal(t, earlier, fields["published_at"])

	fields = map[string]any{"status": "draft"}
	EvaluateRules(reg, "posts", "before_write", fields, map[string]any{}, true, now)
	assert.Nil(t, fields["published_at"])
}

func TestEvaluateRules_ValidationSkipsComputed(t *testing.T) {
	reg := metadata.NewRegistry()
	reg.LoadRules([]*metadata.Rule{
		{Entity: "users", Hook: "before_write", Type: "field", Active: true,
			Definition: metadata.RuleDefinition{Field: "password", Operator: "min_length", Value: float64(8), Message: "too short"}},
		{Entity: "users", Hook: "before_write", Type: "computed", Active: true,
			Definition: metadata.RuleDefinition{Field: "name", Expression: `"computed"`}},
	})

	fields := map[string]any{"password": "abc"}
	errs := EvaluateRules(reg, "users", "before_write", fields, map[string]any{}, true, time.Now())
	require.Len(t, errs, 1)
	assert.Equal(t, "too short", errs[0].Message)
	assert.NotContains(t, fields, "name")
}
