package engine

import (
	"fmt"
	"regexp"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"newsdesk/internal/metadata"
)

// EvaluateRules runs the active rules of entityName/hook against fields.
// Field and expression rules produce validation errors. Computed rules run
// only when those pass, and write their result into fields. Expressions see
// record, old, action and today (the request time, UTC).
func EvaluateRules(reg *metadata.Registry, entityName string, hook string, fields map[string]any, old map[string]any, isCreate bool, now time.Time) []ErrorDetail {
	rules := reg.GetRulesForEntity(entityName, hook)
	if len(rules) == 0 {
		return nil
	}

	action := "update"
	if isCreate {
		action = "create"
	}
	env := map[string]any{
		"record": fields,
		"old":    old,
		"action": action,
		"today":  now.UTC(),
	}

	var errs []ErrorDetail
	check := func(kind string, eval func(*metadata.Rule) *ErrorDetail) bool {
		for _, r := range rules {
			if r.Type != kind {
				continue
			}
			if d := eval(r); d != nil {
				errs = append(errs, *d)
				if r.Definition.StopOnFail {
					return false
				}
			}
		}
		return true
	}

	if !check("field", func(r *metadata.Rule) *ErrorDetail { return EvaluateFieldRule(r, fields) }) {
		return errs
	}
	if !check("expression", func(r *metadata.Rule) *ErrorDetail { return EvaluateExpressionRule(r, env) }) {
		return errs
	}
	if len(errs) > 0 {
		return errs
	}

	for _, r := range rules {
		if r.Type != "computed" {
			continue
		}
		val, err := evaluateComputed(r, env)
		if err != nil {
			errs = append(errs, ErrorDetail{Field: r.Definition.Field, Rule: "computed", Message: err.Error()})
			continue
		}
		if t, ok := val.(time.Time); ok {
			val = t.UTC()
		}
		fields[r.Definition.Field] = val
	}
	return errs
}

// fieldChecks maps a field rule operator to a predicate that reports a
// violation. ok is false when the value or threshold has the wrong type,
// in which case the rule does not apply.
var fieldChecks = map[string]func(val, threshold any) (violated, ok bool){
	"min": func(val, threshold any) (bool, bool) {
		return compareNumbers(val, threshold, func(n, t float64) bool { return n < t })
	},
	"max": func(val, threshold any) (bool, bool) {
		return compareNumbers(val, threshold, func(n, t float64) bool { return n > t })
	},
	"min_length": func(val, threshold any) (bool, bool) {
		return compareLength(val, threshold, func(n, t int) bool { return n < t })
	},
	"max_length": func(val, threshold any) (bool, bool) {
		return compareLength(val, threshold, func(n, t int) bool { return n > t })
	},
	"pattern": func(val, threshold any) (bool, bool) {
		s, ok := val.(string)
		pattern, pok := threshold.(string)
		if !ok || !pok {
			return false, false
		}
		re, err := compilePattern(pattern)
		if err != nil {
			return true, true
		}
		return !re.MatchString(s), true
	},
}

// EvaluateFieldRule checks one field rule. Absent and null values pass;
// presence is the job of the required flag.
func EvaluateFieldRule(rule *metadata.Rule, record map[string]any) *ErrorDetail {
	def := rule.Definition
	val, exists := record[def.Field]
	if !exists || val == nil {
		return nil
	}
	checkFn, known := fieldChecks[def.Operator]
	if !known {
		return nil
	}
	violated, ok := checkFn(val, def.Value)
	if !ok || !violated {
		return nil
	}
	msg := def.Message
	if msg == "" {
		msg = fmt.Sprintf("field %s failed %s validation", def.Field, def.Operator)
	}
	return &ErrorDetail{Field: def.Field, Rule: def.Operator, Message: msg}
}

// EvaluateExpressionRule reports a violation when the expression is true.
func EvaluateExpressionRule(rule *metadata.Rule, env map[string]any) *ErrorDetail {
	prog, err := programs.get(rule.Definition.Expression, true)
	if err != nil {
		return &ErrorDetail{Rule: "expression", Message: fmt.Sprintf("compile error: %v", err)}
	}
	result, err := expr.Run(prog, env)
	if err != nil {
		return &ErrorDetail{Rule: "expression", Message: fmt.Sprintf("rule evaluation error: %v", err)}
	}
	if violated, _ := result.(bool); !violated {
		return nil
	}
	msg := rule.Definition.Message
	if msg == "" {
		msg = "Expression rule violated"
	}
	return &ErrorDetail{Rule: "expression", Message: msg}
}

func evaluateComputed(rule *metadata.Rule, env map[string]any) (any, error) {
	prog, err := programs.get(rule.Definition.Expression, false)
	if err != nil {
		return nil, err
	}
	result, err := expr.Run(prog, env)
	if err != nil {
		return nil, fmt.Errorf("evaluate computed field %s: %w", rule.Definition.Field, err)
	}
	return result, nil
}

// programCache holds compiled expressions. Rules are shared by concurrent
// requests, so compiled programs live here rather than on the rule.
type programCache struct {
	mu       sync.Mutex
	programs map[programKey]*vm.Program
}

type programKey struct {
	source    string
	predicate bool
}

var programs = &programCache{programs: make(map[programKey]*vm.Program)}

func (c *programCache) get(source string, predicate bool) (*vm.Program, error) {
	key := programKey{source, predicate}
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.programs[key]; ok {
		return p, nil
	}
	var opts []expr.Option
	if predicate {
		opts = append(opts, expr.AsBool())
	}
	p, err := expr.Compile(source, opts...)
	if err != nil {
		return nil, fmt.Errorf("compile expression: %w", err)
	}
	c.programs[key] = p
	return p, nil
}

var patterns sync.Map // string -> *regexp.Regexp

func compilePattern(p string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(p); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, err
	}
	patterns.Store(p, re)
	return re, nil
}

func compareNumbers(val, threshold any, violated func(n, t float64) bool) (bool, bool) {
	n, ok := toFloat64(val)
	t, tok := toFloat64(threshold)
	if !ok || !tok {
		return false, false
	}
	return violated(n, t), true
}

func compareLength(val, threshold any, violated func(n, t int) bool) (bool, bool) {
	s, ok := val.(string)
	t, tok := toFloat64(threshold)
	if !ok || !tok {
		return false, false
	}
	return violated(utf8.RuneCountInString(s), int(t)), true
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
