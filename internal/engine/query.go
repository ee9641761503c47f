package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"newsdesk/internal/metadata"
	"newsdesk/internal/store"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type QueryPlan struct {
	Entity  *metadata.Entity
	Filters []WhereClause
	Search  string
	Sorts   []OrderClause
	Page    int
	Limit   int
}

type WhereClause struct {
	Field    string
	Operator string
	Value    any
}

type OrderClause struct {
	Field string
	Dir   string // ASC or DESC
}

type QueryResult struct {
	SQL    string
	Params []any
}

// Pagination is the list metadata returned next to data.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

var filterOperators = map[string]bool{
	"eq": true, "neq": true, "gt": true, "gte": true, "lt": true, "lte": true,
	"in": true, "not_in": true, "like": true,
}

// ParseQueryParams parses Fiber query parameters into a QueryPlan.
func ParseQueryParams(c *fiber.Ctx, entity *metadata.Entity) (*QueryPlan, error) {
	plan := &QueryPlan{
		Entity: entity,
		Page:   1,
		Limit:  defaultLimit,
	}

	// Parse filters: filter[field]=val or filter[field.op]=val
	for key, val := range c.Queries() {
		if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") {
			continue
		}
		inner := key[7 : len(key)-1] // extract between [ and ]
		field, op := parseFilterKey(inner)

		f := entity.GetField(field)
		if f == nil || f.Hidden || f.Type == "password" {
			return nil, &AppError{
				Code:    "UNKNOWN_FIELD",
				Status:  400,
				Message: fmt.Sprintf("Unknown filter field: %s", field),
			}
		}
		if !filterOperators[op] {
			return nil, InvalidPayloadError(fmt.Sprintf("Unknown filter operator: %s", op))
		}

		coerced, err := coerceValue(f, val, op)
		if err != nil {
			return nil, InvalidPayloadError(fmt.Sprintf("Invalid filter value for %s: %v", field, err))
		}

		plan.Filters = append(plan.Filters, WhereClause{
			Field:    field,
			Operator: op,
			Value:    coerced,
		})
	}

	plan.Search = strings.TrimSpace(c.Query("q"))

	// Parse sort: sort=-created_at,name
	sortParam := c.Query("sort")
	if sortParam == "" {
		sortParam = entity.DefaultSort
	}
	if sortParam != "" {
		for _, part := range strings.Split(sortParam, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			dir := "ASC"
			field := part
			if strings.HasPrefix(part, "-") {
				dir = "DESC"
				field = part[1:]
			}
			if f := entity.GetField(field); f == nil || f.Hidden || f.Type == "password" {
				return nil, &AppError{
					Code:    "UNKNOWN_FIELD",
					Status:  400,
					Message: fmt.Sprintf("Unknown sort field: %s", field),
				}
			}
			plan.Sorts = append(plan.Sorts, OrderClause{Field: field, Dir: dir})
		}
	}

	// Parse pagination
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			plan.Page = v
		}
	}
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			plan.Limit = min(v, maxLimit)
		}
	}

	return plan, nil
}

// PublicFilterClauses resolves an entity's public filters against now.
func PublicFilterClauses(entity *metadata.Entity, now time.Time) []WhereClause {
	clauses := make([]WhereClause, 0, len(entity.PublicFilters))
	for _, f := range entity.PublicFilters {
		val := f.Value
		if s, ok := val.(string); ok && s == "$now" {
			val = now.UTC()
		}
		clauses = append(clauses, WhereClause{Field: f.Field, Operator: f.Operator, Value: val})
	}
	return clauses
}

func buildWhere(plan *QueryPlan, d store.Dialect, pb store.ParamBuilder) []string {
	var where []string
	for _, f := range plan.Filters {
		where = append(where, buildWhereClause(f, d, pb))
	}
	if plan.Search != "" && len(plan.Entity.Searchable) > 0 {
		pattern := "%" + plan.Search + "%"
		var ors []string
		for _, field := range plan.Entity.Searchable {
			ors = append(ors, d.LikeExpr(field, pb, pattern))
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}
	return where
}

// BuildSelectSQL builds a parameterized SELECT statement from the query plan.
func BuildSelectSQL(plan *QueryPlan, d store.Dialect) QueryResult {
	pb := d.NewParamBuilder()
	entity := plan.Entity

	columns := strings.Join(entity.SelectableFields(), ", ")
	sql := fmt.Sprintf("SELECT %s FROM %s", columns, entity.Table)
	if where := buildWhere(plan, d, pb); len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}

	if len(plan.Sorts) > 0 {
		var orderParts []string
		for _, s := range plan.Sorts {
			orderParts = append(orderParts, fmt.Sprintf("%s %s", s.Field, s.Dir))
		}
		sql += " ORDER BY " + strings.Join(orderParts, ", ")
	}

	limit := pb.Add(plan.Limit)
	offset := pb.Add((plan.Page - 1) * plan.Limit)
	sql += fmt.Sprintf(" LIMIT %s OFFSET %s", limit, offset)

	return QueryResult{SQL: sql, Params: pb.Params()}
}

// BuildCountSQL builds a COUNT query with the same filters as the select.
func BuildCountSQL(plan *QueryPlan, d store.Dialect) QueryResult {
	pb := d.NewParamBuilder()

	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s", plan.Entity.Table)
	if where := buildWhere(plan, d, pb); len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}

	return QueryResult{SQL: sql, Params: pb.Params()}
}

func buildWhereClause(f WhereClause, d store.Dialect, pb store.ParamBuilder) string {
	switch f.Operator {
	case "neq":
		return fmt.Sprintf("%s != %s", f.Field, pb.Add(f.Value))
	case "gt":
		return fmt.Sprintf("%s > %s", f.Field, pb.Add(f.Value))
	case "gte":
		return fmt.Sprintf("%s >= %s", f.Field, pb.Add(f.Value))
	case "lt":
		return fmt.Sprintf("%s < %s", f.Field, pb.Add(f.Value))
	case "lte":
		return fmt.Sprintf("%s <= %s", f.Field, pb.Add(f.Value))
	case "in":
		vals, _ := f.Value.([]any)
		return d.InExpr(f.Field, pb, vals)
	case "not_in":
		vals, _ := f.Value.([]any)
		return d.NotInExpr(f.Field, pb, vals)
	case "like":
		s, _ := f.Value.(string)
		return d.LikeExpr(f.Field, pb, "%"+s+"%")
	case "null_or_lte":
		return fmt.Sprintf("(%s IS NULL OR %s <= %s)", f.Field, f.Field, pb.Add(f.Value))
	case "null_or_gte":
		return fmt.Sprintf("(%s IS NULL OR %s >= %s)", f.Field, f.Field, pb.Add(f.Value))
	default:
		return fmt.Sprintf("%s = %s", f.Field, pb.Add(f.Value))
	}
}

// parseFilterKey splits "views.gte" into ("views", "gte") or "status" into ("status", "eq").
func parseFilterKey(key string) (string, string) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return key, "eq"
}

// coerceValue converts string query param values to appropriate Go types based on field metadata.
func coerceValue(field *metadata.Field, val string, op string) (any, error) {
	// Handle "in" and "not_in" as comma-separated arrays
	if op == "in" || op == "not_in" {
		parts := strings.Split(val, ",")
		coerced := make([]any, len(parts))
		for i, p := range parts {
			v, err := coerceSingleValue(field, strings.TrimSpace(p))
			if err != nil {
				return nil, err
			}
			coerced[i] = v
		}
		return coerced, nil
	}
	if op == "like" {
		return val, nil
	}

	return coerceSingleValue(field, val)
}

func coerceSingleValue(field *metadata.Field, val string) (any, error) {
	switch field.Type {
	case "int":
		return strconv.ParseInt(val, 10, 64)
	case "boolean":
		return strconv.ParseBool(val)
	case "timestamp":
		return parseTimestamp(val)
	default:
		return val, nil
	}
}

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02"}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
