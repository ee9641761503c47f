package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"newsdesk/internal/metadata"
)

// ValidateFields coerces body values to their field types and checks
// required, enum and length constraints. Coerced values replace the
// originals in fields.
func ValidateFields(entity *metadata.Entity, fields map[string]any, isCreate bool) []ErrorDetail {
	var errs []ErrorDetail

	for name, raw := range fields {
		f := entity.GetField(name)
		if f == nil {
			continue
		}
		v, detail := coerceInput(f, raw)
		if detail != nil {
			errs = append(errs, *detail)
			continue
		}
		fields[name] = v
	}

	if !isCreate {
		return errs
	}

	for _, f := range entity.WritableFields() {
		if _, ok := fields[f.Name]; ok {
			continue
		}
		if f.Default != nil {
			fields[f.Name] = defaultValue(&f)
			continue
		}
		if !f.Required || isGeneratedSlug(entity, f.Name) {
			continue
		}
		errs = append(errs, ErrorDetail{
			Field:   f.Name,
			Rule:    "required",
			Message: fmt.Sprintf("%s is required", f.Name),
		})
	}

	return errs
}

func isGeneratedSlug(entity *metadata.Entity, field string) bool {
	return entity.Slug != nil && entity.Slug.Field == field && entity.Slug.Source != ""
}

func defaultValue(f *metadata.Field) any {
	if f.Type == "int" {
		if n, ok := toFloat64(f.Default); ok {
			return int64(n)
		}
	}
	return f.Default
}

func coerceInput(f *metadata.Field, raw any) (any, *ErrorDetail) {
	if raw == nil {
		if f.Required && !f.Nullable {
			return nil, &ErrorDetail{Field: f.Name, Rule: "required", Message: fmt.Sprintf("%s is required", f.Name)}
		}
		return nil, nil
	}

	typeErr := &ErrorDetail{Field: f.Name, Rule: "type", Message: fmt.Sprintf("%s must be of type %s", f.Name, f.Type)}

	switch f.Type {
	case "string", "text", "password":
		s, ok := raw.(string)
		if !ok {
			return nil, typeErr
		}
		if f.Required && strings.TrimSpace(s) == "" {
			return nil, &ErrorDetail{Field: f.Name, Rule: "required", Message: fmt.Sprintf("%s is required", f.Name)}
		}
		if f.MaxLength > 0 && utf8.RuneCountInString(s) > f.MaxLength {
			return nil, &ErrorDetail{Field: f.Name, Rule: "max_length", Message: fmt.Sprintf("%s must be at most %d characters", f.Name, f.MaxLength)}
		}
		if len(f.Enum) > 0 && !f.HasEnum(s) {
			return nil, &ErrorDetail{Field: f.Name, Rule: "enum", Message: fmt.Sprintf("%s must be one of: %s", f.Name, strings.Join(f.Enum, ", "))}
		}
		if s == "" && f.Nullable {
			return nil, nil
		}
		return s, nil

	case "int":
		switch n := raw.(type) {
		case float64:
			if n != math.Trunc(n) {
				return nil, typeErr
			}
			return int64(n), nil
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case string:
			v, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				return nil, typeErr
			}
			return v, nil
		}
		return nil, typeErr

	case "boolean":
		switch b := raw.(type) {
		case bool:
			return b, nil
		case string:
			v, err := strconv.ParseBool(b)
			if err != nil {
				return nil, typeErr
			}
			return v, nil
		}
		return nil, typeErr

	case "uuid":
		s, ok := raw.(string)
		if !ok {
			return nil, typeErr
		}
		if s == "" && f.Nullable {
			return nil, nil
		}
		if _, err := uuid.Parse(s); err != nil {
			return nil, typeErr
		}
		return s, nil

	case "timestamp":
		s, ok := raw.(string)
		if !ok {
			return nil, typeErr
		}
		if s == "" && f.Nullable {
			return nil, nil
		}
		t, err := parseTimestamp(s)
		if err != nil {
			return nil, typeErr
		}
		return t, nil

	case "json":
		return raw, nil
	}

	return raw, nil
}
