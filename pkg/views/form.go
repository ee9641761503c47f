package views

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Form decodes key=value input into T. Only the listed fields may be set.
type Form[T any] struct {
	Fields []string
}

// ParseAssignments splits "key=value" arguments. An empty value clears the
// field.
func ParseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", a)
		}
		out[k] = v
	}
	return out, nil
}

// Decode builds a T from input. In edit mode base is the record being
// edited and supplies every field the input leaves alone.
func (f Form[T]) Decode(input map[string]string, base *T) (T, error) {
	var out T

	values := map[string]any{}
	if base != nil {
		seeded, err := toMap(*base)
		if err != nil {
			return out, err
		}
		for k, v := range seeded {
			if slices.Contains(f.Fields, k) {
				values[k] = v
			}
		}
	}

	for k, v := range input {
		if !slices.Contains(f.Fields, k) {
			return out, fmt.Errorf("unknown field %q (allowed: %s)", k, strings.Join(f.Fields, ", "))
		}
		if v == "" {
			delete(values, k)
			continue
		}
		values[k] = v
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToTime,
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return out, fmt.Errorf("form decoder: %w", err)
	}
	if err := dec.Decode(values); err != nil {
		return out, fmt.Errorf("decode form: %w", err)
	}
	return out, nil
}

// Cleared lists the fields input sets to the empty string, in field order.
func (f Form[T]) Cleared(input map[string]string) []string {
	var out []string
	for _, k := range f.Fields {
		if v, ok := input[k]; ok && v == "" {
			out = append(out, k)
		}
	}
	return out
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return m, nil
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02 15:04", time.DateOnly}

func stringToTime(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return nil, fmt.Errorf("invalid time %q", s)
}
