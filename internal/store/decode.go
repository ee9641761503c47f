package store

import (
	"encoding/json"
	"time"

	"newsdesk/internal/metadata"
)

// DecodeRows converts the stored values of entity's fields to their API
// form using the dialect's decoding rules. Nulls are left alone.
func DecodeRows(d Dialect, entity *metadata.Entity, rows []map[string]any) {
	for _, row := range rows {
		for _, f := range entity.Fields {
			if v, ok := row[f.Name]; ok && v != nil {
				row[f.Name] = d.DecodeValue(f.Type, v)
			}
		}
	}
}

// Text forms of timestamps that drivers hand back, most specific first.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	time.DateTime,
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func decodeTimestamp(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		if parsed, ok := parseTimestamp(t); ok {
			return parsed
		}
	}
	return v
}

// decodeJSON unmarshals a JSON document stored as text. Values that do not
// parse are returned unchanged.
func decodeJSON(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	var doc any
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return v
	}
	return doc
}
