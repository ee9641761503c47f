package metadata

type Field struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required,omitempty"`
	Unique   bool     `json:"unique,omitempty"`
	Default  any      `json:"default,omitempty"`
	Nullable bool     `json:"nullable,omitempty"`
	Enum     []string `json:"enum,omitempty"`
	Auto     string   `json:"auto,omitempty"` // "create" or "update"
	Hidden   bool     `json:"hidden,omitempty"`
	// MaxLength bounds string and text values when > 0.
	MaxLength int `json:"max_length,omitempty"`
}

// IsAuto returns true if the field is auto-managed by the engine.
func (f Field) IsAuto() bool {
	return f.Auto == "create" || f.Auto == "update"
}

// HasEnum reports whether v is one of the allowed enum values.
func (f Field) HasEnum(v string) bool {
	for _, e := range f.Enum {
		if e == v {
			return true
		}
	}
	return false
}
