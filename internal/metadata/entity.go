package metadata

type SlugConfig struct {
	Field              string `json:"field"`                          // slug field name (must exist in fields, must be unique)
	Source             string `json:"source,omitempty"`               // auto-generate from this field
	RegenerateOnUpdate bool   `json:"regenerate_on_update,omitempty"` // re-generate slug on update when source changes
}

// Filter is a server-side condition injected into public reads.
// A Value of "$now" is resolved to the request time.
type Filter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

type Entity struct {
	Name       string      `json:"name"`
	Table      string      `json:"table"`
	PrimaryKey PrimaryKey  `json:"primary_key"`
	Slug       *SlugConfig `json:"slug,omitempty"`
	Fields     []Field     `json:"fields"`

	// Searchable fields are matched by the "q" list parameter.
	Searchable  []string `json:"searchable,omitempty"`
	DefaultSort string   `json:"default_sort,omitempty"`

	// Public entities are readable without a session, restricted by PublicFilters.
	Public        bool     `json:"public,omitempty"`
	PublicFilters []Filter `json:"public_filters,omitempty"`
	// PublicCreate allows anonymous POSTs; PublicDefaults override the body.
	PublicCreate   bool           `json:"public_create,omitempty"`
	PublicDefaults map[string]any `json:"public_defaults,omitempty"`

	// AdminRoles lists roles allowed to use the admin endpoints for this entity.
	AdminRoles []string `json:"admin_roles,omitempty"`
}

type PrimaryKey struct {
	Field     string `json:"field"`
	Type      string `json:"type"` // uuid, int, string
	Generated bool   `json:"generated"`
}

// GetField returns a pointer to the field with the given name, or nil.
func (e *Entity) GetField(name string) *Field {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i]
		}
	}
	return nil
}

// HasField returns true if the entity has a field with the given name.
func (e *Entity) HasField(name string) bool {
	return e.GetField(name) != nil
}

// FieldNames returns all field names.
func (e *Entity) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name
	}
	return names
}

// SelectableFields returns the columns that may be returned to clients.
// Hidden fields (password hashes) are never selected.
func (e *Entity) SelectableFields() []string {
	var names []string
	for _, f := range e.Fields {
		if f.Hidden || f.Type == "password" {
			continue
		}
		names = append(names, f.Name)
	}
	return names
}

// IsReadOnly reports whether a field is managed by the engine and ignored on input.
func (e *Entity) IsReadOnly(name string) bool {
	if name == e.PrimaryKey.Field {
		return true
	}
	f := e.GetField(name)
	return f != nil && f.IsAuto()
}

// WritableFields returns fields that can be set by the client.
// Excludes auto-generated PKs and auto-timestamp fields.
func (e *Entity) WritableFields() []Field {
	var fields []Field
	for _, f := range e.Fields {
		if f.Name == e.PrimaryKey.Field && e.PrimaryKey.Generated {
			continue
		}
		if f.IsAuto() {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// AllowsRole reports whether role may use the admin endpoints of the entity.
// An empty AdminRoles list means admin only.
func (e *Entity) AllowsRole(role string) bool {
	if role == "admin" {
		return true
	}
	for _, r := range e.AdminRoles {
		if r == role {
			return true
		}
	}
	return false
}
