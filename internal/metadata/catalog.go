package metadata

var (
	contentRoles = []string{"admin", "editor"}
	uuidPK       = PrimaryKey{Field: "id", Type: "uuid", Generated: true}
)

func timestamps() []Field {
	return []Field{
		{Name: "created_at", Type: "timestamp", Auto: "create"},
		{Name: "updated_at", Type: "timestamp", Auto: "update"},
	}
}

func withTimestamps(fields ...Field) []Field {
	return append(fields, timestamps()...)
}

// NewsEntities returns the entity definitions served by the portal.
func NewsEntities() []*Entity {
	return []*Entity{
		{
			Name: "categories", Table: "categories", PrimaryKey: uuidPK,
			Slug: &SlugConfig{Field: "slug", Source: "name", RegenerateOnUpdate: true},
			Fields: withTimestamps(
				Field{Name: "id", Type: "uuid"},
				Field{Name: "name", Type: "string", Required: true, Unique: true, MaxLength: 120},
				Field{Name: "slug", Type: "string", Unique: true, MaxLength: 160},
				Field{Name: "description", Type: "text", Nullable: true},
			),
			Searchable:  []string{"name", "description"},
			DefaultSort: "name",
			Public:      true,
			AdminRoles:  contentRoles,
		},
		{
			Name: "tags", Table: "tags", PrimaryKey: uuidPK,
			Slug: &SlugConfig{Field: "slug", Source: "name", RegenerateOnUpdate: true},
			Fields: withTimestamps(
				Field{Name: "id", Type: "uuid"},
				Field{Name: "name", Type: "string", Required: true, Unique: true, MaxLength: 80},
				Field{Name: "slug", Type: "string", Unique: true, MaxLength: 120},
			),
			Searchable:  []string{"name"},
			DefaultSort: "name",
			Public:      true,
			AdminRoles:  contentRoles,
		},
		{
			Name: "users", Table: "users", PrimaryKey: uuidPK,
			Fields: withTimestamps(
				Field{Name: "id", Type: "uuid"},
				Field{Name: "name", Type: "string", Required: true, MaxLength: 120},
				Field{Name: "email", Type: "string", Required: true, Unique: true, MaxLength: 254},
				Field{Name: "password", Type: "password", Required: true, Hidden: true},
				Field{Name: "role", Type: "string", Default: "author", Enum: []string{"admin", "editor", "author"}},
				Field{Name: "active", Type: "boolean", Default: true},
			),
			Searchable:  []string{"name", "email"},
			DefaultSort: "name",
		},
		{
			Name: "apps", Table: "apps", PrimaryKey: uuidPK,
			Slug: &SlugConfig{Field: "slug", Source: "name", RegenerateOnUpdate: true},
			Fields: withTimestamps(
				Field{Name: "id", Type: "uuid"},
				Field{Name: "name", Type: "string", Required: true, MaxLength: 120},
				Field{Name: "slug", Type: "string", Unique: true, MaxLength: 160},
				Field{Name: "url", Type: "string", Required: true},
				Field{Name: "icon", Type: "string", Nullable: true},
				Field{Name: "description", Type: "text", Nullable: true},
				Field{Name: "is_active", Type: "boolean", Default: true},
				Field{Name: "sort_order", Type: "int", Default: float64(0)},
			),
			Searchable:    []string{"name"},
			DefaultSort:   "sort_order",
			Public:        true,
			PublicFilters: []Filter{{Field: "is_active", Operator: "eq", Value: true}},
		},
		{
			Name: "departments", Table: "departments", PrimaryKey: uuidPK,
			Slug: &SlugConfig{Field: "slug", Source: "name", RegenerateOnUpdate: true},
			Fields: withTimestamps(
				Field{Name: "id", Type: "uuid"},
				Field{Name: "name", Type: "string", Required: true, Unique: true, MaxLength: 160},
				Field{Name: "slug", Type: "string", Unique: true, MaxLength: 200},
				Field{Name: "description", Type: "text", Nullable: true},
				Field{Name: "email", Type: "string", Nullable: true},
				Field{Name: "phone", Type: "string", Nullable: true},
			),
			Searchable:  []string{"name", "description"},
			DefaultSort: "name",
			Public:      true,
			AdminRoles:  contentRoles,
		},
		{
			Name: "announcements", Table: "announcements", PrimaryKey: uuidPK,
			Fields: withTimestamps(
				Field{Name: "id", Type: "uuid"},
				Field{Name: "title", Type: "string", Required: true, MaxLength: 200},
				Field{Name: "content", Type: "text", Required: true},
				Field{Name: "department_id", Type: "uuid", Nullable: true},
				Field{Name: "priority", Type: "string", Default: "normal", Enum: []string{"low", "normal", "high"}},
				Field{Name: "is_active", Type: "boolean", Default: true},
				Field{Name: "starts_at", Type: "timestamp", Nullable: true},
				Field{Name: "ends_at", Type: "timestamp", Nullable: true},
			),
			Searchable:  []string{"title", "content"},
			DefaultSort: "-created_at",
			Public:      true,
			PublicFilters: []Filter{
				{Field: "is_active", Operator: "eq", Value: true},
				{Field: "starts_at", Operator: "null_or_lte", Value: "$now"},
				{Field: "ends_at", Operator: "null_or_gte", Value: "$now"},
			},
			AdminRoles: contentRoles,
		},
		{
			Name: "posts", Table: "posts", PrimaryKey: uuidPK,
			Slug: &SlugConfig{Field: "slug", Source: "title", RegenerateOnUpdate: true},
			Fields: withTimestamps(
				Field{Name: "id", Type: "uuid"},
				Field{Name: "title", Type: "string", Required: true, MaxLength: 250},
				Field{Name: "slug", Type: "string", Unique: true, MaxLength: 300},
				Field{Name: "excerpt", Type: "text", Nullable: true},
				Field{Name: "content", Type: "text", Required: true},
				Field{Name: "cover_image", Type: "string", Nullable: true},
				Field{Name: "category_id", Type: "uuid", Nullable: true},
				Field{Name: "author_id", Type: "uuid", Nullable: true},
				Field{Name: "tag_ids", Type: "json", Nullable: true},
				Field{Name: "status", Type: "string", Default: "draft", Enum: []string{"draft", "published", "archived"}},
				Field{Name: "featured", Type: "boolean", Default: false},
				Field{Name: "published_at", Type: "timestamp", Nullable: true},
				Field{Name: "views", Type: "int", Default: float64(0)},
			),
			Searchable:    []string{"title", "excerpt", "content"},
			DefaultSort:   "-published_at",
			Public:        true,
			PublicFilters: []Filter{{Field: "status", Operator: "eq", Value: "published"}},
			AdminRoles:    contentRoles,
		},
		{
			Name: "comments", Table: "comments", PrimaryKey: uuidPK,
			Fields: withTimestamps(
				Field{Name: "id", Type: "uuid"},
				Field{Name: "post_id", Type: "uuid", Required: true},
				Field{Name: "author_name", Type: "string", Required: true, MaxLength: 120},
				Field{Name: "author_email", Type: "string", Required: true, MaxLength: 254},
				Field{Name: "content", Type: "text", Required: true, MaxLength: 5000},
				Field{Name: "status", Type: "string", Default: "pending", Enum: []string{"pending", "approved", "spam"}},
			),
			Searchable:     []string{"author_name", "content"},
			DefaultSort:    "-created_at",
			Public:         true,
			PublicFilters:  []Filter{{Field: "status", Operator: "eq", Value: "approved"}},
			PublicCreate:   true,
			PublicDefaults: map[string]any{"status": "pending"},
			AdminRoles:     contentRoles,
		},
	}
}

// NewsRelations returns the delete policies between news entities.
func NewsRelations() []*Relation {
	return []*Relation{
		{Name: "post_comments", Source: "posts", Target: "comments", TargetKey: "post_id", OnDelete: "cascade"},
		{Name: "category_posts", Source: "categories", Target: "posts", TargetKey: "category_id", OnDelete: "set_null"},
		{Name: "author_posts", Source: "users", Target: "posts", TargetKey: "author_id", OnDelete: "set_null"},
		{Name: "department_announcements", Source: "departments", Target: "announcements", TargetKey: "department_id", OnDelete: "set_null"},
	}
}

// NewsRules returns the validation and computed rules of the news entities.
func NewsRules() []*Rule {
	return []*Rule{
		{
			Entity: "announcements", Hook: "before_write", Type: "expression", Active: true,
			Definition: RuleDefinition{
				Expression: `(record.starts_at ?? old.starts_at) != nil && (record.ends_at ?? old.ends_at) != nil && (record.ends_at ?? old.ends_at) < (record.starts_at ?? old.starts_at)`,
				Message:    "End date must be after start date",
			},
		},
		{
			Entity: "comments", Hook: "before_write", Type: "field", Active: true,
			Definition: RuleDefinition{
				Field: "author_email", Operator: "pattern", Value: `^[^@\s]+@[^@\s]+\.[^@\s]+$`,
				Message: "A valid email address is required",
			},
		},
		{
			Entity: "users", Hook: "before_write", Type: "field", Active: true,
			Definition: RuleDefinition{
				Field: "email", Operator: "pattern", Value: `^[^@\s]+@[^@\s]+\.[^@\s]+$`,
				Message: "A valid email address is required",
			},
		},
		{
			Entity: "users", Hook: "before_write", Type: "field", Active: true,
			Definition: RuleDefinition{
				Field: "password", Operator: "min_length", Value: float64(8),
				Message: "Password must be at least 8 characters",
			},
		},
		{
			Entity: "posts", Hook: "before_write", Type: "computed", Active: true,
			Definition: RuleDefinition{
				Field:      "published_at",
				Expression: `(record.status ?? old.status) == "published" && (record.published_at ?? old.published_at) == nil ? today : (record.published_at ?? old.published_at)`,
			},
		},
	}
}

// NewNewsRegistry returns a registry loaded with the news catalog.
func NewNewsRegistry() *Registry {
	reg := NewRegistry()
	reg.Load(NewsEntities(), NewsRelations())
	reg.LoadRules(NewsRules())
	return reg
}
