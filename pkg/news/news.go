// Package news defines the typed records served by the newsdesk API. The
// validate tags are the client-side schema checked before any request.
package news

import "time"

// Endpoint names, relative to the admin API root.
const (
	Categories    = "categories"
	Tags          = "tags"
	Users         = "users"
	Apps          = "apps"
	Departments   = "departments"
	Announcements = "announcements"
	Posts         = "posts"
	Comments      = "comments"
)

type Category struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name" validate:"required,max=120"`
	Slug        string     `json:"slug,omitempty" validate:"omitempty,max=160"`
	Description *string    `json:"description,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func (c Category) RecordID() string { return c.ID }

type Tag struct {
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name" validate:"required,max=80"`
	Slug      string     `json:"slug,omitempty" validate:"omitempty,max=120"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func (t Tag) RecordID() string { return t.ID }

type User struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
	// Password is write-only; the API never returns it.
	Password  string     `json:"password,omitempty" validate:"omitempty,min=8"`
	Role      string     `json:"role,omitempty" validate:"omitempty,oneof=admin editor author"`
	Active    *bool      `json:"active,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func (u User) RecordID() string { return u.ID }

type App struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name" validate:"required,max=120"`
	Slug        string     `json:"slug,omitempty"`
	URL         string     `json:"url" validate:"required,url"`
	Icon        *string    `json:"icon,omitempty"`
	Description *string    `json:"description,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
	SortOrder   int        `json:"sort_order"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func (a App) RecordID() string { return a.ID }

type Department struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name" validate:"required,max=160"`
	Slug        string     `json:"slug,omitempty"`
	Description *string    `json:"description,omitempty"`
	Email       *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string    `json:"phone,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func (d Department) RecordID() string { return d.ID }

type Announcement struct {
	ID           string     `json:"id,omitempty"`
	Title        string     `json:"title" validate:"required,max=200"`
	Content      string     `json:"content" validate:"required"`
	DepartmentID *string    `json:"department_id,omitempty" validate:"omitempty,uuid"`
	Priority     string     `json:"priority,omitempty" validate:"omitempty,oneof=low normal high"`
	IsActive     *bool      `json:"is_active,omitempty"`
	StartsAt     *time.Time `json:"starts_at,omitempty"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func (a Announcement) RecordID() string { return a.ID }

type Post struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title" validate:"required,max=250"`
	Slug        string     `json:"slug,omitempty" validate:"omitempty,max=300"`
	Excerpt     *string    `json:"excerpt,omitempty"`
	Content     string     `json:"content" validate:"required"`
	CoverImage  *string    `json:"cover_image,omitempty"`
	CategoryID  *string    `json:"category_id,omitempty" validate:"omitempty,uuid"`
	AuthorID    *string    `json:"author_id,omitempty" validate:"omitempty,uuid"`
	TagIDs      []string   `json:"tag_ids,omitempty" validate:"omitempty,dive,uuid"`
	Status      string     `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
	Featured    bool       `json:"featured"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Views       int        `json:"views,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func (p Post) RecordID() string { return p.ID }

type Comment struct {
	ID          string     `json:"id,omitempty"`
	PostID      string     `json:"post_id" validate:"required,uuid"`
	AuthorName  string     `json:"author_name" validate:"required,max=120"`
	AuthorEmail string     `json:"author_email" validate:"required,email"`
	Content     string     `json:"content" validate:"required,max=5000"`
	Status      string     `json:"status,omitempty" validate:"omitempty,oneof=pending approved spam"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func (c Comment) RecordID() string { return c.ID }
