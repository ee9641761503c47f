package views

import (
	"io"
	"strconv"
	"strings"

	"newsdesk/pkg/crud"
	"newsdesk/pkg/news"
)

// NewScreens returns one screen per entity endpoint name, all writing to out.
func NewScreens(c *crud.Container, out io.Writer) map[string]Commands {
	return map[string]Commands{
		news.Categories:    CategoryScreen(c.Categories, out),
		news.Tags:          TagScreen(c.Tags, out),
		news.Users:         UserScreen(c.Users, out),
		news.Apps:          AppScreen(c.Apps, out),
		news.Departments:   DepartmentScreen(c.Departments, out),
		news.Announcements: AnnouncementScreen(c.Announcements, out),
		news.Posts:         PostScreen(c.Posts, out),
		news.Comments:      CommentScreen(c.Comments, out),
	}
}

func CategoryScreen(ctrl *crud.Controller[news.Category], out io.Writer) *Screen[news.Category] {
	return &Screen[news.Category]{
		Controller: ctrl,
		Out:        out,
		Table: TableView[news.Category]{Noun: "categories", Columns: []Column[news.Category]{
			{"id", func(r news.Category) string { return shortID(r.ID) }},
			{"name", func(r news.Category) string { return r.Name }},
			{"slug", func(r news.Category) string { return r.Slug }},
			{"description", func(r news.Category) string { return text(r.Description) }},
		}},
		Form:     Form[news.Category]{Fields: []string{"name", "slug", "description"}},
		Describe: func(r news.Category) string { return "category " + quote(r.Name) },
	}
}

func TagScreen(ctrl *crud.Controller[news.Tag], out io.Writer) *Screen[news.Tag] {
	return &Screen[news.Tag]{
		Controller: ctrl,
		Out:        out,
		Table: TableView[news.Tag]{Noun: "tags", Columns: []Column[news.Tag]{
			{"id", func(r news.Tag) string { return shortID(r.ID) }},
			{"name", func(r news.Tag) string { return r.Name }},
			{"slug", func(r news.Tag) string { return r.Slug }},
		}},
		Form:     Form[news.Tag]{Fields: []string{"name", "slug"}},
		Describe: func(r news.Tag) string { return "tag " + quote(r.Name) },
	}
}

func UserScreen(ctrl *crud.Controller[news.User], out io.Writer) *Screen[news.User] {
	return &Screen[news.User]{
		Controller: ctrl,
		Out:        out,
		Table: TableView[news.User]{Noun: "users", Columns: []Column[news.User]{
			{"id", func(r news.User) string { return shortID(r.ID) }},
			{"name", func(r news.User) string { return r.Name }},
			{"email", func(r news.User) string { return r.Email }},
			{"role", func(r news.User) string { return r.Role }},
			{"active", func(r news.User) string { return yesNo(r.Active) }},
		}},
		Form:     Form[news.User]{Fields: []string{"name", "email", "password", "role", "active"}},
		Describe: func(r news.User) string { return "user " + r.Email },
	}
}

func AppScreen(ctrl *crud.Controller[news.App], out io.Writer) *Screen[news.App] {
	return &Screen[news.App]{
		Controller: ctrl,
		Out:        out,
		Table: TableView[news.App]{Noun: "apps", Columns: []Column[news.App]{
			{"id", func(r news.App) string { return shortID(r.ID) }},
			{"order", func(r news.App) string { return strconv.Itoa(r.SortOrder) }},
			{"name", func(r news.App) string { return r.Name }},
			{"url", func(r news.App) string { return r.URL }},
			{"active", func(r news.App) string { return yesNo(r.IsActive) }},
		}},
		Form:     Form[news.App]{Fields: []string{"name", "slug", "url", "icon", "description", "is_active", "sort_order"}},
		Describe: func(r news.App) string { return "app " + quote(r.Name) },
	}
}

func DepartmentScreen(ctrl *crud.Controller[news.Department], out io.Writer) *Screen[news.Department] {
	return &Screen[news.Department]{
		Controller: ctrl,
		Out:        out,
		Table: TableView[news.Department]{Noun: "departments", Columns: []Column[news.Department]{
			{"id", func(r news.Department) string { return shortID(r.ID) }},
			{"name", func(r news.Department) string { return r.Name }},
			{"email", func(r news.Department) string { return text(r.Email) }},
			{"phone", func(r news.Department) string { return text(r.Phone) }},
		}},
		Form:     Form[news.Department]{Fields: []string{"name", "slug", "description", "email", "phone"}},
		Describe: func(r news.Department) string { return "department " + quote(r.Name) },
	}
}

func AnnouncementScreen(ctrl *crud.Controller[news.Announcement], out io.Writer) *Screen[news.Announcement] {
	return &Screen[news.Announcement]{
		Controller: ctrl,
		Out:        out,
		Table: TableView[news.Announcement]{Noun: "announcements", Columns: []Column[news.Announcement]{
			{"id", func(r news.Announcement) string { return shortID(r.ID) }},
			{"title", func(r news.Announcement) string { return r.Title }},
			{"priority", func(r news.Announcement) string { return r.Priority }},
			{"active", func(r news.Announcement) string { return yesNo(r.IsActive) }},
			{"starts", func(r news.Announcement) string { return minute(r.StartsAt) }},
			{"ends", func(r news.Announcement) string { return minute(r.EndsAt) }},
		}},
		Form: Form[news.Announcement]{Fields: []string{
			"title", "content", "department_id", "priority", "is_active", "starts_at", "ends_at",
		}},
		Describe: func(r news.Announcement) string { return "announcement " + quote(r.Title) },
	}
}

func PostScreen(ctrl *crud.Controller[news.Post], out io.Writer) *Screen[news.Post] {
	return &Screen[news.Post]{
		Controller: ctrl,
		Out:        out,
		Table: TableView[news.Post]{Noun: "posts", Columns: []Column[news.Post]{
			{"id", func(r news.Post) string { return shortID(r.ID) }},
			{"title", func(r news.Post) string { return r.Title }},
			{"status", func(r news.Post) string { return r.Status }},
			{"featured", func(r news.Post) string { return yesNo(&r.Featured) }},
			{"tags", func(r news.Post) string { return strconv.Itoa(len(r.TagIDs)) }},
			{"published", func(r news.Post) string { return day(r.PublishedAt) }},
		}},
		Form: Form[news.Post]{Fields: []string{
			"title", "slug", "excerpt", "content", "cover_image", "category_id",
			"author_id", "tag_ids", "status", "featured", "published_at",
		}},
		Describe: func(r news.Post) string { return "post " + quote(r.Title) },
	}
}

func CommentScreen(ctrl *crud.Controller[news.Comment], out io.Writer) *Screen[news.Comment] {
	return &Screen[news.Comment]{
		Controller: ctrl,
		Out:        out,
		Table: TableView[news.Comment]{Noun: "comments", Columns: []Column[news.Comment]{
			{"id", func(r news.Comment) string { return shortID(r.ID) }},
			{"post", func(r news.Comment) string { return shortID(r.PostID) }},
			{"author", func(r news.Comment) string { return r.AuthorName }},
			{"status", func(r news.Comment) string { return r.Status }},
			{"content", func(r news.Comment) string { return r.Content }},
			{"created", func(r news.Comment) string { return day(r.CreatedAt) }},
		}},
		Form:     Form[news.Comment]{Fields: []string{"post_id", "author_name", "author_email", "content", "status"}},
		Describe: func(r news.Comment) string { return "comment by " + r.AuthorName },
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
