package crud

import (
	"github.com/go-playground/validator/v10"

	"newsdesk/pkg/news"
)

// AdminRoot is the path prefix of the admin resource endpoints.
const AdminRoot = "admin/"

// Container holds one controller per news entity, all sharing a client, a
// cache and a notifier.
type Container struct {
	Client *Client
	Cache  *Cache

	Categories    *Controller[news.Category]
	Tags          *Controller[news.Tag]
	Users         *Controller[news.User]
	Apps          *Controller[news.App]
	Departments   *Controller[news.Department]
	Announcements *Controller[news.Announcement]
	Posts         *Controller[news.Post]
	Comments      *Controller[news.Comment]
}

func NewContainer(client *Client, cache *Cache, notify Notifier) *Container {
	v := news.NewValidator()
	return &Container{
		Client:        client,
		Cache:         cache,
		Categories:    newEntity[news.Category](client, cache, notify, v, news.Categories, "Category"),
		Tags:          newEntity[news.Tag](client, cache, notify, v, news.Tags, "Tag"),
		Users:         newEntity[news.User](client, cache, notify, v, news.Users, "User"),
		Apps:          newEntity[news.App](client, cache, notify, v, news.Apps, "App"),
		Departments:   newEntity[news.Department](client, cache, notify, v, news.Departments, "Department"),
		Announcements: newEntity[news.Announcement](client, cache, notify, v, news.Announcements, "Announcement"),
		Posts:         newEntity[news.Post](client, cache, notify, v, news.Posts, "Post"),
		Comments:      newEntity[news.Comment](client, cache, notify, v, news.Comments, "Comment"),
	}
}

func newEntity[T Record](client *Client, cache *Cache, notify Notifier, v *validator.Validate, name, label string) *Controller[T] {
	return NewController[T](client, cache, AdminRoot+name,
		WithValidator[T](v),
		WithNotifier[T](notify),
		WithLabel[T](label),
	)
}
