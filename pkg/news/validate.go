package news

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator carrying the cross-field rules of the
// news records. Field errors are reported under their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	v.RegisterStructValidation(announcementWindow, Announcement{})
	return v
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func announcementWindow(sl validator.StructLevel) {
	a := sl.Current().Interface().(Announcement)
	if a.StartsAt != nil && a.EndsAt != nil && a.EndsAt.Before(*a.StartsAt) {
		sl.ReportError(a.EndsAt, "ends_at", "EndsAt", "after_start", "")
	}
}
