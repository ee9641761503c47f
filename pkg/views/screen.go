package views

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"newsdesk/pkg/crud"
)

// ErrDeleteCanceled is returned when the confirmation prompt is declined.
var ErrDeleteCanceled = errors.New("delete canceled")

// Confirm asks whether the record described by summary should be deleted.
type Confirm func(summary string) bool

// Commands is the entity-agnostic surface the CLI drives.
type Commands interface {
	List(ctx context.Context, params url.Values) error
	CreateFrom(ctx context.Context, input map[string]string) error
	UpdateFrom(ctx context.Context, id string, input map[string]string) error
	DeleteByID(ctx context.Context, id string, confirm Confirm) error
	FieldNames() []string
}

// Screen binds a table and a form to a controller.
type Screen[T crud.Record] struct {
	Controller *crud.Controller[T]
	Table      TableView[T]
	Form       Form[T]
	Out        io.Writer
	// Describe labels a record in prompts and messages.
	Describe func(T) string
}

// Render fetches the list for params and prints it.
func (s *Screen[T]) Render(ctx context.Context, params url.Values) error {
	q := s.Controller.Fetch(ctx, params)
	if q.Err != nil {
		return q.Err
	}
	if err := s.Table.Render(s.Out, q.Data); err != nil {
		return err
	}
	if p := q.Pagination; p != nil && p.Pages > 1 {
		_, err := fmt.Fprintf(s.Out, "Page %d of %d (%d total)\n", p.Page, p.Pages, p.Total)
		return err
	}
	return nil
}

// Create opens the form in create mode and submits input.
func (s *Screen[T]) Create(ctx context.Context, input map[string]string) (T, error) {
	s.Controller.OpenCreate()
	values, err := s.Form.Decode(input, nil)
	if err != nil {
		s.Controller.Close()
		var zero T
		return zero, err
	}
	return s.Controller.Submit(ctx, values)
}

// Edit opens the form on record and submits input merged over it. Fields
// set to the empty string are cleared on the server.
func (s *Screen[T]) Edit(ctx context.Context, record T, input map[string]string) (T, error) {
	s.Controller.OpenEdit(record)
	values, err := s.Form.Decode(input, &record)
	if err != nil {
		s.Controller.Close()
		var zero T
		return zero, err
	}
	return s.Controller.Submit(ctx, values, s.Form.Cleared(input)...)
}

// Delete asks confirm before removing record.
func (s *Screen[T]) Delete(ctx context.Context, record T, confirm Confirm) error {
	s.Controller.RequestDelete(record)
	if confirm != nil && !confirm(s.describe(record)) {
		s.Controller.CancelDelete()
		return ErrDeleteCanceled
	}
	return s.Controller.ConfirmDelete(ctx)
}

func (s *Screen[T]) List(ctx context.Context, params url.Values) error {
	return s.Render(ctx, params)
}

func (s *Screen[T]) CreateFrom(ctx context.Context, input map[string]string) error {
	rec, err := s.Create(ctx, input)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.Out, "Created %s\n", s.describe(rec))
	return err
}

func (s *Screen[T]) UpdateFrom(ctx context.Context, id string, input map[string]string) error {
	current, err := s.Controller.Get(ctx, id)
	if err != nil {
		return err
	}
	rec, err := s.Edit(ctx, current, input)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.Out, "Updated %s\n", s.describe(rec))
	return err
}

func (s *Screen[T]) DeleteByID(ctx context.Context, id string, confirm Confirm) error {
	current, err := s.Controller.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Delete(ctx, current, confirm); err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.Out, "Deleted %s\n", s.describe(current))
	return err
}

func (s *Screen[T]) FieldNames() []string { return s.Form.Fields }

func (s *Screen[T]) describe(r T) string {
	if s.Describe != nil {
		return s.Describe(r)
	}
	return r.RecordID()
}
