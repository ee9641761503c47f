package crud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Record is any entity with a server-assigned identifier.
type Record interface {
	RecordID() string
}

// Query is the result of Fetch.
type Query[T Record] struct {
	Data       []T
	Pagination *Pagination
	Err        error
	FromCache  bool
	FetchedAt  time.Time
}

// State is a snapshot of a controller's screen state.
type State[T Record] struct {
	ModalOpen         bool
	Editing           *T
	Submitting        bool
	DeleteConfirmOpen bool
	PendingDelete     *T
}

// Creating reports whether the modal is open in create mode.
func (s State[T]) Creating() bool { return s.ModalOpen && s.Editing == nil }

// Controller owns the list cache usage and the create/edit/delete state of
// one entity endpoint. One instance is shared by every view of the entity.
//
// Submissions are latched: while a create or update is pending, further
// Submit calls return ErrSubmitInFlight without touching the network.
// Deletes are not serialized against anything.
type Controller[T Record] struct {
	client   *Client
	cache    *Cache
	endpoint string
	label    string
	validate *validator.Validate
	notify   Notifier

	mu            sync.Mutex
	modalOpen     bool
	editing       *T
	submitting    bool
	pendingDelete *T
	loading       map[string]int
}

type ControllerOption[T Record] func(*Controller[T])

// WithValidator checks submitted values before any request is sent.
func WithValidator[T Record](v *validator.Validate) ControllerOption[T] {
	return func(c *Controller[T]) { c.validate = v }
}

func WithNotifier[T Record](n Notifier) ControllerOption[T] {
	return func(c *Controller[T]) {
		if n != nil {
			c.notify = n
		}
	}
}

// WithLabel names the entity in notifications. Defaults to the endpoint.
func WithLabel[T Record](label string) ControllerOption[T] {
	return func(c *Controller[T]) { c.label = label }
}

func NewController[T Record](client *Client, cache *Cache, endpoint string, opts ...ControllerOption[T]) *Controller[T] {
	c := &Controller[T]{
		client:   client,
		cache:    cache,
		endpoint: endpoint,
		label:    endpoint,
		notify:   discardNotifier{},
		loading:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller[T]) Endpoint() string { return c.endpoint }

// Fetch returns the list for params, from cache when a fresh entry exists.
func (c *Controller[T]) Fetch(ctx context.Context, params url.Values) Query[T] {
	key := Key(c.endpoint, params)
	if v, at, ok := c.cache.Get(key); ok {
		if page, ok := v.(Page[T]); ok {
			return Query[T]{Data: page.Data, Pagination: page.Pagination, FromCache: true, FetchedAt: at}
		}
	}

	gen := c.cache.Generation(c.endpoint)
	c.setLoading(key, 1)
	page, err := List[T](ctx, c.client, c.endpoint, params)
	c.setLoading(key, -1)
	if err != nil {
		return Query[T]{Err: err}
	}
	at, _ := c.cache.SetIfCurrent(c.endpoint, key, page, gen)
	return Query[T]{Data: page.Data, Pagination: page.Pagination, FetchedAt: at}
}

// Get loads a single record, bypassing the list cache.
func (c *Controller[T]) Get(ctx context.Context, id string) (T, error) {
	return Get[T](ctx, c.client, c.endpoint, id)
}

// Refetch discards the cached entry for params and fetches again.
func (c *Controller[T]) Refetch(ctx context.Context, params url.Values) Query[T] {
	c.cache.Invalidate(Key(c.endpoint, params))
	return c.Fetch(ctx, params)
}

// IsLoading reports whether a list request for params is in flight.
func (c *Controller[T]) IsLoading(params url.Values) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading[Key(c.endpoint, params)] > 0
}

func (c *Controller[T]) setLoading(key string, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading[key] += delta
	if c.loading[key] <= 0 {
		delete(c.loading, key)
	}
}

// OpenCreate opens the form in create mode.
func (c *Controller[T]) OpenCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = nil
	c.modalOpen = true
}

// OpenEdit opens the form loaded with record.
func (c *Controller[T]) OpenEdit(record T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = &record
	c.modalOpen = true
}

// Close hides the form and forgets the edited record.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modalOpen = false
	c.editing = nil
}

func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := State[T]{
		ModalOpen:         c.modalOpen,
		Submitting:        c.submitting,
		DeleteConfirmOpen: c.pendingDelete != nil,
	}
	if c.editing != nil {
		e := *c.editing
		s.Editing = &e
	}
	if c.pendingDelete != nil {
		p := *c.pendingDelete
		s.PendingDelete = &p
	}
	return s
}

// Submit updates the edited record, or creates one when nothing is being
// edited. On update the fields named in clear are sent as null. On success
// the modal closes and the endpoint's lists are invalidated. On failure the
// modal and edited record stay as they were.
func (c *Controller[T]) Submit(ctx context.Context, values T, clear ...string) (T, error) {
	var zero T
	if err := c.check(ctx, values); err != nil {
		return zero, err
	}

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return zero, ErrSubmitInFlight
	}
	c.submitting = true
	editing := c.editing
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	var (
		saved T
		err   error
		verb  = "created"
	)
	if editing != nil {
		verb = "updated"
		var payload any = values
		if len(clear) > 0 {
			payload, err = withNulls(values, clear)
		}
		if err == nil {
			saved, err = Update[T](ctx, c.client, c.endpoint, (*editing).RecordID(), payload)
		}
	} else {
		saved, err = Create[T](ctx, c.client, c.endpoint, values)
	}
	if err != nil {
		c.notify.Error(Message(err, fmt.Sprintf("Failed to save %s", c.label)))
		return zero, err
	}

	c.mu.Lock()
	c.modalOpen = false
	c.editing = nil
	c.mu.Unlock()
	c.cache.InvalidateEndpoint(c.endpoint)
	c.notify.Success(fmt.Sprintf("%s %s", c.label, verb))
	return saved, nil
}

// Remove deletes id. The cache is only invalidated when the server
// confirms the delete.
func (c *Controller[T]) Remove(ctx context.Context, id string) error {
	if err := c.client.Remove(ctx, c.endpoint, id); err != nil {
		c.notify.Error(Message(err, fmt.Sprintf("Failed to delete %s", c.label)))
		return err
	}
	c.cache.InvalidateEndpoint(c.endpoint)
	c.notify.Success(fmt.Sprintf("%s deleted", c.label))
	return nil
}

// RequestDelete marks record as awaiting confirmation.
func (c *Controller[T]) RequestDelete(record T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDelete = &record
}

func (c *Controller[T]) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDelete = nil
}

// ConfirmDelete removes the record passed to RequestDelete. The prompt is
// dismissed whatever the outcome.
func (c *Controller[T]) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	pending := c.pendingDelete
	c.pendingDelete = nil
	c.mu.Unlock()
	if pending == nil {
		return errors.New("crud: no delete pending")
	}
	return c.Remove(ctx, (*pending).RecordID())
}

func (c *Controller[T]) check(ctx context.Context, values T) error {
	if c.validate == nil {
		return nil
	}
	err := c.validate.StructCtx(ctx, values)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "after_start":
		return fmt.Sprintf("%s must not be before starts_at", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// withNulls encodes values as a JSON object with the clear keys set to null,
// so that omitempty fields reach the server as explicit clears.
func withNulls(values any, clear []string) (map[string]any, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	body := map[string]any{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	for _, k := range clear {
		body[k] = nil
	}
	return body, nil
}
