package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"newsdesk/internal/metadata"
	"newsdesk/internal/store"
)

// MutationObserver is told about every create, update and delete attempt.
type MutationObserver interface {
	ObserveMutation(entity, action string, err error)
}

type noopObserver struct{}

func (noopObserver) ObserveMutation(string, string, error) {}

type Handler struct {
	store    *store.Store
	registry *metadata.Registry
	observer MutationObserver
	now      func() time.Time
}

type HandlerOption func(*Handler)

// WithObserver reports mutations to o.
func WithObserver(o MutationObserver) HandlerOption {
	return func(h *Handler) { h.observer = o }
}

// WithClock overrides the request time used for timestamps and "$now".
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) { h.now = now }
}

func NewHandler(s *store.Store, reg *metadata.Registry, opts ...HandlerOption) *Handler {
	h := &Handler{store: s, registry: reg, observer: noopObserver{}, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type listResponse struct {
	Success    bool             `json:"success"`
	Data       []map[string]any `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

type recordResponse struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// List handles GET /api/admin/:entity
func (h *Handler) List(c *fiber.Ctx) error {
	entity, err := h.resolveAdmin(c)
	if err != nil {
		return err
	}
	return h.list(c, entity, nil)
}

// PublicList handles GET /api/:entity
func (h *Handler) PublicList(c *fiber.Ctx) error {
	entity, err := h.resolvePublic(c)
	if err != nil {
		return err
	}
	return h.list(c, entity, PublicFilterClauses(entity, h.now()))
}

func (h *Handler) list(c *fiber.Ctx, entity *metadata.Entity, scope []WhereClause) error {
	plan, err := ParseQueryParams(c, entity)
	if err != nil {
		return err
	}
	plan.Filters = append(plan.Filters, scope...)

	qr := BuildSelectSQL(plan, h.store.Dialect)
	rows, err := store.QueryRows(c.UserContext(), h.store.DB, qr.SQL, qr.Params...)
	if err != nil {
		return fmt.Errorf("list %s: %w", entity.Name, err)
	}
	store.DecodeRows(h.store.Dialect, entity, rows)

	cr := BuildCountSQL(plan, h.store.Dialect)
	total, err := store.Count(c.UserContext(), h.store.DB, cr.SQL, cr.Params...)
	if err != nil {
		return fmt.Errorf("count %s: %w", entity.Name, err)
	}

	// Ensure non-nil slice for JSON
	if rows == nil {
		rows = []map[string]any{}
	}

	return c.JSON(listResponse{
		Success:    true,
		Data:       rows,
		Pagination: NewPagination(plan.Page, plan.Limit, total),
	})
}

// GetByID handles GET /api/admin/:entity/:id
func (h *Handler) GetByID(c *fiber.Ctx) error {
	entity, err := h.resolveAdmin(c)
	if err != nil {
		return err
	}
	return h.get(c, entity, nil)
}

// PublicGetByID handles GET /api/:entity/:id
func (h *Handler) PublicGetByID(c *fiber.Ctx) error {
	entity, err := h.resolvePublic(c)
	if err != nil {
		return err
	}
	return h.get(c, entity, PublicFilterClauses(entity, h.now()))
}

func (h *Handler) get(c *fiber.Ctx, entity *metadata.Entity, scope []WhereClause) error {
	id := c.Params("id")
	if !validID(entity, id) {
		return NotFoundError(entity.Name, id)
	}
	row, err := fetchRecord(c.UserContext(), h.store.DB, h.store.Dialect, entity, id, scope)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError(entity.Name, id)
		}
		return fmt.Errorf("get %s/%s: %w", entity.Name, id, err)
	}
	return c.JSON(recordResponse{Success: true, Data: row})
}

// PublicGetBySlug handles GET /api/:entity/slug/:slug
func (h *Handler) PublicGetBySlug(c *fiber.Ctx) error {
	entity, err := h.resolvePublic(c)
	if err != nil {
		return err
	}
	slug := c.Params("slug")
	if entity.Slug == nil {
		return NewAppError("NOT_FOUND", 404, fmt.Sprintf("%s has no slug", entity.Name))
	}
	row, err := fetchBySlug(c.UserContext(), h.store.DB, h.store.Dialect, entity, slug, PublicFilterClauses(entity, h.now()))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NewAppError("NOT_FOUND", 404, fmt.Sprintf("%s with slug %s not found", entity.Name, slug))
		}
		return fmt.Errorf("get %s/slug/%s: %w", entity.Name, slug, err)
	}
	return c.JSON(recordResponse{Success: true, Data: row})
}

// Create handles POST /api/admin/:entity
func (h *Handler) Create(c *fiber.Ctx) error {
	entity, err := h.resolveAdmin(c)
	if err != nil {
		return err
	}
	body, err := parseBody(c)
	if err != nil {
		return err
	}
	return h.create(c, entity, body)
}

// PublicCreate handles POST /api/:entity for entities accepting anonymous submissions.
func (h *Handler) PublicCreate(c *fiber.Ctx) error {
	entity, err := h.resolvePublic(c)
	if err != nil {
		return err
	}
	if !entity.PublicCreate {
		return UnauthorizedError("Authentication required")
	}
	body, err := parseBody(c)
	if err != nil {
		return err
	}
	for k, v := range entity.PublicDefaults {
		body[k] = v
	}
	return h.create(c, entity, body)
}

func (h *Handler) create(c *fiber.Ctx, entity *metadata.Entity, body map[string]any) (err error) {
	defer func() { h.observer.ObserveMutation(entity.Name, "create", err) }()

	plan, err := PlanWrite(entity, body, "")
	if err != nil {
		return err
	}
	record, err := ExecuteWritePlan(c.UserContext(), h.store, h.registry, plan, h.now())
	if err != nil {
		return err
	}
	return c.Status(201).JSON(recordResponse{Success: true, Data: record})
}

// Update handles PUT /api/admin/:entity/:id
func (h *Handler) Update(c *fiber.Ctx) (err error) {
	entity, err := h.resolveAdmin(c)
	if err != nil {
		return err
	}
	defer func() { h.observer.ObserveMutation(entity.Name, "update", err) }()

	id := c.Params("id")
	if !validID(entity, id) {
		return NotFoundError(entity.Name, id)
	}
	body, err := parseBody(c)
	if err != nil {
		return err
	}
	plan, err := PlanWrite(entity, body, id)
	if err != nil {
		return err
	}
	record, err := ExecuteWritePlan(c.UserContext(), h.store, h.registry, plan, h.now())
	if err != nil {
		return err
	}
	return c.JSON(recordResponse{Success: true, Data: record})
}

// Delete handles DELETE /api/admin/:entity/:id
func (h *Handler) Delete(c *fiber.Ctx) (err error) {
	entity, err := h.resolveAdmin(c)
	if err != nil {
		return err
	}
	defer func() { h.observer.ObserveMutation(entity.Name, "delete", err) }()

	id := c.Params("id")
	if !validID(entity, id) {
		return NotFoundError(entity.Name, id)
	}

	ctx := c.UserContext()
	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := fetchRecord(ctx, tx, h.store.Dialect, entity, id, nil); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError(entity.Name, id)
		}
		return fmt.Errorf("fetch %s/%s: %w", entity.Name, id, err)
	}

	if err := HandleCascadeDelete(ctx, tx, h.store.Dialect, h.registry, entity, id); err != nil {
		return err
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", entity.Table, entity.PrimaryKey.Field, h.store.Dialect.Placeholder(1))
	affected, err := store.Exec(ctx, tx, sql, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", entity.Name, id, err)
	}
	if affected == 0 {
		return NotFoundError(entity.Name, id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return c.JSON(messageResponse{Success: true, Message: fmt.Sprintf("%s %s deleted", entity.Name, id)})
}

func (h *Handler) resolveEntity(c *fiber.Ctx) (*metadata.Entity, error) {
	name := c.Params("entity")
	entity := h.registry.GetEntity(name)
	if entity == nil {
		return nil, UnknownEntityError(name)
	}
	return entity, nil
}

func (h *Handler) resolveAdmin(c *fiber.Ctx) (*metadata.Entity, error) {
	entity, err := h.resolveEntity(c)
	if err != nil {
		return nil, err
	}
	if err := CheckPermission(GetUser(c), entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// resolvePublic hides non-public entities behind the same 404 as unknown ones.
func (h *Handler) resolvePublic(c *fiber.Ctx) (*metadata.Entity, error) {
	entity, err := h.resolveEntity(c)
	if err != nil {
		return nil, err
	}
	if !entity.Public {
		return nil, UnknownEntityError(entity.Name)
	}
	return entity, nil
}

func parseBody(c *fiber.Ctx) (map[string]any, error) {
	var body map[string]any
	if err := c.BodyParser(&body); err != nil || body == nil {
		return nil, InvalidPayloadError("Invalid JSON body")
	}
	return body, nil
}

func validID(entity *metadata.Entity, id string) bool {
	if entity.PrimaryKey.Type != "uuid" {
		return id != ""
	}
	_, err := uuid.Parse(id)
	return err == nil
}
