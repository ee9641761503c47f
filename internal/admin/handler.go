package admin

import (
	"github.com/gofiber/fiber/v2"

	"newsdesk/internal/engine"
	"newsdesk/internal/metadata"
)

// Handler serves the read-only entity catalog so clients can build their
// forms and tables from it.
type Handler struct {
	registry *metadata.Registry
}

func NewHandler(reg *metadata.Registry) *Handler {
	return &Handler{registry: reg}
}

// RegisterSchemaRoutes mounts the catalog under r. The caller's router is
// expected to carry the auth middleware; adminOnly guards the relation graph.
func RegisterSchemaRoutes(r fiber.Router, h *Handler, adminOnly fiber.Handler) {
	r.Get("/entities", h.ListEntities)
	r.Get("/entities/:name", h.GetEntity)
	r.Get("/relations", adminOnly, h.ListRelations)
}

// --- Entity Endpoints ---

func (h *Handler) ListEntities(c *fiber.Ctx) error {
	user := engine.GetUser(c)
	entities := make([]*metadata.Entity, 0)
	for _, e := range h.registry.AllEntities() {
		if user != nil && e.AllowsRole(user.Role) {
			entities = append(entities, e)
		}
	}
	return c.JSON(fiber.Map{"success": true, "data": entities})
}

func (h *Handler) GetEntity(c *fiber.Ctx) error {
	name := c.Params("name")
	entity := h.registry.GetEntity(name)
	if entity == nil {
		return engine.UnknownEntityError(name)
	}
	if err := engine.CheckPermission(engine.GetUser(c), entity); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": entity})
}

// --- Relation Endpoints ---

func (h *Handler) ListRelations(c *fiber.Ctx) error {
	relations := make([]*metadata.Relation, 0)
	for _, e := range h.registry.AllEntities() {
		relations = append(relations, h.registry.GetRelationsForSource(e.Name)...)
	}
	return c.JSON(fiber.Map{"success": true, "data": relations})
}
