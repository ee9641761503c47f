package engine

import "github.com/gofiber/fiber/v2"

// RegisterAdminRoutes mounts the authenticated CRUD routes. The caller's
// router is expected to carry the auth middleware.
func RegisterAdminRoutes(r fiber.Router, h *Handler) {
	r.Get("/:entity", h.List)
	r.Get("/:entity/:id", h.GetByID)
	r.Post("/:entity", h.Create)
	r.Put("/:entity/:id", h.Update)
	r.Delete("/:entity/:id", h.Delete)
}

// RegisterPublicRoutes mounts the anonymous portal routes.
func RegisterPublicRoutes(r fiber.Router, h *Handler) {
	r.Get("/:entity", h.PublicList)
	r.Get("/:entity/slug/:slug", h.PublicGetBySlug)
	r.Get("/:entity/:id", h.PublicGetByID)
	r.Post("/:entity", h.PublicCreate)
}
