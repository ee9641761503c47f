package engine

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"newsdesk/internal/metadata"
)

// CheckPermission verifies that the user may use the admin endpoints of
// entity. Returns nil if allowed, UNAUTHORIZED without a session, or FORBIDDEN.
func CheckPermission(user *metadata.UserContext, entity *metadata.Entity) error {
	if user == nil {
		return UnauthorizedError("Authentication required")
	}
	if !entity.AllowsRole(user.Role) {
		return ForbiddenError(fmt.Sprintf("Role %s cannot manage %s", user.Role, entity.Name))
	}
	return nil
}

// GetUser extracts the UserContext set by the auth middleware.
func GetUser(c *fiber.Ctx) *metadata.UserContext {
	user, _ := c.Locals("user").(*metadata.UserContext)
	return user
}
