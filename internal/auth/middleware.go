package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"newsdesk/internal/engine"
	"newsdesk/internal/metadata"
)

// Middleware returns a Fiber middleware that validates the session cookie or
// a bearer token and sets the UserContext on the request.
func Middleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			header := c.Get("Authorization")
			if header == "" {
				return engine.UnauthorizedError("Authentication required")
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return engine.UnauthorizedError("Invalid auth header format")
			}
			token = parts[1]
		}

		claims, err := ParseSessionToken(token, secret)
		if err != nil {
			return engine.UnauthorizedError("Invalid or expired session")
		}

		c.Locals("user", &metadata.UserContext{
			ID:    claims.Subject,
			Email: claims.Email,
			Role:  claims.Role,
		})

		return c.Next()
	}
}

// RequireAdmin is a Fiber middleware that checks the authenticated user has the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := engine.GetUser(c)
		if user == nil {
			return engine.UnauthorizedError("Authentication required")
		}
		if !user.IsAdmin() {
			return engine.ForbiddenError("Admin access required")
		}
		return c.Next()
	}
}
