package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"newsdesk/internal/engine"
	"newsdesk/internal/store"
)

// AuthHandler handles authentication endpoints against the users table.
type AuthHandler struct {
	store        *store.Store
	jwtSecret    string
	ttl          time.Duration
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s *store.Store, jwtSecret string, ttl time.Duration, cookieSecure bool) *AuthHandler {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthHandler{store: s, jwtSecret: jwtSecret, ttl: ttl, cookieSecure: cookieSecure}
}

// SessionUser is the public view of the logged-in account.
type SessionUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type sessionResponse struct {
	Success bool         `json:"success"`
	Data    *SessionUser `json:"data"`
	Token   string       `json:"token,omitempty"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.InvalidPayloadError("Invalid request body")
	}
	if body.Email == "" || body.Password == "" {
		return engine.UnauthorizedError("Email and password are required")
	}

	ctx := c.UserContext()

	user, hash, active, err := h.findUserByEmail(ctx, body.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return engine.UnauthorizedError("Invalid email or password")
		}
		return fmt.Errorf("find user: %w", err)
	}
	if !active {
		return engine.UnauthorizedError("Account is disabled")
	}
	if !CheckPassword(body.Password, hash) {
		return engine.UnauthorizedError("Invalid email or password")
	}

	token, err := GenerateSessionToken(user.ID, user.Email, user.Role, h.jwtSecret, h.ttl)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.ttl),
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(sessionResponse{Success: true, Data: user, Token: token})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"success": true, "message": "Logged out"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims := engine.GetUser(c)
	if claims == nil {
		return engine.UnauthorizedError("Authentication required")
	}
	user, _, active, err := h.findUserByEmail(c.UserContext(), claims.Email)
	if err != nil || !active {
		return engine.UnauthorizedError("Session user no longer exists")
	}
	return c.JSON(sessionResponse{Success: true, Data: user})
}

// RegisterAuthRoutes registers auth routes under r.
func RegisterAuthRoutes(r fiber.Router, h *AuthHandler) {
	g := r.Group("/auth")
	g.Post("/login", h.Login)
	g.Post("/logout", h.Logout)
	g.Get("/me", Middleware(h.jwtSecret), h.Me)
}

// --- helpers ---

func (h *AuthHandler) findUserByEmail(ctx context.Context, email string) (*SessionUser, string, bool, error) {
	row, err := store.QueryRow(ctx, h.store.DB,
		fmt.Sprintf("SELECT id, name, email, password, role, active FROM users WHERE email = %s", h.store.Dialect.Placeholder(1)),
		email)
	if err != nil {
		return nil, "", false, err
	}
	if row["active"] != nil {
		row["active"] = h.store.Dialect.DecodeValue("boolean", row["active"])
	}

	user := &SessionUser{}
	user.ID, _ = row["id"].(string)
	user.Name, _ = row["name"].(string)
	user.Email, _ = row["email"].(string)
	user.Role, _ = row["role"].(string)
	hash, _ := row["password"].(string)
	active, _ := row["active"].(bool)
	return user, hash, active, nil
}
