package handler

import (
	"log"

	"shop-api/internal/model"
	"shop-api/internal/service"
	"shop-api/internal/session"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
	sessions    *session.Manager
}

func NewAuthHandler(authService service.AuthService, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions}
}

// Register creates a USER account
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	user, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "user": user.ToResponse()})
}

// Login handles user authentication and starts a session
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	user, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	// Drop any session the browser already holds before issuing a new one
	if err := h.sessions.End(c); err != nil {
		log.Printf("login: failed to drop previous session: %v", err)
	}
	if err := h.sessions.Start(c, identityOf(user)); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"ok": true, "user": sessionUser(identityOf(user))})
}

// Me returns the logged in user
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	user, err := h.authService.Me(c.UserContext(), identity.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "user": user.ToResponse()})
}

// Logout destroys the session and clears the cookie
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.End(c); err != nil {
		log.Printf("logout: %v", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func identityOf(user *model.User) session.Identity {
	return session.Identity{
		ID:    user.ID,
		Email: user.Email,
		Role:  string(user.Role),
		Name:  user.Name,
	}
}

func sessionUser(identity session.Identity) fiber.Map {
	return fiber.Map{
		"id":    identity.ID,
		"email": identity.Email,
		"role":  identity.Role,
		"name":  identity.Name,
	}
}
