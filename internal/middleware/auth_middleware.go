package middleware

import (
	"errors"
	"log"

	"shop-api/internal/model"
	"shop-api/internal/repository"
	"shop-api/internal/session"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	localIdentity  = "identity"
	localSessionID = "session_id"
)

// LoadSession resolves the session cookie, if any, and puts the identity in
// both fiber locals and the request context. It never rejects a request.
func LoadSession(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, sessionID, err := sessions.Resolve(c)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				log.Printf("session lookup failed: %v", err)
			}
			return c.Next()
		}

		setIdentity(c, *identity, sessionID)
		return c.Next()
	}
}

// RequireAuth rejects requests without a session. The user row is re-read so
// suspensions and role changes apply to live sessions immediately.
func RequireAuth(userRepo repository.UserRepository, sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := CurrentIdentity(c)
		if !ok {
			return unauthorized(c, "Login required")
		}

		user, err := userRepo.FindByID(c.UserContext(), identity.ID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("auth: failed to load user %s: %v", identity.ID, err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"ok": false, "message": "Internal server error", "code": "INTERNAL",
				})
			}
			sessions.End(c)
			return unauthorized(c, "Session is no longer valid")
		}

		if user.Status != model.UserActive {
			sessions.End(c)
			return unauthorized(c, "Account is suspended")
		}

		fresh := session.Identity{ID: user.ID, Email: user.Email, Role: string(user.Role), Name: user.Name}
		if fresh != identity {
			sessionID, _ := c.Locals(localSessionID).(string)
			if err := sessions.Refresh(c.UserContext(), sessionID, fresh); err != nil {
				log.Printf("auth: failed to refresh session: %v", err)
			}
			setIdentity(c, fresh, sessionID)
		}

		return c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := CurrentIdentity(c)
		if !ok {
			return unauthorized(c, "Login required")
		}
		if !identity.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"ok": false, "message": "Admin only", "code": "FORBIDDEN",
			})
		}
		return c.Next()
	}
}

// CurrentIdentity returns the identity loaded for this request.
func CurrentIdentity(c *fiber.Ctx) (session.Identity, bool) {
	identity, ok := c.Locals(localIdentity).(session.Identity)
	return identity, ok
}

func setIdentity(c *fiber.Ctx, identity session.Identity, sessionID string) {
	c.Locals(localIdentity, identity)
	c.Locals(localSessionID, sessionID)
	c.SetUserContext(session.WithIdentity(c.UserContext(), identity))
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"ok": false, "message": message, "code": "UNAUTHORIZED",
	})
}
