package session

import (
	"context"
	"errors"
	"time"

	"shop-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CookieConfig struct {
	Name     string
	Secure   bool
	SameSite string
	TTL      time.Duration
}

// Manager binds Store entries to a signed cookie on the response.
type Manager struct {
	store  Store
	signer *jwt.Signer
	cookie CookieConfig
}

func NewManager(store Store, signer *jwt.Signer, cookie CookieConfig) *Manager {
	return &Manager{store: store, signer: signer, cookie: cookie}
}

// Start creates a fresh session for identity and sets the cookie.
func (m *Manager) Start(c *fiber.Ctx, identity Identity) error {
	sessionID := uuid.NewString()
	if err := m.store.Save(c.UserContext(), sessionID, identity, m.cookie.TTL); err != nil {
		return err
	}

	token, err := m.signer.GenerateToken(sessionID, m.cookie.TTL)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     m.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(m.cookie.TTL),
		HTTPOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: m.cookie.SameSite,
	})
	return nil
}

// Resolve returns the identity bound to the request cookie, or ErrNotFound.
func (m *Manager) Resolve(c *fiber.Ctx) (*Identity, string, error) {
	claims, err := m.signer.ValidateToken(c.Cookies(m.cookie.Name))
	if err != nil {
		return nil, "", ErrNotFound
	}

	identity, err := m.store.Load(c.UserContext(), claims.SessionID)
	if err != nil {
		return nil, "", err
	}
	return identity, claims.SessionID, nil
}

// End destroys the server-side session, if any, and clears the cookie.
func (m *Manager) End(c *fiber.Ctx) error {
	var destroyErr error
	if claims, err := m.signer.ValidateToken(c.Cookies(m.cookie.Name)); err == nil {
		destroyErr = m.store.Destroy(c.UserContext(), claims.SessionID)
	}

	c.Cookie(&fiber.Cookie{
		Name:     m.cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: m.cookie.SameSite,
	})
	return destroyErr
}

// Refresh overwrites the identity of an existing session, keeping its id.
func (m *Manager) Refresh(ctx context.Context, sessionID string, identity Identity) error {
	if sessionID == "" {
		return errors.New("empty session id")
	}
	return m.store.Save(ctx, sessionID, identity, m.cookie.TTL)
}
