// Package session keeps authenticated identities server-side and binds them
// to a signed cookie.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Identity is what a session carries about its user.
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
	Name  string    `json:"name"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == "ADMIN"
}

// Store persists identities by session id.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Identity, error)
	Save(ctx context.Context, sessionID string, identity Identity, ttl time.Duration) error
	Destroy(ctx context.Context, sessionID string) error
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, identity)
}

func FromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(ctxKey{}).(Identity)
	return identity, ok
}
