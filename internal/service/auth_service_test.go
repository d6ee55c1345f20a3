package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"shop-api/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memUserRepo keeps users in memory and normalizes emails the way the
// postgres repository does.
type memUserRepo struct {
	users   map[uuid.UUID]*model.User
	findErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	email = model.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	user.Email = model.NormalizeEmail(user.Email)
	for _, u := range r.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memUserRepo) FindAll(ctx context.Context) ([]model.User, error) {
	var all []model.User
	for _, u := range r.users {
		all = append(all, *u)
	}
	return all, nil
}

func (r *memUserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Role = role
	return nil
}

func (r *memUserRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.UserStatus) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Status = status
	return nil
}

func TestRegisterPasswordLength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"seven bytes", strings.Repeat("a", 7), ErrInvalidInput},
		{"eight bytes", strings.Repeat("a", 8), nil},
		{"seventy-two bytes", strings.Repeat("a", 72), nil},
		{"seventy-three bytes", strings.Repeat("a", 73), ErrInvalidInput},
		{"multibyte over the bcrypt limit", strings.Repeat("한", 30), ErrInvalidInput},
		{"multibyte within the limit", strings.Repeat("한", 24), nil},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := NewAuthService(newMemUserRepo())
			email := "user" + string(rune('a'+i)) + "@example.com"

			user, err := auth.Register(context.Background(), RegisterRequest{Email: email, Password: tt.password})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, user.CheckPassword(tt.password))
			assert.Equal(t, model.RoleUser, user.Role)
			assert.Equal(t, model.UserActive, user.Status)
		})
	}
}

func TestRegisterTreatsEmailCaseInsensitively(t *testing.T) {
	ctx := context.Background()
	auth := NewAuthService(newMemUserRepo())

	user, err := auth.Register(ctx, RegisterRequest{Email: "Foo@Example.com", Password: "password1", Name: "Foo"})
	require.NoError(t, err)
	assert.Equal(t, "foo@example.com", user.Email)

	_, err = auth.Register(ctx, RegisterRequest{Email: "foo@example.com", Password: "password2"})
	assert.ErrorIs(t, err, ErrEmailExists)

	loggedIn, err := auth.Login(ctx, LoginRequest{Email: "FOO@example.COM", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestRegisterPropagatesLookupFailure(t *testing.T) {
	repo := newMemUserRepo()
	repo.findErr = errors.New("connection reset")
	auth := NewAuthService(repo)

	_, err := auth.Register(context.Background(), RegisterRequest{Email: "new@example.com", Password: "password1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, repo.users, "no user is created when the lookup fails")
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	repo := newMemUserRepo()
	auth := NewAuthService(repo)

	active, err := auth.Register(ctx, RegisterRequest{Email: "active@example.com", Password: "password1"})
	require.NoError(t, err)
	suspended, err := auth.Register(ctx, RegisterRequest{Email: "suspended@example.com", Password: "password1"})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(ctx, suspended.ID, model.UserSuspended))

	tests := []struct {
		name    string
		req     LoginRequest
		wantErr error
	}{
		{"valid credentials", LoginRequest{Email: "active@example.com", Password: "password1"}, nil},
		{"wrong password", LoginRequest{Email: "active@example.com", Password: "password2"}, ErrInvalidCredentials},
		{"unknown email", LoginRequest{Email: "nobody@example.com", Password: "password1"}, ErrInvalidCredentials},
		{"suspended account", LoginRequest{Email: "suspended@example.com", Password: "password1"}, ErrUserInactive},
		{"suspended account wrong password", LoginRequest{Email: "suspended@example.com", Password: "nope-nope"}, ErrInvalidCredentials},
		{"missing password", LoginRequest{Email: "active@example.com"}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := auth.Login(ctx, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, active.ID, user.ID)
		})
	}
}

func TestMeRejectsSuspendedAndMissingUsers(t *testing.T) {
	ctx := context.Background()
	repo := newMemUserRepo()
	auth := NewAuthService(repo)

	user, err := auth.Register(ctx, RegisterRequest{Email: "me@example.com", Password: "password1"})
	require.NoError(t, err)

	got, err := auth.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", got.Email)

	require.NoError(t, repo.UpdateStatus(ctx, user.ID, model.UserSuspended))
	_, err = auth.Me(ctx, user.ID)
	assert.ErrorIs(t, err, ErrUserInactive)

	_, err = auth.Me(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
