package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"shop-api/internal/model"
	"shop-api/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService interface {
	GetAllUsers(ctx context.Context) ([]model.UserResponse, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, req UpdateUserRequest) (*model.UserResponse, error)
	SetRoleByEmail(ctx context.Context, email string, role model.Role) (*model.User, error)
	EnsureAdmin(ctx context.Context, email, password string) error
}

// UpdateUserRequest changes role and/or status; nil fields are left alone.
type UpdateUserRequest struct {
	Role   *string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
	Status *string `json:"status" validate:"omitempty,oneof=ACTIVE SUSPENDED"`
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) UpdateUser(ctx context.Context, userID uuid.UUID, req UpdateUserRequest) (*model.UserResponse, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	if req.Role == nil && req.Status == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	if req.Role != nil {
		if err := s.userRepo.UpdateRole(ctx, userID, model.Role(*req.Role)); err != nil {
			return nil, notFoundAs(err, ErrUserNotFound)
		}
	}
	if req.Status != nil {
		if err := s.userRepo.UpdateStatus(ctx, userID, model.UserStatus(*req.Status)); err != nil {
			return nil, notFoundAs(err, ErrUserNotFound)
		}
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) SetRoleByEmail(ctx context.Context, email string, role model.Role) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	if err := s.userRepo.UpdateRole(ctx, user.ID, role); err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	user.Role = role
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist.
// An existing account is promoted but its password is left untouched.
func (s *userService) EnsureAdmin(ctx context.Context, email, password string) error {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != model.RoleAdmin {
			log.Printf("Promoting existing user %s to ADMIN", existing.Email)
			return s.userRepo.UpdateRole(ctx, existing.ID, model.RoleAdmin)
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	admin := &model.User{
		Email:  email,
		Name:   "Administrator",
		Role:   model.RoleAdmin,
		Status: model.UserActive,
	}
	if err := admin.SetPassword(password); err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return err
	}
	log.Printf("Seeded admin account %s", admin.Email)
	return nil
}

func notFoundAs(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
