package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"shop-api/internal/model"
	"shop-api/internal/repository"
	"shop-api/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// bcrypt only reads the first 72 bytes of a password.
const maxPasswordBytes = 72

var (
	decoyOnce sync.Once
	decoyUser model.User
)

func checkDecoyPassword(password string) {
	decoyOnce.Do(func() {
		if err := decoyUser.SetPassword(uuid.NewString()); err != nil {
			log.Printf("Failed to hash decoy password: %v", err)
		}
	})
	decoyUser.CheckPassword(password)
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req LoginRequest) (*model.User, error)
	Me(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	// 1. Validate request
	if err := validate(&req); err != nil {
		return nil, err
	}
	if len(req.Password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password is longer than %d bytes", ErrInvalidInput, maxPasswordBytes)
	}

	// 2. Check if email already exists
	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		return nil, ErrEmailExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("look up email: %w", err)
	}

	// 3. Create user
	user := &model.User{
		Email:  req.Email,
		Name:   req.Name,
		Role:   model.RoleUser,
		Status: model.UserActive,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// 4. Save; the unique index settles a registration race
	if err := s.userRepo.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*model.User, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Unknown emails pay for a bcrypt compare too, so response time
		// does not reveal which addresses have accounts.
		checkDecoyPassword(req.Password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !user.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrUserInactive
	}
	return user, nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrUserInactive
	}
	return user, nil
}
