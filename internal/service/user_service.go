package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "careattend/internal/errors"
	"careattend/internal/model"
	"careattend/internal/repository"
)

const bcryptCost = 10

// RegisterUserInput carries an admin registration. The identifier is
// supplied explicitly; nothing is derived from the name.
type RegisterUserInput struct {
	ID              string `json:"id" validate:"required"`
	Name            string `json:"name" validate:"required"`
	Password        string `json:"password" validate:"required,min=4"`
	Role            string `json:"role" validate:"required"`
	RecipientNumber string `json:"recipient_number"`
	ServiceType     string `json:"service_type"`
}

// UserService handles identity administration.
type UserService interface {
	Register(ctx context.Context, input RegisterUserInput) (*model.User, error)
	Retire(ctx context.Context, actorID, userID string) (*model.User, error)
	List(ctx context.Context, includeRetired bool) ([]model.User, error)
}

type userService struct {
	users  repository.UserRepository
	events eventLogger
	now    func() time.Time
}

// NewUserService creates the identity administration service.
func NewUserService(users repository.UserRepository, events eventLogger) UserService {
	return &userService{users: users, events: events, now: time.Now}
}

func (s *userService) Register(ctx context.Context, input RegisterUserInput) (*model.User, error) {
	role := model.Role(input.Role)
	if !role.Valid() {
		return nil, apperrors.Invalid("INVALID_ROLE", "role must be admin, staff, parttime or user")
	}
	if len(input.Password) < 4 {
		return nil, apperrors.Invalid("PASSWORD_TOO_SHORT", "password must be at least 4 characters")
	}

	serviceType := model.ServiceType(input.ServiceType)
	if role == model.RoleUser {
		if serviceType != model.ServiceCommute && serviceType != model.ServiceHome {
			return nil, apperrors.Invalid("INVALID_SERVICE_TYPE", "client accounts need a service type of commute or home")
		}
	} else {
		serviceType = ""
	}

	if existing, err := s.users.FindByID(ctx, input.ID); err == nil && existing != nil {
		return nil, apperrors.Conflict("USER_ALREADY_EXISTS", "a user with that id already exists")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:              input.ID,
		Name:            input.Name,
		PasswordHash:    string(hash),
		Role:            role,
		RecipientNumber: input.RecipientNumber,
		ServiceType:     serviceType,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.events.Event("USER_REGISTERED", map[string]string{
		"user_id": user.ID,
		"role":    string(user.Role),
	})
	return user, nil
}

func (s *userService) Retire(ctx context.Context, actorID, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("USER_NOT_FOUND", "no such user")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.IsSeed {
		return nil, apperrors.Conflict("SEED_USER_PROTECTED", "built-in accounts cannot be retired")
	}
	if user.IsRetired {
		return nil, apperrors.Conflict("ALREADY_RETIRED", "the user is already retired")
	}

	now := s.now()
	user.IsRetired = true
	user.RetiredAt = &now
	user.RetiredBy = actorID
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("retire user: %w", err)
	}

	s.events.Event("USER_RETIRED", map[string]string{
		"user_id":    user.ID,
		"retired_by": actorID,
	})
	return user, nil
}

func (s *userService) List(ctx context.Context, includeRetired bool) ([]model.User, error) {
	if includeRetired {
		return s.users.List(ctx)
	}
	return s.users.ListActive(ctx)
}
