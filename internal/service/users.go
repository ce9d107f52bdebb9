package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/metallic-erp/support-hub/internal/auth"
	"github.com/metallic-erp/support-hub/internal/domain"
	"github.com/metallic-erp/support-hub/internal/store"
	apperrors "github.com/metallic-erp/support-hub/pkg/util"
)

// UserService covers admin-side account management.
type UserService struct {
	store      *store.Store
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(entityStore *store.Store, bcryptCost int, logger *zap.Logger) *UserService {
	return &UserService{store: entityStore, bcryptCost: bcryptCost, logger: logger}
}

// ListUsers returns every account with password hashes stripped.
func (s *UserService) ListUsers() []domain.User {
	users := s.store.Users()
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users
}

// AddDeveloper creates a developer account with the given initial password.
func (s *UserService) AddDeveloper(ctx context.Context, name, email, password string) (domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return domain.User{}, apperrors.NewValidationError("name, email and password are required", nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return domain.User{}, apperrors.NewInternalError(err)
	}

	user, err := s.store.AddUser(ctx, domain.User{
		Name:         name,
		Email:        email,
		Role:         domain.RoleDeveloper,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return domain.User{}, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return domain.User{}, apperrors.MapError(err)
	}

	s.logger.Info("developer added", zap.Int64("user_id", user.ID), zap.String("name", user.Name))
	user.PasswordHash = ""
	return user, nil
}

// UserUpdateCommand is a partial update; nil fields stay untouched.
type UserUpdateCommand struct {
	Name        *string
	Email       *string
	Password    *string
	Role        *domain.UserRole
	CompanyName *string
}

// UpdateUser applies a partial update to an account.
func (s *UserService) UpdateUser(ctx context.Context, userID int64, cmd UserUpdateCommand) (domain.User, error) {
	user, ok := s.store.UserByID(userID)
	if !ok {
		return domain.User{}, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
	}

	if cmd.Name != nil {
		if strings.TrimSpace(*cmd.Name) == "" {
			return domain.User{}, apperrors.NewValidationError("name cannot be empty", nil)
		}
		user.Name = strings.TrimSpace(*cmd.Name)
	}
	if cmd.Email != nil {
		if strings.TrimSpace(*cmd.Email) == "" {
			return domain.User{}, apperrors.NewValidationError("email cannot be empty", nil)
		}
		user.Email = strings.TrimSpace(*cmd.Email)
	}
	if cmd.Role != nil {
		if !cmd.Role.Valid() {
			return domain.User{}, apperrors.NewValidationError("unknown role", map[string]any{"role": *cmd.Role})
		}
		user.Role = *cmd.Role
	}
	if cmd.CompanyName != nil {
		user.CompanyName = strings.TrimSpace(*cmd.CompanyName)
	}
	if cmd.Password != nil {
		if *cmd.Password == "" {
			return domain.User{}, apperrors.NewValidationError("password cannot be empty", nil)
		}
		hash, err := auth.HashPassword(*cmd.Password, s.bcryptCost)
		if err != nil {
			return domain.User{}, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}

	updated, err := s.store.UpdateUser(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return domain.User{}, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return domain.User{}, apperrors.MapError(err)
	}
	if !updated {
		return domain.User{}, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
	}

	s.logger.Info("user updated", zap.Int64("user_id", user.ID))
	user.PasswordHash = ""
	return user, nil
}
