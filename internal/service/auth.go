package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/metallic-erp/support-hub/internal/auth"
	"github.com/metallic-erp/support-hub/internal/config"
	"github.com/metallic-erp/support-hub/internal/domain"
	"github.com/metallic-erp/support-hub/internal/store"
	apperrors "github.com/metallic-erp/support-hub/pkg/util"
)

// AuthService handles registration, the client and internal login flows, and
// the current-actor session.
type AuthService struct {
	store  *store.Store
	tokens *auth.TokenManager
	cfg    config.AuthConfig
	logger *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(entityStore *store.Store, tokens *auth.TokenManager, cfg config.AuthConfig, logger *zap.Logger) *AuthService {
	return &AuthService{store: entityStore, tokens: tokens, cfg: cfg, logger: logger}
}

// RegisterClientCommand carries client self-registration input.
type RegisterClientCommand struct {
	Name        string
	Email       string
	Password    string
	CompanyName string
}

// AuthResult is returned by every successful login flow.
type AuthResult struct {
	User      domain.User
	Token     string
	ExpiresAt time.Time
}

// RegisterClient creates a client account and logs it in. The new user
// becomes the current actor so their first ticket is attributed correctly.
func (s *AuthService) RegisterClient(ctx context.Context, cmd RegisterClientCommand) (*AuthResult, error) {
	name := strings.TrimSpace(cmd.Name)
	email := strings.TrimSpace(cmd.Email)
	if name == "" || email == "" || cmd.Password == "" {
		return nil, apperrors.NewValidationError("name, email and password are required", nil)
	}

	hash, err := auth.HashPassword(cmd.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user, err := s.store.AddUser(ctx, domain.User{
		Name:         name,
		Email:        email,
		Role:         domain.RoleClient,
		PasswordHash: hash,
		CompanyName:  strings.TrimSpace(cmd.CompanyName),
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("client registered", zap.Int64("user_id", user.ID))
	return s.establishSession(ctx, user)
}

// Login authenticates a client by email and password. Email matching is
// case-insensitive; the error never reveals which credential was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, ok := s.store.UserByEmail(strings.TrimSpace(email))
	if !ok || auth.ComparePassword(user.PasswordHash, password) != nil {
		return nil, apperrors.NewUnauthorized("invalid email or password")
	}
	s.logger.Info("user logged in", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.establishSession(ctx, user)
}

// InternalLogin authenticates a developer or admin by user id and the shared
// master password. Disabled entirely when no master password is configured.
func (s *AuthService) InternalLogin(ctx context.Context, userID int64, masterPassword string) (*AuthResult, error) {
	if s.cfg.MasterPassword == "" {
		return nil, apperrors.NewForbidden("internal login is disabled")
	}
	if masterPassword != s.cfg.MasterPassword {
		return nil, apperrors.NewUnauthorized("invalid master password")
	}
	user, ok := s.store.UserByID(userID)
	if !ok {
		return nil, apperrors.NewUnauthorized("unknown user")
	}
	if user.Role != domain.RoleDeveloper && user.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("internal login is restricted to staff accounts")
	}
	s.logger.Info("internal login", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.establishSession(ctx, user)
}

// InternalProfiles lists the staff accounts selectable on the internal login
// screen.
func (s *AuthService) InternalProfiles() []domain.User {
	var staff []domain.User
	for _, u := range s.store.Users() {
		if u.Role == domain.RoleDeveloper || u.Role == domain.RoleAdmin {
			u.PasswordHash = ""
			staff = append(staff, u)
		}
	}
	return staff
}

// Logout clears the current-actor session. Token invalidation is the
// client's job; the server only drops attribution state.
func (s *AuthService) Logout(ctx context.Context) {
	s.store.SetCurrentActor(ctx, nil)
}

func (s *AuthService) establishSession(ctx context.Context, user domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.store.SetCurrentActor(ctx, &user)
	user.PasswordHash = ""
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
