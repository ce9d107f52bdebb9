package dto

import (
	"time"

	"github.com/metallic-erp/support-hub/internal/domain"
)

// RegisterRequest payload for client self-registration.
type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name,omitempty"`
}

// LoginRequest payload for client login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// InternalLoginRequest payload for staff login by profile.
type InternalLoginRequest struct {
	UserID         int64  `json:"user_id"`
	MasterPassword string `json:"master_password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// UserResponse mirrors a user without credentials.
type UserResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Role        domain.UserRole `json:"role"`
	CompanyName string          `json:"company_name,omitempty"`
}

// AddDeveloperRequest payload for admin developer creation.
type AddDeveloperRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest payload; nil fields are left unchanged.
type UpdateUserRequest struct {
	Name        *string          `json:"name,omitempty"`
	Email       *string          `json:"email,omitempty"`
	Password    *string          `json:"password,omitempty"`
	Role        *domain.UserRole `json:"role,omitempty"`
	CompanyName *string          `json:"company_name,omitempty"`
}
