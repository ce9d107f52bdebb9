package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/metallic-erp/support-hub/internal/api/dto"
	"github.com/metallic-erp/support-hub/internal/domain"
	"github.com/metallic-erp/support-hub/internal/service"
	apperrors "github.com/metallic-erp/support-hub/pkg/util"
)

// UsersHandler manages registration, login and session endpoints.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.auth.RegisterClient(c.UserContext(), service.RegisterClientCommand{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": authResponse(result)})
}

// Login POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authResponse(result)})
}

// InternalLogin POST /auth/internal/login.
func (h *UsersHandler) InternalLogin(c *fiber.Ctx) error {
	var req dto.InternalLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.auth.InternalLogin(c.UserContext(), req.UserID, req.MasterPassword)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authResponse(result)})
}

// InternalProfiles GET /auth/internal/profiles.
func (h *UsersHandler) InternalProfiles(c *fiber.Ctx) error {
	profiles := h.auth.InternalProfiles()
	items := make([]dto.UserResponse, 0, len(profiles))
	for _, u := range profiles {
		items = append(items, userResponse(u))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Logout POST /auth/logout.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	h.auth.Logout(c.UserContext())
	return c.SendStatus(http.StatusNoContent)
}

func authResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		User:      userResponse(result.User),
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	}
}

func userResponse(u domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		CompanyName: u.CompanyName,
	}
}
