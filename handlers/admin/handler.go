package admin

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"schoolportal/model"
	"schoolportal/services"
	"schoolportal/utils/response"
	"schoolportal/utils/validation"
)

// AdminHandler handles SUPERADMIN-only administration endpoints
type AdminHandler struct {
	users     *services.UserService
	settings  *services.SettingsService
	purge     *services.PurgeService
	validator *validation.Validator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(users *services.UserService, settings *services.SettingsService, purge *services.PurgeService, validator *validation.Validator) *AdminHandler {
	return &AdminHandler{
		users:     users,
		settings:  settings,
		purge:     purge,
		validator: validator,
	}
}

// CreateAdminRequest represents an admin creation request
type CreateAdminRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	DisplayName string `json:"displayName" validate:"required,min=1,max=255"`
	Password    string `json:"password" validate:"required,min=6"`
}

// CreateAdmin creates an ADMIN account with an explicit password
func (h *AdminHandler) CreateAdmin(c *fiber.Ctx) error {
	var req CreateAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	admin, err := h.users.CreateAdmin(c.Context(), req.Username, req.DisplayName, req.Password)
	switch {
	case errors.Is(err, services.ErrUsernameTaken):
		return response.Conflict(c, "Username already exists")
	case err != nil:
		return response.InternalServerError(c, "Failed to create admin")
	}

	return response.Created(c, fiber.Map{"admin": admin})
}

// ListAdmins returns all ADMIN accounts
func (h *AdminHandler) ListAdmins(c *fiber.Ctx) error {
	admins, err := h.users.ListAdmins(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list admins")
	}

	return response.Success(c, fiber.Map{"admins": admins})
}

// DeleteAdmin removes an ADMIN account. Regular user accounts go through
// the user management endpoints instead.
func (h *AdminHandler) DeleteAdmin(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid admin ID")
	}

	target, err := h.users.GetUser(c.Context(), uint(id))
	if errors.Is(err, services.ErrUserNotFound) {
		return response.NotFound(c, "Admin not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load admin")
	}
	if target.Role != model.RoleAdmin {
		return response.BadRequest(c, "Account is not an admin")
	}

	err = h.users.DeleteUser(c.Context(), uint(id))
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return response.NotFound(c, "Admin not found")
	case errors.Is(err, services.ErrSuperAdminProtected):
		return response.Forbidden(c, "Cannot delete super admin")
	case err != nil:
		return response.InternalServerError(c, "Failed to delete admin")
	}

	return response.SuccessWithMessage(c, "Admin deleted successfully", nil)
}

// GetSettings returns the application settings, creating them from
// environment defaults on first access
func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.settings.GetOrCreate(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to load settings")
	}

	return response.Success(c, fiber.Map{"settings": settings})
}

// UpdateSettings applies a partial settings update
func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	var input services.UpdateSettingsInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&input); err != nil {
		return response.ValidationError(c, err)
	}

	settings, err := h.settings.Update(c.Context(), input)
	if err != nil {
		return response.InternalServerError(c, "Failed to update settings")
	}

	return response.SuccessWithMessage(c, "Settings updated successfully", fiber.Map{
		"settings": settings,
	})
}

// TriggerPurge runs the retention purge immediately. Deleted history is
// gone for good.
func (h *AdminHandler) TriggerPurge(c *fiber.Ctx) error {
	result, err := h.purge.Run(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to run purge")
	}

	return response.SuccessWithMessage(c, "Purge completed", result)
}
