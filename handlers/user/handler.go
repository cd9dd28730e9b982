package user

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"schoolportal/model"
	"schoolportal/services"
	"schoolportal/utils/middleware"
	"schoolportal/utils/response"
	"schoolportal/utils/validation"
)

// UserHandler handles account management endpoints
type UserHandler struct {
	users     *services.UserService
	validator *validation.Validator
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService, validator *validation.Validator) *UserHandler {
	return &UserHandler{
		users:     users,
		validator: validator,
	}
}

// Create creates a single account with a derived default password
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var input services.CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input.DisplayName = validation.SanitizeString(input.DisplayName)
	input.FatherName = validation.SanitizeString(input.FatherName)
	input.MotherName = validation.SanitizeString(input.MotherName)
	input.ClassTeacherName = validation.SanitizeString(input.ClassTeacherName)

	if err := h.validator.ValidateStruct(&input); err != nil {
		return response.ValidationError(c, err)
	}

	user, defaultPassword, err := h.users.CreateUser(c.Context(), input)
	switch {
	case errors.Is(err, services.ErrUsernameTaken):
		return response.Conflict(c, "Username already exists")
	case err != nil:
		return response.InternalServerError(c, "Failed to create user")
	}

	return response.Created(c, fiber.Map{
		"user":             user,
		"default_password": defaultPassword,
	})
}

// List returns a filtered, paginated user list. SUPERADMIN callers also see
// the re-derived default password for accounts that have not changed theirs.
func (h *UserHandler) List(c *fiber.Ctx) error {
	role, _ := middleware.GetUserRole(c)

	filter := services.ListUsersFilter{
		Role:  c.Query("role"),
		Class: c.Query("class"),
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 50),
	}

	includePasswords := role == model.RoleSuperAdmin
	entries, total, err := h.users.ListUsers(c.Context(), filter, includePasswords)
	if err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}

	return response.Success(c, fiber.Map{
		"users":      entries,
		"pagination": response.CalculatePagination(filter.Page, filter.Limit, total),
	})
}

// Delete removes an account. SUPERADMIN accounts are protected.
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	err = h.users.DeleteUser(c.Context(), uint(id))
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return response.NotFound(c, "User not found")
	case errors.Is(err, services.ErrSuperAdminProtected):
		return response.Forbidden(c, "Cannot delete super admin")
	case err != nil:
		return response.InternalServerError(c, "Failed to delete user")
	}

	return response.SuccessWithMessage(c, "User deleted successfully", nil)
}

// ResetPassword re-derives and applies the account's default password
func (h *UserHandler) ResetPassword(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	defaultPassword, err := h.users.ResetPassword(c.Context(), uint(id))
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return response.NotFound(c, "User not found")
	case err != nil:
		return response.InternalServerError(c, "Failed to reset password")
	}

	return response.SuccessWithMessage(c, "Password reset successfully", fiber.Map{
		"default_password": defaultPassword,
	})
}

// BatchImport creates student accounts from an uploaded CSV file. Rows are
// processed independently; failures are reported per row.
func (h *UserHandler) BatchImport(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("csv")
	if err != nil {
		return response.BadRequest(c, "CSV file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.BadRequest(c, "Failed to open uploaded file")
	}
	defer file.Close()

	rows, parseErrors, err := services.ParseImportCSV(file)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	result := h.users.ImportUsers(c.Context(), rows)
	result.ErrorDetails = append(parseErrors, result.ErrorDetails...)
	result.Failed = len(result.ErrorDetails)

	return response.Success(c, result)
}
