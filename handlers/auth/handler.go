package auth

import (
	"errors"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolportal/model"
	"schoolportal/services"
	"schoolportal/utils/auth"
	"schoolportal/utils/middleware"
	"schoolportal/utils/response"
)

// AuthHandler handles login sessions
type AuthHandler struct {
	db         *gorm.DB
	jwtManager *auth.JWTManager
	users      *services.UserService
	bruteForce *middleware.BruteForceProtection
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *auth.JWTManager, users *services.UserService, bruteForce *middleware.BruteForceProtection) *AuthHandler {
	return &AuthHandler{
		db:         db,
		jwtManager: jwtManager,
		users:      users,
		bruteForce: bruteForce,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the user shape returned to clients
type UserResponse struct {
	ID                 uint       `json:"id"`
	Username           string     `json:"username"`
	DisplayName        string     `json:"display_name"`
	Role               model.Role `json:"role"`
	Class              string     `json:"class,omitempty"`
	Roll               string     `json:"roll,omitempty"`
	MustChangePassword bool       `json:"must_change_password"`
	CreatedAt          time.Time  `json:"created_at"`
}

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:                 user.ID,
		Username:           user.Username,
		DisplayName:        user.DisplayName,
		Role:               user.Role,
		Class:              user.Class,
		Roll:               user.Roll,
		MustChangePassword: user.MustChangePassword,
		CreatedAt:          user.CreatedAt,
	}
}

// Login verifies credentials and sets the session cookie. Invalid username
// and invalid password are indistinguishable to the caller.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return response.BadRequest(c, "Username and password are required")
	}

	ip := c.IP()

	var user model.User
	if err := h.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if h.bruteForce != nil {
			h.bruteForce.RecordFailedAttempt(c.Context(), ip)
		}
		return response.Unauthorized(c, "Invalid credentials")
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		if h.bruteForce != nil {
			h.bruteForce.RecordFailedAttempt(c.Context(), ip)
		}
		return response.Unauthorized(c, "Invalid credentials")
	}

	if h.bruteForce != nil {
		h.bruteForce.RecordSuccessfulAttempt(c.Context(), ip)
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate token")
	}

	h.setSessionCookie(c, token)

	return response.Success(c, fiber.Map{
		"user": toUserResponse(&user),
	})
}

// Logout clears the session cookie. The token itself simply expires.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     auth.TokenCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   isProduction(),
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	})

	return response.SuccessWithMessage(c, "Logged out successfully", nil)
}

// Me returns the authenticated user
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	return response.Success(c, fiber.Map{
		"user": toUserResponse(user),
	})
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// ChangePassword replaces the caller's password after verifying the
// current one. Clears the forced-change flag set by account provisioning.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return response.BadRequest(c, "Current and new password are required")
	}

	err := h.users.ChangePassword(c.Context(), userID, req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, auth.ErrPasswordMismatch):
		return response.Unauthorized(c, "Current password is incorrect")
	case errors.Is(err, services.ErrUserNotFound):
		return response.NotFound(c, "User not found")
	case err != nil:
		if len(req.NewPassword) < auth.MinPasswordLength {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to change password")
	}

	return response.SuccessWithMessage(c, "Password changed successfully", nil)
}

// setSessionCookie issues the HTTP-only session cookie
func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.TokenCookieName,
		Value:    token,
		Expires:  time.Now().Add(h.jwtManager.Expiry()),
		HTTPOnly: true,
		Secure:   isProduction(),
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	})
}

func isProduction() bool {
	return os.Getenv("GO_ENV") == "production"
}
