package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"schoolportal/model"
	"schoolportal/utils/auth"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrSuperAdminProtected = errors.New("cannot delete super admin")
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// DeriveUsername builds the canonical username for a student from class and
// roll number: lowercased class with whitespace removed, followed by the
// roll, with any remaining non-alphanumeric characters stripped.
// "Class 5A" + "23" becomes "class5a23".
func DeriveUsername(class, roll string) string {
	base := strings.ToLower(stripWhitespace(class)) + roll
	return nonAlnum.ReplaceAllString(base, "")
}

// DeriveDefaultPassword builds the initial password for a student account:
// the date of birth digits (dashes removed from YYYY-MM-DD) followed by the
// first available guardian name lowercased with whitespace removed, cut to
// 12 characters.
func DeriveDefaultPassword(dob, fatherName, motherName, classTeacherName string) string {
	dobPart := strings.ReplaceAll(dob, "-", "")

	namePart := fatherName
	if namePart == "" {
		namePart = motherName
	}
	if namePart == "" {
		namePart = classTeacherName
	}
	if namePart == "" {
		namePart = "default"
	}
	namePart = strings.ToLower(stripWhitespace(namePart))

	// Cut by rune so a multibyte guardian name never splits mid-character
	return truncateRunes(dobPart+namePart, 12)
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// dobString formats a user's date of birth the way password derivation
// expects it, empty when unset.
func dobString(dob *time.Time) string {
	if dob == nil {
		return ""
	}
	return dob.Format("2006-01-02")
}

// UserService manages portal accounts
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// CreateUserInput holds fields for creating a single account
type CreateUserInput struct {
	Username         string `json:"username" validate:"required,min=3,max=50"`
	DisplayName      string `json:"displayName" validate:"required,min=1,max=255"`
	Role             string `json:"role" validate:"required,oneof=USER ADMIN"`
	Class            string `json:"class"`
	Roll             string `json:"roll"`
	DOB              string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	FatherName       string `json:"fatherName"`
	MotherName       string `json:"motherName"`
	ClassTeacherName string `json:"classTeacherName"`
}

// CreateUser creates an account with a derived default password and returns
// the user together with that password so the admin can hand it out.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*model.User, string, error) {
	taken, err := s.usernameExists(ctx, input.Username)
	if err != nil {
		return nil, "", err
	}
	if taken {
		return nil, "", ErrUsernameTaken
	}

	defaultPassword := DeriveDefaultPassword(input.DOB, input.FatherName, input.MotherName, input.ClassTeacherName)
	hash, err := auth.HashPassword(defaultPassword)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	var dob *time.Time
	if input.DOB != "" {
		parsed, err := time.Parse("2006-01-02", input.DOB)
		if err != nil {
			return nil, "", fmt.Errorf("invalid dob, expected YYYY-MM-DD: %w", err)
		}
		dob = &parsed
	}

	user := model.User{
		Username:           input.Username,
		DisplayName:        input.DisplayName,
		Role:               model.Role(input.Role),
		PasswordHash:       hash,
		MustChangePassword: true,
		Class:              input.Class,
		Roll:               input.Roll,
		DOB:                dob,
		FatherName:         input.FatherName,
		MotherName:         input.MotherName,
		ClassTeacherName:   input.ClassTeacherName,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	return &user, defaultPassword, nil
}

// ListUsersFilter narrows and pages the user list
type ListUsersFilter struct {
	Role  string
	Class string
	Page  int
	Limit int
}

// UserListEntry is a user row in the admin list view. DefaultPassword is
// only populated for SUPERADMIN callers, and only for accounts that still
// carry their derived password.
type UserListEntry struct {
	model.User
	DefaultPassword string `json:"default_password,omitempty"`
}

// ListUsers returns a page of users, newest first. When includePasswords is
// set (SUPERADMIN only) each entry that has not changed its password yet
// carries the re-derived default password.
func (s *UserService) ListUsers(ctx context.Context, filter ListUsersFilter, includePasswords bool) ([]UserListEntry, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}

	query := s.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Class != "" {
		query = query.Where("class = ?", filter.Class)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []model.User
	if err := query.
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	entries := make([]UserListEntry, 0, len(users))
	for _, user := range users {
		entry := UserListEntry{User: user}
		if includePasswords && user.MustChangePassword {
			entry.DefaultPassword = DeriveDefaultPassword(
				dobString(user.DOB), user.FatherName, user.MotherName, user.ClassTeacherName)
		}
		entries = append(entries, entry)
	}

	return entries, total, nil
}

// GetUser loads a single user by ID
func (s *UserService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// DeleteUser removes an account and its chats and messages. SUPERADMIN
// accounts can never be deleted.
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == model.RoleSuperAdmin {
		return ErrSuperAdminProtected
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.Chat{}).Error; err != nil {
			return fmt.Errorf("failed to delete chats: %w", err)
		}
		if err := tx.Delete(user).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}

// ResetPassword re-derives the account's default password, stores its hash
// and forces a change on next login. Returns the plaintext so the admin can
// hand it to the student.
func (s *UserService) ResetPassword(ctx context.Context, id uint) (string, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return "", err
	}

	defaultPassword := DeriveDefaultPassword(
		dobString(user.DOB), user.FatherName, user.MotherName, user.ClassTeacherName)
	hash, err := auth.HashPassword(defaultPassword)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"password_hash":        hash,
		"must_change_password": true,
	}).Error; err != nil {
		return "", fmt.Errorf("failed to reset password: %w", err)
	}

	return defaultPassword, nil
}

// ChangePassword verifies the current password and replaces it
func (s *UserService) ChangePassword(ctx context.Context, id uint, currentPassword, newPassword string) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if err := auth.VerifyPassword(user.PasswordHash, currentPassword); err != nil {
		return auth.ErrPasswordMismatch
	}
	if !auth.IsPasswordValid(newPassword) {
		return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"password_hash":        hash,
		"must_change_password": false,
	}).Error
}

// CreateAdmin creates an ADMIN account with an explicit password
func (s *UserService) CreateAdmin(ctx context.Context, username, displayName, password string) (*model.User, error) {
	taken, err := s.usernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}
	if !auth.IsPasswordValid(password) {
		return nil, fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := model.User{
		Username:     username,
		DisplayName:  displayName,
		Role:         model.RoleAdmin,
		PasswordHash: hash,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	return &admin, nil
}

// ListAdmins returns all ADMIN accounts, newest first
func (s *UserService) ListAdmins(ctx context.Context) ([]model.User, error) {
	var admins []model.User
	if err := s.db.WithContext(ctx).
		Where("role = ?", model.RoleAdmin).
		Order("created_at DESC").
		Find(&admins).Error; err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return admins, nil
}

func (s *UserService) usernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}
