package model

import (
	"time"
)

// Role is the user's access level. Roles form a strict hierarchy:
// SUPERADMIN > ADMIN > USER.
type Role string

const (
	RoleSuperAdmin Role = "SUPERADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleUser       Role = "USER"
)

// roleLevel orders roles for hierarchy checks
var roleLevel = map[Role]int{
	RoleUser:       1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// IsValid reports whether the role is one of the known roles
func (r Role) IsValid() bool {
	_, ok := roleLevel[r]
	return ok
}

// AtLeast reports whether the role grants at least the access of min.
// Unknown roles never satisfy any requirement.
func (r Role) AtLeast(min Role) bool {
	lvl, ok := roleLevel[r]
	if !ok {
		return false
	}
	minLvl, ok := roleLevel[min]
	if !ok {
		return false
	}
	return lvl >= minLvl
}

// User represents an account in the school portal
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName  string    `gorm:"not null" json:"display_name"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	PasswordHash string    `gorm:"not null" json:"-"` // Never expose password in JSON

	// Set for accounts created with a derived default password; forces a
	// password change on first login.
	MustChangePassword bool `gorm:"default:false" json:"must_change_password"`

	// Student profile fields. Optional for admin accounts.
	Class            string     `gorm:"type:varchar(50)" json:"class,omitempty"`
	Roll             string     `gorm:"type:varchar(20)" json:"roll,omitempty"`
	DOB              *time.Time `json:"dob,omitempty"`
	FatherName       string     `gorm:"type:varchar(255)" json:"father_name,omitempty"`
	MotherName       string     `gorm:"type:varchar(255)" json:"mother_name,omitempty"`
	ClassTeacherName string     `gorm:"type:varchar(255)" json:"class_teacher_name,omitempty"`

	// Relationships
	Chats    []Chat    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Messages []Message `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
