package model

import (
	"time"
)

// Settings is the singleton application settings row. It is created on first
// access from environment defaults.
type Settings struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SchoolName      string    `gorm:"type:varchar(255);not null" json:"school_name"`
	ThemeDefault    string    `gorm:"type:varchar(50);not null;default:'dark'" json:"theme_default"`
	RetentionMonths int       `gorm:"not null;default:12" json:"retention_months"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for Settings
func (Settings) TableName() string {
	return "settings"
}
