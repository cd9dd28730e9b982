package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"schoolportal/config"
	"schoolportal/model"
	"schoolportal/utils/auth"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	if err := s.SeedSuperAdmin(); err != nil {
		return fmt.Errorf("failed to seed super admin: %w", err)
	}

	if err := s.SeedSettings(); err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedSuperAdmin creates the bootstrap super-admin account if it does not
// already exist. Credentials come from SUPERADMIN_USERNAME/SUPERADMIN_PASSWORD.
func (s *Seeder) SeedSuperAdmin() error {
	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	username := getEnv.SUPERADMIN_USERNAME
	if username == "" {
		username = "admin"
	}
	password := getEnv.SUPERADMIN_PASSWORD
	if password == "" {
		password = "admin123"
	}

	var count int64
	if err := s.db.Model(&model.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Super admin already exists, skipping seed")
		return nil
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	superAdmin := model.User{
		Username:     username,
		DisplayName:  "Super Administrator",
		Role:         model.RoleSuperAdmin,
		PasswordHash: passwordHash,
	}

	if err := s.db.Create(&superAdmin).Error; err != nil {
		return err
	}

	log.Printf("Super admin %q created. Change the password after first login.", username)
	return nil
}

// SeedSettings ensures the singleton settings row exists
func (s *Seeder) SeedSettings() error {
	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&model.Settings{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	settings := model.Settings{
		SchoolName:      getEnv.SCHOOL_NAME,
		ThemeDefault:    getEnv.THEME,
		RetentionMonths: getEnv.DATA_RETENTION_MONTHS,
	}

	return s.db.Create(&settings).Error
}
