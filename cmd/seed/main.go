package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"schoolportal/database"
)

// Standalone seeder. Creates the bootstrap super admin and the default
// settings row without starting the API server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	gormDB := store.GetDB().(*gorm.DB)

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("School Portal - Database Seeding")
	fmt.Println(separator)

	if err := database.NewSeeder(gormDB).SeedAll(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	fmt.Println(separator)
	fmt.Println("Seeding completed successfully")
	fmt.Println()
	fmt.Println("Super admin credentials come from SUPERADMIN_USERNAME and")
	fmt.Println("SUPERADMIN_PASSWORD environment variables (defaults: admin/admin123).")
}
