package app

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"schoolportal/api"
	"schoolportal/config"
	"schoolportal/database"
	"schoolportal/router"
	"schoolportal/services"
	"schoolportal/services/cron"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return fmt.Errorf("failed to get GORM DB instance")
	}

	// Seed the super admin account and default settings
	if err := database.NewSeeder(db).SeedAll(); err != nil {
		return err
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" { // Default to enabled
		settingsService := services.NewSettingsService(db, services.SettingsDefaults{
			SchoolName:      getEnv.SCHOOL_NAME,
			ThemeDefault:    getEnv.THEME,
			RetentionMonths: getEnv.DATA_RETENTION_MONTHS,
		})
		purgeService := services.NewPurgeService(db, settingsService)

		cronManager = cron.NewCronManager(db, purgeService)
		if err := cronManager.Start(); err != nil {
			print("Warning: Failed to start cron jobs\n")
			print("Error: ", err.Error(), "\n")
			// Don't fail the app, just log the warning
		}
	}

	// Defer closing DB and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Setup routes; security middleware is attached inside
	router.SetupRoutes(app, store, getEnv)

	return server.Run()
}
