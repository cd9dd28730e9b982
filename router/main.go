package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolportal/config"
	"schoolportal/database"
	"schoolportal/handlers"
	admin_handlers "schoolportal/handlers/admin"
	auth_handlers "schoolportal/handlers/auth"
	chat_handlers "schoolportal/handlers/chat"
	report_handlers "schoolportal/handlers/report"
	user_handlers "schoolportal/handlers/user"
	"schoolportal/model"
	"schoolportal/services"
	"schoolportal/services/openai"
	"schoolportal/utils"
	"schoolportal/utils/auth"
	"schoolportal/utils/cache"
	"schoolportal/utils/middleware"
	"schoolportal/utils/validation"
)

// sessionLifetime is how long a login session stays valid
const sessionLifetime = 7 * 24 * time.Hour

// SetupRoutes wires all services, handlers and routes onto the app
func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnviornmentVariable) {
	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "schoolportal-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: env.JWT_SECRET,
		Expiry: sessionLifetime,
		Issuer: jwtIssuer,
	})

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis backs brute force protection; the portal still works without it
	redisURL := env.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	var bruteForce *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForce = middleware.NewBruteForceProtection(redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)
	validator := validation.NewValidator()

	// Services
	aiClient := openai.NewClient(openai.Config{
		APIKey:  env.OPENAI_API_KEY,
		BaseURL: env.OPENAI_BASE_URL,
	})
	userService := services.NewUserService(db)
	chatService := services.NewChatService(db, aiClient, env.OPENAI_MODEL)
	reportService := services.NewReportService(db)
	settingsService := services.NewSettingsService(db, services.SettingsDefaults{
		SchoolName:      env.SCHOOL_NAME,
		ThemeDefault:    env.THEME,
		RetentionMonths: env.DATA_RETENTION_MONTHS,
	})
	purgeService := services.NewPurgeService(db, settingsService)

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, userService, bruteForce)
	userHandler := user_handlers.NewUserHandler(userService, validator)
	adminHandler := admin_handlers.NewAdminHandler(userService, settingsService, purgeService, validator)
	chatHandler := chat_handlers.NewChatHandler(chatService)
	reportHandler := report_handlers.NewReportHandler(reportService)

	// Security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:5173"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 300,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	api := app.Group("/api")
	api.Get("/health", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// Auth routes
	authGroup := api.Group("/auth")
	if bruteForce != nil {
		authGroup.Post("/login", bruteForce.CheckAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}
	authGroup.Post("/logout", authHandler.Logout)
	authGroup.Get("/me", authMiddleware.Required(), authHandler.Me)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// User management (ADMIN and above)
	users := api.Group("/users", authMiddleware.Required(), authMiddleware.RequireRole(model.RoleAdmin))
	users.Post("/", userHandler.Create)
	users.Get("/", userHandler.List)
	users.Delete("/:id", userHandler.Delete)
	users.Post("/:id/reset-password", userHandler.ResetPassword)
	users.Post("/batch", userHandler.BatchImport)

	// Administration (SUPERADMIN only)
	admin := api.Group("/admin", authMiddleware.Required(), authMiddleware.RequireRole(model.RoleSuperAdmin))
	admin.Post("/", adminHandler.CreateAdmin)
	admin.Get("/", adminHandler.ListAdmins)
	admin.Get("/settings", adminHandler.GetSettings)
	admin.Put("/settings", adminHandler.UpdateSettings)
	admin.Post("/purge", adminHandler.TriggerPurge)
	admin.Delete("/:id", adminHandler.DeleteAdmin)

	// Chats (any authenticated user)
	chats := api.Group("/chats", authMiddleware.Required())
	chats.Get("/", chatHandler.List)
	chats.Post("/", chatHandler.Create)
	chats.Get("/:chatId", chatHandler.Get)
	chats.Delete("/:chatId", chatHandler.Delete)
	chats.Post("/:chatId/message", chatHandler.SendMessage)

	// Reports (ADMIN and above)
	reports := api.Group("/reports", authMiddleware.Required(), authMiddleware.RequireRole(model.RoleAdmin))
	reports.Get("/usage", reportHandler.Usage)
	reports.Get("/stats", reportHandler.Stats)
}
