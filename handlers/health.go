package handlers

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"schoolportal/database"
)

// HandleCheckHealth reports service and database health
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	if err := store.HealthCheck(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":      "degraded",
			"timestamp":   time.Now().Format(time.RFC3339),
			"environment": env,
			"error":       err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status":      "ok",
		"timestamp":   time.Now().Format(time.RFC3339),
		"environment": env,
	})
}
