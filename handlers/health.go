package handlers

import (
	"context"
	"time"

	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/utils/response"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// WelcomeMessage is returned by the API root
const WelcomeMessage = "Welcome to Gamification API V1"

func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := store.HealthCheck(ctx); err != nil {
		log.Errorf("health check failed: %v", err)
		return response.Failure(c, "Database unavailable", fiber.StatusServiceUnavailable)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func HandleWelcome(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"message": WelcomeMessage,
	})
}
