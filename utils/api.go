package utils

import (
	"github.com/gamifylearn/gamification-api/database"
	fiber "github.com/gofiber/fiber/v2"
)

// MakeHTTPHandleFunc binds a store-aware handler to a fiber route.
// Returned errors go to the app's error handler.
func MakeHTTPHandleFunc(handler func(c *fiber.Ctx, store database.Storage) error, store database.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return handler(c, store)
	}
}
