// Package ratelimit throttles API requests per client IP, optionally
// sharing counters across instances through Redis.
package ratelimit

import (
	"eshop/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

const limitMessage = "Too many accounts created from this IP, please try again after an hour"

// New returns the limiter middleware. A nil storage keeps counters in
// process memory.
func New(cfg config.Limiter, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Window,
		Storage:    storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status":  "fail",
				"message": limitMessage,
			})
		},
	})
}
