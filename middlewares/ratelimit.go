package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"encodingdb-backend/config"
)

// GlobalLimiter is the coarse sliding window applied to all traffic except
// health checks, keyed by client IP.
func GlobalLimiter(cfg *config.Config) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.GlobalRateMax,
		Expiration: cfg.GlobalRateWindow,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
		LimitReached: limitReached,
	})
}

// IngestLimiter is the stricter window applied to the ingest path only.
func IngestLimiter(cfg *config.Config) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:          cfg.IngestRateMax,
		Expiration:   cfg.IngestRateWindow,
		LimitReached: limitReached,
	})
}

func limitReached(c *fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"message": "too many requests",
	})
}
