package controllers

import "github.com/gofiber/fiber/v2"

// Healthz is the liveness probe, exempt from rate limiting.
func Healthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
