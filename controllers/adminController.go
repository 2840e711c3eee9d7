package controllers

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"encodingdb-backend/config"
	"encodingdb-backend/middlewares"
)

// AdminLogin exchanges the configured admin password for a session JWT
// protecting the credential-management surface.
func AdminLogin(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if cfg.AdminPassHash == "" {
			return fiber.NewError(fiber.StatusServiceUnavailable, "admin surface not configured")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(cfg.AdminPassHash), []byte(req.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}

		token, err := middlewares.GenerateAdminJWT(cfg)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"token": token})
	}
}
