package controllers

import (
	"github.com/gofiber/fiber/v2"

	"encodingdb-backend/ingest"
)

// IssueTokenHandler serves GET /submit-token (and its proxy-prefix alias):
// a fresh single-use token bound to the caller's IP, its expiry, and the
// active proof-of-work difficulty (0 when disabled).
func IssueTokenHandler(tokens *ingest.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, expiresAt, err := tokens.Issue(c.UserContext(), c.IP())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"token":         token,
			"expiresAt":     expiresAt.Unix(),
			"powDifficulty": tokens.Difficulty(),
		})
	}
}
