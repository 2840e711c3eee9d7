package middlewares

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"encodingdb-backend/ingest"
)

// ErrorHandler centralizes error responses and keeps bodies sanitized.
// Validation problems come back with field-level detail; everything
// unexpected is logged server-side and surfaced as a generic failure.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Field-level validation outcome (caller-correctable, not a failure).
	if fe, ok := err.(*ingest.FieldErrors); ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  fe.Fields,
		})
	}
	if ve, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(ve))
		for _, f := range ve {
			out[f.Field()] = f.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// Fiber errors carry their own status (auth denials, conflicts, 405s,
	// oversized bodies).
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	log.WithFields(log.Fields{
		"path":   c.Path(),
		"method": c.Method(),
		"error":  err,
	}).Error("internal error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}
