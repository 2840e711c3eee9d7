package middlewares

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encodingdb-backend/ingest"
)

func errorApp(h fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", h)
	return app
}

func TestErrorHandlerTaxonomy(t *testing.T) {
	t.Run("field errors are 400 with per-field detail", func(t *testing.T) {
		app := errorApp(func(c *fiber.Ctx) error {
			return &ingest.FieldErrors{Fields: map[string]string{"fps": "required"}}
		})
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		var body struct {
			Errors map[string]string `json:"errors"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "required", body.Errors["fps"])
	})

	t.Run("validator errors are 422", func(t *testing.T) {
		app := errorApp(func(c *fiber.Ctx) error {
			var req struct {
				Name string `json:"name" validate:"required"`
			}
			return ingest.ValidateStruct(&req)
		})
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("fiber errors keep their status", func(t *testing.T) {
		app := errorApp(func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusConflict, "replay_detected")
		})
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})

	t.Run("unknown errors are sanitized to 500", func(t *testing.T) {
		app := errorApp(func(c *fiber.Ctx) error {
			return assert.AnError
		})
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

		var body struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "internal server error", body.Message)
	})
}
