package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"encodingdb-backend/database"
	"encodingdb-backend/ingest"
	"encodingdb-backend/models"
)

// keyPrefix marks plaintext secrets so leaked keys are recognizable in scans.
const keyPrefix = "edb_"

type createKeyRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=128"`
	UserEmail       string `json:"userEmail" validate:"omitempty,email,max=255"`
	RateLimitPerMin *int   `json:"rateLimitPerMin" validate:"omitempty,min=1"`
	RateLimitPerDay *int   `json:"rateLimitPerDay" validate:"omitempty,min=1"`
}

// CreateAPIKey mints a credential. The plaintext secret appears in this
// response and nowhere else.
func CreateAPIKey(c *fiber.Ctx) error {
	var req createKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := ingest.ValidateStruct(&req); err != nil {
		return err
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return err
	}
	secret := keyPrefix + hex.EncodeToString(buf)

	key := models.APIKey{
		Name:            req.Name,
		UserEmail:       req.UserEmail,
		Status:          models.KeyStatusActive,
		RateLimitPerMin: req.RateLimitPerMin,
		RateLimitPerDay: req.RateLimitPerDay,
	}
	if err := key.SetSecret(secret); err != nil {
		return err
	}
	if err := database.DB.Create(&key).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"apiKey": key,
		"secret": secret,
	})
}

func ListAPIKeys(c *fiber.Ctx) error {
	var keys []models.APIKey
	if err := database.DB.Order("created_at DESC").Find(&keys).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"apiKeys": keys})
}

// RevokeAPIKey disables a credential; revocation is mutual consent, a ban is
// not. Neither deletes the row.
func RevokeAPIKey(c *fiber.Ctx) error {
	return setKeyStatus(c, models.KeyStatusRevoked)
}

func BanAPIKey(c *fiber.Ctx) error {
	return setKeyStatus(c, models.KeyStatusBanned)
}

func setKeyStatus(c *fiber.Ctx, status string) error {
	id := c.Params("id")

	var key models.APIKey
	if err := database.DB.Where("id = ?", id).First(&key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "api key not found")
		}
		return err
	}

	if err := database.DB.Model(&key).Update("status", status).Error; err != nil {
		return err
	}
	key.Status = status
	return c.JSON(fiber.Map{"apiKey": key})
}
