package middlewares

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"encodingdb-backend/config"
	"encodingdb-backend/database"
	"encodingdb-backend/ingest"
	"encodingdb-backend/models"
)

// localAPIKey is the fiber.Ctx local under which the resolved credential is
// stashed for downstream middlewares and the submit controller.
const localAPIKey = "apiKey"

// ResolveAPIKey looks up an optional credential header. Anonymous requests
// pass through untouched; a presented key must resolve to an active
// credential. Lookup is by SHA-256 fingerprint, verification by bcrypt.
func ResolveAPIKey(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := c.Get(cfg.APIKeyHeader)
		if secret == "" {
			return c.Next()
		}

		var key models.APIKey
		err := database.DB.Where("fingerprint = ?", models.SecretFingerprint(secret)).First(&key).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return fiber.NewError(fiber.StatusUnauthorized, "invalid_api_key")
			}
			return err
		}
		if err := key.CompareSecret(secret); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid_api_key")
		}

		switch key.Status {
		case models.KeyStatusBanned:
			return fiber.NewError(fiber.StatusUnauthorized, "api_key_banned")
		case models.KeyStatusRevoked:
			return fiber.NewError(fiber.StatusUnauthorized, "api_key_revoked")
		}

		c.Locals(localAPIKey, &key)
		return c.Next()
	}
}

// APIKeyFromCtx returns the credential resolved for this request, if any.
func APIKeyFromCtx(c *fiber.Ctx) *models.APIKey {
	key, _ := c.Locals(localAPIKey).(*models.APIKey)
	return key
}

// KeyQuota enforces the per-credential minute/day budgets and, after a
// successful request, updates usage bookkeeping off the request path.
func KeyQuota(quota *ingest.QuotaTracker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := APIKeyFromCtx(c)
		if key == nil {
			return c.Next()
		}

		if err := quota.Allow(c.UserContext(), key); err != nil {
			if qe, ok := err.(*ingest.QuotaError); ok {
				c.Set(fiber.HeaderRetryAfter, retryAfterSeconds(qe.RetryAfter))
				return fiber.NewError(fiber.StatusTooManyRequests, qe.Error())
			}
			return err
		}

		if err := c.Next(); err != nil {
			return err
		}

		// Last-used/usage-count bookkeeping must never block the response.
		keyID := key.Id
		go func() {
			now := time.Now()
			err := database.DB.Model(&models.APIKey{}).Where("id = ?", keyID).
				Updates(map[string]any{
					"usage_count":  gorm.Expr("usage_count + 1"),
					"last_used_at": &now,
				}).Error
			if err != nil {
				log.WithFields(log.Fields{"apiKey": keyID, "error": err}).Warn("api key usage bookkeeping failed")
			}
		}()
		return nil
	}
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
