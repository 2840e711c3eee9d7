package middlewares

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"encodingdb-backend/config"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// GenerateAdminJWT signs a short-lived HS256 session token for the
// administrative credential-management surface.
func GenerateAdminJWT(cfg *config.Config) (string, error) {
	if cfg.AdminJWTSecret == "" {
		return "", errors.New("admin JWT secret not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(now.Add(12 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.AdminJWTSecret))
}

// RequireAdmin validates the admin bearer token, enforcing HS256.
func RequireAdmin(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.AdminJWTSecret == "" {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "admin surface not configured",
			})
		}

		h := c.Get(authHeader)
		if h == "" || !strings.HasPrefix(strings.ToLower(h), strings.ToLower(bearerPrefix)) {
			return fiber.NewError(fiber.StatusUnauthorized, "missing/invalid Authorization header")
		}
		raw := strings.TrimSpace(h[len(bearerPrefix):])

		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		var claims jwt.RegisteredClaims
		token, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(cfg.AdminJWTSecret), nil
		})
		if err != nil || !token.Valid || claims.Subject != "admin" {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}
		return c.Next()
	}
}
