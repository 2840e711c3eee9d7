package routes

import (
	"github.com/gofiber/fiber/v2"

	"encodingdb-backend/config"
	"encodingdb-backend/controllers"
	"encodingdb-backend/ingest"
	"encodingdb-backend/middlewares"
)

// Deps carries the pipeline services the routes wire together.
type Deps struct {
	Cfg      *config.Config
	Gate     *middlewares.DiskGate
	Scorer   *ingest.Scorer
	Tokens   *ingest.TokenService
	Verifier *ingest.SignatureVerifier
	Quota    *ingest.QuotaTracker
}

// Register wires all HTTP routes. The ingest chain runs strictly forward:
// disk gate, ingest limiter, credential resolution, per-key quota, mode
// authentication, then the pipeline tail in the controller.
func Register(app *fiber.App, d Deps) {
	app.Get("/healthz", controllers.Healthz)

	ingestChain := []fiber.Handler{
		d.Gate.Middleware(),
		middlewares.IngestLimiter(d.Cfg),
		middlewares.ResolveAPIKey(d.Cfg),
		middlewares.KeyQuota(d.Quota),
		middlewares.IngestAuth(d.Cfg, d.Verifier, d.Tokens),
		controllers.SubmitHandler(d.Cfg, d.Scorer),
	}
	app.Post("/submit", ingestChain...)
	app.All("/submit", methodNotAllowed)

	// Token issuance, plus an alias under the ingest prefix for proxies that
	// only forward /submit*.
	app.Get("/submit-token", controllers.IssueTokenHandler(d.Tokens))
	app.Get("/submit/token", controllers.IssueTokenHandler(d.Tokens))

	// Administrative credential management (producer of API keys).
	admin := app.Group("/api/admin")
	admin.Post("/login", controllers.AdminLogin(d.Cfg))

	keys := admin.Group("/keys", middlewares.RequireAdmin(d.Cfg))
	keys.Post("/", controllers.CreateAPIKey)
	keys.Get("/", controllers.ListAPIKeys)
	keys.Put("/:id/revoke", controllers.RevokeAPIKey)
	keys.Put("/:id/ban", controllers.BanAPIKey)
}

func methodNotAllowed(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAllow, fiber.MethodPost)
	return fiber.NewError(fiber.StatusMethodNotAllowed, "method not allowed, use POST")
}
