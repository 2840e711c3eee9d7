package middlewares

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"encodingdb-backend/config"
	"encodingdb-backend/ingest"
)

// Ingest auth headers. The API key header name is configurable; these are not.
const (
	HeaderTimestamp = "X-Timestamp"
	HeaderSignature = "X-Signature"
	HeaderToken     = "X-Ingest-Token"
	HeaderNonce     = "X-Ingest-Nonce"
)

// IngestAuth authenticates POST /submit under the configured mode.
//
//   - public: anonymous traffic is allowed; a presented token must validate.
//   - signed: a valid HMAC signature is mandatory.
//   - hybrid: signed first, then token, then allow (compatibility mode).
func IngestAuth(cfg *config.Config, verifier *ingest.SignatureVerifier, tokens *ingest.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch cfg.Mode {
		case config.ModeSigned:
			if err := verifier.Verify(c.UserContext(), c.Get(HeaderTimestamp), c.Get(HeaderSignature), c.Body()); err != nil {
				return authError(err)
			}
			return c.Next()

		case config.ModeHybrid:
			if verifier.Configured() && c.Get(HeaderSignature) != "" {
				if err := verifier.Verify(c.UserContext(), c.Get(HeaderTimestamp), c.Get(HeaderSignature), c.Body()); err == nil {
					return c.Next()
				}
			}
			if token := c.Get(HeaderToken); token != "" {
				if err := tokens.Consume(c.UserContext(), token, c.IP(), c.Get(HeaderNonce)); err != nil {
					return authError(err)
				}
			}
			// Neither scheme applies: allow, best-effort.
			return c.Next()

		default: // public
			if token := c.Get(HeaderToken); token != "" {
				if err := tokens.Consume(c.UserContext(), token, c.IP(), c.Get(HeaderNonce)); err != nil {
					return authError(err)
				}
			}
			return c.Next()
		}
	}
}

// authError maps authentication failures onto the wire taxonomy: conflicts
// (replays, reused tokens) get 409 so clients know retrying the same
// credential is unsafe; everything else is a terse 401.
func authError(err error) error {
	switch {
	case errors.Is(err, ingest.ErrSignatureReplay), errors.Is(err, ingest.ErrTokenUsed):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ingest.ErrNoSecret),
		errors.Is(err, ingest.ErrMissingSignature),
		errors.Is(err, ingest.ErrBadTimestamp),
		errors.Is(err, ingest.ErrTimestampSkew),
		errors.Is(err, ingest.ErrBadSignature),
		errors.Is(err, ingest.ErrTokenUnknown),
		errors.Is(err, ingest.ErrTokenIPMismatch),
		errors.Is(err, ingest.ErrBadProofOfWork):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	default:
		return err
	}
}
