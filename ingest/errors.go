package ingest

import "errors"

// Authentication failures. Each maps to a terse machine-readable reason in
// the HTTP layer; none of them carries sensitive detail.
var (
	ErrNoSecret         = errors.New("no_shared_secret")
	ErrMissingSignature = errors.New("missing_signature")
	ErrBadTimestamp     = errors.New("invalid_timestamp")
	ErrTimestampSkew    = errors.New("timestamp_out_of_range")
	ErrBadSignature     = errors.New("invalid_signature")
	ErrSignatureReplay  = errors.New("replay_detected")

	ErrTokenUnknown    = errors.New("token_unknown_or_expired")
	ErrTokenUsed       = errors.New("token_already_used")
	ErrTokenIPMismatch = errors.New("token_ip_mismatch")
	ErrBadProofOfWork  = errors.New("invalid_proof_of_work")
)

// FieldErrors reports which submitted fields failed validation and why.
// It is a terminal, caller-correctable outcome, never logged as a failure.
type FieldErrors struct {
	Fields map[string]string `json:"errors"`
}

func (e *FieldErrors) Error() string {
	return "validation failed"
}
