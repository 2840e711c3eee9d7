package ingest

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"encodingdb-backend/kvstore"
)

const sigKeyPrefix = "sig:"

// SignatureVerifier validates the signed ingest mode: an HMAC-SHA256 hex
// signature over "timestamp.body" with a shared secret, a bounded clock-skew
// window, and a replay cache holding each accepted signature for the length
// of the window.
type SignatureVerifier struct {
	store   kvstore.Store
	secret  []byte
	maxSkew time.Duration
	now     func() time.Time
}

func NewSignatureVerifier(store kvstore.Store, secret string, maxSkew time.Duration) *SignatureVerifier {
	return &SignatureVerifier{
		store:   store,
		secret:  []byte(secret),
		maxSkew: maxSkew,
		now:     time.Now,
	}
}

// Configured reports whether a shared secret is set. Signed validation can
// never succeed without one.
func (v *SignatureVerifier) Configured() bool {
	return len(v.secret) > 0
}

// Verify checks timestamp and signature against the raw request body. A
// signature that validates is remembered until the skew window closes;
// presenting it again inside that window is a replay.
func (v *SignatureVerifier) Verify(ctx context.Context, timestamp, signature string, body []byte) error {
	if !v.Configured() {
		return ErrNoSecret
	}
	if signature == "" {
		return ErrMissingSignature
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrBadTimestamp
	}

	skew := v.now().Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	if time.Duration(skew)*time.Second > v.maxSkew {
		return ErrTimestampSkew
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrBadSignature
	}

	fresh, err := v.store.SetNX(ctx, sigKeyPrefix+signature, "1", v.maxSkew)
	if err != nil {
		return err
	}
	if !fresh {
		return ErrSignatureReplay
	}
	return nil
}
