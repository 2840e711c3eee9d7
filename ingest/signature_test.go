package ingest

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encodingdb-backend/kvstore"
)

func sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSignatureVerify(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"fps":100}`)
	v := NewSignatureVerifier(kvstore.NewMemory(), "topsecret", 300*time.Second)

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	sig := sign("topsecret", ts, body)

	require.NoError(t, v.Verify(ctx, ts, sig, body))

	t.Run("identical signature inside the window is a replay", func(t *testing.T) {
		err := v.Verify(ctx, ts, sig, body)
		assert.ErrorIs(t, err, ErrSignatureReplay)
	})
}

func TestSignatureRejections(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"fps":100}`)

	t.Run("no secret configured", func(t *testing.T) {
		v := NewSignatureVerifier(kvstore.NewMemory(), "", 300*time.Second)
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		err := v.Verify(ctx, ts, sign("whatever", ts, body), body)
		assert.ErrorIs(t, err, ErrNoSecret)
	})

	t.Run("missing signature", func(t *testing.T) {
		v := NewSignatureVerifier(kvstore.NewMemory(), "topsecret", 300*time.Second)
		err := v.Verify(ctx, "123", "", body)
		assert.ErrorIs(t, err, ErrMissingSignature)
	})

	t.Run("non-numeric timestamp", func(t *testing.T) {
		v := NewSignatureVerifier(kvstore.NewMemory(), "topsecret", 300*time.Second)
		err := v.Verify(ctx, "not-a-number", "deadbeef", body)
		assert.ErrorIs(t, err, ErrBadTimestamp)
	})

	t.Run("wrong signature", func(t *testing.T) {
		v := NewSignatureVerifier(kvstore.NewMemory(), "topsecret", 300*time.Second)
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		err := v.Verify(ctx, ts, sign("wrongsecret", ts, body), body)
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("timestamp outside the skew window", func(t *testing.T) {
		v := NewSignatureVerifier(kvstore.NewMemory(), "topsecret", 300*time.Second)
		for _, offset := range []time.Duration{-301 * time.Second, 301 * time.Second} {
			ts := strconv.FormatInt(time.Now().Add(offset).Unix(), 10)
			// Correctly signed, still rejected.
			err := v.Verify(ctx, ts, sign("topsecret", ts, body), body)
			assert.ErrorIs(t, err, ErrTimestampSkew)
		}
	})
}

func TestSignatureReplayWindowExpires(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"fps":100}`)
	v := NewSignatureVerifier(kvstore.NewMemory(), "topsecret", 300*time.Second)

	fixed := time.Now()
	v.now = func() time.Time { return fixed }

	ts := strconv.FormatInt(fixed.Unix(), 10)
	sig := sign("topsecret", ts, body)
	require.NoError(t, v.Verify(ctx, ts, sig, body))

	// Once the window has passed the entry may expire, but the timestamp is
	// then out of range anyway.
	v.now = func() time.Time { return fixed.Add(301 * time.Second) }
	err := v.Verify(ctx, ts, sig, body)
	assert.ErrorIs(t, err, ErrTimestampSkew)
}
