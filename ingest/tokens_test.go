package ingest

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encodingdb-backend/kvstore"
)

func TestTokenSingleUse(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService(kvstore.NewMemory(), time.Minute, 0)

	token, expiresAt, err := svc.Issue(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	require.NoError(t, svc.Consume(ctx, token, "203.0.113.7", ""))

	// Replay yields a conflict-shaped error, not "unknown".
	err = svc.Consume(ctx, token, "203.0.113.7", "")
	assert.ErrorIs(t, err, ErrTokenUsed)
}

func TestTokenUnknownAndExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown token", func(t *testing.T) {
		svc := NewTokenService(kvstore.NewMemory(), time.Minute, 0)
		err := svc.Consume(ctx, "never-issued", "203.0.113.7", "")
		assert.ErrorIs(t, err, ErrTokenUnknown)
	})

	t.Run("expired token", func(t *testing.T) {
		svc := NewTokenService(kvstore.NewMemory(), 10*time.Millisecond, 0)
		token, _, err := svc.Issue(ctx, "203.0.113.7")
		require.NoError(t, err)

		time.Sleep(25 * time.Millisecond)
		err = svc.Consume(ctx, token, "203.0.113.7", "")
		assert.ErrorIs(t, err, ErrTokenUnknown)
	})
}

func TestTokenIPBinding(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService(kvstore.NewMemory(), time.Minute, 0)

	t.Run("different ip rejected", func(t *testing.T) {
		token, _, err := svc.Issue(ctx, "203.0.113.7")
		require.NoError(t, err)
		err = svc.Consume(ctx, token, "198.51.100.1", "")
		assert.ErrorIs(t, err, ErrTokenIPMismatch)
	})

	t.Run("ipv4-mapped ipv6 normalizes", func(t *testing.T) {
		token, _, err := svc.Issue(ctx, "::ffff:203.0.113.7")
		require.NoError(t, err)
		assert.NoError(t, svc.Consume(ctx, token, "203.0.113.7", ""))
	})
}

func TestTokenProofOfWork(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService(kvstore.NewMemory(), time.Minute, 1)

	token, _, err := svc.Issue(ctx, "203.0.113.7")
	require.NoError(t, err)

	t.Run("missing nonce rejected", func(t *testing.T) {
		err := svc.Consume(ctx, token, "203.0.113.7", "")
		assert.ErrorIs(t, err, ErrBadProofOfWork)
	})

	t.Run("valid nonce accepted", func(t *testing.T) {
		nonce := solvePow(t, token, 1)
		assert.NoError(t, svc.Consume(ctx, token, "203.0.113.7", nonce))
	})
}

func solvePow(t *testing.T, token string, difficulty int) string {
	t.Helper()
	for i := 0; i < 1_000_000; i++ {
		nonce := strconv.Itoa(i)
		if ValidProofOfWork(token, nonce, difficulty) {
			return nonce
		}
	}
	t.Fatal("no nonce found")
	return ""
}
