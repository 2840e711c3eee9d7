package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"encodingdb-backend/kvstore"
	"encodingdb-backend/utils"
)

const (
	tokenKeyPrefix = "token:"
	usedKeyPrefix  = "token-used:"
)

// TokenService issues and consumes ephemeral single-use ingest tokens. Each
// token is bound to the requesting IP and dies on first use; the used marker
// is kept until expiry so reuse is distinguishable from an unknown token.
type TokenService struct {
	store      kvstore.Store
	ttl        time.Duration
	difficulty int
}

func NewTokenService(store kvstore.Store, ttl time.Duration, powDifficulty int) *TokenService {
	return &TokenService{store: store, ttl: ttl, difficulty: powDifficulty}
}

// Difficulty is the active proof-of-work difficulty, 0 when disabled.
func (t *TokenService) Difficulty() int {
	return t.difficulty
}

// Issue mints a fresh token bound to ip.
func (t *TokenService) Issue(ctx context.Context, ip string) (string, time.Time, error) {
	token := uuid.NewString()
	expiresAt := time.Now().Add(t.ttl)
	if err := t.store.Set(ctx, tokenKeyPrefix+token, utils.NormalizeIP(ip), t.ttl); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Consume validates a presented token and marks it used. Exactly one caller
// can consume a given token; the SetNX marker arbitrates races.
func (t *TokenService) Consume(ctx context.Context, token, ip, nonce string) error {
	boundIP, ok, err := t.store.Get(ctx, tokenKeyPrefix+token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenUnknown
	}

	if _, used, err := t.store.Get(ctx, usedKeyPrefix+token); err != nil {
		return err
	} else if used {
		return ErrTokenUsed
	}

	if boundIP != utils.NormalizeIP(ip) {
		return ErrTokenIPMismatch
	}

	if t.difficulty > 0 && !ValidProofOfWork(token, nonce, t.difficulty) {
		return ErrBadProofOfWork
	}

	stored, err := t.store.SetNX(ctx, usedKeyPrefix+token, "1", t.ttl)
	if err != nil {
		return err
	}
	if !stored {
		// Lost the race to a concurrent consume.
		return ErrTokenUsed
	}
	return nil
}

// ValidProofOfWork checks that sha256(token + "." + nonce) has at least
// difficulty leading zero hex characters.
func ValidProofOfWork(token, nonce string, difficulty int) bool {
	sum := sha256.Sum256([]byte(token + "." + nonce))
	digest := hex.EncodeToString(sum[:])
	return strings.HasPrefix(digest, strings.Repeat("0", difficulty))
}
