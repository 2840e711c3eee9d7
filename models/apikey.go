package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// API key lifecycle states.
const (
	KeyStatusActive  = "active"
	KeyStatusRevoked = "revoked"
	KeyStatusBanned  = "banned"
)

// APIKey is an explicit contributor identity. The plaintext secret is shown
// once at creation and never stored: SecretHash is a bcrypt digest for
// verification, Fingerprint a SHA-256 digest for O(1) lookup.
type APIKey struct {
	Id          string `json:"id" gorm:"primaryKey;size:36"`
	Name        string `json:"name" gorm:"size:128;not null"`
	UserEmail   string `json:"userEmail" gorm:"size:255"`
	SecretHash  []byte `json:"-" gorm:"not null"`
	Fingerprint string `json:"-" gorm:"size:64;uniqueIndex:idx_api_keys_fingerprint"`
	Status      string `json:"status" gorm:"size:16;not null;default:active"`

	// Optional per-key quota overrides; nil means the configured defaults.
	RateLimitPerMin *int `json:"rateLimitPerMin"`
	RateLimitPerDay *int `json:"rateLimitPerDay"`

	UsageCount int64      `json:"usageCount"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (k *APIKey) BeforeCreate(tx *gorm.DB) (err error) {
	if k.Id == "" {
		k.Id = uuid.NewString()
	}
	return
}

// SetSecret stores the bcrypt hash and lookup fingerprint of a plaintext key.
func (k *APIKey) SetSecret(secret string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), 12)
	if err != nil {
		return err
	}
	k.SecretHash = hashed
	k.Fingerprint = SecretFingerprint(secret)
	return nil
}

// CompareSecret verifies a presented plaintext key against the stored hash.
func (k *APIKey) CompareSecret(secret string) error {
	return bcrypt.CompareHashAndPassword(k.SecretHash, []byte(secret))
}

// SecretFingerprint is the lookup digest stored alongside the bcrypt hash.
func SecretFingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
