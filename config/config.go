package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// IngestMode selects how POST /submit authenticates callers.
type IngestMode string

const (
	ModePublic IngestMode = "public"
	ModeSigned IngestMode = "signed"
	ModeHybrid IngestMode = "hybrid"
)

// Config holds every tunable of the ingestion pipeline, loaded from the
// environment once at startup.
type Config struct {
	Port           string
	DatabaseDSN    string
	BodyLimitBytes int
	AllowedOrigins string

	// Rate limiting
	GlobalRateMax    int
	GlobalRateWindow time.Duration
	IngestRateMax    int
	IngestRateWindow time.Duration
	DefaultKeyPerMin int
	DefaultKeyPerDay int

	// Authentication
	Mode           IngestMode
	HMACSecret     string
	MaxSkew        time.Duration
	APIKeyHeader   string
	TokenTTL       time.Duration
	PowDifficulty  int
	AdminJWTSecret string
	AdminPassHash  string

	// Disk gate
	DataPath         string
	GateInterval     time.Duration
	MinFreeDiskBytes uint64

	// Kvstore backend: "" (in-process) or a Redis address.
	RedisAddr string

	// Canonical-input hashes of the published test clips. Submissions
	// matching one are trusted slightly more by the scorer.
	KnownInputHashes map[string]struct{}
}

// KnownInput reports whether hash matches a published test clip.
func (c *Config) KnownInput(hash string) bool {
	_, ok := c.KnownInputHashes[hash]
	return ok
}

// Load reads .env (if present) and the environment. Missing values fall back
// to defaults that match a single-process public deployment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file loaded, using environment only")
	}

	mode := IngestMode(envStr("INGEST_MODE", string(ModePublic)))
	switch mode {
	case ModePublic, ModeSigned, ModeHybrid:
	default:
		log.Warnf("unknown INGEST_MODE %q, falling back to public", mode)
		mode = ModePublic
	}

	return &Config{
		Port:           envStr("PORT", "8080"),
		DatabaseDSN:    envStr("DATABASE_DSN", "host=localhost user=encodingdb password=encodingdb dbname=encodingdb port=5432 sslmode=disable"),
		BodyLimitBytes: envInt("BODY_LIMIT_BYTES", 64*1024),
		AllowedOrigins: envStr("ALLOWED_ORIGINS", "*"),

		GlobalRateMax:    envInt("RATE_LIMIT_MAX", 300),
		GlobalRateWindow: envDuration("RATE_LIMIT_WINDOW_SECONDS", 60*time.Second),
		IngestRateMax:    envInt("INGEST_RATE_LIMIT_MAX", 30),
		IngestRateWindow: envDuration("INGEST_RATE_LIMIT_WINDOW_SECONDS", 60*time.Second),
		DefaultKeyPerMin: envInt("API_KEY_RATE_PER_MIN", 10),
		DefaultKeyPerDay: envInt("API_KEY_RATE_PER_DAY", 1000),

		Mode:           mode,
		HMACSecret:     envStr("INGEST_HMAC_SECRET", ""),
		MaxSkew:        envDuration("INGEST_MAX_SKEW_SECONDS", 300*time.Second),
		APIKeyHeader:   envStr("API_KEY_HEADER", "X-API-Key"),
		TokenTTL:       envDuration("INGEST_TOKEN_TTL_SECONDS", 120*time.Second),
		PowDifficulty:  envInt("INGEST_POW_DIFFICULTY", 0),
		AdminJWTSecret: envStr("ADMIN_JWT_SECRET", ""),
		AdminPassHash:  envStr("ADMIN_PASSWORD_HASH", ""),

		DataPath:         envStr("DATA_PATH", "/var/lib/encodingdb"),
		GateInterval:     envDuration("DISK_GATE_INTERVAL_SECONDS", 10*time.Second),
		MinFreeDiskBytes: uint64(envInt64("MIN_FREE_DISK_BYTES", 25*1024*1024*1024)),

		RedisAddr: envStr("REDIS_ADDR", ""),

		KnownInputHashes: splitSet(envStr("KNOWN_INPUT_HASHES", "")),
	}
}

func splitSet(csv string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, part := range strings.Split(csv, ",") {
		if p := strings.TrimSpace(strings.ToLower(part)); p != "" {
			set[p] = struct{}{}
		}
	}
	return set
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

// envDuration reads an integer number of seconds.
func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
