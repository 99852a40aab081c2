package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures service level configuration. Component tunables (scoring
// weights, OCR provider order) live in their own structs; everything here is
// wiring-level and comes from the environment so main stays lean.
type Config struct {
	Addr string

	// DatabaseURL is optional; when empty the service runs on in-memory
	// stores, which is the local development default.
	DatabaseURL string

	// RedisURL is optional; when empty the per-driver workflow lock is an
	// in-process lock.
	RedisURL string

	// KafkaBrokers is optional; when empty workflow events are published to
	// an in-process channel and drained by a logging consumer.
	KafkaBrokers []string
	KafkaTopic   string

	// PassThreshold is the minimum composite score for a driver to move from
	// in_progress to verified.
	PassThreshold int

	// RunTimeout bounds one whole workflow run; VerifierTimeout bounds each
	// external verifier call inside it.
	RunTimeout      time.Duration
	VerifierTimeout time.Duration

	// ConcurrencyLimit caps parallel external verifier calls per run.
	ConcurrencyLimit int

	// SweepInterval drives the reverification scheduler.
	SweepInterval time.Duration

	// CheckTTL is the default validity window for completed checks that have
	// no natural expiry of their own.
	CheckTTL time.Duration

	// MaxCheckAttempts bounds how many runs may leave a check unavailable
	// before it is treated as definitively failed.
	MaxCheckAttempts int

	// OCRProviderOrder is the preferred-first list of OCR engines.
	OCRProviderOrder []string
	// OCRCloudURL enables the cloud OCR engine when set.
	OCRCloudURL string
	// DocumentRoot is where the local OCR engine resolves file references.
	DocumentRoot string

	// External verifier endpoints. Empty values select the deterministic
	// mock clients, which is the local development default.
	NINRegistryURL     string
	LicenseRegistryURL string
	FacialMatchURL     string
	RefereeServiceURL  string
}

// FromEnv builds a Config from environment variables with development
// defaults so main stays lean.
func FromEnv() Config {
	return Config{
		Addr:               envString("DRIVELI_ADDR", ":8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		KafkaBrokers:       envList("KAFKA_BROKERS"),
		KafkaTopic:         envString("KAFKA_TOPIC", "driveli.verification.events"),
		PassThreshold:      envInt("VERIFICATION_PASS_THRESHOLD", 70),
		RunTimeout:         envDuration("VERIFICATION_RUN_TIMEOUT", 2*time.Minute),
		VerifierTimeout:    envDuration("VERIFIER_CALL_TIMEOUT", 10*time.Second),
		ConcurrencyLimit:   envInt("VERIFIER_CONCURRENCY_LIMIT", 4),
		SweepInterval:      envDuration("REVERIFICATION_SWEEP_INTERVAL", 15*time.Minute),
		CheckTTL:           envDuration("VERIFICATION_CHECK_TTL", 365*24*time.Hour),
		MaxCheckAttempts:   envInt("VERIFICATION_MAX_CHECK_ATTEMPTS", 5),
		OCRProviderOrder:   envListDefault("OCR_PROVIDER_ORDER", []string{"local", "cloud"}),
		OCRCloudURL:        os.Getenv("OCR_CLOUD_URL"),
		DocumentRoot:       envString("DOCUMENT_ROOT", "./documents"),
		NINRegistryURL:     os.Getenv("NIN_REGISTRY_URL"),
		LicenseRegistryURL: os.Getenv("LICENSE_REGISTRY_URL"),
		FacialMatchURL:     os.Getenv("FACIAL_MATCH_URL"),
		RefereeServiceURL:  os.Getenv("REFEREE_SERVICE_URL"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envListDefault(key string, fallback []string) []string {
	if list := envList(key); len(list) > 0 {
		return list
	}
	return fallback
}
