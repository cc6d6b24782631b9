package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration. FromEnv keeps main lean.
type Config struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	JWTSigningKey string
	SummaryTTL    time.Duration
	AuditBuffer   int
	// Extractor names the roster extraction backend: "list" for the
	// plain-text parser, empty to leave extraction unconfigured.
	Extractor  string
	ConsoleLog bool
}

func FromEnv() Config {
	return Config{
		Addr:          getenv("CAMPREG_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("CAMPREG_DATABASE_URL"),
		RedisURL:      os.Getenv("CAMPREG_REDIS_URL"),
		JWTSigningKey: getenv("CAMPREG_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SummaryTTL:    getduration("CAMPREG_SUMMARY_TTL", 2*time.Minute),
		AuditBuffer:   getint("CAMPREG_AUDIT_BUFFER", 256),
		Extractor:     getenv("CAMPREG_EXTRACTOR", "list"),
		ConsoleLog:    getbool("CAMPREG_CONSOLE_LOG", false),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
