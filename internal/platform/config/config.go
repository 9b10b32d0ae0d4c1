package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything main needs to wire the service.
type Config struct {
	Addr          string
	PostgresURL   string
	RedisURL      string
	KafkaBrokers  []string
	KafkaTopic    string
	JWTSigningKey string

	// ViolationCooldown is the minimum interval between repeated violation
	// charges for the same subject and region. Zero bills every violating
	// sample, which matches the historical behavior.
	ViolationCooldown time.Duration

	// SubjectLockTTL bounds how long a per-subject processing lock can be
	// held before it expires (crash protection).
	SubjectLockTTL time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:              envOr("ROADWATCH_ADDR", ":8080"),
		PostgresURL:       os.Getenv("ROADWATCH_POSTGRES_URL"),
		RedisURL:          os.Getenv("ROADWATCH_REDIS_URL"),
		KafkaTopic:        envOr("ROADWATCH_KAFKA_TOPIC", "roadwatch.transitions"),
		JWTSigningKey:     os.Getenv("ROADWATCH_JWT_SIGNING_KEY"),
		ViolationCooldown: envDuration("ROADWATCH_VIOLATION_COOLDOWN", 0),
		SubjectLockTTL:    envDuration("ROADWATCH_SUBJECT_LOCK_TTL", 15*time.Second),
	}
	if brokers := os.Getenv("ROADWATCH_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if cfg.JWTSigningKey == "" {
		// Development default; must be overridden in production.
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
