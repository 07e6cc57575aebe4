// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything main needs to wire the adapter.
type Config struct {
	HTTPAddr     string
	Env          string
	RedisAddr    string
	KafkaBroker  string
	DataDir      string
	MaxBodyBytes int64

	// SourceRef identifies the upstream tax system in synchronization records.
	SourceRef        string
	AssessmentSchema string
	ObjectionSchema  string

	// SyncRequired makes a failed sync trigger fail the query instead of
	// falling through to a possibly stale search.
	SyncRequired  bool
	SyncFreshness time.Duration
}

// FromEnv reads an optional .env file and then the process environment.
func FromEnv() Config {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	return Config{
		HTTPAddr:         getEnv("SIMTAX_HTTP_ADDR", ":8080"),
		Env:              getEnv("SIMTAX_ENV", "production"),
		RedisAddr:        getEnv("REDIS_ADDR", "redis:6379"),
		KafkaBroker:      getEnv("KAFKA_BROKER", "kafka:9092"),
		DataDir:          getEnv("SIMTAX_DATA_DIR", "./data"),
		MaxBodyBytes:     getInt64("SIMTAX_MAX_BODY_BYTES", 10<<20),
		SourceRef:        getEnv("SIMTAX_SOURCE_REF", "https://openbelasting.nl/source/openbelasting.pink.source.json"),
		AssessmentSchema: getEnv("SIMTAX_ASSESSMENT_SCHEMA", "https://openbelasting.nl/schemas/openblasting.aanslagbiljet.schema.json"),
		ObjectionSchema:  getEnv("SIMTAX_OBJECTION_SCHEMA", "https://openbelasting.nl/schemas/openblasting.bezwaaraanvraag.schema.json"),
		SyncRequired:     getBool("SIMTAX_SYNC_REQUIRED", false),
		SyncFreshness:    getDuration("SIMTAX_SYNC_FRESHNESS", 5*time.Minute),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getInt64(key string, def int64) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
