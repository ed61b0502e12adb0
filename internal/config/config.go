// Package config reads the process configuration from the environment
// and fails fast on anything required.
package config

import (
	"fmt"
	"os"
	"strconv"

	"tenderwatch/internal/similarity"
)

type Config struct {
	// PostgresConn is the sqlx/lib-pq connection string.
	PostgresConn string

	// ServerAddress is the HTTP listen address.
	ServerAddress string

	// ScraperAPIKey authenticates the source scrapers on the ingest
	// endpoints.
	ScraperAPIKey string

	// RedisURL enables duplicate-delivery detection when set.
	RedisURL string

	// MatchThreshold is the name-distance cutoff for identity
	// resolution.
	MatchThreshold float64

	// DigestCron schedules the non-real-time notification digest.
	DigestCron string

	// AppURL prefixes tender detail links in notifications.
	AppURL string
}

func Load() (*Config, error) {
	cfg := &Config{
		PostgresConn:   os.Getenv("POSTGRES_CONN"),
		ServerAddress:  getenvDefault("SERVER_ADDRESS", "0.0.0.0:8080"),
		ScraperAPIKey:  os.Getenv("SCRAPER_API_KEY"),
		RedisURL:       os.Getenv("REDIS_URL"),
		MatchThreshold: similarity.DefaultThreshold,
		DigestCron:     getenvDefault("DIGEST_CRON", "0 7 * * *"),
		AppURL:         os.Getenv("APP_URL"),
	}

	if cfg.PostgresConn == "" {
		return nil, fmt.Errorf("POSTGRES_CONN env variable is not set")
	}
	if cfg.ScraperAPIKey == "" {
		return nil, fmt.Errorf("SCRAPER_API_KEY env variable is not set")
	}

	if raw := os.Getenv("MATCH_THRESHOLD"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v >= 1 {
			return nil, fmt.Errorf("MATCH_THRESHOLD must be a number in (0, 1), got %q", raw)
		}
		cfg.MatchThreshold = v
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
