/*
Package configs loads the server configuration from environment variables.

It covers the HTTP listener, CORS origins, the room tuning knobs (patch
cadence, capacity, spawn area) and the optional zone catalog database.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig contains every setting the server needs.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int
	LogLevel    string

	// Security Settings
	AllowedOrigins []string
	JoinRate       float64
	JoinBurst      int

	// Room Settings
	RoomName      string
	PatchInterval time.Duration
	MaxClients    int
	SpawnWidth    float64
	SpawnHeight   float64

	// Zone catalog. Empty means the built-in layout.
	DatabaseDSN string
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads the configuration from the environment, applying defaults
// and validating ranges.
func LoadConfig() (*AppConfig, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.Environment = stringOr(getenv("ENVIRONMENT"), "development")
	cfg.LogLevel = getenv("LOG_LEVEL")

	port, err := intOr(getenv, "PORT", 2567)
	if err != nil {
		return nil, err
	}
	if port < 1024 || port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the allowed range (%d-%d)", port, 1024, 65535)
	}
	cfg.Port = port

	for _, origin := range strings.Split(getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}
	if cfg.AllowedOrigins == nil {
		cfg.AllowedOrigins = []string{}
	}

	if cfg.JoinRate, err = floatOr(getenv, "JOIN_RATE", 0.5); err != nil {
		return nil, err
	}
	if cfg.JoinBurst, err = intOr(getenv, "JOIN_BURST", 5); err != nil {
		return nil, err
	}

	cfg.RoomName = stringOr(getenv("ROOM_NAME"), "campus")

	patchMs, err := intOr(getenv, "PATCH_INTERVAL_MS", 50)
	if err != nil {
		return nil, err
	}
	if patchMs < 10 || patchMs > 1000 {
		return nil, fmt.Errorf("PATCH_INTERVAL_MS %d is outside the allowed range (10-1000)", patchMs)
	}
	cfg.PatchInterval = time.Duration(patchMs) * time.Millisecond

	if cfg.MaxClients, err = intOr(getenv, "MAX_CLIENTS", 100); err != nil {
		return nil, err
	}
	if cfg.MaxClients < 1 {
		return nil, fmt.Errorf("MAX_CLIENTS must be positive, got %d", cfg.MaxClients)
	}

	if cfg.SpawnWidth, err = floatOr(getenv, "SPAWN_WIDTH", 800); err != nil {
		return nil, err
	}
	if cfg.SpawnHeight, err = floatOr(getenv, "SPAWN_HEIGHT", 600); err != nil {
		return nil, err
	}
	if cfg.SpawnWidth <= 0 || cfg.SpawnHeight <= 0 {
		return nil, fmt.Errorf("spawn area must be positive, got %vx%v", cfg.SpawnWidth, cfg.SpawnHeight)
	}

	cfg.DatabaseDSN = getenv("DATABASE_URL")

	return cfg, nil
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intOr(getenv func(string) string, key string, def int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func floatOr(getenv func(string) string, key string, def float64) (float64, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}
