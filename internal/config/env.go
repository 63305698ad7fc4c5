package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// ApplyEnv loads .env from the project directory and applies
// SITESHIP_* overrides on top of the file config. Variables already
// set in the process environment win over .env entries.
func ApplyEnv(cfg *Config) {
	_ = godotenv.Load(filepath.Join(cfg.Dir(), ".env"))

	if v := os.Getenv("SITESHIP_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SITESHIP_USER"); v != "" {
		cfg.Server.User = v
	}
	if v := os.Getenv("SITESHIP_KEY"); v != "" {
		cfg.Server.Key = expandHome(v)
	}
	if v := os.Getenv("SITESHIP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("SITESHIP_BASE_PATH"); v != "" {
		cfg.Server.BasePath = v
	}
	if v := os.Getenv("SITESHIP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
