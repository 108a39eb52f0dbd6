package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// AppConfig carries everything the client needs to reach the platform
// and keep local state between runs.
type AppConfig struct {
	APIBaseURL string
	APIWSURL   string

	// RedisURL enables the preferred identity store. Empty falls back
	// to the session file alone.
	RedisURL string
	// DatabaseURL enables the optional match-history repository.
	DatabaseURL string
	SessionFile string

	// GameID, when set, is the game the client enters on startup.
	GameID string

	StartingLife      int
	RequestTimeoutSec int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		SessionFile:       "session.json",
		StartingLife:      40,
		RequestTimeoutSec: 10,
	}

	cfg.APIBaseURL = strings.TrimSpace(os.Getenv("API_BASE_URL"))
	cfg.APIWSURL = strings.TrimSpace(os.Getenv("API_WS_URL"))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.GameID = strings.TrimSpace(os.Getenv("GAME_ID"))

	if v := strings.TrimSpace(os.Getenv("SESSION_FILE")); v != "" {
		cfg.SessionFile = v
	}
	if v := strings.TrimSpace(os.Getenv("STARTING_LIFE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.StartingLife = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("REQUEST_TIMEOUT_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RequestTimeoutSec = n
		}
	}

	if cfg.APIBaseURL == "" {
		return nil, errors.New("API_BASE_URL is required")
	}
	if cfg.APIWSURL == "" {
		return nil, errors.New("API_WS_URL is required")
	}

	return cfg, nil
}
