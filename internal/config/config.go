// Package config loads layered configuration: optional .env file, optional
// YAML config file, then environment variable overrides. Secrets (the bot
// token) come from the environment only, never from the config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvBotToken     = "SNOWPOST_BOT_TOKEN"
	EnvGroupID      = "SNOWPOST_GROUP_ID"
	EnvDBPath       = "SNOWPOST_DB_PATH"
	EnvOpsAddr      = "SNOWPOST_OPS_ADDR"
	EnvLocalePath   = "SNOWPOST_LOCALE_PATH"
	EnvPollTimeout  = "SNOWPOST_POLL_TIMEOUT"
	EnvMaxLetterLen = "SNOWPOST_MAX_LETTER_LEN"
)

// MaxPollTimeout caps the long-poll hold time. The transport client's HTTP
// timeout must stay above this bound or every poll dies by client timeout.
const MaxPollTimeout = 60

// Config holds everything the serve and distribute commands need.
type Config struct {
	// BotToken authenticates against the Bot API. Environment only.
	BotToken string `yaml:"-"`

	// GroupID is the membership group and the /say broadcast target.
	GroupID int64 `yaml:"group_id"`

	// DatabasePath is the SQLite file holding letters.
	DatabasePath string `yaml:"database_path"`

	// LocalePath points at a catalog file; empty uses the embedded catalog.
	LocalePath string `yaml:"locale_path"`

	// PollTimeout is the long-poll hold time in seconds.
	PollTimeout int `yaml:"poll_timeout"`

	// MaxLetterLen bounds submissions, in characters.
	MaxLetterLen int `yaml:"max_letter_len"`

	// OpsListenAddr serves /metrics and /healthz when non-empty.
	OpsListenAddr string `yaml:"ops_listen_addr"`
}

func defaults() Config {
	return Config{
		DatabasePath: "snowpost.db",
		PollTimeout:  30,
		MaxLetterLen: 2000,
	}
}

// Load builds the effective configuration. A missing .env is fine; a named
// config file that doesn't exist is an error, while path == "" skips the
// file layer entirely.
//
// Load does not validate: offline commands need only part of the
// configuration. Commands that talk to the Bot API call Validate themselves.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.BotToken = os.Getenv(EnvBotToken)

	if v := os.Getenv(EnvGroupID); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvGroupID, err)
		}
		cfg.GroupID = id
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv(EnvOpsAddr); v != "" {
		cfg.OpsListenAddr = v
	}
	if v := os.Getenv(EnvLocalePath); v != "" {
		cfg.LocalePath = v
	}
	if v := os.Getenv(EnvPollTimeout); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvPollTimeout, err)
		}
		cfg.PollTimeout = n
	}
	if v := os.Getenv(EnvMaxLetterLen); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvMaxLetterLen, err)
		}
		cfg.MaxLetterLen = n
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("%s must be set", EnvBotToken)
	}
	if c.GroupID == 0 {
		return errors.New("group_id must be set (config file or " + EnvGroupID + ")")
	}
	if c.DatabasePath == "" {
		return errors.New("database_path must not be empty")
	}
	if c.PollTimeout <= 0 {
		return errors.New("poll_timeout must be positive")
	}
	if c.PollTimeout > MaxPollTimeout {
		return fmt.Errorf("poll_timeout must be at most %d", MaxPollTimeout)
	}
	if c.MaxLetterLen <= 0 {
		return errors.New("max_letter_len must be positive")
	}
	return nil
}
