package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	BindAddress        string `env:"CALPOLL_BIND_ADDRESS" envDefault:"127.0.0.1:8775"`
	UnixSocketPath     string `env:"CALPOLL_UNIX_SOCKET"`
	DatabasePath       string `env:"CALPOLL_DB_PATH" envDefault:"calpoll.db"`
	RequireBearerToken bool   `env:"CALPOLL_REQUIRE_TOKEN" envDefault:"true"`
	BearerToken        string `env:"CALPOLL_BEARER_TOKEN"`
	LogLevel           string `env:"CALPOLL_LOG_LEVEL" envDefault:"info"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.BindAddress = strings.TrimSpace(cfg.BindAddress)
	cfg.UnixSocketPath = strings.TrimSpace(cfg.UnixSocketPath)
	cfg.BearerToken = strings.TrimSpace(cfg.BearerToken)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.BindAddress == "" && c.UnixSocketPath == "" {
		return errors.New("either bind address or unix socket path must be configured")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return errors.New("CALPOLL_DB_PATH is required")
	}
	if c.RequireBearerToken && c.BearerToken == "" {
		return errors.New("CALPOLL_BEARER_TOKEN is required when token auth is enabled")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}
