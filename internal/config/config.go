// Package config loads and validates service configuration from the
// environment and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds service configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// Env is the application environment ("development" or "production").
	Env string `mapstructure:"APP_ENV"`
	// PublicHost is the externally visible hostname embedded in wallet
	// callback URLs and deep links.
	PublicHost string `mapstructure:"PUBLIC_HOST"`
	// SessionSecret signs session tokens. Required in production.
	SessionSecret string `mapstructure:"SESSION_SECRET"`
	// SessionTTL is the session validity window (e.g. "168h").
	SessionTTL time.Duration `mapstructure:"SESSION_TTL"`
	// ChallengeTTL is the login challenge validity window (e.g. "10m").
	ChallengeTTL time.Duration `mapstructure:"CHALLENGE_TTL"`
	// RedisURL is the Redis connection URL; empty selects the in-memory store.
	RedisURL string `mapstructure:"REDIS_URL"`
	// SuperAdmins is a comma-separated list of super-admin pubkeys.
	SuperAdmins string `mapstructure:"SUPER_ADMINS"`
	// GateEnabled turns on the site-wide pre-auth access gate.
	GateEnabled bool `mapstructure:"GATE_ENABLED"`
	// GateCode is the marker value the gate expects. Required when enabled.
	GateCode string `mapstructure:"GATE_CODE"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Env vars override .env values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("PUBLIC_HOST", "localhost:8080")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_TTL", "168h")
	v.SetDefault("CHALLENGE_TTL", "10m")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SUPER_ADMINS", "")
	v.SetDefault("GATE_ENABLED", false)
	v.SetDefault("GATE_CODE", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.Production() {
		if c.SessionSecret == "" {
			return errors.New("config: SESSION_SECRET must be set in production")
		}
		if c.PublicHost == "" {
			return errors.New("config: PUBLIC_HOST must be set in production")
		}
	}
	if c.GateEnabled && c.GateCode == "" {
		return errors.New("config: GATE_CODE must be set when GATE_ENABLED is true")
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}
	if c.ChallengeTTL <= 0 {
		return errors.New("config: CHALLENGE_TTL must be positive")
	}
	return nil
}

// Development reports whether the service runs in development mode. The dev
// login bypass and relaxed cookie security key off this.
func (c *Config) Development() bool {
	return c.Env == EnvDevelopment
}

// Production reports whether the service runs in production mode
func (c *Config) Production() bool {
	return c.Env == EnvProduction
}

// SuperAdminList splits the comma-separated allow-list into pubkeys
func (c *Config) SuperAdminList() []string {
	if c.SuperAdmins == "" {
		return nil
	}

	parts := strings.Split(c.SuperAdmins, ",")
	admins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			admins = append(admins, trimmed)
		}
	}
	return admins
}
