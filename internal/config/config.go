// Package config defines warden's YAML configuration file and its defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level warden configuration file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string     `yaml:"host"`
	Port            int        `yaml:"port"`
	ShutdownTimeout string     `yaml:"shutdown_timeout"`
	CORS            CORSConfig `yaml:"cors"`
}

// CORSConfig controls cross-origin resource sharing settings.
type CORSConfig struct {
	Origins []string `yaml:"origins"`
	Methods []string `yaml:"methods"`
}

// DatabaseConfig selects the relational store behind the repositories.
// For mysql, the DSN must include parseTime=true.
type DatabaseConfig struct {
	Driver          string `yaml:"driver"` // sqlite, postgres, mysql
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

// AuthConfig controls session authentication.
type AuthConfig struct {
	// SecretKey signs the session-state cookie. Required in production.
	SecretKey string `yaml:"secret_key"`
	// BcryptRounds is the password hashing cost factor.
	BcryptRounds int `yaml:"bcrypt_rounds"`
	// LoginRatePerMinute caps login attempts per client IP.
	LoginRatePerMinute int `yaml:"login_rate_per_minute"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses a YAML configuration file. Environment variables
// referenced as ${VAR_NAME} in the file are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Default returns a Config pre-filled with sensible defaults: an embedded
// SQLite store, localhost binding, and bcrypt cost 12.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: "30s",
			CORS: CORSConfig{
				Origins: []string{"*"},
				Methods: []string{"GET", "POST", "PATCH", "DELETE"},
			},
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			DSN:          "warden.db?_journal_mode=WAL&_busy_timeout=5000",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Auth: AuthConfig{
			BcryptRounds:       12,
			LoginRatePerMinute: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// WriteDefault writes the default configuration to a YAML file.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
