package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/model"
	"github.com/wardenhq/warden/internal/store"
)

// loadConfig resolves the effective configuration: the YAML file named by
// --config (or warden.yaml if present), overlaid with WARDEN_* environment
// variables via viper.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("warden.yaml"); err == nil {
			path = "warden.yaml"
		}
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	// Environment overrides for the settings that differ per deployment.
	if v := viper.GetString("database.driver"); v != "" {
		cfg.Database.Driver = v
	}
	if v := viper.GetString("database.dsn"); v != "" {
		cfg.Database.DSN = v
	}
	if v := viper.GetString("auth.secret_key"); v != "" {
		cfg.Auth.SecretKey = v
	}
	if v := viper.GetInt("server.port"); v != 0 {
		cfg.Server.Port = v
	}
	return cfg, nil
}

// newLogger builds a slog.Logger from the logging section.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openStore opens the configured database and applies the password cost so
// every code path hashes with the same rounds.
func openStore(cfg *config.Config) (*store.Store, error) {
	if cfg.Auth.BcryptRounds > 0 {
		model.SetPasswordCost(cfg.Auth.BcryptRounds)
	}

	storeCfg := store.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}
	if cfg.Database.ConnMaxLifetime != "" {
		d, err := time.ParseDuration(cfg.Database.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("parse conn_max_lifetime: %w", err)
		}
		storeCfg.ConnMaxLifetime = d
	}

	return store.Open(storeCfg)
}
