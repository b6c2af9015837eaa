// Package config loads the daemon's nested TOML configuration, the way
// NikeGunn-tutu's daemon package loads its own (see config_test.go's
// DefaultConfig shape) and the original's config.rs loads its
// ServerConfig/PolicyCacheConfig/SupervisorConfig/BanditConfig sections —
// renamed here to the bandit domain's own section names.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

// StoreConfig controls the state store's on-disk catalog.
type StoreConfig struct {
	Path                string        `toml:"path"`
	PersistEverySeconds int64         `toml:"persist_every_seconds"`
	PersistEvery        time.Duration `toml:"-"`
}

// ExperimentConfig controls every experiment actor's snapshot cadence.
type ExperimentConfig struct {
	SaveEvery        time.Duration `toml:"-"`
	SaveEverySeconds int64         `toml:"save_every_seconds"`
}

// MetricsConfig controls the prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Config is the daemon's full configuration tree.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Store      StoreConfig      `toml:"store"`
	Experiment ExperimentConfig `toml:"experiment"`
	Metrics    MetricsConfig    `toml:"metrics"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     8080,
			LogLevel: "info",
		},
		Store: StoreConfig{
			Path:                "state.json",
			PersistEverySeconds: 10,
		},
		Experiment: ExperimentConfig{
			SaveEverySeconds: 30,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads path if it exists, overlays BANDITS_-prefixed environment
// variables, and returns the result. A missing file is not an error — the
// daemon falls back to Default() and the env overlay, matching spec.md's
// "never fails on missing file" note.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	if err := overlayEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.Store.PersistEvery = time.Duration(cfg.Store.PersistEverySeconds) * time.Second
	cfg.Experiment.SaveEvery = time.Duration(cfg.Experiment.SaveEverySeconds) * time.Second

	return cfg, nil
}

// overlayEnv applies BANDITS_-prefixed environment variables on top of
// whatever was loaded from file, mirroring the original's
// Environment::with_prefix("APP") source layered after the TOML file.
func overlayEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("BANDITS_SERVER_HOST"); ok {
		cfg.Server.Host = v
	}
	if v, ok := os.LookupEnv("BANDITS_SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: BANDITS_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v, ok := os.LookupEnv("BANDITS_SERVER_LOG_LEVEL"); ok {
		cfg.Server.LogLevel = v
	}
	if v, ok := os.LookupEnv("BANDITS_STORE_PATH"); ok {
		cfg.Store.Path = v
	}
	if v, ok := os.LookupEnv("BANDITS_STORE_PERSIST_EVERY_SECONDS"); ok {
		seconds, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: BANDITS_STORE_PERSIST_EVERY_SECONDS: %w", err)
		}
		cfg.Store.PersistEverySeconds = seconds
	}
	if v, ok := os.LookupEnv("BANDITS_EXPERIMENT_SAVE_EVERY_SECONDS"); ok {
		seconds, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: BANDITS_EXPERIMENT_SAVE_EVERY_SECONDS: %w", err)
		}
		cfg.Experiment.SaveEverySeconds = seconds
	}
	if v, ok := os.LookupEnv("BANDITS_METRICS_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: BANDITS_METRICS_ENABLED: %w", err)
		}
		cfg.Metrics.Enabled = enabled
	}
	return nil
}
