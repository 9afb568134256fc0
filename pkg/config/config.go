package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all closet configuration.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Cache      CacheConfig      `yaml:"cache"`
	Similarity SimilarityConfig `yaml:"similarity"`
	History    HistoryConfig    `yaml:"history"`
	Log        LogConfig        `yaml:"log"`
}

// StorageConfig selects the key-value backend the response cache persists to.
// Backend is "sqlite" (default), "file", "redis" or "memory".
type StorageConfig struct {
	Backend    string      `yaml:"backend"`
	DBPath     string      `yaml:"db_path"`
	Dir        string      `yaml:"dir"`
	QuotaBytes int64       `yaml:"quota_bytes"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig is used when Storage.Backend is "redis".
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Key        string        `yaml:"key"`
	MaxEntries int           `yaml:"max_entries"`
	MaxAge     time.Duration `yaml:"max_age"`
	// FreshFor is how young the latest entry must be to skip a live call.
	FreshFor time.Duration `yaml:"fresh_for"`
}

// SimilarityConfig tunes repeat detection.
type SimilarityConfig struct {
	Threshold        float64 `yaml:"threshold"`
	HighWithinDays   int     `yaml:"high_within_days"`
	MediumWithinDays int     `yaml:"medium_within_days"`
}

// HistoryConfig controls the outfit history store.
type HistoryConfig struct {
	DBPath     string `yaml:"db_path"`
	WindowDays int    `yaml:"window_days"`
}

// LogConfig controls the slog handler. Format is "text" or "json".
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:    "sqlite",
			DBPath:     "closet.db",
			QuotaBytes: 5 << 20,
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "closet:",
			},
		},
		Cache: CacheConfig{
			Key:        "weatherPicksCache",
			MaxEntries: 5,
			MaxAge:     24 * time.Hour,
			FreshFor:   60 * time.Minute,
		},
		Similarity: SimilarityConfig{
			Threshold:        0.8,
			HighWithinDays:   7,
			MediumWithinDays: 14,
		},
		History: HistoryConfig{
			DBPath:     "closet.db",
			WindowDays: 30,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path if it exists, and returns Default() otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "sqlite", "file", "redis", "memory":
	default:
		return fmt.Errorf("invalid config: unknown storage backend %q", c.Storage.Backend)
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("invalid config: cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}
	if c.Cache.MaxAge <= 0 {
		return fmt.Errorf("invalid config: cache.max_age must be positive, got %v", c.Cache.MaxAge)
	}
	if c.Similarity.Threshold <= 0 || c.Similarity.Threshold > 1 {
		return fmt.Errorf("invalid config: similarity.threshold must be in (0,1], got %v", c.Similarity.Threshold)
	}
	if c.Similarity.HighWithinDays >= c.Similarity.MediumWithinDays {
		return fmt.Errorf("invalid config: similarity.high_within_days (%d) must be below medium_within_days (%d)",
			c.Similarity.HighWithinDays, c.Similarity.MediumWithinDays)
	}
	return nil
}
