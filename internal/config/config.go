// Package config loads prq configuration from ~/.config/prq/config.toml.
// A missing file is not an error; every setting has a default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/raphi011/prq/internal/queue"
	"github.com/raphi011/prq/internal/ttlcache"
)

// Duration is a time.Duration that parses from TOML strings like "5m".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for toml.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// CacheConfig holds the [cache] table.
type CacheConfig struct {
	TTL            Duration `toml:"ttl"`
	MaxEntries     int      `toml:"max_entries"`
	GCInterval     Duration `toml:"gc_interval"`
	UpdateOnAccess bool     `toml:"update_on_access"`
}

// QueueConfig holds the [queue] table.
type QueueConfig struct {
	MaxRetries int `toml:"max_retries"`
}

// Config holds the prq configuration.
type Config struct {
	Cache CacheConfig `toml:"cache"`
	Queue QueueConfig `toml:"queue"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			TTL:        Duration(ttlcache.DefaultTTL),
			MaxEntries: ttlcache.DefaultMaxEntries,
			GCInterval: Duration(ttlcache.DefaultGCInterval),
		},
		Queue: QueueConfig{
			MaxRetries: queue.DefaultMaxRetries,
		},
	}
}

// CacheSettings converts the [cache] table for the cache engine.
func (c Config) CacheSettings() ttlcache.Config {
	return ttlcache.Config{
		DefaultTTL:     time.Duration(c.Cache.TTL),
		MaxEntries:     c.Cache.MaxEntries,
		GCInterval:     time.Duration(c.Cache.GCInterval),
		UpdateOnAccess: c.Cache.UpdateOnAccess,
	}
}

// QueueSettings converts the [queue] table for the action queue.
func (c Config) QueueSettings() queue.Config {
	return queue.Config{MaxRetries: c.Queue.MaxRetries}
}

// validate rejects values the engines would silently misread.
func (c Config) validate() error {
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must not be negative, got %d", c.Cache.MaxEntries)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Queue.MaxRetries < 0 {
		return fmt.Errorf("queue.max_retries must not be negative, got %d", c.Queue.MaxRetries)
	}
	return nil
}

// configPath returns the path to the config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "prq", "config.toml"), nil
}

// Load reads config from ~/.config/prq/config.toml.
// Returns Default() if the file doesn't exist (no error).
// Returns an error only if the file exists but is invalid.
func Load() (Config, error) {
	path, err := configPath()
	if err != nil {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from an explicit path. Settings absent from the
// file keep their defaults.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return Default(), fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}
