// Package config loads flowrun server settings from YAML or JSON files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultAddr is the HTTP listen address used when none is configured.
const DefaultAddr = ":8080"

// Config holds the settings shared by the CLI commands.
type Config struct {
	Addr           string `mapstructure:"addr"`
	LogLevel       string `mapstructure:"log_level"`
	GraphsDir      string `mapstructure:"graphs_dir"`
	StepsFile      string `mapstructure:"steps_file"`
	Strict         bool   `mapstructure:"strict"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`

	Redis      RedisConfig      `mapstructure:"redis"`
	PII        PIIConfig        `mapstructure:"pii"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
}

// RedisConfig enables the redis stores when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Enabled reports whether a redis address was configured.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// PIIConfig lists regular expressions for state keys masked before runs are stored.
type PIIConfig struct {
	Patterns []string `mapstructure:"patterns"`
}

// EncryptionConfig holds base64 encoded AES-256 keys for sealing stored runs.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Addr:           DefaultAddr,
		LogLevel:       "info",
		MetricsEnabled: true,
	}
}

// Load reads path on top of the defaults. The format follows the extension:
// .json is JSON, anything else is YAML. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := Decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Decode maps loosely typed input onto out, converting duration strings.
func Decode(input any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// Validate checks values that cannot be caught by decoding.
func (c Config) Validate() error {
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must not be negative, got %d", c.Redis.DB)
	}
	if c.Redis.TTL < 0 {
		return fmt.Errorf("redis.ttl must not be negative, got %s", c.Redis.TTL)
	}
	return nil
}
