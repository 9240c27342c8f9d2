// Package config resolves zenjournal settings from defaults, an optional YAML
// file and ZENJOURNAL_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"zenjournal/internal/kv"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "ZENJOURNAL_"

// Config is the full application configuration.
type Config struct {
	Storage Storage `yaml:"storage"`
	Log     Log     `yaml:"log"`
	Metrics Metrics `yaml:"metrics"`
}

// Storage selects the kv backend.
type Storage struct {
	Driver      string `yaml:"driver" env:"STORAGE_DRIVER" validate:"required,oneof=memory fs sqlite postgres s3"`
	FSRoot      string `yaml:"fs_root" env:"FS_ROOT" validate:"required_if=Driver fs"`
	SQLitePath  string `yaml:"sqlite_path" env:"SQLITE_PATH" validate:"required_if=Driver sqlite"`
	PostgresDSN string `yaml:"postgres_dsn" env:"POSTGRES_DSN" validate:"required_if=Driver postgres"`
	S3Bucket    string `yaml:"s3_bucket" env:"S3_BUCKET" validate:"required_if=Driver s3"`
	S3Region    string `yaml:"s3_region" env:"S3_REGION"`
	S3Endpoint  string `yaml:"s3_endpoint" env:"S3_ENDPOINT" validate:"omitempty,url"`
	S3PathStyle bool   `yaml:"s3_path_style" env:"S3_PATH_STYLE"`
	S3Prefix    string `yaml:"s3_prefix" env:"S3_PREFIX"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `yaml:"level" env:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`
	Development bool   `yaml:"development" env:"LOG_DEVELOPMENT"`
}

// Metrics configures the Prometheus endpoint. An empty Addr disables it.
type Metrics struct {
	Addr string `yaml:"addr" env:"METRICS_ADDR" validate:"omitempty,hostname_port"`
}

// Default returns the built-in configuration: filesystem storage under the
// user data directory and info-level production logging.
func Default() Config {
	return Config{
		Storage: Storage{
			Driver:     string(kv.DriverFilesystem),
			FSRoot:     defaultDataDir(),
			SQLitePath: filepath.Join(defaultDataDir(), "zenjournal.db"),
			S3Region:   "us-east-1",
		},
		Log: Log{Level: "info"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/zenjournal/config.yaml, falling back to
// ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(dir, "zenjournal", "config.yaml")
}

// Load reads path (DefaultPath when empty) over Default, applies environment
// overrides and validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// KV converts the storage section into a backend selection.
func (c Config) KV() kv.Config {
	return kv.Config{
		Driver:      kv.Driver(c.Storage.Driver),
		FSRoot:      c.Storage.FSRoot,
		SQLitePath:  c.Storage.SQLitePath,
		PostgresDSN: c.Storage.PostgresDSN,
		S3: kv.S3Config{
			Region:    c.Storage.S3Region,
			Bucket:    c.Storage.S3Bucket,
			Endpoint:  c.Storage.S3Endpoint,
			PathStyle: c.Storage.S3PathStyle,
			Prefix:    c.Storage.S3Prefix,
		},
	}
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "zenjournal")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "zenjournal")
	}
	return "zendata"
}
