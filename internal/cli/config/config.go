package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config represents the attrs tool configuration
type Config struct {
	DefaultType string         `mapstructure:"default_type"`
	Schema      SchemaConfig   `mapstructure:"schema"`
	Log         LogConfig      `mapstructure:"log"`
	Snapshot    SnapshotConfig `mapstructure:"snapshot"`
}

// SchemaConfig represents where resource schemas live
type SchemaConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SnapshotConfig represents snapshot store configuration
type SnapshotConfig struct {
	URL    string        `mapstructure:"url"`
	Table  string        `mapstructure:"table"`
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl"`
	Format string        `mapstructure:"format"`
}

// Load loads the configuration from attributes.yml or attributes.yaml.
// Every key can be overridden from the environment, e.g.
// ATTRIBUTES_SNAPSHOT_URL for snapshot.url.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("default_type", "value")
	v.SetDefault("schema.dir", "schema")
	v.SetDefault("log.level", "info")
	v.SetDefault("snapshot.url", "sqlite://attributes.db")
	v.SetDefault("snapshot.table", "attribute_snapshots")
	v.SetDefault("snapshot.prefix", "attributes:")
	v.SetDefault("snapshot.ttl", "0s")
	v.SetDefault("snapshot.format", "json")

	// Set config name and paths
	v.SetConfigName("attributes")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Enable environment variable support
	v.SetEnvPrefix("ATTRIBUTES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetSnapshotURL returns the snapshot store URL from the environment or the
// config file
func GetSnapshotURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	cfg, err := Load()
	if err != nil {
		return ""
	}

	return cfg.Snapshot.URL
}

// GetProjectRoot finds the nearest directory holding attributes.yml
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "attributes.yml")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "attributes.yaml")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no attributes.yml found")
		}
		dir = parent
	}
}

// NewLogger builds a production logger at the configured level
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}

func parseLevel(s string) (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("log.level must be one of debug, info, warn, error, got: %s", s)
	}
	return level, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.DefaultType == "" {
		return fmt.Errorf("default_type must not be empty")
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		return err
	}
	if !strings.Contains(cfg.Snapshot.URL, "://") {
		return fmt.Errorf("snapshot.url must include a scheme, got: %s", cfg.Snapshot.URL)
	}
	if cfg.Snapshot.TTL < 0 {
		return fmt.Errorf("snapshot.ttl must not be negative, got: %s", cfg.Snapshot.TTL)
	}
	switch cfg.Snapshot.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("snapshot.format must be json or yaml, got: %s", cfg.Snapshot.Format)
	}
	return nil
}
