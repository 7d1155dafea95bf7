// Package config provides application configuration with multi-source
// priority.
//
// Sources, highest to lowest:
//  1. Environment variables (TREF_*)
//  2. Config file (~/.tref/config.yaml)
//  3. Defaults
//
// Configuration covers collaborator concerns only - where blocks are
// published, which license and author to stamp by default, and how to log.
// The core format semantics are not configurable.
//
// Error handling uses sentinel errors for errors.Is checks, wrapped with
// fmt.Errorf("%w: details").
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrMissingPublishDir indicates publish_dir resolved to empty.
	ErrMissingPublishDir = errors.New("missing publish directory")

	// ErrMissingLicense indicates the default license is empty.
	ErrMissingLicense = errors.New("missing default license")

	// ErrInvalidLang indicates the default language is not a two-letter code.
	ErrInvalidLang = errors.New("invalid language code")

	// ErrInvalidLogLevel indicates log_level is not a recognized level name.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

const configDirName = ".tref"

// Config stores application configuration.
type Config struct {
	// PublishDir is the root of the file-backed block registry.
	PublishDir string `mapstructure:"publish_dir" json:"publish_dir"`

	// License is stamped onto new drafts that do not specify one.
	License string `mapstructure:"license" json:"license"`

	// Author is the default attribution for new drafts. Optional.
	Author string `mapstructure:"author" json:"author"`

	// Lang is the default ISO 639-1 language code. Optional.
	Lang string `mapstructure:"lang" json:"lang"`

	// Logging configuration.
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, configDirName)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults(filepath.Join(configDir, "blocks"))
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(publishDir string) {
	viper.SetDefault("publish_dir", publishDir)
	viper.SetDefault("license", "CC-BY-4.0")
	viper.SetDefault("author", "")
	viper.SetDefault("lang", "")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)
}

// bindEnvVariables binds environment overrides explicitly, so the set of
// recognized variables is visible in one place.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("publish_dir", "TREF_PUBLISH_DIR")
	mustBind("license", "TREF_LICENSE")
	mustBind("author", "TREF_AUTHOR")
	mustBind("lang", "TREF_LANG")
	mustBind("log_level", "TREF_LOG_LEVEL")
	mustBind("log_json", "TREF_LOG_JSON")
}

// Validate fails fast on unusable configuration.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("configuration is nil")
	}
	if c.PublishDir == "" {
		return ErrMissingPublishDir
	}
	if c.License == "" {
		return ErrMissingLicense
	}
	if c.Lang != "" && !isLangCode(c.Lang) {
		return fmt.Errorf("%w: %q", ErrInvalidLang, c.Lang)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel converts the configured level name to a slog.Level. Validate
// has already rejected unknown names by the time this is called.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(name string) (slog.Level, error) {
	switch name {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, name)
	}
}

func isLangCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
