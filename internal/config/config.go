// Package config loads tessera settings from defaults, an optional file and
// TESSERA_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/viper"
)

// CodeInvalid tags configuration errors.
const CodeInvalid = "config.invalid"

// EnvPrefix prefixes environment overrides, e.g. TESSERA_DATABASE_PATH.
const EnvPrefix = "TESSERA"

// Config is the top-level tessera configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Query    QueryConfig    `mapstructure:"query"`
	Output   OutputConfig   `mapstructure:"output"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig locates the datom store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// QueryConfig sets query defaults.
type QueryConfig struct {
	// Limit caps result rows when a query sets no limit; zero is unlimited.
	Limit int `mapstructure:"limit"`
}

// OutputConfig selects how results are printed.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// LogConfig sets the minimum log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "tessera.db"},
		Output:   OutputConfig{Format: "text"},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix TESSERA_).
func Load(path string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("query.limit", def.Query.Limit)
	v.SetDefault("output.format", def.Output.Format)
	v.SetDefault("log.level", def.Log.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, oops.Code(CodeInvalid).Wrapf(err, "reading config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, oops.Code(CodeInvalid).Wrapf(err, "unmarshalling config")
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, oops.Code(CodeInvalid).Wrapf(errors.Join(errs...), "validating config")
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors, collecting every
// problem rather than stopping at the first.
func (c *Config) Validate() []error {
	var errs []error

	if c.Database.Path == "" {
		errs = append(errs, oops.Code(CodeInvalid).Errorf("config: database.path must not be empty"))
	}
	if c.Query.Limit < 0 {
		errs = append(errs, oops.Code(CodeInvalid).Errorf("config: query.limit must not be negative, got %d", c.Query.Limit))
	}
	switch c.Output.Format {
	case "text", "json":
	default:
		errs = append(errs, oops.Code(CodeInvalid).Errorf("config: output.format must be one of [text, json], got %q", c.Output.Format))
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		errs = append(errs, oops.Code(CodeInvalid).Errorf("config: log.level must be one of [debug, info, warn, error], got %q", c.Log.Level))
	}

	return errs
}

// LogLevel returns the configured slog level, Info if unset or unknown.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
