// Package config loads settings from flag defaults, an optional YAML file,
// GRESTUDY_* environment variables and explicitly set flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment overrides, e.g. GRESTUDY_STORAGE_DSN.
const EnvPrefix = "GRESTUDY_"

// Config is the full application configuration.
type Config struct {
	HTTP    HTTP    `koanf:"http"`
	Storage Storage `koanf:"storage"`
	Log     Log     `koanf:"log"`
	Backup  Backup  `koanf:"backup"`
	Import  Import  `koanf:"import"`
}

type HTTP struct {
	Addr    string   `koanf:"addr" validate:"required"`
	Origins []string `koanf:"origins"`
}

type Storage struct {
	Driver  string        `koanf:"driver" validate:"oneof=sqlite postgres"`
	DSN     string        `koanf:"dsn" validate:"required"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

type Log struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

type Backup struct {
	Dir string `koanf:"dir" validate:"required"`
}

type Import struct {
	ReposDir string `koanf:"reposdir" validate:"required"`
}

// RegisterFlags adds every configuration key to fs with its default value.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a YAML configuration file")
	fs.String("http.addr", ":8080", "Address the HTTP API listens on")
	fs.StringSlice("http.origins", []string{"http://localhost:3000"}, "Allowed CORS origins")
	fs.String("storage.driver", "sqlite", "Storage driver (sqlite or postgres)")
	fs.String("storage.dsn", "grestudy.db", "SQLite file path or PostgreSQL connection string")
	fs.Duration("storage.timeout", 5*time.Second, "Upper bound on each storage operation")
	fs.String("log.level", "info", "Log level (debug, info, warn, error)")
	fs.String("log.format", "console", "Log format (console or json)")
	fs.String("backup.dir", "backups", "Git repository that receives JSON snapshots")
	fs.String("import.reposdir", "repos", "Directory where deck repositories are cloned")
}

// Load builds the configuration from fs, which must have been populated by
// RegisterFlags and parsed.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// DATABASE_URL selects Postgres unless a DSN was configured explicitly.
	if url := os.Getenv("DATABASE_URL"); url != "" && !k.Exists("storage.dsn") {
		_ = k.Set("storage.dsn", url)
		if !k.Exists("storage.driver") {
			_ = k.Set("storage.driver", "postgres")
		}
	}

	// Unchanged flags only fill keys that are still missing.
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}
	k.Delete("config")

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps GRESTUDY_STORAGE_DSN to storage.dsn.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
}

// Validate checks every field constraint and reports all failures at once.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
