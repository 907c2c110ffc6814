package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/bookkeeper/internal/common"
	"github.com/spf13/viper"
)

// Viper keys.
const (
	KeyDatabasePath        = "database.path"
	KeyDatabaseDriver      = "database.driver"
	KeyDatabaseResetOnOpen = "database.reset_on_open"
	KeyLogLevel            = "logging.level"
	KeyLogFormat           = "logging.format"
)

// DefaultDatabasePath is used when database.path is not configured.
const DefaultDatabasePath = "$HOME/.local/share/bookkeeper/bookkeeper.db"

// EnvPrefix prefixes environment overrides, e.g. BOOKKEEPER_DATABASE_PATH.
const EnvPrefix = "BOOKKEEPER"

// Database configures where records are stored.
type Database struct {
	Path        string
	Driver      string
	ResetOnOpen bool
}

// Logging configures the process logger.
type Logging struct {
	Level  string
	Format string
}

// Config is the resolved application configuration.
type Config struct {
	Database Database
	Logging  Logging
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath)
	v.SetDefault(KeyDatabaseDriver, "sqlite")
	v.SetDefault(KeyDatabaseResetOnOpen, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// Init points v at the config file and the environment. An explicit file
// must exist; the default location is optional.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(ExpandPath(cfgFile))
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".config", "bookkeeper"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// Load resolves and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Database: Database{
			Path:        ExpandPath(v.GetString(KeyDatabasePath)),
			Driver:      strings.ToLower(strings.TrimSpace(v.GetString(KeyDatabaseDriver))),
			ResetOnOpen: v.GetBool(KeyDatabaseResetOnOpen),
		},
		Logging: Logging{
			Level:  strings.ToLower(v.GetString(KeyLogLevel)),
			Format: strings.ToLower(v.GetString(KeyLogFormat)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every setting has a usable value.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if strings.TrimSpace(c.Database.Path) == "" {
			return fmt.Errorf("%w: %s", common.ErrMissingConfig, KeyDatabasePath)
		}
	case "memory":
	default:
		return fmt.Errorf("%w: %s must be sqlite or memory, got %q", common.ErrInvalidConfig, KeyDatabaseDriver, c.Database.Driver)
	}

	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %s: %w", common.ErrInvalidConfig, KeyLogLevel, err)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: %s must be console or json, got %q", common.ErrInvalidConfig, KeyLogFormat, c.Logging.Format)
	}
	return nil
}
