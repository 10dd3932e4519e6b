package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database  DatabaseConfig
	Import    ImportConfig
	Crypto    CryptoConfig
	Recurring RecurringConfig
	User      UserConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// ImportConfig holds statement import settings.
type ImportConfig struct {
	MaxUploadBytes  int64  `mapstructure:"max_upload_bytes"`
	DefaultCurrency string `mapstructure:"default_currency"`
}

// CryptoConfig holds pricing settings.
type CryptoConfig struct {
	Currency   string
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// RecurringConfig holds due alert settings.
type RecurringConfig struct {
	DueAlertDays int `mapstructure:"due_alert_days"`
}

// UserConfig identifies the single local profile.
type UserConfig struct {
	Email string
	Name  string
}

// Load reads configuration from file and env. Env var overrides use prefix GELT_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "gelt", "gelt.db"))
	v.SetDefault("import.max_upload_bytes", 5*1024*1024)
	v.SetDefault("import.default_currency", "EUR")
	v.SetDefault("crypto.currency", "EUR")
	v.SetDefault("crypto.stale_after", "5m")
	v.SetDefault("recurring.due_alert_days", 3)
	v.SetDefault("user.email", "local@gelt")
	v.SetDefault("user.name", "Local")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("GELT_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "gelt"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("GELT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := os.Getenv("GELT_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "gelt", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("import.max_upload_bytes", cfg.Import.MaxUploadBytes)
	v.Set("import.default_currency", cfg.Import.DefaultCurrency)
	v.Set("crypto.currency", cfg.Crypto.Currency)
	v.Set("crypto.stale_after", cfg.Crypto.StaleAfter.String())
	v.Set("recurring.due_alert_days", cfg.Recurring.DueAlertDays)
	v.Set("user.email", cfg.User.Email)
	v.Set("user.name", cfg.User.Name)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
