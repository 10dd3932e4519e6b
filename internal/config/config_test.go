package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GELT_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, filepath.Join(home, ".local", "share", "gelt", "gelt.db"), cfg.Database.Path)
	require.Equal(t, int64(5*1024*1024), cfg.Import.MaxUploadBytes)
	require.Equal(t, "EUR", cfg.Import.DefaultCurrency)
	require.Equal(t, "EUR", cfg.Crypto.Currency)
	require.Equal(t, 5*time.Minute, cfg.Crypto.StaleAfter)
	require.Equal(t, 3, cfg.Recurring.DueAlertDays)
	require.Equal(t, "local@gelt", cfg.User.Email)
	require.Equal(t, "Local", cfg.User.Name)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[database]
path = "/tmp/elsewhere.db"

[import]
max_upload_bytes = 1048576
default_currency = "gbp"

[crypto]
stale_after = "10m"

[recurring]
due_alert_days = 7
`), 0o644))
	t.Setenv("GELT_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "/tmp/elsewhere.db", cfg.Database.Path)
	require.Equal(t, int64(1048576), cfg.Import.MaxUploadBytes)
	require.Equal(t, "gbp", cfg.Import.DefaultCurrency)
	require.Equal(t, 10*time.Minute, cfg.Crypto.StaleAfter)
	require.Equal(t, 7, cfg.Recurring.DueAlertDays)
	require.Equal(t, "EUR", cfg.Crypto.Currency, "unset keys keep their defaults")
}

func TestEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GELT_CONFIG", "")
	t.Setenv("GELT_DATABASE_PATH", "/tmp/env.db")
	t.Setenv("GELT_RECURRING_DUE_ALERT_DAYS", "10")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/env.db", cfg.Database.Path)
	require.Equal(t, 10, cfg.Recurring.DueAlertDays)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	t.Setenv("GELT_CONFIG", path)

	want := Config{
		Database:  DatabaseConfig{Path: "/tmp/saved.db"},
		Import:    ImportConfig{MaxUploadBytes: 2 * 1024 * 1024, DefaultCurrency: "USD"},
		Crypto:    CryptoConfig{Currency: "USD", StaleAfter: 2 * time.Minute},
		Recurring: RecurringConfig{DueAlertDays: 5},
		User:      UserConfig{Email: "me@example.com", Name: "Me"},
	}
	require.NoError(t, Save(want))

	got, err := Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
}
