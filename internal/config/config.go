// Package config loads and saves the riskboard TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/theirongolddev/riskboard/internal/model"
)

// Currency display formats.
const (
	CurrencyPKR  = "PKR"  // PKR 1,250,000
	CurrencyRsMn = "RsMn" // Rs 1.25 Mn
)

// Config holds all riskboard configuration.
type Config struct {
	General     GeneralConfig       `toml:"general"`
	Thresholds  model.KpiThresholds `toml:"thresholds"`
	Budget      BudgetConfig        `toml:"budget"`
	Log         LogConfig           `toml:"log"`
	Daemon      DaemonConfig        `toml:"daemon"`
	Appearance  AppearanceConfig    `toml:"appearance"`
	TUI         TUIConfig           `toml:"tui"`
	Expenditure ExpenditureConfig   `toml:"expenditure"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DataDir  string `toml:"data_dir,omitempty"`
	Currency string `toml:"currency"`
}

// BudgetConfig holds budget planning settings.
type BudgetConfig struct {
	OverheadPercent float64 `toml:"overhead_percent"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// DaemonConfig holds background service settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	IntervalSec  int    `toml:"interval_sec"`
	EventsBuffer int    `toml:"events_buffer"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// TUIConfig holds dashboard refresh settings.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
}

// ExpenditureConfig allows extra spellings for expenditure heads.
type ExpenditureConfig struct {
	Aliases map[string]string `toml:"aliases,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Currency: CurrencyPKR,
		},
		Thresholds: model.DefaultThresholds(),
		Budget: BudgetConfig{
			OverheadPercent: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8788",
			IntervalSec:  30,
			EventsBuffer: 200,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		TUI: TUIConfig{
			AutoRefresh:        true,
			RefreshIntervalSec: 30,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "riskboard")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "riskboard")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultDataDir returns the XDG-compliant data directory.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "riskboard")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "riskboard")
}

// DataDir resolves the configured data directory, expanding a leading ~.
func (c Config) DataDir() string {
	dir := c.General.DataDir
	if dir == "" {
		return DefaultDataDir()
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	return dir
}

// DBPath returns the full path to the project database.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir(), "riskboard.db")
}

// Load reads .env from the working directory and the config file, then
// applies environment overrides. A missing file yields defaults.
func Load() (Config, error) {
	_ = godotenv.Load()
	cfg, err := LoadFrom(ConfigPath())
	if err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg)
	return cfg, nil
}

// LoadFrom reads the config at path without consulting the environment.
// Keys missing from the file keep their defaults.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // user-chosen config path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides file values with RISKBOARD_* environment variables.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("RISKBOARD_DATA_DIR"); v != "" {
		cfg.General.DataDir = v
	}
	if v := os.Getenv("RISKBOARD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RISKBOARD_CURRENCY"); v != "" {
		cfg.General.Currency = v
	}
}

// Save writes the config to the default path.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path, creating its directory.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user-chosen config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Warnings lists non-fatal problems with the loaded configuration.
func (c Config) Warnings() []string {
	var warns []string
	if err := c.Thresholds.Validate(); err != nil {
		warns = append(warns, err.Error())
	}
	switch c.General.Currency {
	case CurrencyPKR, CurrencyRsMn:
	default:
		warns = append(warns, fmt.Sprintf("unknown currency format %q, using %s", c.General.Currency, CurrencyPKR))
	}
	if c.Daemon.IntervalSec <= 0 {
		warns = append(warns, "daemon interval_sec must be positive")
	}
	return warns
}
