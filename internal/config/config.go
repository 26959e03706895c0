package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andy/timeledger/internal/logger"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces the environment overrides
const EnvPrefix = "TIMELEDGER_"

type Config struct {
	// Database settings
	Database DatabaseConfig `yaml:"database"`

	// Account whose rows every repository reads and writes
	AccountID string `yaml:"account_id"`

	// Invoice settings
	Invoice InvoiceConfig `yaml:"invoice"`

	// Calendar view
	Calendar CalendarConfig `yaml:"calendar"`

	Logging logger.LogConfig `yaml:"logging"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // Path to SQLite database
}

type InvoiceConfig struct {
	DefaultDueDays int    `yaml:"default_due_days"` // Days until invoice due
	OutboxDir      string `yaml:"outbox_dir"`       // Where sent invoice emails are written
	FromAddress    string `yaml:"from_address"`     // Envelope sender; company email when empty
}

type CalendarConfig struct {
	StartHour  int `yaml:"start_hour"`
	EndHour    int `yaml:"end_hour"`
	HourHeight int `yaml:"hour_height"` // terminal rows per hour
}

func baseDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir unavailable
		homeDir = "."
	}
	return filepath.Join(homeDir, ".config", "timeledger")
}

// DefaultConfigPath returns ~/.config/timeledger/config.yaml
func DefaultConfigPath() string {
	return filepath.Join(baseDir(), "config.yaml")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	dir := baseDir()
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(dir, "timeledger.db"),
		},
		AccountID: "default",
		Invoice: InvoiceConfig{
			DefaultDueDays: 30,
			OutboxDir:      filepath.Join(dir, "outbox"),
		},
		Calendar: CalendarConfig{
			StartHour:  7,
			EndHour:    18,
			HourHeight: 4,
		},
		Logging: logger.DefaultConfig(),
	}
}

// Load loads config from the given path, or returns defaults if file doesn't exist.
// Environment overrides are applied on top either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads from the default config path, or TIMELEDGER_CONFIG when set
func LoadDefault() (*Config, error) {
	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		return Load(path)
	}
	return Load(DefaultConfigPath())
}

// ApplyEnv overrides fields from TIMELEDGER_* variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("DB_PATH", &c.Database.Path)
	str("ACCOUNT_ID", &c.AccountID)
	str("OUTBOX_DIR", &c.Invoice.OutboxDir)
	str("FROM_ADDRESS", &c.Invoice.FromAddress)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	str("LOG_OUTPUT", &c.Logging.Output)

	for name, dst := range map[string]*int{
		"DUE_DAYS":            &c.Invoice.DefaultDueDays,
		"CALENDAR_START_HOUR": &c.Calendar.StartHour,
		"CALENDAR_END_HOUR":   &c.Calendar.EndHour,
	} {
		if err := num(name, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate returns an error if the config cannot be used
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.AccountID) == "" {
		return fmt.Errorf("account_id is required")
	}
	if c.Invoice.DefaultDueDays < 0 {
		return fmt.Errorf("invoice.default_due_days must not be negative")
	}
	cal := c.Calendar
	if cal.StartHour < 0 || cal.EndHour > 24 || cal.StartHour >= cal.EndHour {
		return fmt.Errorf("calendar hours %d-%d are not a valid range", cal.StartHour, cal.EndHour)
	}
	if cal.HourHeight <= 0 {
		return fmt.Errorf("calendar.hour_height must be positive")
	}
	return nil
}

// Save writes the config to the given path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// EnsureDirectories creates the database and outbox directories
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(filepath.Dir(c.Database.Path), 0700); err != nil {
		return err
	}
	return os.MkdirAll(c.Invoice.OutboxDir, 0700)
}
