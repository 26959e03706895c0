package config

import (
	"os"
	"path/filepath"
	"testing"
)

func noEnv(string) (string, bool) { return "", false }

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("TIMELEDGER_DB_PATH", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Invoice.DefaultDueDays != 30 || cfg.AccountID != "default" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Calendar.StartHour != 7 || cfg.Calendar.EndHour != 18 {
		t.Errorf("calendar defaults = %+v", cfg.Calendar)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Database.Path = "/tmp/ledger.db"
	cfg.Invoice.DefaultDueDays = 14
	cfg.Logging.Level = "debug"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if loaded.Database.Path != "/tmp/ledger.db" || loaded.Invoice.DefaultDueDays != 14 || loaded.Logging.Level != "debug" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("calendar:\n  start_hour: 6\n  end_hour: 20\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Calendar.StartHour != 6 || cfg.Calendar.HourHeight != 4 || cfg.Invoice.DefaultDueDays != 30 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TIMELEDGER_DB_PATH":             "/data/ledger.db",
		"TIMELEDGER_ACCOUNT_ID":          "acct-2",
		"TIMELEDGER_DUE_DAYS":            "45",
		"TIMELEDGER_CALENDAR_START_HOUR": "5",
		"TIMELEDGER_LOG_FORMAT":          "json",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv() unexpected error: %v", err)
	}
	if cfg.Database.Path != "/data/ledger.db" || cfg.AccountID != "acct-2" || cfg.Invoice.DefaultDueDays != 45 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Calendar.StartHour != 5 || cfg.Logging.Format != "json" {
		t.Errorf("cfg = %+v", cfg)
	}

	env["TIMELEDGER_DUE_DAYS"] = "soon"
	if err := DefaultConfig().ApplyEnv(lookup); err == nil {
		t.Fatal("ApplyEnv() accepted a non-numeric due days value")
	}
	if err := DefaultConfig().ApplyEnv(noEnv); err != nil {
		t.Fatalf("ApplyEnv() with empty env: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"empty account", func(c *Config) { c.AccountID = " " }},
		{"inverted hours", func(c *Config) { c.Calendar.StartHour, c.Calendar.EndHour = 18, 7 }},
		{"hour past midnight", func(c *Config) { c.Calendar.EndHour = 25 }},
		{"zero height", func(c *Config) { c.Calendar.HourHeight = 0 }},
		{"negative due days", func(c *Config) { c.Invoice.DefaultDueDays = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate() succeeded, want error")
			}
		})
	}
}
