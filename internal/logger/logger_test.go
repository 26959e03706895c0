package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetupWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "timeledger.log")
	closer, err := Setup(LogConfig{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("Setup() unexpected error: %v", err)
	}
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	l := WithComponent("invoices")
	l.Info().Str("invoice_id", "i1").Msg("invoice created")
	l.Debug().Msg("hidden")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"component":"invoices"`) || !strings.Contains(out, `"invoice_id":"i1"`) {
		t.Fatalf("log output = %q, want component and invoice_id fields", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level: %q", out)
	}
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	if _, err := Setup(LogConfig{Level: "chatty"}); err == nil {
		t.Fatal("Setup() with unknown level succeeded, want error")
	}
}
