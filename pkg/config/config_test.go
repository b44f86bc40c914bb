package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mscrnt/mcadecode/pkg/config"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	t.Parallel()

	got, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := config.Default()
	if got.Decode.ErrorControlBit1 != want.Decode.ErrorControlBit1 {
		t.Errorf("ErrorControlBit1 = %v, want %v", got.Decode.ErrorControlBit1, want.Decode.ErrorControlBit1)
	}
	if got.Agent.Port != want.Agent.Port {
		t.Errorf("Agent.Port = %d, want %d", got.Agent.Port, want.Agent.Port)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := config.Default()
	cfg.Database.Path = "/var/lib/mcadecode/mcadecode.db"
	cfg.Decode.ProcessorSignature = "06_1AH"
	cfg.Agent.Port = 9443
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Endpoint = "https://example.invalid/events"

	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}

	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.Database.Path != cfg.Database.Path {
		t.Errorf("Database.Path = %q, want %q", got.Database.Path, cfg.Database.Path)
	}
	if got.Decode.ProcessorSignature != cfg.Decode.ProcessorSignature {
		t.Errorf("Decode.ProcessorSignature = %q, want %q", got.Decode.ProcessorSignature, cfg.Decode.ProcessorSignature)
	}
	if got.Agent.Port != cfg.Agent.Port {
		t.Errorf("Agent.Port = %d, want %d", got.Agent.Port, cfg.Agent.Port)
	}
	if !got.Telemetry.Enabled {
		t.Error("Telemetry.Enabled = false, want true")
	}
	if got.Telemetry.Endpoint != cfg.Telemetry.Endpoint {
		t.Errorf("Telemetry.Endpoint = %q, want %q", got.Telemetry.Endpoint, cfg.Telemetry.Endpoint)
	}
}

func TestPathHonorsEnvOverride(t *testing.T) {
	t.Setenv("MCADECODE_CONFIG", "/tmp/custom-mcadecode.toml")

	if got := config.Path(); got != "/tmp/custom-mcadecode.toml" {
		t.Errorf("Path() = %q, want /tmp/custom-mcadecode.toml", got)
	}
}
