package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.TickInterval != time.Second {
		t.Errorf("TickInterval = %v, want 1s", cfg.TickInterval)
	}
	if cfg.HeartbeatInterval != 30*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 30s", cfg.HeartbeatInterval)
	}
	if cfg.ListenPort != 0 {
		t.Errorf("ListenPort = %d, want 0 (dynamic)", cfg.ListenPort)
	}
	if cfg.DiscordClientID == "" {
		t.Error("DiscordClientID must have a default")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	in := NewConfig()
	in.ListenPort = 4242
	in.LogLevel = "debug"
	if err := SaveYAML(path, in); err != nil {
		t.Fatalf("SaveYAML: %v", err)
	}

	out, err := LoadYAMLOrDefault(path, NewConfig)
	if err != nil {
		t.Fatalf("LoadYAMLOrDefault: %v", err)
	}
	if out.ListenPort != 4242 {
		t.Errorf("ListenPort = %d, want 4242", out.ListenPort)
	}
	if out.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", out.LogLevel)
	}
	if out.TickInterval != time.Second {
		t.Errorf("TickInterval = %v, want 1s", out.TickInterval)
	}
}

func TestLoadYAMLOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadYAMLOrDefault(filepath.Join(t.TempDir(), "nope.yaml"), NewConfig)
	if err != nil {
		t.Fatalf("LoadYAMLOrDefault: %v", err)
	}
	if cfg.HeartbeatInterval != 30*time.Second {
		t.Errorf("missing file must yield defaults, got %+v", cfg)
	}
}

func TestApplyDefaultsFillsZeroFields(t *testing.T) {
	cfg := &Config{ListenPort: 9999}
	cfg.applyDefaults()

	if cfg.TickInterval != time.Second {
		t.Errorf("TickInterval = %v, want 1s", cfg.TickInterval)
	}
	if cfg.HeartbeatInterval != 30*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 30s", cfg.HeartbeatInterval)
	}
	if cfg.ListenPort != 9999 {
		t.Errorf("ListenPort = %d, explicit values must survive", cfg.ListenPort)
	}
}
