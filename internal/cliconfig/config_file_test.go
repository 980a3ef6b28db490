package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileConfig(t *testing.T) {
	path := writeConfigFile(t, `
valid_states = ["mem"]
hibernate = false
dvfs = true
freq_table_khz = [200000, 400000]
qos_default_khz = 200000
qos_client = "power"
listen_addr = "127.0.0.1:8000"
debug = true
stage_delay = "5ms"
`)

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig() = %v", err)
	}

	if len(fc.ValidStates) != 1 || fc.ValidStates[0] != "mem" {
		t.Errorf("ValidStates = %v, want [mem]", fc.ValidStates)
	}
	if fc.Hibernate == nil || *fc.Hibernate {
		t.Error("Hibernate not decoded as false")
	}
	if fc.Debug == nil || !*fc.Debug {
		t.Error("Debug not decoded as true")
	}
	if fc.ListenAddr != "127.0.0.1:8000" {
		t.Errorf("ListenAddr = %q", fc.ListenAddr)
	}
}

func TestLoadFileConfig_BadTOML(t *testing.T) {
	path := writeConfigFile(t, `valid_states = [`)

	if _, err := LoadFileConfig(path); err == nil {
		t.Error("LoadFileConfig() = nil error for malformed TOML")
	}
}

func TestApplyFileConfig(t *testing.T) {
	path := writeConfigFile(t, `
valid_states = ["standby"]
hibernate = false
qos_default_khz = 300000
stage_delay = "1ms"
`)
	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig() = %v", err)
	}

	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, map[string]bool{}); err != nil {
		t.Fatalf("ApplyFileConfig() = %v", err)
	}

	if len(cfg.ValidStates) != 1 || cfg.ValidStates[0] != "standby" {
		t.Errorf("ValidStates = %v, want [standby]", cfg.ValidStates)
	}
	if cfg.Hibernate {
		t.Error("Hibernate = true, want false from file")
	}
	if cfg.QoSDefaultKHz != 300000 {
		t.Errorf("QoSDefaultKHz = %d, want 300000", cfg.QoSDefaultKHz)
	}
	if cfg.StageDelay.String() != "1ms" {
		t.Errorf("StageDelay = %v, want 1ms", cfg.StageDelay)
	}
	// Fields absent from the file keep defaults.
	if !cfg.DVFS {
		t.Error("DVFS = false, want default true")
	}
}

func TestApplyFileConfig_AuditMaxRowsZeroKeepsEverything(t *testing.T) {
	path := writeConfigFile(t, `
audit_max_rows = 0
`)
	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig() = %v", err)
	}

	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, map[string]bool{}); err != nil {
		t.Fatalf("ApplyFileConfig() = %v", err)
	}

	// An explicit zero means unbounded retention, overriding the default.
	if cfg.AuditMaxRows != 0 {
		t.Errorf("AuditMaxRows = %d, want 0", cfg.AuditMaxRows)
	}

	// An absent key still keeps the default.
	cfg = DefaultConfig()
	if err := ApplyFileConfig(&cfg, FileConfig{}, map[string]bool{}); err != nil {
		t.Fatalf("ApplyFileConfig() = %v", err)
	}
	if cfg.AuditMaxRows != DefaultConfig().AuditMaxRows {
		t.Errorf("AuditMaxRows = %d, want default %d", cfg.AuditMaxRows, DefaultConfig().AuditMaxRows)
	}
}

func TestApplyFileConfig_FlagPrecedence(t *testing.T) {
	path := writeConfigFile(t, `
listen_addr = "10.0.0.1:80"
debug = true
`)
	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig() = %v", err)
	}

	cfg := DefaultConfig()
	changed := map[string]bool{"listen": true, "debug": true}
	if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
		t.Fatalf("ApplyFileConfig() = %v", err)
	}

	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %q, want flag value preserved", cfg.ListenAddr)
	}
	if cfg.Debug {
		t.Error("Debug = true, want flag value preserved")
	}
}

func TestFileExists(t *testing.T) {
	path := writeConfigFile(t, "")
	if !FileExists(path) {
		t.Error("FileExists() = false for existing file")
	}
	if FileExists(filepath.Join(t.TempDir(), "missing.toml")) {
		t.Error("FileExists() = true for missing file")
	}
}
