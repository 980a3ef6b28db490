package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config for TOML decoding. Durations are strings,
// bools are pointers so an absent key never overrides a default.
type FileConfig struct {
	ValidStates   []string `toml:"valid_states"`
	Hibernate     *bool    `toml:"hibernate"`
	TestLevels    *bool    `toml:"test_levels"`
	DVFS          *bool    `toml:"dvfs"`
	FreqTableKHz  []int    `toml:"freq_table_khz"`
	QoSDefaultKHz int      `toml:"qos_default_khz"`
	QoSClient     string   `toml:"qos_client"`
	AuditDB       string   `toml:"audit_db"`
	AuditMaxRows  *int     `toml:"audit_max_rows"`
	ListenAddr    string   `toml:"listen_addr"`
	Debug         *bool    `toml:"debug"`
	StageDelay    string   `toml:"stage_delay"`
}

// LoadFileConfig reads and parses a TOML config file.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.pmcore/config.toml when the home
// directory is resolvable.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".pmcore", "config.toml")
	}
	return ""
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ApplyFileConfig layers file values under explicitly set flags.
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	if len(fc.ValidStates) > 0 && !changed["states"] {
		cfg.ValidStates = fc.ValidStates
	}
	if len(fc.FreqTableKHz) > 0 && !changed["freq-table"] {
		cfg.FreqTableKHz = fc.FreqTableKHz
	}
	s.setBool("hibernate", fc.Hibernate, &cfg.Hibernate)
	s.setBool("test-levels", fc.TestLevels, &cfg.TestLevels)
	s.setBool("dvfs", fc.DVFS, &cfg.DVFS)
	s.setInt("qos-default", fc.QoSDefaultKHz, &cfg.QoSDefaultKHz)
	s.setString("qos-client", fc.QoSClient, &cfg.QoSClient)
	s.setString("audit-db", fc.AuditDB, &cfg.AuditDB)
	s.setIntPtr("audit-max-rows", fc.AuditMaxRows, &cfg.AuditMaxRows)
	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setBool("debug", fc.Debug, &cfg.Debug)
	return s.setDuration("stage-delay", fc.StageDelay, &cfg.StageDelay)
}

// ApplyEnvConfig layers PMCORE_* environment variables under explicitly
// set flags.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen", os.Getenv("PMCORE_LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("audit-db", os.Getenv("PMCORE_AUDIT_DB"), &cfg.AuditDB)
	s.setString("qos-client", os.Getenv("PMCORE_QOS_CLIENT"), &cfg.QoSClient)
	s.setBoolFromString("debug", os.Getenv("PMCORE_DEBUG"), &cfg.Debug)
	if err := s.setIntFromString("qos-default", os.Getenv("PMCORE_QOS_DEFAULT_KHZ"), &cfg.QoSDefaultKHz); err != nil {
		return err
	}
	return s.setDuration("stage-delay", os.Getenv("PMCORE_STAGE_DELAY"), &cfg.StageDelay)
}
