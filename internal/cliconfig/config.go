// Package cliconfig handles daemon configuration: defaults, TOML file,
// PMCORE_* environment variables, and command-line flags, in ascending
// precedence.
package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/arclight-labs/pmcore/internal/domain"
)

// DefaultListenAddr is where the control API listens.
const DefaultListenAddr = "127.0.0.1:7655"

// Config is the fully resolved daemon configuration.
type Config struct {
	// ValidStates names the volatile sleep states the platform can
	// enter, in wire form ("standby", "mem", "on").
	ValidStates []string

	// Hibernate enables the persist-to-storage state.
	Hibernate bool

	// TestLevels exposes the debug test level surface.
	TestLevels bool

	// DVFS exposes the frequency limit surface.
	DVFS bool

	// FreqTableKHz is the platform frequency table in kHz.
	FreqTableKHz []int

	// QoSDefaultKHz is the requirement pushed when the floor is
	// unconstrained.
	QoSDefaultKHz int

	// QoSClient is the name this core registers with the aggregator.
	QoSClient string

	// AuditDB is the SQLite path for the transition audit trail; empty
	// disables auditing.
	AuditDB string

	// AuditMaxRows caps retained audit rows; zero keeps everything.
	AuditMaxRows int

	// ListenAddr is the control API bind address.
	ListenAddr string

	// Debug enables arbiter resolution logging.
	Debug bool

	// StageDelay is the simulated per-stage engine latency.
	StageDelay time.Duration
}

// DefaultConfig returns a Config with defaults matching a common
// suspend-capable platform.
func DefaultConfig() Config {
	return Config{
		ValidStates:   []string{"standby", "mem"},
		Hibernate:     true,
		TestLevels:    true,
		DVFS:          true,
		FreqTableKHz:  []int{200000, 400000, 800000, 1000000},
		QoSDefaultKHz: 200000,
		QoSClient:     "power",
		AuditMaxRows:  1000,
		ListenAddr:    DefaultListenAddr,
		StageDelay:    10 * time.Millisecond,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := c.States(); err != nil {
		return err
	}
	if c.DVFS {
		if len(c.FreqTableKHz) == 0 {
			return fmt.Errorf("dvfs enabled but freq table is empty")
		}
		if c.QoSDefaultKHz <= 0 {
			return fmt.Errorf("qos default must be positive")
		}
		if c.QoSClient == "" {
			return fmt.Errorf("qos client name is required")
		}
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	return nil
}

// States resolves the configured state names to domain values.
func (c *Config) States() ([]domain.SleepState, error) {
	out := make([]domain.SleepState, 0, len(c.ValidStates))
	for _, name := range c.ValidStates {
		state, ok := parseState(name)
		if !ok {
			return nil, fmt.Errorf("unknown sleep state %q", name)
		}
		if !state.Volatile() {
			return nil, fmt.Errorf("state %q is not a volatile state", name)
		}
		out = append(out, state)
	}
	return out, nil
}

func parseState(name string) (domain.SleepState, bool) {
	for _, s := range domain.VolatileStates() {
		if s.String() == name {
			return s, true
		}
	}
	if name == domain.StateDisk.String() {
		return domain.StateDisk, true
	}
	return 0, false
}

// configSetter applies values while respecting flag precedence: a value
// is skipped when its flag was set explicitly on the command line.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr applies an optional int. Unlike setInt, an explicit zero in
// the source is a real value and is applied.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}
