package config

//go:generate sh -c "cd .. && go run ./tools/schema-generator/"

import (
	"time"

	"github.com/grovetools/br0wse/logging"
)

// Config is the complete br0wse configuration.
type Config struct {
	Version   string          `yaml:"version" json:"version" jsonschema:"description=Configuration version (e.g. '1.0')"`
	Discovery DiscoveryConfig `yaml:"discovery" json:"discovery" jsonschema:"description=Network service discovery"`
	Timer     TimerConfig     `yaml:"timer" json:"timer" jsonschema:"description=Synthetic periodic records"`
	Daemon    DaemonConfig    `yaml:"daemon" json:"daemon" jsonschema:"description=Background daemon settings"`
	Logging   logging.Config  `yaml:"logging" json:"logging" jsonschema:"description=Structured logging"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry" jsonschema:"description=OpenTelemetry tracing"`
}

// DiscoveryConfig configures the discovery worker.
type DiscoveryConfig struct {
	// ServiceType is the DNS-SD service type to browse, e.g. "_http._tcp".
	ServiceType string `yaml:"service_type" json:"service_type" jsonschema:"description=DNS-SD service type such as _http._tcp"`
	// Domain is the browse domain.
	Domain string `yaml:"domain" json:"domain" jsonschema:"description=Browse domain (default local)"`
	// PollTimeout bounds each discovery poll.
	PollTimeout time.Duration `yaml:"poll_timeout" json:"poll_timeout" jsonschema:"description=Timeout of each discovery poll (e.g. 500ms)"`
	// Interface restricts queries to one network interface.
	Interface   string `yaml:"interface" json:"interface" jsonschema:"description=Network interface to query on; empty for the system default"`
	DisableIPv6 bool   `yaml:"disable_ipv6" json:"disable_ipv6"`
	// Dedupe forwards each (instance, host, port) only once per session.
	Dedupe bool `yaml:"dedupe" json:"dedupe" jsonschema:"description=Forward each service only once per session"`
}

// TimerConfig configures the periodic synthetic record task.
type TimerConfig struct {
	Enabled  bool          `yaml:"enabled" json:"enabled"`
	Interval time.Duration `yaml:"interval" json:"interval" jsonschema:"description=Time between synthetic records (e.g. 2s)"`
	Prefix   string        `yaml:"prefix" json:"prefix" jsonschema:"description=Record prefix; records are <prefix>-<n>"`
}

// DaemonConfig configures br0wsed.
type DaemonConfig struct {
	// Socket overrides the unix socket path.
	Socket string `yaml:"socket" json:"socket" jsonschema:"description=Unix socket path; empty for the runtime dir default"`
	// ConfigDebounce collapses bursts of config file events.
	ConfigDebounce time.Duration `yaml:"config_debounce" json:"config_debounce"`
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	Stdout      bool   `yaml:"stdout" json:"stdout" jsonschema:"description=Export spans to stdout"`
	ServiceName string `yaml:"service_name" json:"service_name"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: "1.0",
		Discovery: DiscoveryConfig{
			ServiceType: "_http._tcp",
			Domain:      "local",
			PollTimeout: 500 * time.Millisecond,
			Dedupe:      true,
		},
		Timer: TimerConfig{
			Enabled:  true,
			Interval: 2 * time.Second,
			Prefix:   "tick",
		},
		Daemon: DaemonConfig{
			ConfigDebounce: 100 * time.Millisecond,
		},
		Logging: logging.Config{
			Level: "info",
			Format: logging.FormatConfig{
				Preset:             "default",
				StructuredToStderr: "auto",
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName: "br0wse",
		},
	}
}

// SetDefaults fills zero values that have no meaningful zero.
func (c *Config) SetDefaults() {
	def := Default()
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.Discovery.Domain == "" {
		c.Discovery.Domain = def.Discovery.Domain
	}
	if c.Discovery.PollTimeout == 0 {
		c.Discovery.PollTimeout = def.Discovery.PollTimeout
	}
	if c.Timer.Interval == 0 {
		c.Timer.Interval = def.Timer.Interval
	}
	if c.Timer.Prefix == "" {
		c.Timer.Prefix = def.Timer.Prefix
	}
	if c.Daemon.ConfigDebounce == 0 {
		c.Daemon.ConfigDebounce = def.Daemon.ConfigDebounce
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = def.Telemetry.ServiceName
	}
}
