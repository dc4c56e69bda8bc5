package logging

// Config defines the logging section of br0wse.yml.
type Config struct {
	// Level is the minimum log level to output (e.g., "debug", "info", "warn", "error").
	// Can be overridden by the BR0WSE_LOG_LEVEL environment variable.
	Level string `yaml:"level" json:"level" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=warning,enum=error,enum=fatal,enum=panic"`

	// ReportCaller, if true, includes the file, line, and function name in the log output.
	// Can be enabled with the BR0WSE_LOG_CALLER=true environment variable.
	ReportCaller bool `yaml:"report_caller" json:"report_caller"`

	// File configures logging to a file.
	File FileSinkConfig `yaml:"file" json:"file"`

	// Format configures the appearance of the log output.
	Format FormatConfig `yaml:"format" json:"format"`
}

// FileSinkConfig configures the file logging sink.
type FileSinkConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Path is the full path to the log file. Empty means the state log dir.
	Path string `yaml:"path" json:"path"`
}

// FormatConfig controls the log output format.
type FormatConfig struct {
	// Preset can be "default" (rich text), "simple" (minimal text), or "json".
	Preset string `yaml:"preset" json:"preset" jsonschema:"enum=,enum=default,enum=simple,enum=json"`
	// DisableTimestamp disables the timestamp from the "default" and "simple" formats.
	DisableTimestamp bool `yaml:"disable_timestamp" json:"disable_timestamp"`
	// DisableComponent disables the component name from the "default" and "simple" formats.
	DisableComponent bool `yaml:"disable_component" json:"disable_component"`
	// StructuredToStderr controls when structured logs are sent to stderr.
	// Can be "auto" (default), "always", or "never".
	StructuredToStderr string `yaml:"structured_to_stderr" json:"structured_to_stderr" jsonschema:"enum=,enum=auto,enum=always,enum=never"`
}
