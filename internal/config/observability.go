package config

// ServiceName tags every log line of this program.
const ServiceName = "orders-report"

// ObservabilityConfig groups the settings that shape logging.
//
// It is optional: if no REPORT_* variable is set, DefaultObservabilityConfig
// is used as-is.
type ObservabilityConfig struct {
	// ServiceName is forced to the ServiceName constant by Load.
	ServiceName string `koanf:"service_name" validate:"required"`

	// Environment switches behavior: "local" enables SQL query tracing.
	Environment string `koanf:"env" validate:"oneof=local development production"`

	// LogLevel is the verbosity threshold (debug/info/warn/error).
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects console (human) or json output.
	LogFormat string `koanf:"log_format" validate:"oneof=console json"`

	// LogFile optionally mirrors logs into a rotating file.
	LogFile string `koanf:"log_file"`
}

// DefaultObservabilityConfig provides the defaults used when nothing is set.
func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{
		ServiceName: ServiceName,
		Environment: "development",
		LogLevel:    "info",
		LogFormat:   "console",
	}
}

func (c *ObservabilityConfig) applyDefaults() {
	d := DefaultObservabilityConfig()
	if c.Environment == "" {
		c.Environment = d.Environment
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
}

// IsLocal reports whether SQL tracing should be on.
func (c *ObservabilityConfig) IsLocal() bool {
	return c.Environment == "local"
}

// IsProduction reports whether the program is running in production mode.
func (c *ObservabilityConfig) IsProduction() bool {
	return c.Environment == "production"
}
