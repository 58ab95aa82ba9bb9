package telemetry

import (
	"fmt"
	"time"
)

// Config is the telemetry configuration for a clusterline process.
type Config struct {
	// ServiceName identifies this process in traces and metrics.
	ServiceName string

	// ServiceVersion is the build version.
	ServiceVersion string

	// Logging configures structured logging.
	Logging LoggingConfig

	// Tracing configures pipeline-phase tracing.
	Tracing TracingConfig

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig

	// Events configures the in-process event bus.
	Events EventsConfig
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	// Level is the minimum level (trace, debug, info, warn, error).
	Level string

	// Format is console or json.
	Format string

	// Output is stdout, stderr, or a file path.
	Output string
}

// TracingConfig configures the OpenTelemetry tracer.
type TracingConfig struct {
	// Enabled turns tracing on.
	Enabled bool

	// Exporter is stdout, otlp, or none.
	Exporter string

	// Endpoint is the OTLP gRPC endpoint.
	Endpoint string

	// SamplingRate is 0.0 to 1.0.
	SamplingRate float64

	// Insecure disables TLS for the OTLP connection.
	Insecure bool

	// ExportTimeout bounds trace export.
	ExportTimeout time.Duration
}

// MetricsConfig configures the Prometheus registry and endpoint.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	Enabled bool

	// ListenAddress serves /metrics when non-empty.
	ListenAddress string

	// Namespace prefixes every metric family.
	Namespace string
}

// EventsConfig configures the event bus.
type EventsConfig struct {
	// Enabled turns event publishing on.
	Enabled bool

	// BufferSize is the async delivery buffer; 0 delivers synchronously.
	BufferSize int
}

// DefaultConfig returns the defaults for a CLI invocation: console logs,
// everything else off until a flag enables it.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "clusterline",
		ServiceVersion: "dev",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Tracing: TracingConfig{
			Enabled:       false,
			Exporter:      "stdout",
			SamplingRate:  1.0,
			Insecure:      true,
			ExportTimeout: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "clusterline",
		},
		Events: EventsConfig{
			Enabled:    true,
			BufferSize: 0,
		},
	}
}

// Validate rejects configurations the components cannot honor.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("telemetry: service name is required")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("telemetry: unsupported log format %q", c.Logging.Format)
	}
	if c.Tracing.Enabled {
		switch c.Tracing.Exporter {
		case "stdout", "otlp", "none":
		default:
			return fmt.Errorf("telemetry: unsupported trace exporter %q", c.Tracing.Exporter)
		}
		if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
			return fmt.Errorf("telemetry: sampling rate must be within [0, 1]")
		}
	}
	return nil
}
