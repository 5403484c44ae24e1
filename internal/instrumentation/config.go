package instrumentation

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Environment variables read by DefaultConfig.
const (
	EnvServiceName           = "OTEL_SERVICE_NAME"
	EnvServiceInstanceID     = "OTEL_SERVICE_INSTANCE_ID"
	EnvEnabled               = "INSTRUMENTATION_ENABLED"
	EnvMetricsExporter       = "METRICS_EXPORTER"
	EnvTracingExporter       = "TRACING_EXPORTER"
	EnvOTLPEndpoint          = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPInsecure          = "OTEL_EXPORTER_OTLP_INSECURE"
	EnvTraceSamplingRate     = "OTEL_TRACES_SAMPLER_ARG"
	EnvAuditEnabled          = "AUDIT_LOGGING_ENABLED"
	EnvAuditIncludeArguments = "AUDIT_LOGGING_INCLUDE_ARGUMENTS"
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// ServiceName is the name of the service (default: mcp-server)
	ServiceName string

	ServiceVersion string

	// ServiceInstanceID defaults to the hostname.
	ServiceInstanceID string

	// Enabled determines if instrumentation is active (default: true)
	Enabled bool

	// MetricsExporter is one of prometheus (default), otlp or stdout.
	MetricsExporter string

	// TracingExporter is one of none (default), otlp or stdout.
	TracingExporter string

	// OTLPEndpoint is the OTLP collector endpoint, without protocol prefix.
	OTLPEndpoint string

	// OTLPInsecure disables TLS for OTLP export. Local development only.
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based sampling ratio (default: 0.1).
	TraceSamplingRate float64

	// ConsoleWriter receives the stdout exporters' output. Nil means
	// os.Stderr, since stdout may carry the MCP stdio transport.
	ConsoleWriter io.Writer

	// Logger receives exporter warnings. Nil means slog.Default().
	Logger *slog.Logger

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	// Enabled determines if audit logging is active (default: true)
	Enabled bool

	// IncludeArguments adds tool argument keys to audit entries.
	// Argument values are never logged.
	IncludeArguments bool
}

// DefaultConfig returns a Config built from the environment.
func DefaultConfig() Config {
	return Config{
		ServiceName:       envString(EnvServiceName, "mcp-server"),
		ServiceVersion:    "unknown",
		ServiceInstanceID: envString(EnvServiceInstanceID, ""),
		Enabled:           envBool(EnvEnabled, true),
		MetricsExporter:   envString(EnvMetricsExporter, ExporterPrometheus),
		TracingExporter:   envString(EnvTracingExporter, ExporterNone),
		OTLPEndpoint:      envString(EnvOTLPEndpoint, ""),
		OTLPInsecure:      envBool(EnvOTLPInsecure, false),
		TraceSamplingRate: envFloat(EnvTraceSamplingRate, 0.1),
		AuditLogging: AuditLoggingConfig{
			Enabled:          envBool(EnvAuditEnabled, true),
			IncludeArguments: envBool(EnvAuditIncludeArguments, false),
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		errs = append(errs, fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate))
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterStdout:
	case ExporterOTLP:
		if c.OTLPEndpoint == "" {
			errs = append(errs, errors.New("OTLP endpoint is required when using OTLP metrics exporter; set "+EnvOTLPEndpoint+" or use the prometheus exporter"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter))
	}

	switch c.TracingExporter {
	case "", ExporterNone, ExporterStdout:
	case ExporterOTLP:
		if c.OTLPEndpoint == "" {
			errs = append(errs, errors.New("OTLP endpoint is required when using OTLP tracing exporter; set "+EnvOTLPEndpoint))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter))
	}

	return errors.Join(errs...)
}

func (c *Config) consoleWriter() io.Writer {
	if c.ConsoleWriter != nil {
		return c.ConsoleWriter
	}
	return os.Stderr
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// envString returns the variable's value, or def when unset or empty.
func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envBool and envFloat fall back to def on unparsable values.
func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}

// Constants for metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	// OAuth result values
	OAuthResultSuccess = "success"
	OAuthResultFailure = "failure"

	// Upstream systems
	ServiceGmail  = "gmail"
	ServiceSQLite = "sqlite"

	// Exporter types
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	DefaultMetricInterval = 10 * time.Second
)
