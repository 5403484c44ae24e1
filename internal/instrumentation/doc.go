// Package instrumentation provides OpenTelemetry metrics and tracing for the
// MCP server.
//
// # Metrics
//
//   - http_requests_total, http_request_duration_seconds: streamable HTTP transport
//   - upstream_operations_total, upstream_operation_duration_seconds: Gmail API
//     and chatter database calls, by service, operation and status
//   - oauth_auth_total: interactive authorizations by result
//   - oauth_token_refresh_total: token refresh attempts by result
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds: tool calls by tool and status
//
// # Tracing
//
// Spans are created for tool invocations (tool.<name>) and upstream calls
// (gmail.list, gmail.get, sqlite.query).
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: mcp-server)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_ARGUMENTS
//
// Stdout exporters write to stderr since stdout carries the stdio transport.
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordUpstreamOperation(ctx, instrumentation.ServiceGmail,
//		instrumentation.OperationList, instrumentation.StatusSuccess, time.Since(start))
package instrumentation
