// Package server holds the runtime state shared by the MCP tools and the
// HTTP plumbing around them.
//
// # Key Components
//
// ServerContext owns the Gmail session manager, the chatter store and the
// instrumentation. Tools reach Gmail through ServerContext.Mailbox, which
// authorizes on first use and caches the client for the active session.
//
// HealthChecker serves /healthz (liveness) and /readyz (readiness). Readiness
// runs the gmail_credentials and chatter_db checks on every probe.
//
// MetricsServer exposes Prometheus metrics on a dedicated address.
// NewHTTPHandler mounts the streamable HTTP MCP endpoint next to the health
// endpoints.
package server
