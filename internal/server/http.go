package server

import (
	"net/http"
	"time"

	"github.com/axnasim/mcp-server/internal/instrumentation"
)

// MCPEndpointPath is where the streamable HTTP transport is mounted.
const MCPEndpointPath = "/mcp"

// NewHTTPHandler routes the MCP endpoint and the health endpoints. Requests
// to /mcp are recorded in the HTTP metrics when metrics is non-nil.
func NewHTTPHandler(mcpHandler http.Handler, health *HealthChecker, metrics *instrumentation.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(MCPEndpointPath, InstrumentHTTP(MCPEndpointPath, mcpHandler, metrics))
	if health != nil {
		health.RegisterHealthEndpoints(mux)
	}
	return mux
}

// InstrumentHTTP records method, status and duration of every request under
// the fixed path label.
func InstrumentHTTP(path string, next http.Handler, metrics *instrumentation.Metrics) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.RecordHTTPRequest(r.Context(), r.Method, path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
