package google

import (
	"log/slog"
	"net/http"
	"time"
)

// loggingTransport logs method, URL, status and latency of outgoing API
// requests at debug level. Bodies and headers are never logged.
type loggingTransport struct {
	base   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	rt := t.base
	if rt == nil {
		rt = http.DefaultTransport
	}

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.logger.Debug("gmail request failed",
			slog.String("method", req.Method),
			slog.String("url", req.URL.Redacted()),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		return resp, err
	}

	t.logger.Debug("gmail request",
		slog.String("method", req.Method),
		slog.String("url", req.URL.Redacted()),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))
	return resp, nil
}
