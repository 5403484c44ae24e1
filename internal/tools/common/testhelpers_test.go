package common

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/axnasim/mcp-server/internal/instrumentation"
)

type testInstruments struct {
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
	reader  *sdkmetric.ManualReader
	logs    *bytes.Buffer
}

func newTestInstruments(t *testing.T) *testInstruments {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := instrumentation.NewMetrics(mp.Meter("test"))
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, nil))

	return &testInstruments{
		metrics: m,
		audit: instrumentation.NewAuditLogger(logger, instrumentation.AuditLoggingConfig{
			Enabled:          true,
			IncludeArguments: true,
		}),
		reader: reader,
		logs:   logs,
	}
}

func (ti *testInstruments) Metrics() *instrumentation.Metrics          { return ti.metrics }
func (ti *testInstruments) AuditLogger() *instrumentation.AuditLogger { return ti.audit }

// toolCalls returns the mcp_tool_invocations_total value for tool and status.
func (ti *testInstruments) toolCalls(t *testing.T, tool, status string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, ti.reader.Collect(context.Background(), &rm))

	want := attribute.NewSet(
		attribute.String("tool", tool),
		attribute.String("status", status),
	)
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "mcp_tool_invocations_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				if dp.Attributes.Equals(&want) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

// auditEntries decodes every JSON audit line written so far.
func (ti *testInstruments) auditEntries(t *testing.T) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(ti.logs.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}
