package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/axnasim/mcp-server/internal/instrumentation"
	"github.com/axnasim/mcp-server/internal/logging"
	"github.com/axnasim/mcp-server/internal/server"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"

	defaultHTTPAddr    = ":8080"
	defaultMetricsAddr = ":9090"
	shutdownTimeout    = 30 * time.Second
	startupTimeout     = 5 * time.Second
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

type serveOptions struct {
	transport         string
	httpAddr          string
	tools             string
	debug             bool
	noInteractiveAuth bool
	metrics           MetricsConfig
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp, with /healthz and
    /readyz next to it

Gmail authorization happens on the first Gmail tool call. Without a usable
token the browser consent flow starts on a loopback listener unless
--no-interactive-auth is set. Run "mcp-server auth" to authorize up front.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("metrics-enabled") && os.Getenv("METRICS_ENABLED") == "false" {
				opts.metrics.Enabled = false
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					opts.metrics.Addr = addr
				}
			}
			if opts.noInteractiveAuth {
				cfg.InteractiveAuth = false
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", defaultHTTPAddr, "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&opts.tools, "tools", "", "Comma-separated tool groups to expose: gmail, chatter (default: all)")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Log every Gmail API request")
	cmd.Flags().BoolVar(&opts.noInteractiveAuth, "no-interactive-auth", false, "Never start the browser consent flow")
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Serve Prometheus metrics (streamable-http only, env: METRICS_ENABLED)")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", defaultMetricsAddr, "Metrics server address (env: METRICS_ADDR)")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions, stdin io.Reader, stdout io.Writer) error {
	switch opts.transport {
	case transportStdio, transportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)", opts.transport, transportStdio, transportStreamableHTTP)
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	rt, err := newRuntime(ctx, runtimeOptions{
		groups: parseCommaSeparatedList(opts.tools),
		instr:  instrConfig,
		server: server.Options{
			DebugHTTP: opts.debug,
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := rt.Close(closeCtx); err != nil {
			logger.Warn("shutdown incomplete", logging.Err(err))
		}
	}()

	mcpSrv := newMCPServer(rt)
	logger.Info("starting MCP server",
		logging.Service("mcp"),
		"transport", opts.transport,
		"tools", rt.registry.Names(),
		"interactive_auth", cfg.InteractiveAuth,
		"gmail_credentials", rt.sc.Sessions().CredentialsPresent(),
		"gmail_token", rt.sc.Sessions().HasToken())

	if opts.transport == transportStdio {
		return runStdioServer(ctx, mcpSrv, stdin, stdout)
	}

	if opts.metrics.Enabled && rt.provider.PrometheusEnabled() {
		metricsServer, err := startMetricsServer(rt.provider, opts.metrics.Addr)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	return runStreamableHTTPServer(ctx, mcpSrv, rt, opts.httpAddr, nil)
}

func newMCPServer(rt *runtime) *mcpserver.MCPServer {
	opts := append([]mcpserver.ServerOption{mcpserver.WithToolCapabilities(true)}, rt.registry.ServerOptions()...)
	mcpSrv := mcpserver.NewMCPServer("mcp-server", version, opts...)
	rt.registry.Install(mcpSrv)
	return mcpSrv
}

// runStdioServer serves MCP on the given streams until EOF or ctx is done.
func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, stdin io.Reader, stdout io.Writer) error {
	stdio := mcpserver.NewStdioServer(mcpSrv)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))

	err := stdio.Listen(ctx, stdin, stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func startMetricsServer(provider *instrumentation.Provider, addr string) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	ready := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(ready); err != nil {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-ready:
		logger.Info("metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(startupTimeout):
		return nil, errors.New("metrics server startup timed out")
	}
}

// runStreamableHTTPServer serves /mcp plus the health endpoints until ctx is
// done. The bound address is sent on ready once the listener is up.
func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, rt *runtime, addr string, ready chan<- string) error {
	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(server.MCPEndpointPath),
		mcpserver.WithStateLess(true),
	)

	health := server.NewHealthChecker(rt.sc)
	rt.addReadinessChecks(health)
	httpSrv := &http.Server{
		Handler:           server.NewHTTPHandler(streamable, health, rt.provider.Metrics()),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	logger.Info("streamable HTTP server listening",
		"addr", ln.Addr().String(),
		"mcp_endpoint", server.MCPEndpointPath,
		"health_endpoints", []string{"/healthz", "/readyz"})
	if ready != nil {
		ready <- ln.Addr().String()
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
