package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/axnasim/mcp-server/internal/instrumentation"
	"github.com/axnasim/mcp-server/internal/server"
	"github.com/axnasim/mcp-server/internal/tools/chatter_tools"
	"github.com/axnasim/mcp-server/internal/tools/common"
	"github.com/axnasim/mcp-server/internal/tools/gmail_tools"
)

// Tool groups selectable with --tools.
const (
	toolGroupGmail   = "gmail"
	toolGroupChatter = "chatter"
)

var allToolGroups = []string{toolGroupGmail, toolGroupChatter}

// runtime bundles what every tool-serving command needs.
type runtime struct {
	provider *instrumentation.Provider
	sc       *server.ServerContext
	registry *common.Registry
	groups   []string
}

type runtimeOptions struct {
	groups []string
	instr  instrumentation.Config
	server server.Options
}

// newRuntime builds the instrumentation provider, the server context and a
// registry holding the selected tool groups. Close releases all of it.
func newRuntime(ctx context.Context, opts runtimeOptions) (*runtime, error) {
	groups, err := normalizeToolGroups(opts.groups)
	if err != nil {
		return nil, err
	}

	provider, err := instrumentation.NewProvider(ctx, opts.instr)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	srvOpts := opts.server
	srvOpts.Config = cfg
	srvOpts.Logger = logger
	srvOpts.Metrics = provider.Metrics()
	srvOpts.AuditLogger = instrumentation.NewAuditLogger(logger, opts.instr.AuditLogging)

	sc, err := server.NewServerContext(ctx, srvOpts)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	rt := &runtime{provider: provider, sc: sc, registry: common.NewRegistry(sc), groups: groups}
	if err := rt.registerTools(); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) registerTools() error {
	for _, group := range rt.groups {
		switch group {
		case toolGroupGmail:
			if err := gmail_tools.RegisterGmailTools(rt.registry, rt.sc); err != nil {
				return fmt.Errorf("failed to register Gmail tools: %w", err)
			}
		case toolGroupChatter:
			if err := chatter_tools.RegisterChatterTools(rt.registry, rt.sc.ChatterStore()); err != nil {
				return fmt.Errorf("failed to register chatter tools: %w", err)
			}
		}
	}
	return nil
}

// addReadinessChecks checks only what the served tool groups depend on.
func (rt *runtime) addReadinessChecks(h *server.HealthChecker) {
	for _, group := range rt.groups {
		switch group {
		case toolGroupGmail:
			h.AddCheck(server.CheckGmailCredentials, rt.sc.CheckGmailCredentials)
		case toolGroupChatter:
			h.AddCheck(server.CheckChatterDB, rt.sc.CheckChatterDB)
		}
	}
}

// Close shuts down the server context, then flushes telemetry.
func (rt *runtime) Close(ctx context.Context) error {
	var errs []error
	if err := rt.sc.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("server context shutdown: %w", err))
	}
	if err := rt.provider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("instrumentation shutdown: %w", err))
	}
	return errors.Join(errs...)
}

// offlineInstrumentation is used by one-shot commands: no exporters, audit
// entries still go to the log.
func offlineInstrumentation() instrumentation.Config {
	c := instrumentation.DefaultConfig()
	c.ServiceVersion = version
	c.Enabled = false
	return c
}

// normalizeToolGroups validates and deduplicates tool group names, keeping
// their first-seen order. An empty selection means every group.
func normalizeToolGroups(groups []string) ([]string, error) {
	if len(groups) == 0 {
		return allToolGroups, nil
	}

	seen := make(map[string]bool, len(groups))
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" || seen[g] {
			continue
		}
		switch g {
		case toolGroupGmail, toolGroupChatter:
		default:
			return nil, fmt.Errorf("unknown tool group %q, must be one of: %s", g, strings.Join(allToolGroups, ", "))
		}
		seen[g] = true
		out = append(out, g)
	}
	if len(out) == 0 {
		return allToolGroups, nil
	}
	return out, nil
}

// parseCommaSeparatedList parses a comma-separated string into a slice of
// trimmed, non-empty strings.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
