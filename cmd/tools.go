package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/axnasim/mcp-server/internal/logging"
	"github.com/axnasim/mcp-server/internal/server"
	"github.com/axnasim/mcp-server/internal/tools/common"
)

// errToolFailed is returned after an error result has been printed.
var errToolFailed = errors.New("tool call failed")

func newToolsCmd() *cobra.Command {
	var tools string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd.Context(), runtimeOptions{
				groups: parseCommaSeparatedList(tools),
				instr:  offlineInstrumentation(),
			})
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			out, err := json.MarshalIndent(rt.registry.Tools(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode tool catalog: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&tools, "tools", "", "Comma-separated tool groups: gmail, chatter (default: all)")
	return cmd
}

func newCallCmd() *cobra.Command {
	var noInteractiveAuth bool

	cmd := &cobra.Command{
		Use:   "call <tool> [json-arguments]",
		Short: "Invoke a tool once and print its output",
		Long: `Invoke a tool through the same registry the MCP server uses and print each
text block of the result. Arguments are a JSON object, for example:

  mcp-server call search_linkedin_emails '{"email_type": "jobs", "max_results": 5}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var toolArgs map[string]any
			if len(args) == 2 && strings.TrimSpace(args[1]) != "" {
				if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
					return fmt.Errorf("arguments must be a JSON object: %w", err)
				}
			}

			if noInteractiveAuth {
				cfg.InteractiveAuth = false
			}

			stderr := cmd.ErrOrStderr()
			rt, err := newRuntime(cmd.Context(), runtimeOptions{
				instr: offlineInstrumentation(),
				server: server.Options{
					OnAuthURL: func(url string) {
						fmt.Fprintf(stderr, "Open this URL in your browser to authorize Gmail access:\n\n  %s\n\n", url)
					},
				},
			})
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			logging.WithTool(logger, args[0]).Debug("calling tool", logging.Operation("call"))
			result, err := rt.registry.Call(cmd.Context(), args[0], toolArgs)
			if err != nil {
				return err
			}
			for _, block := range common.TextBlocks(result) {
				fmt.Fprintln(cmd.OutOrStdout(), block)
			}
			if result.IsError {
				return errToolFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noInteractiveAuth, "no-interactive-auth", false, "Never start the browser consent flow")
	return cmd
}
