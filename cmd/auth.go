package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/axnasim/mcp-server/internal/server"
)

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize Gmail access and store the token",
		Long: `Run the browser consent flow for Gmail now and persist the resulting token,
replacing any token already stored. Requires the OAuth client file
(credentials.json) from Google Cloud Console.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			authCfg := cfg
			authCfg.InteractiveAuth = true

			stderr := cmd.ErrOrStderr()
			sc, err := server.NewServerContext(ctx, server.Options{
				Config: authCfg,
				Logger: logger,
				OnAuthURL: func(url string) {
					fmt.Fprintf(stderr, "Open this URL in your browser to authorize Gmail access:\n\n  %s\n\n", url)
				},
			})
			if err != nil {
				return err
			}
			defer func() { _ = sc.Shutdown() }()

			if err := sc.Sessions().Authorize(ctx); err != nil {
				return fmt.Errorf("authorization failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", sc.Sessions().TokenStore().Path())
			return nil
		},
	}
}
