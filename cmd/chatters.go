package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/axnasim/mcp-server/internal/chatter"
)

func newChattersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chatters",
		Short: "Print chatters ranked by message count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := chatter.NewStore(cfg.ChatterDBPath, logger, nil)
			rows, err := store.RankedChatters(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMESSAGES")
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%d\n", row.Name, row.Messages)
			}
			return w.Flush()
		},
	}
}
