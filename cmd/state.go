package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/br0wse/cli"
	"github.com/grovetools/br0wse/pkg/daemon"
	"github.com/grovetools/br0wse/tui/theme"
)

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state [store]",
		Short: "Print a snapshot of the daemon's stores",
		Long: `Prints the daemon's current state once. With a store name ("discovered"
or "ticks") only that store's records are printed, one per line.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"discovered", "ticks"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadRuntime(cmd, nil, nil)
			if err != nil {
				return err
			}
			client, err := daemon.Connect(socketPath(cfg))
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			out := cmd.OutOrStdout()
			jsonOut := cli.GetOptions(cmd).JSONOutput
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")

			if len(args) == 1 {
				snap, err := client.GetStore(ctx, args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return enc.Encode(snap)
				}
				for _, r := range snap.Records {
					fmt.Fprintln(out, r)
				}
				return nil
			}

			state, err := client.GetState(ctx)
			if err != nil {
				return err
			}
			if jsonOut {
				return enc.Encode(state)
			}

			t := theme.DefaultTheme
			fmt.Fprintln(out, t.Info.Render(fmt.Sprintf("Session %s browsing %s", state.SessionID, state.ServiceType)))
			for _, name := range []string{"discovered", "ticks"} {
				snap, ok := state.Stores[name]
				if !ok {
					continue
				}
				fmt.Fprintf(out, "\n%s %s\n", t.Bold.Render(name), t.Muted.Render(fmt.Sprintf("(rev %d)", snap.Revision)))
				for _, r := range snap.Records {
					fmt.Fprintf(out, "  %s\n", r)
				}
			}
			return nil
		},
	}
}
