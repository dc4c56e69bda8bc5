package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/grovetools/br0wse/cli"
	"github.com/grovetools/br0wse/pkg/daemon"
	"github.com/grovetools/br0wse/pkg/models"
	"github.com/grovetools/br0wse/tui/theme"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream updates from the daemon",
		Long: `Follows the daemon's stores and prints every new record as it arrives.
On a terminal the output is human readable; otherwise (or with --json)
each event is written as one JSON object per line.

Examples:
  br0wse watch
  br0wse watch --json | jq .new`,
		Args: cobra.NoArgs,
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

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			events, err := client.StreamState(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			human := !cli.GetOptions(cmd).JSONOutput && isTerminal(out)
			for ev := range events {
				if err := writeEvent(out, ev, human); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// writeEvent prints ev as NDJSON, or as readable lines when human is set.
func writeEvent(out io.Writer, ev models.StreamEvent, human bool) error {
	if !human {
		return json.NewEncoder(out).Encode(ev)
	}
	for _, line := range formatEvent(ev) {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

// formatEvent renders one stream event as terminal lines.
func formatEvent(ev models.StreamEvent) []string {
	t := theme.DefaultTheme
	var lines []string

	switch ev.Type {
	case models.EventInitial:
		if ev.State == nil {
			return nil
		}
		lines = append(lines, t.Info.Render(fmt.Sprintf("Session %s browsing %s", ev.State.SessionID, ev.State.ServiceType)))
		names := make([]string, 0, len(ev.State.Stores))
		for name := range ev.State.Stores {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, r := range ev.State.Stores[name].Records {
				lines = append(lines, recordLine(name, r))
			}
		}

	case models.EventStore:
		if ev.Store == nil {
			return nil
		}
		for _, r := range ev.New {
			lines = append(lines, recordLine(ev.Store.Name, r))
		}

	case models.EventConfigReload:
		lines = append(lines, t.Warning.Render(fmt.Sprintf("config changed: %s (restart the daemon to apply)", ev.File)))
	}
	return lines
}

func recordLine(store, record string) string {
	t := theme.DefaultTheme
	return fmt.Sprintf("%s %s", t.Accent.Render(fmt.Sprintf("[%s]", store)), record)
}
