package cmd

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/grovetools/br0wse/cli"
	"github.com/grovetools/br0wse/internal/daemon/collector"
	"github.com/grovetools/br0wse/internal/daemon/engine"
	"github.com/grovetools/br0wse/internal/daemon/refresh"
	"github.com/grovetools/br0wse/internal/daemon/store"
	"github.com/grovetools/br0wse/internal/daemon/watcher"
	"github.com/grovetools/br0wse/logging"
	"github.com/grovetools/br0wse/tui"
)

func newBrowseCmd(ov *cli.OverrideFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse services interactively (default)",
		Long: `Starts one browse session and renders it in the terminal. The left pane
lists discovered services in arrival order; the right pane shows the
periodic tick records. Quitting drops the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, ov)
		},
	}
}

func runBrowse(cmd *cobra.Command, ov *cli.OverrideFlags) error {
	cfg, path, err := loadRuntime(cmd, ov, nil)
	if err != nil {
		return err
	}
	logger := logging.NewLogger("browse")

	// The TUI owns the terminal from here on.
	logging.SetGlobalOutput(io.Discard)
	defer logging.SetGlobalOutput(os.Stderr)
	tui.InitializeTUI()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdown, err := initTelemetry(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer scancel()
		_ = shutdown(sctx)
	}()

	hub := refresh.NewHub(0)
	sess, err := engine.NewSession(sessionConfig(cfg), collector.OpenMDNS, hub, logging.NewLogger("session"))
	if err != nil {
		return err
	}
	defer sess.Close()

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	if path != "" {
		w, err := watcher.New(path, cfg.Daemon.ConfigDebounce, func(file string) {
			hub.Broadcast(refresh.Signal{Kind: refresh.KindConfigReload, File: file})
		}, logging.NewLogger("watcher"))
		if err != nil {
			logger.WithError(err).Warn("Config file will not be watched")
		} else {
			defer w.Close()
			go w.Start(ctx)
		}
	}

	model := tui.New(tui.Options{
		SessionID:   sess.ID,
		ServiceType: sess.Worker().ServiceType().String(),
		Discovered:  sess.Discovered(),
		Ticks:       tickStore(sess),
		Signals:     sub,
		Stats:       sess.Worker().Stats,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	done := make(chan error, 1)
	go func() {
		err := sess.Run(ctx)
		done <- err
		p.Send(tui.SessionDoneMsg{Err: err})
	}()

	_, progErr := p.Run()
	sess.Close()
	runErr := <-done

	if progErr != nil && !stderrors.Is(progErr, tea.ErrProgramKilled) {
		return progErr
	}
	return runErr
}

// tickStore returns the ticks store only when the timer runs.
func tickStore(sess *engine.Session) *store.Store {
	if sess.Timer() == nil {
		return nil
	}
	return sess.Ticks()
}
