package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpcloud/tail"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grovetools/br0wse/cli"
	"github.com/grovetools/br0wse/config"
	"github.com/grovetools/br0wse/errors"
	"github.com/grovetools/br0wse/internal/daemon/collector"
	"github.com/grovetools/br0wse/internal/daemon/engine"
	"github.com/grovetools/br0wse/internal/daemon/pidfile"
	"github.com/grovetools/br0wse/internal/daemon/refresh"
	"github.com/grovetools/br0wse/internal/daemon/server"
	"github.com/grovetools/br0wse/internal/daemon/watcher"
	"github.com/grovetools/br0wse/logging"
	"github.com/grovetools/br0wse/pkg/daemon"
	"github.com/grovetools/br0wse/pkg/paths"
	"github.com/grovetools/br0wse/pkg/process"
)

func newDaemonCmd(ov *cli.OverrideFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run a headless browse session (br0wsed)",
		Long: `br0wsed runs one browse session without a UI and serves its stores over a
unix socket. 'br0wse watch' and 'br0wse state' read from it.`,
	}

	cmd.AddCommand(newDaemonStartCmd(ov))
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())
	cmd.AddCommand(newDaemonLogsCmd())

	return cmd
}

func newDaemonStartCmd(ov *cli.OverrideFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadRuntime(cmd, ov, func(c *config.Config) {
				// The daemon always keeps a log file for 'daemon logs'.
				if !c.Logging.File.Enabled {
					c.Logging.File.Enabled = true
					c.Logging.File.Path = paths.DaemonLogPath()
				}
			})
			if err != nil {
				return err
			}
			return runDaemon(cmd.Context(), cfg, path)
		},
	}
}

func runDaemon(parent context.Context, cfg *config.Config, cfgPath string) error {
	logger := logging.NewLogger("br0wsed")
	pidPath := paths.PidFilePath()
	sockPath := socketPath(cfg)

	if err := paths.EnsureDirs(); err != nil {
		return err
	}

	// 1. Acquire lock
	if err := pidfile.Acquire(pidPath); err != nil {
		return err
	}
	defer func() {
		if err := pidfile.Release(pidPath); err != nil {
			logger.Errorf("Failed to release pidfile: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdown, err := initTelemetry(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer scancel()
		_ = shutdown(sctx)
	}()

	// 2. Session
	hub := refresh.NewHub(0)
	sess, err := engine.NewSession(sessionConfig(cfg), collector.OpenMDNS, hub, logging.NewLogger("session"))
	if err != nil {
		return err
	}
	defer sess.Close()

	// 3. Server
	srv := server.New(sess, hub, logger)
	srv.SetRunningConfig(runningConfig(cfg, cfgPath, sess))

	// 4. Config watcher: changes are announced, the session keeps running
	// with the config it started with.
	if cfgPath != "" {
		w, err := watcher.New(cfgPath, cfg.Daemon.ConfigDebounce, func(file string) {
			logger.WithField("file", file).Info("Config file changed; restart the daemon to apply it")
			hub.Broadcast(refresh.Signal{Kind: refresh.KindConfigReload, File: file})
		}, logging.NewLogger("watcher"))
		if err != nil {
			logger.WithError(err).Warn("Config file will not be watched")
		} else {
			defer w.Close()
			go w.Start(ctx)
		}
	}

	sessDone := make(chan error, 1)
	go func() { sessDone <- sess.Run(ctx) }()

	srvDone := make(chan error, 1)
	go func() { srvDone <- srv.ListenAndServe(sockPath) }()

	logger.WithFields(logrus.Fields{
		"pid":          os.Getpid(),
		"session":      sess.ID,
		"service_type": cfg.Discovery.ServiceType,
	}).Info("Daemon started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Received stop signal")
	case err := <-srvDone:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server error: %w", err)
		}
		srvDone = nil
	case err := <-sessDone:
		runErr = err
		sessDone = nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown error: %v", err)
	}
	sess.Close()
	if sessDone != nil {
		if err := <-sessDone; runErr == nil {
			runErr = err
		}
	}
	_ = os.Remove(sockPath)

	logger.Info("Daemon stopped")
	return runErr
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}
			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			if !running {
				pretty.Warn("Daemon is not running")
				return nil
			}

			stopped, err := process.Terminate(pid, 5*time.Second)
			if err != nil {
				return fmt.Errorf("failed to stop process %d: %w", pid, err)
			}
			if !stopped {
				return errors.New(errors.ErrCodeInternal, fmt.Sprintf("daemon (PID %d) did not exit within 5s", pid)).
					WithDetail("pid", pid)
			}
			pretty.Success(fmt.Sprintf("Stopped daemon (PID %d)", pid))
			return nil
		},
	}
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadRuntime(cmd, nil, nil)
			if err != nil {
				return err
			}
			sock := socketPath(cfg)

			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}
			if !running {
				return errors.DaemonNotRunning(sock)
			}

			client, err := daemon.Connect(sock)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
			defer cancel()
			state, err := client.GetState(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cli.GetOptions(cmd).JSONOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"pid":    pid,
					"socket": sock,
					"state":  state,
				})
			}

			pretty := logging.NewPrettyLogger().WithWriter(out).WithLabelWidth(11)
			pretty.Success(fmt.Sprintf("Running (PID %d)", pid))
			pretty.Path("Socket", sock)
			pretty.Field("Session", state.SessionID)
			pretty.Field("Browsing", state.ServiceType)
			pretty.Field("Uptime", time.Since(state.StartedAt).Round(time.Second))
			for _, name := range []string{engine.DiscoveredStore, engine.TicksStore} {
				if snap, ok := state.Stores[name]; ok {
					pretty.Field(name, fmt.Sprintf("%d records (rev %d)", len(snap.Records), snap.Revision))
				}
			}
			pretty.Field("Polls", fmt.Sprintf("%d (%d failed)", state.Worker.Polls, state.Worker.PollFailures))
			return nil
		},
	}
}

func newDaemonLogsCmd() *cobra.Command {
	var (
		follow bool
		lines  int
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		Long: `Prints the end of the daemon log file.

Examples:
  # Last 50 lines
  br0wse daemon logs -n 50

  # Follow new lines
  br0wse daemon logs -f`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return showLog(ctx, cmd.OutOrStdout(), paths.DaemonLogPath(), lines, follow)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of lines to show from the end of the log")
	return cmd
}

// showLog prints the last n lines of path and, when follow is set, keeps
// printing appended lines until ctx is done.
func showLog(ctx context.Context, out io.Writer, path string, n int, follow bool) error {
	offset, err := printLastLines(out, path, n)
	if err != nil {
		if !os.IsNotExist(err) || !follow {
			return fmt.Errorf("no daemon log at %s: %w", path, err)
		}
	}
	if !follow {
		return nil
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Location:  &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
		Logger:    stdlog.New(io.Discard, "", 0),
	})
	if err != nil {
		return err
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				continue
			}
			fmt.Fprintln(out, line.Text)
		}
	}
}

// printLastLines writes the final n lines of path and returns the file size
// it read up to.
func printLastLines(out io.Writer, path string, n int) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var (
		ring   []string
		offset int64
	)
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if strings.HasSuffix(line, "\n") {
			offset += int64(len(line))
			if n > 0 {
				ring = append(ring, strings.TrimRight(line, "\r\n"))
				if len(ring) > n {
					ring = ring[1:]
				}
			}
		}
		if err != nil {
			break
		}
	}
	for _, l := range ring {
		fmt.Fprintln(out, l)
	}
	return offset, nil
}
