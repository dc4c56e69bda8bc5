package cmd

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grovetools/br0wse/cli"
	"github.com/grovetools/br0wse/config"
	"github.com/grovetools/br0wse/internal/daemon/collector"
	"github.com/grovetools/br0wse/internal/daemon/engine"
	"github.com/grovetools/br0wse/logging"
	"github.com/grovetools/br0wse/pkg/models"
	"github.com/grovetools/br0wse/pkg/paths"
	"github.com/grovetools/br0wse/pkg/telemetry"
	"github.com/grovetools/br0wse/version"
)

// loadRuntime loads the configuration, applies flag overrides and installs
// the logging config. adjust, when set, runs before logging is configured.
func loadRuntime(cmd *cobra.Command, ov *cli.OverrideFlags, adjust func(*config.Config)) (*config.Config, string, error) {
	opts := cli.GetOptions(cmd)

	cfg, path, err := cli.LoadConfig(opts)
	if err != nil {
		return nil, path, err
	}
	if ov != nil {
		if err := cfg.Apply(ov.Overrides()); err != nil {
			return nil, path, err
		}
	}
	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}
	if adjust != nil {
		adjust(cfg)
	}

	logging.Configure(cfg.Logging)
	routeStdlibLog()
	return cfg, path, nil
}

// routeStdlibLog sends the standard library logger, which the mdns client
// writes to, through logrus at debug level.
func routeStdlibLog() {
	log.SetFlags(0)
	log.SetOutput(logging.NewLogger("mdns").WriterLevel(logrus.DebugLevel))
}

func sessionConfig(cfg *config.Config) engine.SessionConfig {
	return engine.SessionConfig{
		Worker: collector.WorkerConfig{
			ServiceType: cfg.Discovery.ServiceType,
			PollTimeout: cfg.Discovery.PollTimeout,
			Dedupe:      cfg.Discovery.Dedupe,
			Source: collector.SourceOptions{
				Domain:      cfg.Discovery.Domain,
				Interface:   cfg.Discovery.Interface,
				DisableIPv6: cfg.Discovery.DisableIPv6,
			},
		},
		Timer: engine.TimerConfig{
			Interval: cfg.Timer.Interval,
			Prefix:   cfg.Timer.Prefix,
		},
		DisableTimer: !cfg.Timer.Enabled,
	}
}

func runningConfig(cfg *config.Config, path string, sess *engine.Session) *models.RunningConfig {
	rc := &models.RunningConfig{
		ServiceType:  cfg.Discovery.ServiceType,
		Domain:       cfg.Discovery.Domain,
		PollTimeout:  cfg.Discovery.PollTimeout,
		Interface:    cfg.Discovery.Interface,
		Dedupe:       cfg.Discovery.Dedupe,
		TickInterval: cfg.Timer.Interval,
		TickPrefix:   cfg.Timer.Prefix,
		TimerEnabled: cfg.Timer.Enabled,
		ConfigFile:   path,
	}
	if sess != nil {
		rc.StartedAt = sess.StartedAt
	}
	return rc
}

// socketPath returns the configured daemon socket or the default one.
func socketPath(cfg *config.Config) string {
	if cfg != nil && cfg.Daemon.Socket != "" {
		return cfg.Daemon.Socket
	}
	return paths.SocketPath()
}

// initTelemetry installs the tracer provider. When toFile is set, exported
// spans go to traces.json in the log directory instead of stdout.
func initTelemetry(ctx context.Context, cfg *config.Config, toFile bool) (telemetry.ShutdownFunc, error) {
	tc := telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version.Version,
		UseStdout:      cfg.Telemetry.Stdout,
	}
	var f *os.File
	if tc.UseStdout && toFile {
		if err := os.MkdirAll(paths.LogDir(), 0755); err != nil {
			return nil, err
		}
		var err error
		f, err = os.OpenFile(filepath.Join(paths.LogDir(), "traces.json"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		tc.Writer = f
	}

	shutdown, err := telemetry.Init(ctx, tc)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, err
	}
	return func(ctx context.Context) error {
		err := shutdown(ctx)
		if f != nil {
			f.Close()
		}
		return err
	}, nil
}
