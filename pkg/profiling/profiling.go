// Package profiling adds pprof capture flags to a cobra command tree.
package profiling

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CobraProfiler captures CPU and heap profiles around a command run and
// optionally reports its wall time.
type CobraProfiler struct {
	cpuProfilePath string
	memProfilePath string
	timing         bool

	cpuProfileFile *os.File
	started        time.Time

	// Out receives the summary lines. Defaults to the command's stderr.
	Out    io.Writer
	Logger *logrus.Entry
}

// NewCobraProfiler returns a profiler that logs failures to logger.
func NewCobraProfiler(logger *logrus.Entry) *CobraProfiler {
	return &CobraProfiler{Logger: logger}
}

// AddFlags registers --cpu-profile, --mem-profile and --timing as
// persistent flags on cmd.
func (p *CobraProfiler) AddFlags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.StringVar(&p.cpuProfilePath, "cpu-profile", "", "Write a CPU profile to this file")
	fs.StringVar(&p.memProfilePath, "mem-profile", "", "Write a heap profile to this file on exit")
	fs.BoolVar(&p.timing, "timing", false, "Print the command's wall time on exit")
}

// Enabled reports whether any profiling output was requested.
func (p *CobraProfiler) Enabled() bool {
	return p.cpuProfilePath != "" || p.memProfilePath != "" || p.timing
}

// PreRun is a PersistentPreRunE hook that starts CPU profiling.
func (p *CobraProfiler) PreRun(cmd *cobra.Command, args []string) error {
	p.started = time.Now()
	if p.cpuProfilePath == "" {
		return nil
	}
	f, err := os.Create(p.cpuProfilePath)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("could not start CPU profile: %w", err)
	}
	p.cpuProfileFile = f
	return nil
}

// PostRun stops profiling and writes the requested files. It is safe to
// call when PreRun never ran.
func (p *CobraProfiler) PostRun(cmd *cobra.Command, args []string) {
	out := p.Out
	if out == nil {
		out = cmd.ErrOrStderr()
	}

	if p.cpuProfileFile != nil {
		pprof.StopCPUProfile()
		p.cpuProfileFile.Close()
		p.cpuProfileFile = nil
		fmt.Fprintf(out, "CPU profile written to %s\n", p.cpuProfilePath)
	}

	if p.memProfilePath != "" {
		if err := writeHeapProfile(p.memProfilePath); err != nil {
			p.logf("could not write memory profile: %v", err)
		} else {
			fmt.Fprintf(out, "Memory profile written to %s\n", p.memProfilePath)
		}
	}

	if p.timing && !p.started.IsZero() {
		fmt.Fprintf(out, "%s took %v\n", cmd.CommandPath(), time.Since(p.started).Round(time.Millisecond))
	}
}

func (p *CobraProfiler) logf(format string, args ...interface{}) {
	if p.Logger != nil {
		p.Logger.Warnf(format, args...)
	}
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
