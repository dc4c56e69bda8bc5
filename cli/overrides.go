package cli

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/grovetools/br0wse/config"
	"github.com/grovetools/br0wse/internal/daemon/collector"
)

// OverrideFlags binds the flags that take precedence over br0wse.yml.
type OverrideFlags struct {
	fs *pflag.FlagSet

	serviceType string
	domain      string
	pollTimeout time.Duration
	tick        time.Duration
	noTimer     bool
}

// BindOverrides registers --service-type, --domain, --poll-timeout, --tick
// and --no-timer on fs.
func BindOverrides(fs *pflag.FlagSet) *OverrideFlags {
	o := &OverrideFlags{fs: fs}
	fs.StringVarP(&o.serviceType, "service-type", "t", "", "DNS-SD service type to browse (e.g. _http._tcp)")
	fs.StringVar(&o.domain, "domain", "", "Browse domain")
	fs.DurationVar(&o.pollTimeout, "poll-timeout", collector.DefaultPollTimeout, "Timeout of each discovery poll")
	fs.DurationVar(&o.tick, "tick", 2*time.Second, "Interval between synthetic timer records")
	fs.BoolVar(&o.noTimer, "no-timer", false, "Do not run the timer task")
	return o
}

// Overrides returns only the flags the user actually set.
func (o *OverrideFlags) Overrides() config.Overrides {
	var out config.Overrides
	if o.fs.Changed("service-type") {
		out.ServiceType = &o.serviceType
	}
	if o.fs.Changed("domain") {
		out.Domain = &o.domain
	}
	if o.fs.Changed("poll-timeout") {
		out.PollTimeout = &o.pollTimeout
	}
	if o.fs.Changed("tick") {
		out.Tick = &o.tick
	}
	if o.fs.Changed("no-timer") {
		out.NoTimer = &o.noTimer
	}
	return out
}
