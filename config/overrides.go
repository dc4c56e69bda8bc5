package config

import (
	"time"
)

// Overrides are command-line values that take precedence over the file.
// Nil fields are left alone.
type Overrides struct {
	ServiceType *string
	Domain      *string
	PollTimeout *time.Duration
	Tick        *time.Duration
	NoTimer     *bool
}

// Apply writes the set overrides into c and re-validates it.
func (c *Config) Apply(o Overrides) error {
	if o.ServiceType != nil {
		c.Discovery.ServiceType = *o.ServiceType
	}
	if o.Domain != nil {
		c.Discovery.Domain = *o.Domain
	}
	if o.PollTimeout != nil {
		c.Discovery.PollTimeout = *o.PollTimeout
	}
	if o.Tick != nil {
		c.Timer.Interval = *o.Tick
	}
	if o.NoTimer != nil && *o.NoTimer {
		c.Timer.Enabled = false
	}
	return c.Validate()
}
