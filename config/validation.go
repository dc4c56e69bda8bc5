package config

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/br0wse/errors"
)

// Validate checks semantic constraints the schema cannot express. The
// service type itself is validated when the discovery worker is created.
func (c *Config) Validate() error {
	if c.Discovery.ServiceType == "" {
		return errors.ConfigInvalid("discovery.service_type is required")
	}
	if c.Discovery.PollTimeout < 10*time.Millisecond {
		return errors.ConfigInvalid(fmt.Sprintf("discovery.poll_timeout %s is below 10ms", c.Discovery.PollTimeout)).
			WithDetail("field", "discovery.poll_timeout")
	}
	if c.Timer.Interval <= 0 {
		return errors.ConfigInvalid("timer.interval must be positive").
			WithDetail("field", "timer.interval")
	}
	if c.Daemon.ConfigDebounce < 0 {
		return errors.ConfigInvalid("daemon.config_debounce must not be negative").
			WithDetail("field", "daemon.config_debounce")
	}
	if c.Logging.Level != "" {
		if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("logging.level %q is not a log level", c.Logging.Level)).
				WithDetail("field", "logging.level")
		}
	}
	return nil
}
