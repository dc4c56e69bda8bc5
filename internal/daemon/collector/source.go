package collector

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"
)

// Service is one discovery result.
type Service struct {
	Instance string   `json:"instance"`
	Host     string   `json:"host"`
	AddrV4   net.IP   `json:"addr_v4,omitempty"`
	AddrV6   net.IP   `json:"addr_v6,omitempty"`
	Port     int      `json:"port"`
	Text     []string `json:"text,omitempty"`
}

// Key identifies a service for de-duplication across polls.
func (s Service) Key() string {
	return fmt.Sprintf("%s|%s|%d", s.Instance, s.Host, s.Port)
}

// Describe renders the service as a single display line.
func (s Service) Describe() string {
	host := strings.TrimSuffix(s.Host, ".")
	if host == "" {
		if s.AddrV4 != nil {
			host = s.AddrV4.String()
		} else if s.AddrV6 != nil {
			host = s.AddrV6.String()
		}
	}
	return fmt.Sprintf("%s @ %s:%d", s.Instance, host, s.Port)
}

// Source is a blocking, polling discovery backend.
type Source interface {
	// Poll waits up to timeout and returns the services observed, in the
	// order the backend reported them.
	Poll(ctx context.Context, timeout time.Duration) ([]Service, error)

	// Close releases the source.
	Close() error
}

// SourceOptions carries backend settings that are not part of the service type.
type SourceOptions struct {
	Domain      string // Browse domain; empty means "local"
	Interface   string // Network interface to query on; empty means the system default
	DisableIPv6 bool
}

// Opener constructs a Source for a validated service type. It is called once
// per worker and fails loudly when the backend cannot be used.
type Opener func(st ServiceType, opts SourceOptions) (Source, error)
