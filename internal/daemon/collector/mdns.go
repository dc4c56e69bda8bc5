package collector

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// entryBuffer bounds how many responses a single poll keeps; the mdns client
// drops responses once the buffer is full.
const entryBuffer = 256

var (
	mdnsGroupV4 = &net.UDPAddr{IP: net.ParseIP("224.0.0.251"), Port: 5353}
	mdnsGroupV6 = &net.UDPAddr{IP: net.ParseIP("ff02::fb"), Port: 5353}

	// listenMulticast is swapped in tests.
	listenMulticast = net.ListenMulticastUDP
)

// mdnsSource polls the local network with multicast DNS queries.
type mdnsSource struct {
	serviceType ServiceType
	domain      string
	iface       *net.Interface
	disableIPv6 bool
}

// OpenMDNS is the production Opener. It fails if the requested network
// interface does not exist or no multicast socket can be bound on it.
func OpenMDNS(st ServiceType, opts SourceOptions) (Source, error) {
	src := &mdnsSource{
		serviceType: st,
		domain:      strings.Trim(opts.Domain, "."),
		disableIPv6: opts.DisableIPv6,
	}
	if src.domain == "" {
		src.domain = "local"
	}
	if opts.Interface != "" {
		iface, err := net.InterfaceByName(opts.Interface)
		if err != nil {
			return nil, fmt.Errorf("network interface %q: %w", opts.Interface, err)
		}
		src.iface = iface
	}
	if err := checkMulticast(src.iface, src.disableIPv6); err != nil {
		return nil, err
	}
	return src, nil
}

// checkMulticast binds the mDNS groups the query client will use and
// releases them again. It fails only when every allowed family fails.
func checkMulticast(iface *net.Interface, disableIPv6 bool) error {
	networks := []string{"udp4"}
	if !disableIPv6 {
		networks = append(networks, "udp6")
	}

	var errs []error
	for _, network := range networks {
		group := mdnsGroupV4
		if network == "udp6" {
			group = mdnsGroupV6
		}
		conn, err := listenMulticast(network, iface, group)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", network, err))
			continue
		}
		if conn != nil {
			conn.Close()
		}
		return nil
	}
	return fmt.Errorf("no multicast socket available: %w", stderrors.Join(errs...))
}

// Poll runs one mDNS query that lasts timeout and collects every complete
// response it received.
func (s *mdnsSource) Poll(ctx context.Context, timeout time.Duration) ([]Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := make(chan *mdns.ServiceEntry, entryBuffer)
	params := &mdns.QueryParam{
		Service:     s.serviceType.String(),
		Domain:      s.domain,
		Timeout:     timeout,
		Interface:   s.iface,
		Entries:     entries,
		DisableIPv6: s.disableIPv6,
	}
	if err := mdns.Query(params); err != nil {
		return nil, err
	}
	// Query has returned, so nothing sends on entries anymore.
	close(entries)

	var out []Service
	for e := range entries {
		out = append(out, s.toService(e))
	}
	return out, nil
}

func (s *mdnsSource) toService(e *mdns.ServiceEntry) Service {
	return Service{
		Instance: s.instanceName(e.Name),
		Host:     e.Host,
		AddrV4:   e.AddrV4,
		AddrV6:   e.AddrV6,
		Port:     e.Port,
		Text:     e.InfoFields,
	}
}

// instanceName strips "._http._tcp.local." from a full service name.
func (s *mdnsSource) instanceName(full string) string {
	suffix := "." + s.serviceType.String() + "." + s.domain + "."
	name := strings.TrimSuffix(full, suffix)
	name = strings.TrimSuffix(name, strings.TrimSuffix(suffix, "."))
	// DNS-SD escapes spaces and dots in instance labels.
	name = strings.ReplaceAll(name, `\ `, " ")
	name = strings.ReplaceAll(name, `\.`, ".")
	return name
}

func (s *mdnsSource) Close() error { return nil }
