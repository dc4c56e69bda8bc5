package collector

import (
	"strings"

	"github.com/grovetools/br0wse/errors"
)

// maxServiceNameLen is the RFC 6335 limit on service names.
const maxServiceNameLen = 15

// ServiceType is a parsed DNS-SD service type such as "_http._tcp".
type ServiceType struct {
	Name     string // Service name without the leading underscore (e.g., "http")
	Protocol string // "tcp" or "udp"
}

// String returns the descriptor in "_name._proto" form.
func (t ServiceType) String() string {
	return "_" + t.Name + "._" + t.Protocol
}

// ParseServiceType validates a descriptor like "_http._tcp" (an optional
// trailing dot is accepted). Names follow RFC 6335: 1-15 characters of
// letters, digits and hyphens, at least one letter, no leading, trailing
// or doubled hyphen.
func ParseServiceType(s string) (ServiceType, error) {
	raw := s
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if s == "" {
		return ServiceType{}, errors.ServiceTypeInvalid(raw, "empty descriptor")
	}

	labels := strings.Split(s, ".")
	if len(labels) != 2 {
		return ServiceType{}, errors.ServiceTypeInvalid(raw, "expected exactly two labels (_service._proto)")
	}
	for _, l := range labels {
		if !strings.HasPrefix(l, "_") {
			return ServiceType{}, errors.ServiceTypeInvalid(raw, "labels must start with an underscore")
		}
	}

	name := strings.ToLower(labels[0][1:])
	proto := strings.ToLower(labels[1][1:])

	if proto != "tcp" && proto != "udp" {
		return ServiceType{}, errors.ServiceTypeInvalid(raw, "protocol must be _tcp or _udp")
	}
	if reason := checkServiceName(name); reason != "" {
		return ServiceType{}, errors.ServiceTypeInvalid(raw, reason)
	}

	return ServiceType{Name: name, Protocol: proto}, nil
}

func checkServiceName(name string) string {
	switch {
	case name == "":
		return "service name is empty"
	case len(name) > maxServiceNameLen:
		return "service name is longer than 15 characters"
	case strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-"):
		return "service name must not start or end with a hyphen"
	case strings.Contains(name, "--"):
		return "service name must not contain consecutive hyphens"
	}

	hasLetter := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			hasLetter = true
		case r >= '0' && r <= '9', r == '-':
		default:
			return "service name may only contain letters, digits and hyphens"
		}
	}
	if !hasLetter {
		return "service name must contain at least one letter"
	}
	return ""
}
