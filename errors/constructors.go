package errors

import (
	"fmt"
)

// ServiceTypeInvalid creates an error for a malformed service-type descriptor
func ServiceTypeInvalid(serviceType, reason string) *BrowseError {
	return New(ErrCodeServiceTypeInvalid,
		fmt.Sprintf("invalid service type %q: %s", serviceType, reason)).
		WithDetail("serviceType", serviceType).
		WithDetail("reason", reason)
}

// SourceUnavailable creates an error for a discovery source that could not be opened
func SourceUnavailable(serviceType string, err error) *BrowseError {
	return Wrap(err, ErrCodeSourceUnavailable,
		fmt.Sprintf("discovery source for %s unavailable", serviceType)).
		WithDetail("serviceType", serviceType)
}

// PollFailed creates an error for a single failed discovery poll
func PollFailed(serviceType string, err error) *BrowseError {
	return Wrap(err, ErrCodePollFailed, fmt.Sprintf("poll for %s failed", serviceType)).
		WithDetail("serviceType", serviceType)
}

// BridgeClosed creates an error reported when the receiving end of a bridge is gone
func BridgeClosed() *BrowseError {
	return New(ErrCodeBridgeClosed, "bridge receiver is gone")
}

// WriterClaimed creates an error for a second write claim on a store
func WriterClaimed(store, owner, requester string) *BrowseError {
	return New(ErrCodeWriterClaimed,
		fmt.Sprintf("store '%s' is already written by '%s'", store, owner)).
		WithDetail("store", store).
		WithDetail("owner", owner).
		WithDetail("requester", requester)
}

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *BrowseError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *BrowseError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// DaemonRunning creates an error for a second daemon start
func DaemonRunning(pid int) *BrowseError {
	return New(ErrCodeDaemonRunning, fmt.Sprintf("daemon already running with PID %d", pid)).
		WithDetail("pid", pid)
}

// DaemonNotRunning creates an error for commands that need the daemon
func DaemonNotRunning(socket string) *BrowseError {
	return New(ErrCodeDaemonNotRunning, "daemon is not running").
		WithDetail("socket", socket)
}
