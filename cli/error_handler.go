package cli

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/grovetools/br0wse/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to out.
func NewErrorHandler(out io.Writer, verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     out,
	}
}

// Handle prints an operator message for err and returns it unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}

	var be *errors.BrowseError
	stderrors.As(err, &be)
	detail := func(key string) interface{} {
		if be == nil {
			return ""
		}
		if v, ok := be.Details[key]; ok {
			return v
		}
		return ""
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeServiceTypeInvalid:
		fmt.Fprintf(h.Out, "❌ %v\n", err)
		fmt.Fprintf(h.Out, "Service types look like _http._tcp or _ipp._udp.\n")

	case errors.ErrCodeSourceUnavailable:
		fmt.Fprintf(h.Out, "❌ Could not start discovery: %v\n", err)
		fmt.Fprintf(h.Out, "Check the network interface in br0wse.yml and that multicast is permitted.\n")

	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(h.Out, "❌ Configuration not found: %v\n", detail("path"))

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(h.Out, "❌ %v\n", err)
		if path := detail("path"); path != "" {
			fmt.Fprintf(h.Out, "Fix %v, or run 'br0wse config schema' to see the allowed keys.\n", path)
		}

	case errors.ErrCodeDaemonRunning:
		fmt.Fprintf(h.Out, "❌ br0wsed is already running (PID %v)\n", detail("pid"))
		fmt.Fprintf(h.Out, "Stop it with 'br0wse daemon stop'.\n")

	case errors.ErrCodeDaemonNotRunning:
		fmt.Fprintf(h.Out, "❌ br0wsed is not running\n")
		fmt.Fprintf(h.Out, "Start it with 'br0wse daemon start'.\n")

	default:
		fmt.Fprintf(h.Out, "❌ Error: %v\n", err)
	}

	if h.Verbose && be != nil {
		fmt.Fprintf(h.Out, "\nError details:\n%s\n", be.ToJSON())
	}
	return err
}
