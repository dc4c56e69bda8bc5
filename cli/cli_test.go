package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/br0wse/errors"
	"github.com/grovetools/br0wse/tui/theme"
)

func TestWrapText(t *testing.T) {
	assert.Equal(t, "short", wrapText("short", 20))
	assert.Equal(t, "one two\nthree", wrapText("one two three", 8))
	assert.Equal(t, "a\nb", wrapText("a\nb", 20))
}

func TestSplitExamples(t *testing.T) {
	desc, ex := splitExamples("Browse things.\n\nExamples:\n  br0wse browse\n")
	assert.Equal(t, "Browse things.", desc)
	assert.Equal(t, "br0wse browse", ex)

	desc, ex = splitExamples("No examples here.")
	assert.Equal(t, "No examples here.", desc)
	assert.Empty(t, ex)
}

func TestRenderHelp(t *testing.T) {
	root := NewStandardCommand("br0wse", "Browse network services")
	root.AddCommand(&cobra.Command{Use: "watch", Short: "Stream updates", Run: func(*cobra.Command, []string) {}})

	var buf bytes.Buffer
	renderHelp(&buf, root, theme.NewThemeWithName("terminal"))
	out := buf.String()

	assert.Contains(t, out, "BR0WSE")
	assert.Contains(t, out, "COMMANDS")
	assert.Contains(t, out, "watch")
	assert.Contains(t, out, "--config")
}

func TestBindOverridesOnlyChanged(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o := BindOverrides(fs)
	require.NoError(t, fs.Parse([]string{"--service-type", "_ipp._tcp", "--tick=250ms"}))

	ov := o.Overrides()
	require.NotNil(t, ov.ServiceType)
	assert.Equal(t, "_ipp._tcp", *ov.ServiceType)
	require.NotNil(t, ov.Tick)
	assert.Equal(t, 250*time.Millisecond, *ov.Tick)
	assert.Nil(t, ov.Domain)
	assert.Nil(t, ov.PollTimeout)
	assert.Nil(t, ov.NoTimer)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"service type", errors.ServiceTypeInvalid("http", "missing protocol"), "_http._tcp"},
		{"daemon running", errors.DaemonRunning(42), "PID 42"},
		{"daemon not running", errors.DaemonNotRunning("/tmp/x.sock"), "br0wse daemon start"},
		{"config invalid with path", errors.ConfigInvalid("bad").WithDetail("path", "/x/br0wse.yml"), "Fix /x/br0wse.yml"},
		{"wrapped", fmt.Errorf("outer: %w", errors.DaemonRunning(7)), "PID 7"},
		{"plain", fmt.Errorf("boom"), "Error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := NewErrorHandler(&buf, false).Handle(tt.err)
			assert.Equal(t, tt.err, err)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestErrorHandlerVerbose(t *testing.T) {
	var buf bytes.Buffer
	NewErrorHandler(&buf, true).Handle(errors.DaemonRunning(9))
	assert.True(t, strings.Contains(buf.String(), `"code"`))

	assert.NoError(t, NewErrorHandler(&buf, true).Handle(nil))
}
