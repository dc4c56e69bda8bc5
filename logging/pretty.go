package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/grovetools/br0wse/tui/theme"
)

// PrettyLogger writes styled status lines for the operator. Structured,
// machine-readable logs go through NewLogger instead.
type PrettyLogger struct {
	writer io.Writer
	theme  *theme.Theme
	// labelWidth pads Field and Path labels so values line up.
	labelWidth int
}

// NewPrettyLogger creates a PrettyLogger writing to stderr.
func NewPrettyLogger() *PrettyLogger {
	return &PrettyLogger{writer: os.Stderr, theme: theme.DefaultTheme}
}

// WithWriter sets the output writer.
func (p *PrettyLogger) WithWriter(w io.Writer) *PrettyLogger {
	p.writer = w
	return p
}

// WithLabelWidth pads field labels to width columns.
func (p *PrettyLogger) WithLabelWidth(width int) *PrettyLogger {
	p.labelWidth = width
	return p
}

// Success prints message with a check mark.
func (p *PrettyLogger) Success(message string) {
	fmt.Fprintf(p.writer, "%s %s\n", p.theme.Success.Render("✓"), p.theme.Success.Render(message))
}

// Warn prints message with a warning marker.
func (p *PrettyLogger) Warn(message string) {
	fmt.Fprintf(p.writer, "%s %s\n", p.theme.Warning.Render("⚠"), p.theme.Warning.Render(message))
}

// Error prints message and err, if any.
func (p *PrettyLogger) Error(message string, err error) {
	line := p.theme.Error.Render("✗ " + message)
	if err != nil {
		line += ": " + p.theme.Error.Render(err.Error())
	}
	fmt.Fprintln(p.writer, line)
}

// Field prints an aligned key/value pair.
func (p *PrettyLogger) Field(key string, value interface{}) {
	fmt.Fprintf(p.writer, "%s %s\n", p.label(key), p.theme.Highlight.Render(fmt.Sprint(value)))
}

// Path prints an aligned label followed by a file path.
func (p *PrettyLogger) Path(label, path string) {
	fmt.Fprintf(p.writer, "%s %s\n", p.label(label), p.theme.Code.Render(path))
}

func (p *PrettyLogger) label(key string) string {
	return p.theme.Muted.Render(fmt.Sprintf("%-*s", p.labelWidth, key+":"))
}
