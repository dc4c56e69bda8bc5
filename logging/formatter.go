package logging

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/br0wse/tui/theme"
)

// TextFormatter is a custom logrus formatter.
type TextFormatter struct {
	Config FormatConfig
	// NoColor disables styling of the component name. Defaults to NO_COLOR.
	NoColor bool
}

// NewTextFormatter creates a TextFormatter honoring NO_COLOR.
func NewTextFormatter(cfg FormatConfig) *TextFormatter {
	return &TextFormatter{Config: cfg, NoColor: termenv.EnvNoColor()}
}

// Format renders a single log entry.
func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder

	if !f.Config.DisableTimestamp {
		b.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
		b.WriteString(" ")
	}

	levelStr := entry.Level.String()
	if levelStr == "warning" {
		levelStr = "warn"
	}
	fmt.Fprintf(&b, "[%s]", strings.ToUpper(levelStr))

	if component, ok := entry.Data["component"]; ok && !f.Config.DisableComponent {
		componentStr := fmt.Sprintf("%v", component)
		if !f.NoColor {
			componentStr = theme.DefaultTheme.Accent.Render(componentStr)
		}
		fmt.Fprintf(&b, " [%s]", componentStr)
	}

	if entry.HasCaller() {
		fileName := filepath.Base(entry.Caller.File)
		funcName := filepath.Base(entry.Caller.Function)
		fmt.Fprintf(&b, " [%s:%d %s]", fileName, entry.Caller.Line, funcName)
	}

	b.WriteString(" ")
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		if key != "component" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, entry.Data[key])
	}

	b.WriteString("\n")
	return []byte(b.String()), nil
}
