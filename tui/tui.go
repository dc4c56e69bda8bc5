// Package tui renders a browse session: one pane per store, redrawn whenever
// the refresh hub marks a store dirty.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// InitializeTUI forces a true-color profile when CLICOLOR_FORCE=1 or
// COLORTERM=truecolor is set, so output is styled even when not attached to
// a terminal. It has no effect otherwise.
func InitializeTUI() {
	if os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor" {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}
