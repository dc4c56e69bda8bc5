package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/grovetools/br0wse/internal/daemon/store"
	"github.com/grovetools/br0wse/tui/theme"
)

// pane shows one store. It only ever reads snapshots.
type pane struct {
	title    string
	empty    string
	store    *store.Store
	viewport viewport.Model
	revision uint64
	count    int
	follow   bool
	synced   bool
}

func newPane(title, empty string, st *store.Store) *pane {
	return &pane{
		title:    title,
		empty:    empty,
		store:    st,
		viewport: viewport.New(0, 0),
		follow:   true,
	}
}

// sync re-reads the store if it changed since the last sync and reports
// whether the content was replaced.
func (p *pane) sync() bool {
	if p.store == nil {
		return false
	}
	snap := p.store.Snapshot()
	if p.synced && snap.Revision == p.revision {
		return false
	}
	p.synced = true
	p.revision = snap.Revision
	p.count = len(snap.Records)
	p.render(snap.Records)
	return true
}

func (p *pane) render(records []store.Record) {
	t := theme.DefaultTheme
	if len(records) == 0 {
		p.viewport.SetContent(t.Muted.Render(p.empty))
		return
	}

	width := len(fmt.Sprint(len(records)))
	lines := make([]string, len(records))
	for i, r := range records {
		num := t.Muted.Render(fmt.Sprintf("%*d", width, i+1))
		lines[i] = num + " " + string(r)
	}
	p.viewport.SetContent(strings.Join(lines, "\n"))
	if p.follow {
		p.viewport.GotoBottom()
	}
}

func (p *pane) resize(width, height int) {
	// Border plus title line.
	p.viewport.Width = max(1, width-2-1)
	p.viewport.Height = max(1, height-2-1)
	p.synced = false
	p.sync()
}

func (p *pane) view(width, height int, focused bool) string {
	t := theme.DefaultTheme

	title := t.Bold.Render(p.title)
	if focused {
		title = t.Highlight.Render(p.title)
	}
	meta := t.Muted.Render(fmt.Sprintf(" %d records, rev %d", p.count, p.revision))
	if !p.follow {
		meta += t.Warning.Render(" [paused]")
	}

	style := t.Panel.Width(max(1, width-2)).Height(max(1, height-2))
	if !focused {
		style = style.BorderForeground(t.Colors.Border)
	}
	body := lipgloss.JoinVertical(lipgloss.Left, title+meta, withScrollbar(&p.viewport))
	return style.Render(body)
}

// withScrollbar appends a one-column scrollbar to the viewport's lines.
func withScrollbar(vp *viewport.Model) string {
	lines := strings.Split(vp.View(), "\n")
	bar := scrollbar(vp, len(lines))
	for i := range lines {
		lines[i] += bar[i]
	}
	return strings.Join(lines, "\n")
}

func scrollbar(vp *viewport.Model, height int) []string {
	muted := theme.DefaultTheme.Muted
	bar := make([]string, height)
	total := vp.TotalLineCount()

	switch {
	case total == 0:
		for i := range bar {
			bar[i] = " "
		}
		return bar
	case total <= vp.Height:
		for i := range bar {
			bar[i] = muted.Render("█")
		}
		return bar
	}

	thumb := max(1, (height*vp.Height)/total)
	pct := min(1, max(0, vp.ScrollPercent()))
	start := int(float64(height-thumb)*pct + 0.5)
	for i := range bar {
		if i >= start && i < start+thumb {
			bar[i] = muted.Render("█")
		} else {
			bar[i] = muted.Render("░")
		}
	}
	return bar
}
