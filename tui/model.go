package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/grovetools/br0wse/internal/daemon/collector"
	"github.com/grovetools/br0wse/internal/daemon/refresh"
	"github.com/grovetools/br0wse/internal/daemon/store"
	"github.com/grovetools/br0wse/tui/theme"
)

// Options configures the browse model.
type Options struct {
	SessionID   string
	ServiceType string
	Discovered  *store.Store
	Ticks       *store.Store
	// Signals delivers refresh requests, normally a refresh.Hub subscription.
	Signals <-chan refresh.Signal
	// Stats, when set, feeds the status line.
	Stats func() collector.WorkerStats
}

// SignalMsg wraps a refresh signal delivered to the program.
type SignalMsg refresh.Signal

// SessionDoneMsg reports that the session behind the view has stopped.
type SessionDoneMsg struct {
	Err error
}

// Model is the bubbletea model for a browse session.
type Model struct {
	opts   Options
	keys   KeyMap
	help   help.Model
	panes  []*pane
	focus  int
	width  int
	height int
	ready  bool

	reloaded   string
	reloadedAt time.Time
	done       bool
	err        error
}

// New creates the model. Panes exist only for the stores that are set.
func New(opts Options) Model {
	m := Model{
		opts: opts,
		keys: DefaultKeyMap(),
		help: help.New(),
	}
	if opts.Discovered != nil {
		m.panes = append(m.panes, newPane("Discovered "+opts.ServiceType, "Waiting for services…", opts.Discovered))
	}
	if opts.Ticks != nil {
		m.panes = append(m.panes, newPane("Ticks", "No ticks yet", opts.Ticks))
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return waitForSignal(m.opts.Signals)
}

// waitForSignal blocks for the next refresh signal. A closed channel ends
// the subscription.
func waitForSignal(ch <-chan refresh.Signal) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return SignalMsg(s)
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.layout()
		return m, nil

	case SignalMsg:
		switch msg.Kind {
		case refresh.KindConfigReload:
			m.reloaded = msg.File
			m.reloadedAt = time.Now()
		default:
			// Signals can be dropped when the subscriber is behind, so one
			// signal re-reads every pane. Unchanged panes cost nothing.
			m.syncAll()
		}
		return m, waitForSignal(m.opts.Signals)

	case SessionDoneMsg:
		m.done = true
		m.err = msg.Err
		m.syncAll()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		if len(m.panes) > 0 {
			m.focus = (m.focus + 1) % len(m.panes)
		}
		return m, nil
	}

	p := m.focused()
	if p == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Follow):
		p.follow = !p.follow
		if p.follow {
			p.viewport.GotoBottom()
		}
	case key.Matches(msg, m.keys.Up):
		p.follow = false
		p.viewport.LineUp(1)
	case key.Matches(msg, m.keys.Down):
		p.viewport.LineDown(1)
	case key.Matches(msg, m.keys.PageUp):
		p.follow = false
		p.viewport.HalfViewUp()
	case key.Matches(msg, m.keys.PageDown):
		p.viewport.HalfViewDown()
	case key.Matches(msg, m.keys.Top):
		p.follow = false
		p.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		p.viewport.GotoBottom()
	}
	return m, nil
}

func (m *Model) focused() *pane {
	if len(m.panes) == 0 {
		return nil
	}
	return m.panes[m.focus]
}

func (m *Model) syncAll() {
	for _, p := range m.panes {
		p.sync()
	}
}

// layout splits the body area between the panes side by side.
func (m *Model) layout() {
	if !m.ready || len(m.panes) == 0 {
		return
	}
	bodyHeight := max(3, m.height-lipgloss.Height(m.header())-lipgloss.Height(m.footer()))
	for i, p := range m.panes {
		p.resize(m.paneWidth(i), bodyHeight)
	}
}

func (m *Model) paneWidth(i int) int {
	w := m.width / len(m.panes)
	if i == len(m.panes)-1 {
		w = m.width - w*(len(m.panes)-1)
	}
	return w
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	bodyHeight := max(3, m.height-lipgloss.Height(m.header())-lipgloss.Height(m.footer()))
	views := make([]string, len(m.panes))
	for i, p := range m.panes {
		views[i] = p.view(m.paneWidth(i), bodyHeight, i == m.focus)
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, views...)

	return lipgloss.JoinVertical(lipgloss.Left, m.header(), body, m.footer())
}

func (m Model) header() string {
	t := theme.DefaultTheme
	title := t.Highlight.Render("br0wse") + " " + t.Muted.Render(m.opts.ServiceType)
	if m.opts.SessionID != "" {
		title += t.Muted.Render("  session " + shortID(m.opts.SessionID))
	}
	return title
}

func (m Model) footer() string {
	t := theme.DefaultTheme
	var status string
	switch {
	case m.err != nil:
		status = t.Error.Render("session stopped: " + m.err.Error())
	case m.done:
		status = t.Warning.Render("session stopped")
	case m.opts.Stats != nil:
		s := m.opts.Stats()
		status = t.Muted.Render(fmt.Sprintf("polls %d  failed %d  forwarded %d  duplicates %d",
			s.Polls, s.PollFailures, s.Forwarded, s.Duplicates))
	}
	if m.reloaded != "" {
		status += t.Info.Render(fmt.Sprintf("  config changed at %s (restart to apply)", m.reloadedAt.Format("15:04:05")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, status, m.help.View(m.keys))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
