package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/br0wse/internal/daemon/collector"
	"github.com/grovetools/br0wse/internal/daemon/refresh"
	"github.com/grovetools/br0wse/internal/daemon/store"
)

type fixture struct {
	discovered *store.Writer
	ticks      *store.Writer
	signals    chan refresh.Signal
	model      tea.Model
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	d := store.New("discovered")
	tk := store.New("ticks")
	dw, err := d.Claim("test")
	require.NoError(t, err)
	tw, err := tk.Claim("test")
	require.NoError(t, err)

	signals := make(chan refresh.Signal, 4)
	m := New(Options{
		SessionID:   "0123456789abcdef",
		ServiceType: "_http._tcp",
		Discovered:  d,
		Ticks:       tk,
		Signals:     signals,
		Stats:       func() collector.WorkerStats { return collector.WorkerStats{Polls: 3} },
	})
	model, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return &fixture{discovered: dw, ticks: tw, signals: signals, model: model}
}

func (f *fixture) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.model, cmd = f.model.Update(msg)
	return cmd
}

func TestViewBeforeSize(t *testing.T) {
	m := New(Options{})
	assert.Equal(t, "Initializing...", m.View())
}

func TestInitialView(t *testing.T) {
	f := newFixture(t)
	view := f.model.View()

	assert.Contains(t, view, "br0wse")
	assert.Contains(t, view, "session 01234567")
	assert.Contains(t, view, "Waiting for services")
	assert.Contains(t, view, "No ticks yet")
	assert.Contains(t, view, "polls 3")
}

func TestDirtySignalRereadsEveryStore(t *testing.T) {
	f := newFixture(t)

	f.discovered.Append("printer @ host.local:631")
	f.ticks.Append("tick-1")

	// Only the ticks signal arrives; the discovered one was dropped by a
	// full subscriber buffer.
	cmd := f.update(SignalMsg{Kind: refresh.KindDirty, Source: "ticks"})
	assert.NotNil(t, cmd, "model keeps listening for signals")

	view := f.model.View()
	assert.Contains(t, view, "printer @ host.local:631")
	assert.Contains(t, view, "tick-1")
	assert.NotContains(t, view, "Waiting for services")
}

func TestWaitForSignal(t *testing.T) {
	f := newFixture(t)
	f.signals <- refresh.Signal{Kind: refresh.KindDirty, Source: "ticks"}

	msg := f.model.Init()()
	assert.Equal(t, SignalMsg{Kind: refresh.KindDirty, Source: "ticks"}, msg)

	close(f.signals)
	assert.Nil(t, f.model.Init()())

	assert.Nil(t, waitForSignal(nil))
}

func TestConfigReloadNotice(t *testing.T) {
	f := newFixture(t)
	f.update(SignalMsg{Kind: refresh.KindConfigReload, File: "/tmp/br0wse.yml"})
	assert.Contains(t, f.model.View(), "config changed")
}

func TestSessionDone(t *testing.T) {
	f := newFixture(t)
	f.discovered.Append("late @ host:1")

	cmd := f.update(SessionDoneMsg{Err: errors.New("boom")})
	assert.Nil(t, cmd)

	view := f.model.View()
	assert.Contains(t, view, "session stopped: boom")
	assert.Contains(t, view, "late @ host:1")
}

func TestKeys(t *testing.T) {
	f := newFixture(t)

	m := f.model.(Model)
	assert.Equal(t, 0, m.focus)

	f.update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, f.model.(Model).focus)
	f.update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, f.model.(Model).focus)

	f.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	assert.False(t, f.model.(Model).panes[0].follow)
	assert.Contains(t, f.model.View(), "[paused]")

	f.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.True(t, f.model.(Model).help.ShowAll)

	cmd := f.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestSinglePane(t *testing.T) {
	m := New(Options{Discovered: store.New("discovered")})
	require.Len(t, m.panes, 1)

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, model.(Model).focus)
}

func TestScrollbar(t *testing.T) {
	vp := viewport.New(10, 3)
	assert.Equal(t, []string{" ", " ", " "}, scrollbar(&vp, 3))

	vp.SetContent("a\nb")
	assert.Len(t, scrollbar(&vp, 3), 3)
}
