package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/br0wse/config"
	"github.com/grovetools/br0wse/internal/daemon/engine"
	"github.com/grovetools/br0wse/pkg/models"
	"github.com/grovetools/br0wse/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("BR0WSE_HOME", t.TempDir())

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootHasCommands(t *testing.T) {
	root := NewRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"browse", "daemon", "watch", "state", "config", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestProfilingFlags(t *testing.T) {
	cpu := filepath.Join(t.TempDir(), "cpu.pprof")

	out, err := run(t, "version", "--cpu-profile", cpu, "--timing")
	require.NoError(t, err)
	assert.FileExists(t, cpu)
	assert.Contains(t, out, "CPU profile written to "+cpu)
	assert.Contains(t, out, "br0wse version took")
}

func TestConfigShow(t *testing.T) {
	path := testutil.WriteConfig(t, t.TempDir(), "br0wse.yml", "discovery:\n  service_type: _ipp._tcp\n")

	out, err := run(t, "config", "show", "--config", path, "--tick", "750ms")
	require.NoError(t, err)
	assert.Contains(t, out, "# Source: "+path)
	assert.Contains(t, out, "service_type: _ipp._tcp")
	assert.Contains(t, out, "interval: 750ms")
}

func TestConfigShowJSON(t *testing.T) {
	path := testutil.WriteConfig(t, t.TempDir(), "br0wse.yml", "")

	out, err := run(t, "config", "show", "--config", path, "--json", "-t", "_ssh._tcp")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "_ssh._tcp", cfg.Discovery.ServiceType)
}

func TestConfigShowRejectsBadOverride(t *testing.T) {
	path := testutil.WriteConfig(t, t.TempDir(), "br0wse.yml", "")

	_, err := run(t, "config", "show", "--config", path, "--poll-timeout", "1ms")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_timeout")
}

func TestConfigSchema(t *testing.T) {
	out, err := run(t, "config", "schema")
	require.NoError(t, err)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Contains(t, schema, "properties")
}

func TestStateWithoutDaemon(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteConfig(t, dir, "br0wse.yml", "daemon:\n  socket: "+filepath.Join(dir, "none.sock")+"\n")

	_, err := run(t, "state", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DAEMON_NOT_RUNNING")
}

func TestSessionConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Discovery.Interface = "en0"
	cfg.Timer.Enabled = false

	sc := sessionConfig(cfg)
	assert.Equal(t, "_http._tcp", sc.Worker.ServiceType)
	assert.Equal(t, 500*time.Millisecond, sc.Worker.PollTimeout)
	assert.Equal(t, "en0", sc.Worker.Source.Interface)
	assert.Equal(t, "local", sc.Worker.Source.Domain)
	assert.True(t, sc.Worker.Dedupe)
	assert.True(t, sc.DisableTimer)
	assert.Equal(t, engine.TimerConfig{Interval: 2 * time.Second, Prefix: "tick"}, sc.Timer)

	rc := runningConfig(cfg, "/x/br0wse.yml", nil)
	assert.Equal(t, "/x/br0wse.yml", rc.ConfigFile)
	assert.False(t, rc.TimerEnabled)
}

func TestFormatEvent(t *testing.T) {
	initial := models.StreamEvent{
		Type: models.EventInitial,
		State: &models.SessionState{
			SessionID:   "abc",
			ServiceType: "_http._tcp",
			Stores: map[string]models.StoreSnapshot{
				"ticks":      {Name: "ticks", Records: []string{"tick-1"}, Revision: 1},
				"discovered": {Name: "discovered", Records: []string{"svc-a @ h:80"}, Revision: 1},
			},
		},
	}
	lines := stripAll(formatEvent(initial))
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "abc")
	assert.Contains(t, lines[1], "[discovered] svc-a @ h:80")
	assert.Contains(t, lines[2], "[ticks] tick-1")

	update := models.StreamEvent{
		Type:  models.EventStore,
		Store: &models.StoreSnapshot{Name: "ticks", Records: []string{"tick-1", "tick-2"}, Revision: 2},
		New:   []string{"tick-2"},
	}
	assert.Equal(t, []string{"[ticks] tick-2"}, stripAll(formatEvent(update)))

	reload := models.StreamEvent{Type: models.EventConfigReload, File: "/x/br0wse.yml"}
	assert.Contains(t, formatEvent(reload)[0], "/x/br0wse.yml")
}

func TestWriteEventNDJSON(t *testing.T) {
	var buf bytes.Buffer
	ev := models.StreamEvent{Type: models.EventConfigReload, File: "f"}
	require.NoError(t, writeEvent(&buf, ev, false))
	require.NoError(t, writeEvent(&buf, ev, false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var got models.StreamEvent
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &got))
	assert.Equal(t, ev, got)
}

func TestPrintLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.log")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\npartial"), 0644))

	var buf bytes.Buffer
	offset, err := printLastLines(&buf, path, 2)
	require.NoError(t, err)
	assert.Equal(t, "two\nthree\n", buf.String())
	assert.Equal(t, int64(len("one\ntwo\nthree\n")), offset)
}

func TestShowLogMissing(t *testing.T) {
	err := showLog(context.Background(), &bytes.Buffer{}, filepath.Join(t.TempDir(), "nope.log"), 10, false)
	require.Error(t, err)
}

func TestShowLogFollowStopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.log")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	var buf syncBuffer
	done := make(chan error, 1)
	go func() { done <- showLog(ctx, &buf, path, 5, true) }()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("second\n")
	require.NoError(t, err)
	f.Close()

	assert.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "second")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("showLog did not stop")
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "first"))
}
