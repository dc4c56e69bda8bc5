package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/br0wse/errors"
	"github.com/grovetools/br0wse/internal/daemon/bridge"
	"github.com/grovetools/br0wse/internal/daemon/collector"
	"github.com/grovetools/br0wse/internal/daemon/refresh"
	"github.com/grovetools/br0wse/internal/daemon/store"
)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

type countingNotifier struct {
	mu    sync.Mutex
	calls map[string]int
}

func newCountingNotifier() *countingNotifier {
	return &countingNotifier{calls: make(map[string]int)}
}

func (c *countingNotifier) MarkDirty(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[source]++
}

func (c *countingNotifier) count(source string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[source]
}

// manualTicker is a Ticker driven by the test.
type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.stopped.Store(true) }

func (m *manualTicker) fn() TickerFunc {
	return func(time.Duration) Ticker { return m }
}

func sendMessages(t *testing.T, descriptions ...string) *bridge.Receiver[collector.Message] {
	t.Helper()
	tx, rx := bridge.New[collector.Message]()
	for _, d := range descriptions {
		require.NoError(t, tx.Send(collector.Message{Description: d}))
	}
	tx.Close()
	return rx
}

func TestIngestScenario(t *testing.T) {
	st := store.New(DiscoveredStore)
	w, err := st.Claim("ingest")
	require.NoError(t, err)
	n := newCountingNotifier()

	rx := sendMessages(t, "svc-a", "svc-b")
	require.NoError(t, Ingest(context.Background(), rx, w, n, quietLogger()))

	snap := st.Snapshot()
	assert.Equal(t, []string{"svc-a", "svc-b"}, snap.Strings())
	assert.Equal(t, uint64(2), snap.Revision)
	assert.Equal(t, 2, n.count(DiscoveredStore))
}

func TestIngestPreservesOrderForN(t *testing.T) {
	for _, n := range []int{0, 1, 7, 250} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			st := store.New(DiscoveredStore)
			w, err := st.Claim("ingest")
			require.NoError(t, err)

			want := make([]string, n)
			for i := range want {
				want[i] = fmt.Sprintf("svc-%d", i)
			}
			rx := sendMessages(t, want...)

			require.NoError(t, Ingest(context.Background(), rx, w, nil, quietLogger()))

			snap := st.Snapshot()
			assert.Equal(t, uint64(n), snap.Revision)
			assert.Equal(t, n, snap.Len())
			if n > 0 {
				assert.Equal(t, want, snap.Strings())
			}
		})
	}
}

func TestIngestContextCanceled(t *testing.T) {
	st := store.New(DiscoveredStore)
	w, _ := st.Claim("ingest")
	_, rx := bridge.New[collector.Message]()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Ingest(ctx, rx, w, nil, quietLogger())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, uint64(0), st.Revision())
}

func TestIngestEndsWhenReceiverDropped(t *testing.T) {
	st := store.New(DiscoveredStore)
	w, _ := st.Claim("ingest")
	_, rx := bridge.New[collector.Message]()
	rx.Close()

	assert.NoError(t, Ingest(context.Background(), rx, w, nil, quietLogger()))
}

func TestTimerDrivenTicks(t *testing.T) {
	st := store.New(TicksStore)
	w, err := st.Claim("timer")
	require.NoError(t, err)
	n := newCountingNotifier()
	tk := newManualTicker()

	timer := NewTimer(TimerConfig{Interval: time.Second}, w, n, quietLogger()).WithTicker(tk.fn())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- timer.Run(ctx) }()

	const ticks = 5
	for i := 0; i < ticks; i++ {
		tk.ch <- time.Now()
	}
	assert.Eventually(t, func() bool { return st.Revision() == ticks }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.True(t, tk.stopped.Load())

	snap := st.Snapshot()
	assert.Equal(t, []string{"tick-1", "tick-2", "tick-3", "tick-4", "tick-5"}, snap.Strings())
	assert.Equal(t, ticks, n.count(TicksStore))
}

func TestTimerDefaultsAndPrefix(t *testing.T) {
	st := store.New(TicksStore)
	w, _ := st.Claim("timer")

	timer := NewTimer(TimerConfig{}, w, nil, nil)
	assert.Equal(t, DefaultTickInterval, timer.interval)
	assert.Equal(t, DefaultTickPrefix, timer.prefix)
	assert.Equal(t, "timer", timer.Name())

	tk := newManualTicker()
	timer = NewTimer(TimerConfig{Prefix: "beat"}, w, nil, quietLogger()).WithTicker(tk.fn())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- timer.Run(ctx) }()

	tk.ch <- time.Now()
	assert.Eventually(t, func() bool { return st.Revision() == 1 }, time.Second, time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, []string{"beat-1"}, st.Snapshot().Strings())
}

// virtualClock delivers the ticks a real ticker of interval i would fire
// strictly before d, then reports how many it sent.
func virtualClock(t *testing.T, tk *manualTicker, d, i time.Duration) int {
	t.Helper()
	sent := 0
	for at := i; at < d; at += i {
		select {
		case tk.ch <- time.Time{}.Add(at):
			sent++
		case <-time.After(time.Second):
			t.Fatalf("timer stopped receiving after %d ticks", sent)
		}
	}
	return sent
}

func TestTimerAppendsFloorDurationOverInterval(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		interval time.Duration
		want     int
	}{
		{"shorter than one interval", 1999 * time.Millisecond, 2 * time.Second, 0},
		{"just past one interval", 2500 * time.Millisecond, 2 * time.Second, 1},
		{"default interval", 7 * time.Second, 2 * time.Second, 3},
		{"fine interval", 105 * time.Millisecond, 10 * time.Millisecond, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.New(TicksStore)
			w, _ := st.Claim("timer")

			tk := newManualTicker()
			var gotInterval time.Duration
			timer := NewTimer(TimerConfig{Interval: tt.interval}, w, nil, quietLogger()).
				WithTicker(func(d time.Duration) Ticker {
					gotInterval = d
					return tk
				})

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- timer.Run(ctx) }()

			sent := virtualClock(t, tk, tt.duration, tt.interval)
			require.Equal(t, tt.want, sent)
			assert.Eventually(t, func() bool { return st.Revision() == uint64(sent) }, time.Second, time.Millisecond)
			cancel()
			require.NoError(t, <-done)

			assert.Equal(t, tt.interval, gotInterval)
			assert.Equal(t, uint64(tt.want), st.Revision())
			assert.Equal(t, tt.want, st.Len())
			assert.True(t, tk.stopped.Load())
		})
	}
}

func TestTimerRealClockNeverExceedsBound(t *testing.T) {
	st := store.New(TicksStore)
	w, _ := st.Claim("timer")
	timer := NewTimer(TimerConfig{Interval: 10 * time.Millisecond}, w, nil, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 105*time.Millisecond)
	defer cancel()
	require.NoError(t, timer.Run(ctx))

	// A loaded scheduler can delay ticks but never adds any.
	assert.LessOrEqual(t, st.Revision(), uint64(10))
}

func TestNewSessionInvalidServiceType(t *testing.T) {
	src := collector.NewScriptedSource()

	s, err := NewSession(SessionConfig{Worker: collector.WorkerConfig{ServiceType: "not a type"}},
		src.Opener(), nil, quietLogger())

	require.Error(t, err)
	assert.Nil(t, s)
	assert.Equal(t, errors.ErrCodeServiceTypeInvalid, errors.GetCode(err))
	assert.Equal(t, 0, src.Opened())
}

func TestSessionStoresDoNotInterleave(t *testing.T) {
	src := collector.NewScriptedSource(
		collector.WithStep(
			collector.Service{Instance: "a", Host: "a.local.", Port: 1},
			collector.Service{Instance: "b", Host: "b.local.", Port: 2},
		),
		collector.WithStep(collector.Service{Instance: "c", Host: "c.local.", Port: 3}),
	)
	hub := refresh.NewHub(64)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	s, err := NewSession(SessionConfig{
		Worker: collector.WorkerConfig{ServiceType: "_http._tcp", PollTimeout: 5 * time.Millisecond, Dedupe: true},
		Timer:  TimerConfig{Interval: 5 * time.Millisecond},
	}, src.Opener(), hub, quietLogger())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.NotNil(t, s.Timer())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return s.Discovered().Revision() == 3 && s.Ticks().Revision() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	disc := s.Discovered().Snapshot()
	assert.Equal(t, []string{"a @ a.local:1", "b @ b.local:2", "c @ c.local:3"}, disc.Strings())
	for _, r := range s.Ticks().Snapshot().Records {
		assert.Regexp(t, `^tick-\d+$`, string(r))
	}

	state := s.State()
	assert.Equal(t, s.ID, state.SessionID)
	assert.Equal(t, "_http._tcp", state.ServiceType)
	assert.Equal(t, uint64(3), state.Stores[DiscoveredStore].Revision)
	assert.Equal(t, uint64(3), state.Worker.Forwarded)

	select {
	case sig := <-sub:
		assert.Equal(t, refresh.KindDirty, sig.Kind)
	default:
		t.Fatal("expected a refresh signal")
	}
}

func TestSessionCloseStopsWorker(t *testing.T) {
	src := collector.NewScriptedSource(collector.WithPollDelay())
	s, err := NewSession(SessionConfig{
		Worker:       collector.WorkerConfig{ServiceType: "_ipp._tcp", PollTimeout: 10 * time.Millisecond},
		DisableTimer: true,
	}, src.Opener(), nil, quietLogger())
	require.NoError(t, err)
	assert.Nil(t, s.Timer())

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	assert.Eventually(t, func() bool { return src.Calls() > 0 }, time.Second, time.Millisecond)
	s.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("session did not stop after Close")
	}
	assert.True(t, src.Closed())

	calls := src.Calls()
	assert.NoError(t, s.Run(context.Background()), "running a closed session is a no-op")
	assert.Equal(t, calls, src.Calls())
}

func TestSessionCloseBeforeRunReleasesSource(t *testing.T) {
	src := collector.NewScriptedSource()
	s, err := NewSession(SessionConfig{Worker: collector.WorkerConfig{ServiceType: "_ipp._tcp"}},
		src.Opener(), nil, quietLogger())
	require.NoError(t, err)

	s.Close()
	assert.True(t, src.Closed())

	s.Close()
	assert.NoError(t, s.Run(context.Background()))
	assert.Equal(t, 0, src.Calls())
}

func TestSessionRunTwice(t *testing.T) {
	src := collector.NewScriptedSource(collector.WithPollDelay())
	s, err := NewSession(SessionConfig{
		Worker: collector.WorkerConfig{ServiceType: "_ipp._tcp", PollTimeout: 10 * time.Millisecond},
	}, src.Opener(), nil, quietLogger())
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()
	assert.Eventually(t, func() bool { return src.Calls() > 0 }, time.Second, time.Millisecond)

	err = s.Run(ctx)
	assert.Equal(t, errors.ErrCodeInternal, errors.GetCode(err))
}

func TestSessionStoreLookup(t *testing.T) {
	s, err := NewSession(SessionConfig{Worker: collector.WorkerConfig{ServiceType: "_http._tcp"}},
		collector.NewScriptedSource().Opener(), nil, quietLogger())
	require.NoError(t, err)
	defer s.Close()

	assert.Same(t, s.Discovered(), s.Store(DiscoveredStore))
	assert.Same(t, s.Ticks(), s.Store(TicksStore))
	assert.Nil(t, s.Store("nope"))

	// The session already holds both write claims.
	_, err = s.Discovered().Claim("intruder")
	assert.Equal(t, errors.ErrCodeWriterClaimed, errors.GetCode(err))
}
