package refresh

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubFanOut(t *testing.T) {
	h := NewHub(4)
	a := h.Subscribe()
	b := h.Subscribe()
	assert.Equal(t, 2, h.Subscribers())

	h.MarkDirty("discovered")

	for _, ch := range []chan Signal{a, b} {
		select {
		case s := <-ch:
			assert.Equal(t, KindDirty, s.Kind)
			assert.Equal(t, "discovered", s.Source)
		default:
			t.Fatal("subscriber did not receive the signal")
		}
	}
}

func TestHubNeverBlocksOnFullSubscriber(t *testing.T) {
	h := NewHub(1)
	ch := h.Subscribe()

	// The second and third signals are dropped rather than blocking.
	h.MarkDirty("ticks")
	h.MarkDirty("ticks")
	h.Broadcast(Signal{Kind: KindConfigReload, File: "br0wse.yml"})

	assert.Len(t, ch, 1)
	s := <-ch
	assert.Equal(t, "ticks", s.Source)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub(0)
	ch := h.Subscribe()
	h.Unsubscribe(ch)
	h.Unsubscribe(ch)

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers())

	// Broadcasting with no subscribers is a no-op.
	h.MarkDirty("discovered")
}

func TestNotifierFunc(t *testing.T) {
	var got []string
	n := NotifierFunc(func(source string) { got = append(got, source) })
	n.MarkDirty("a")
	n.MarkDirty("b")
	Discard.MarkDirty("c")
	assert.Equal(t, []string{"a", "b"}, got)
}
