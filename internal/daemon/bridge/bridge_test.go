package bridge

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/grovetools/br0wse/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFOOrder(t *testing.T) {
	tx, rx := New[string]()
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		require.NoError(t, tx.Send(fmt.Sprintf("msg-%d", i)))
	}
	assert.Equal(t, 100, rx.Len())

	for i := 0; i < 100; i++ {
		v, err := rx.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("msg-%d", i), v)
	}
}

func TestEndOfStreamAfterDrain(t *testing.T) {
	tx, rx := New[int]()
	ctx := context.Background()

	require.NoError(t, tx.Send(1))
	require.NoError(t, tx.Send(2))
	tx.Close()
	tx.Close()

	v, err := rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, err = rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = rx.Recv(ctx)
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestRecvBlocksUntilSend(t *testing.T) {
	tx, rx := New[string]()
	got := make(chan string, 1)

	go func() {
		v, err := rx.Recv(context.Background())
		if err == nil {
			got <- v
		}
	}()

	select {
	case <-got:
		t.Fatal("Recv returned before anything was sent")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, tx.Send("svc-a"))
	select {
	case v := <-got:
		assert.Equal(t, "svc-a", v)
	case <-time.After(time.Second):
		t.Fatal("Recv did not wake up after Send")
	}
}

func TestRecvHonorsContext(t *testing.T) {
	_, rx := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := rx.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendFailsAfterReceiverClosed(t *testing.T) {
	tx, rx := New[string]()
	require.NoError(t, tx.Send("pending"))

	assert.False(t, tx.ReceiverGone())
	rx.Close()
	assert.True(t, tx.ReceiverGone())

	select {
	case <-tx.Done():
	default:
		t.Fatal("Done should be closed once the receiver is gone")
	}

	err := tx.Send("late")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeBridgeClosed))
	assert.Equal(t, 0, rx.Len())

	// Closing twice is harmless.
	rx.Close()
}

func TestSendAfterSenderClose(t *testing.T) {
	tx, _ := New[string]()
	tx.Close()
	err := tx.Send("late")
	assert.True(t, errors.Is(err, errors.ErrCodeBridgeClosed))
}

func TestConcurrentProducers(t *testing.T) {
	tx, rx := New[string]()
	const producers, perProducer = 4, 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = tx.Send(fmt.Sprintf("%d:%d", p, i))
			}
		}(p)
	}
	go func() {
		wg.Wait()
		tx.Close()
	}()

	// Per-producer order must be preserved even when producers interleave.
	next := make(map[int]int)
	total := 0
	for {
		v, err := rx.Recv(context.Background())
		if err == ErrEndOfStream {
			break
		}
		require.NoError(t, err)
		var p, i int
		_, scanErr := fmt.Sscanf(v, "%d:%d", &p, &i)
		require.NoError(t, scanErr)
		assert.Equal(t, next[p], i, "producer %d out of order", p)
		next[p] = i + 1
		total++
	}
	assert.Equal(t, producers*perProducer, total)
}
