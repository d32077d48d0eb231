package handler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/internal/selflog"
)

type collector struct {
	mu    sync.Mutex
	msgs  []string
	times []time.Time
	gate  chan struct{}
	err   error
}

func (c *collector) write(now *core.Now, entry *core.Entry) error {
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, entry.Message)
	c.times = append(c.times, now.Time())
	return c.err
}

func (c *collector) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}

func TestQueue_FlushWaitsForQueuedRecords(t *testing.T) {
	c := &collector{}
	q := NewQueue(QueueConfig{Name: "test", BufferSize: 100}, nil, c.write)
	defer q.Close()

	for _, m := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(core.NewNow(), &core.Entry{Level: core.InfoLevel, Message: m}))
	}
	require.NoError(t, q.Flush())
	assert.Equal(t, []string{"a", "b", "c"}, c.messages())
}

func TestQueue_CapturesTimestampAndCopiesEntry(t *testing.T) {
	c := &collector{}
	q := NewQueue(QueueConfig{}, nil, c.write)
	defer q.Close()

	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	e := &core.Entry{Level: core.InfoLevel, Message: "orig", Fields: []core.Field{{Key: "k", Str: "v"}}}
	require.NoError(t, q.Enqueue(core.NowAt(at), e))
	e.Message = "mutated"
	e.Fields[0].Str = "changed"

	require.NoError(t, q.Flush())
	assert.Equal(t, []string{"orig"}, c.messages())
	assert.Equal(t, at, c.times[0])
}

func TestQueue_DropNewest(t *testing.T) {
	c := &collector{gate: make(chan struct{})}
	stats := NewStats()
	q := NewQueue(QueueConfig{
		BufferSize:     2,
		OverflowPolicy: map[core.Level]OverflowPolicy{core.InfoLevel: DropNewest},
	}, stats, c.write)

	for i := 0; i < 10; i++ {
		require.NoError(t, q.Enqueue(core.NewNow(), &core.Entry{Level: core.InfoLevel, Message: "x"}))
	}
	close(c.gate)
	require.NoError(t, q.Close())

	assert.NotZero(t, stats.GetDropped(core.InfoLevel))
	assert.Equal(t, uint64(10), stats.GetDropped(core.InfoLevel)+uint64(len(c.messages())))
}

func TestQueue_DropOldestKeepsNewest(t *testing.T) {
	c := &collector{gate: make(chan struct{})}
	stats := NewStats()
	q := NewQueue(QueueConfig{
		BufferSize:     1,
		OverflowPolicy: map[core.Level]OverflowPolicy{core.WarnLevel: DropOldest},
	}, stats, c.write)

	// The worker takes the first record and blocks on the gate.
	require.NoError(t, q.Enqueue(core.NewNow(), &core.Entry{Level: core.WarnLevel, Message: "first"}))
	require.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, time.Millisecond)

	require.NoError(t, q.Enqueue(core.NewNow(), &core.Entry{Level: core.WarnLevel, Message: "second"}))
	require.NoError(t, q.Enqueue(core.NewNow(), &core.Entry{Level: core.WarnLevel, Message: "third"}))
	close(c.gate)
	require.NoError(t, q.Close())

	assert.Equal(t, []string{"first", "third"}, c.messages())
	assert.Equal(t, uint64(1), stats.GetDropped(core.WarnLevel))
}

func TestQueue_DropOldestKeepsFlushBarrier(t *testing.T) {
	c := &collector{gate: make(chan struct{})}
	q := NewQueue(QueueConfig{
		BufferSize:     2,
		OverflowPolicy: map[core.Level]OverflowPolicy{core.InfoLevel: DropOldest},
	}, nil, c.write)
	defer q.Close()

	require.NoError(t, q.Enqueue(core.NewNow(), &core.Entry{Level: core.InfoLevel, Message: "busy"}))
	require.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, time.Millisecond)

	flushed := make(chan error, 1)
	go func() { flushed <- q.Flush() }()
	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, time.Millisecond)

	// The flush request is the oldest entry when the queue overflows.
	require.NoError(t, q.Enqueue(core.NewNow(), &core.Entry{Level: core.InfoLevel, Message: "b"}))
	require.NoError(t, q.Enqueue(core.NewNow(), &core.Entry{Level: core.InfoLevel, Message: "c"}))

	select {
	case <-flushed:
		t.Fatal("Flush returned while an earlier record was still being written")
	case <-time.After(50 * time.Millisecond):
	}

	close(c.gate)
	select {
	case err := <-flushed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Flush did not return")
	}
	assert.Contains(t, c.messages(), "busy")
}

func TestQueue_BlockFallsBackToSyncWrite(t *testing.T) {
	c := &collector{gate: make(chan struct{})}
	stats := NewStats()
	q := NewQueue(QueueConfig{
		BufferSize:     1,
		BlockTimeout:   10 * time.Millisecond,
		OverflowPolicy: map[core.Level]OverflowPolicy{core.ErrorLevel: Block},
	}, stats, c.write)

	require.NoError(t, q.Enqueue(core.NewNow(), &core.Entry{Level: core.ErrorLevel, Message: "1"}))
	require.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(core.NewNow(), &core.Entry{Level: core.ErrorLevel, Message: "2"}))

	done := make(chan error, 1)
	go func() {
		done <- q.Enqueue(core.NewNow(), &core.Entry{Level: core.ErrorLevel, Message: "3"})
	}()
	// The third record times out and is written on the caller's goroutine,
	// which waits on the gate like the worker does.
	require.Eventually(t, func() bool { return stats.GetBlocked() == 1 }, time.Second, time.Millisecond)
	close(c.gate)
	require.NoError(t, <-done)
	require.NoError(t, q.Close())

	assert.ElementsMatch(t, []string{"1", "2", "3"}, c.messages())
	assert.Zero(t, stats.GetTotalDropped())
}

func TestQueue_WriteErrorsSurfaceOnFlush(t *testing.T) {
	restore := selflog.SetLogger(zap.NewNop())
	defer restore()

	c := &collector{err: errors.New("disk full")}
	stats := NewStats()
	q := NewQueue(QueueConfig{}, stats, c.write)
	defer q.Close()

	require.NoError(t, q.Enqueue(core.NewNow(), &core.Entry{Message: "x"}))
	assert.EqualError(t, q.Flush(), "disk full")
	assert.NoError(t, q.Flush())
	assert.Equal(t, uint64(1), stats.GetFailed())
}

func TestQueue_EnqueueAfterClose(t *testing.T) {
	c := &collector{}
	q := NewQueue(QueueConfig{}, nil, c.write)
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	assert.ErrorIs(t, q.Enqueue(core.NewNow(), &core.Entry{Message: "late"}), ErrClosed)
	assert.NoError(t, q.Flush())
}

func TestQueue_CloseDrains(t *testing.T) {
	c := &collector{}
	q := NewQueue(QueueConfig{BufferSize: 100}, nil, c.write)
	for i := 0; i < 50; i++ {
		require.NoError(t, q.Enqueue(core.NewNow(), &core.Entry{Message: "m"}))
	}
	require.NoError(t, q.Close())
	assert.Len(t, c.messages(), 50)
}
