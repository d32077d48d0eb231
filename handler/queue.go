package handler

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/internal/selflog"
)

// QueueConfig holds configuration for an async Queue
type QueueConfig struct {
	// Name identifies the owning sink in reports
	Name string
	// BufferSize is the size of the queue (default: 1000)
	BufferSize int
	// OverflowPolicy defines per-level overflow behavior (default: uses DefaultLevelPolicy)
	OverflowPolicy map[core.Level]OverflowPolicy
	// BlockTimeout is the timeout for blocking overflow policy (default: 100ms)
	BlockTimeout time.Duration
	// DrainTimeout is the timeout for draining queue on Close (default: 5s)
	DrainTimeout time.Duration
}

type queued struct {
	now   *core.Now
	entry *core.Entry
	flush chan error
}

// Queue moves records to a single background goroutine that passes
// them to a write function. It is the async engine shared by the
// console and file sinks.
//
// Write failures in the background are reported through selflog and
// collected; the next Flush or Close returns them.
type Queue struct {
	name           string
	ch             chan queued
	closed         chan struct{}
	done           chan struct{}
	closeOnce      sync.Once
	overflowPolicy map[core.Level]OverflowPolicy
	blockTimeout   time.Duration
	drainTimeout   time.Duration
	stats          *Stats
	write          func(now *core.Now, entry *core.Entry) error

	errMu sync.Mutex
	errs  error

	// pending holds flush requests evicted by DropOldest; the worker
	// answers them once its current record is written. Guarded by errMu.
	pending  []chan error
	nPending atomic.Int32
}

// NewQueue starts a queue whose worker calls write for every record.
// A nil stats allocates a private one.
func NewQueue(cfg QueueConfig, stats *Stats, write func(now *core.Now, entry *core.Entry) error) *Queue {
	applyQueueDefaults(&cfg.BufferSize, &cfg.OverflowPolicy, &cfg.BlockTimeout, &cfg.DrainTimeout)
	if stats == nil {
		stats = NewStats()
	}
	q := &Queue{
		name:           cfg.Name,
		ch:             make(chan queued, cfg.BufferSize),
		closed:         make(chan struct{}),
		done:           make(chan struct{}),
		overflowPolicy: cfg.OverflowPolicy,
		blockTimeout:   cfg.BlockTimeout,
		drainTimeout:   cfg.DrainTimeout,
		stats:          stats,
		write:          write,
	}
	go q.process()
	return q
}

// Enqueue hands a copy of the record to the worker, applying the
// overflow policy of the entry's level when the queue is full. The
// timestamp is captured before the record is queued.
func (q *Queue) Enqueue(now *core.Now, entry *core.Entry) error {
	select {
	case <-q.closed:
		return ErrClosed
	default:
	}

	t := entry.Time
	if now != nil {
		t = now.Time()
	}
	item := queued{now: core.NowAt(t), entry: entry.Clone()}

	policy, ok := q.overflowPolicy[entry.Level]
	if !ok {
		policy = DropNewest
	}

	switch policy {
	case Block:
		select {
		case q.ch <- item:
			return nil
		default:
		}
		timer := time.NewTimer(q.blockTimeout)
		defer timer.Stop()
		select {
		case q.ch <- item:
			return nil
		case <-timer.C:
			// Timeout - fall back to synchronous write
			q.stats.IncrementBlocked()
			return q.write(item.now, item.entry)
		case <-q.closed:
			return q.write(item.now, item.entry)
		}

	case DropOldest:
		select {
		case q.ch <- item:
			return nil
		default:
		}
		select {
		case old := <-q.ch:
			q.discard(old)
		default:
		}
		select {
		case q.ch <- item:
		default:
			q.stats.IncrementDropped(entry.Level)
		}
		return nil

	default:
		select {
		case q.ch <- item:
		default:
			q.stats.IncrementDropped(entry.Level)
		}
		return nil
	}
}

// discard drops a record taken off the queue. A flush request at the
// head only waits for the record the worker is writing, so it is parked
// for the worker instead of dropped.
func (q *Queue) discard(item queued) {
	if item.flush != nil {
		q.errMu.Lock()
		q.pending = append(q.pending, item.flush)
		q.nPending.Add(1)
		q.errMu.Unlock()
		return
	}
	q.stats.IncrementDropped(item.entry.Level)
}

func (q *Queue) answerPending() {
	if q.nPending.Load() == 0 {
		return
	}
	q.errMu.Lock()
	pending := q.pending
	q.pending = nil
	q.nPending.Store(0)
	err := q.errs
	q.errs = nil
	q.errMu.Unlock()

	for _, reply := range pending {
		reply <- err
		err = nil
	}
}

// Flush waits until every record queued before the call has been
// written and returns the write errors collected since the last Flush.
func (q *Queue) Flush() error {
	reply := make(chan error, 1)
	select {
	case q.ch <- queued{flush: reply}:
	case <-q.done:
		return q.takeErr()
	}
	select {
	case err := <-reply:
		return err
	case <-q.done:
		return q.takeErr()
	}
}

// Close stops the worker after draining the queue for at most the
// drain timeout. It is safe to call more than once.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() { close(q.closed) })
	<-q.done
	return q.takeErr()
}

// Len returns the number of queued records.
func (q *Queue) Len() int {
	return len(q.ch)
}

func (q *Queue) process() {
	defer close(q.done)
	defer q.answerPending()

	for {
		select {
		case item := <-q.ch:
			q.handle(item)
		case <-q.closed:
			q.drain()
			return
		}
	}
}

func (q *Queue) drain() {
	deadline := time.NewTimer(q.drainTimeout)
	defer deadline.Stop()
	for {
		select {
		case item := <-q.ch:
			q.handle(item)
		case <-deadline.C:
			if n := len(q.ch); n > 0 {
				selflog.Report(selflog.CodeShutdown, "drain timeout, records lost", nil,
					zap.String("sink", q.name), zap.Int("pending", n))
			}
			return
		default:
			return
		}
	}
}

func (q *Queue) handle(item queued) {
	defer q.answerPending()
	if item.flush != nil {
		item.flush <- q.takeErr()
		return
	}
	if err := q.write(item.now, item.entry); err != nil {
		q.stats.IncrementFailed()
		selflog.Report(selflog.CodeWrite, "async write failed", err, zap.String("sink", q.name))
		q.errMu.Lock()
		q.errs = multierr.Append(q.errs, err)
		q.errMu.Unlock()
	}
}

func (q *Queue) takeErr() error {
	q.errMu.Lock()
	err := q.errs
	q.errs = nil
	q.errMu.Unlock()
	return err
}
