package handler

import (
	"sync/atomic"
	"time"

	"github.com/philipp01105/duplog/core"
)

// OverflowPolicy defines how to handle full async queues
type OverflowPolicy int

const (
	// DropNewest drops the newest log entry when queue is full
	DropNewest OverflowPolicy = iota
	// DropOldest drops the oldest log entry when queue is full
	DropOldest
	// Block blocks the caller until space is available (with timeout)
	Block
)

// String returns the string representation of the policy
func (p OverflowPolicy) String() string {
	switch p {
	case DropNewest:
		return "DropNewest"
	case DropOldest:
		return "DropOldest"
	case Block:
		return "Block"
	default:
		return "Unknown"
	}
}

// DefaultLevelPolicy returns the default level-based overflow policies
func DefaultLevelPolicy() map[core.Level]OverflowPolicy {
	return map[core.Level]OverflowPolicy{
		core.TraceLevel: DropNewest,
		core.DebugLevel: DropNewest,
		core.InfoLevel:  DropNewest,
		core.WarnLevel:  DropNewest,
		core.ErrorLevel: Block,
		core.FatalLevel: Block,
		core.PanicLevel: Block,
	}
}

func applyQueueDefaults(size *int, policy *map[core.Level]OverflowPolicy, block, drain *time.Duration) {
	if *size <= 0 {
		*size = 1000
	}
	if *policy == nil {
		*policy = DefaultLevelPolicy()
	}
	if *block == 0 {
		*block = 100 * time.Millisecond
	}
	if *drain == 0 {
		*drain = 5 * time.Second
	}
}

const levelCount = int(core.PanicLevel) + 1

// Stats tracks handler statistics
type Stats struct {
	dropped   [levelCount]atomic.Uint64
	blocked   atomic.Uint64
	processed atomic.Uint64
	failed    atomic.Uint64
}

// NewStats creates a new Stats instance
func NewStats() *Stats {
	return &Stats{}
}

func levelIndex(level core.Level) int {
	if level < core.TraceLevel {
		return 0
	}
	if int(level) >= levelCount {
		return levelCount - 1
	}
	return int(level)
}

// IncrementDropped atomically increments the dropped counter for a level
func (s *Stats) IncrementDropped(level core.Level) {
	s.dropped[levelIndex(level)].Add(1)
}

// IncrementBlocked atomically increments the blocked counter
func (s *Stats) IncrementBlocked() {
	s.blocked.Add(1)
}

// IncrementProcessed atomically increments the processed counter
func (s *Stats) IncrementProcessed() {
	s.processed.Add(1)
}

// IncrementFailed atomically increments the failed-write counter
func (s *Stats) IncrementFailed() {
	s.failed.Add(1)
}

// GetDropped returns the dropped count for a level
func (s *Stats) GetDropped(level core.Level) uint64 {
	return s.dropped[levelIndex(level)].Load()
}

// GetBlocked returns the blocked count
func (s *Stats) GetBlocked() uint64 {
	return s.blocked.Load()
}

// GetProcessed returns the processed count
func (s *Stats) GetProcessed() uint64 {
	return s.processed.Load()
}

// GetFailed returns the number of records whose write failed
func (s *Stats) GetFailed() uint64 {
	return s.failed.Load()
}

// GetTotalDropped returns the total dropped across all levels
func (s *Stats) GetTotalDropped() uint64 {
	var total uint64
	for i := range s.dropped {
		total += s.dropped[i].Load()
	}
	return total
}

// Reset resets all counters to zero
func (s *Stats) Reset() {
	for i := range s.dropped {
		s.dropped[i].Store(0)
	}
	s.blocked.Store(0)
	s.processed.Store(0)
	s.failed.Store(0)
}

// Snapshot returns a snapshot of current stats
type Snapshot struct {
	DroppedTotal   map[core.Level]uint64
	BlockedTotal   uint64
	ProcessedTotal uint64
	FailedTotal    uint64
}

// GetSnapshot returns a snapshot of current statistics
func (s *Stats) GetSnapshot() Snapshot {
	dropped := make(map[core.Level]uint64, levelCount)
	for i := range s.dropped {
		dropped[core.Level(i)] = s.dropped[i].Load()
	}
	return Snapshot{
		DroppedTotal:   dropped,
		BlockedTotal:   s.GetBlocked(),
		ProcessedTotal: s.GetProcessed(),
		FailedTotal:    s.GetFailed(),
	}
}
