package core

import (
	"sync/atomic"
	"time"
)

var coarseStarted atomic.Bool

// Now is a deferred timestamp. The instant is captured the first time
// Time is called, so every destination of one record sees the same
// value and records that are filtered out never read the clock.
//
// A Now must not be shared between goroutines before Time has been
// called once.
type Now struct {
	t   time.Time
	set bool
}

// NewNow returns an unset Now.
func NewNow() *Now {
	return &Now{}
}

// NowAt returns a Now fixed to t.
func NowAt(t time.Time) *Now {
	return &Now{t: t, set: true}
}

// Time returns the captured instant, capturing it on first use.
func (n *Now) Time() time.Time {
	if !n.set {
		if coarseStarted.Load() {
			n.t = CoarseNow()
		} else {
			n.t = time.Now()
		}
		n.set = true
	}
	return n.t
}

// Format formats the captured instant with the given layout.
func (n *Now) Format(layout string) string {
	return n.Time().Format(layout)
}

// AppendFormat is like Format but appends to b.
func (n *Now) AppendFormat(b []byte, layout string) []byte {
	return n.Time().AppendFormat(b, layout)
}
