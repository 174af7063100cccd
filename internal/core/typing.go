package core

import (
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultTypingTimeout is how long a typing indicator survives without a new signal.
const DefaultTypingTimeout = 3 * time.Second

type typingState struct {
	user         string
	lastTypingAt time.Time
	timer        *clock.Timer
	gen          uint64
}

// Debouncer tracks which connections are typing. A connection with no entry is
// idle. Deadline timers do not touch the state themselves: they call notify,
// and the owner replies with Expire from the goroutine that owns the Debouncer.
//
// Debouncer is not safe for concurrent use; the hub loop owns it.
type Debouncer struct {
	clock  clock.Clock
	window time.Duration
	notify func(connID string, gen uint64)
	states map[string]*typingState
}

// NewDebouncer builds a debouncer. notify runs on the timer goroutine.
func NewDebouncer(clk clock.Clock, window time.Duration, notify func(connID string, gen uint64)) *Debouncer {
	if clk == nil {
		clk = clock.New()
	}
	if window <= 0 {
		window = DefaultTypingTimeout
	}
	return &Debouncer{
		clock:  clk,
		window: window,
		notify: notify,
		states: make(map[string]*typingState),
	}
}

// Signal applies a typing signal for connID and reports whether peers need to
// hear about it. Only Idle->Typing and Typing->Idle transitions are reported;
// repeated typing(true) just pushes the deadline out.
func (d *Debouncer) Signal(connID, user string, typing bool) bool {
	st, active := d.states[connID]

	if !typing {
		if !active {
			return false
		}
		st.timer.Stop()
		delete(d.states, connID)
		return true
	}

	now := d.clock.Now()
	if active {
		st.lastTypingAt = now
		st.timer.Stop()
		st.gen++
		st.timer = d.arm(connID, st.gen, d.window)
		return false
	}

	st = &typingState{user: user, lastTypingAt: now, gen: 1}
	st.timer = d.arm(connID, st.gen, d.window)
	d.states[connID] = st
	return true
}

// Expire handles a fired deadline. It returns the user that went idle, or
// false when the deadline was superseded or the window has not elapsed since
// the latest signal.
func (d *Debouncer) Expire(connID string, gen uint64) (string, bool) {
	st, ok := d.states[connID]
	if !ok || st.gen != gen {
		return "", false
	}

	elapsed := d.clock.Now().Sub(st.lastTypingAt)
	if elapsed < d.window {
		st.timer.Stop()
		st.gen++
		st.timer = d.arm(connID, st.gen, d.window-elapsed)
		return "", false
	}

	delete(d.states, connID)
	return st.user, true
}

// Cancel drops connID's state and stops its timer without reporting anything.
func (d *Debouncer) Cancel(connID string) {
	if st, ok := d.states[connID]; ok {
		st.timer.Stop()
		delete(d.states, connID)
	}
}

// Typing reports whether connID is currently typing.
func (d *Debouncer) Typing(connID string) bool {
	_, ok := d.states[connID]
	return ok
}

// LastTypingAt returns the time of connID's latest typing(true) signal.
func (d *Debouncer) LastTypingAt(connID string) (time.Time, bool) {
	st, ok := d.states[connID]
	if !ok {
		return time.Time{}, false
	}
	return st.lastTypingAt, true
}

// Stop cancels every pending timer.
func (d *Debouncer) Stop() {
	for id := range d.states {
		d.Cancel(id)
	}
}

func (d *Debouncer) arm(connID string, gen uint64, after time.Duration) *clock.Timer {
	return d.clock.AfterFunc(after, func() {
		if d.notify != nil {
			d.notify(connID, gen)
		}
	})
}
