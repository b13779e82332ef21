package preview

import (
	"context"
	"time"
)

// Trigger is a coalesced rebuild request: a burst of file events (or a
// manual/scheduled request) folded into one.
type Trigger struct {
	Reason  string // last reason in the burst: fswatch, schedule, manual
	Full    bool   // set when any request in the burst asked for a full build
	Count   int    // requests coalesced into this trigger
	FirstAt time.Time
	LastAt  time.Time
}

type rebuildRequest struct {
	reason string
	full   bool
	at     time.Time
}

// Debouncer folds bursts of rebuild requests into single triggers.
//
// A trigger fires once requests stop for the quiet window, or at the
// max delay after the first request of a burst, whichever comes first.
// The output channel holds one pending trigger; while the consumer is
// busy building, later requests keep merging into the pending trigger
// so changes are never lost and produce exactly one follow-up build.
type Debouncer struct {
	quiet time.Duration
	max   time.Duration
	in    chan rebuildRequest
	out   chan Trigger
}

func NewDebouncer(quiet, max time.Duration) *Debouncer {
	if quiet <= 0 {
		quiet = 250 * time.Millisecond
	}
	if max <= 0 {
		max = 8 * quiet
	}
	return &Debouncer{
		quiet: quiet,
		max:   max,
		in:    make(chan rebuildRequest, 64),
		out:   make(chan Trigger, 1),
	}
}

// Request records one rebuild request. It never blocks; when the intake
// buffer is full a burst is already pending and the request is covered
// by it.
func (d *Debouncer) Request(reason string, full bool) {
	select {
	case d.in <- rebuildRequest{reason: reason, full: full, at: time.Now()}:
	default:
	}
}

// C delivers coalesced triggers.
func (d *Debouncer) C() <-chan Trigger {
	return d.out
}

// Run drives the timers until the context is canceled.
func (d *Debouncer) Run(ctx context.Context) {
	quietTimer := newIdleTimer()
	maxTimer := newIdleTimer()
	defer quietTimer.Stop()
	defer maxTimer.Stop()

	var quietC, maxC <-chan time.Time
	var cur Trigger
	pending := false

	emit := func() {
		select {
		case d.out <- cur:
			pending = false
			quietC = nil
			maxC = nil
		default:
			// Consumer still busy with the previous trigger. Keep the
			// burst pending and retry after another quiet window.
			resetTimer(quietTimer, d.quiet)
			quietC = quietTimer.C
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case req := <-d.in:
			if !pending {
				pending = true
				cur = Trigger{FirstAt: req.at}
				resetTimer(maxTimer, d.max)
				maxC = maxTimer.C
			}
			cur.Count++
			cur.Reason = req.reason
			cur.Full = cur.Full || req.full
			cur.LastAt = req.at
			resetTimer(quietTimer, d.quiet)
			quietC = quietTimer.C

		case <-quietC:
			if pending {
				emit()
			} else {
				quietC = nil
			}

		case <-maxC:
			if pending {
				emit()
			} else {
				maxC = nil
			}
		}
	}
}

// newIdleTimer returns a stopped timer ready for resetTimer.
func newIdleTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	return t
}

func resetTimer(t *time.Timer, after time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(after)
}
