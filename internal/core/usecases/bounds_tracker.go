package usecases

import (
	"sync"
	"time"

	"github.com/nmacchitella/topoi/internal/core/domain"
)

// debounceWindow is the quiet period raw viewport signals must survive
// before a change event is emitted.
const debounceWindow = 300 * time.Millisecond

// BoundsTracker turns raw viewport-change signals from the map surface into
// deduplicated, debounced change events. Signals whose rounded signature
// matches the last emitted viewport are suppressed; bursts within the quiet
// window collapse into a single emission carrying the final bounds.
type BoundsTracker struct {
	mu      sync.Mutex
	quiet   time.Duration
	emit    func(domain.Bounds)
	lastSig string
	pending domain.Bounds
	timer   *time.Timer
	closed  bool
}

// NewBoundsTracker creates a tracker that calls emit for every effective
// viewport change. A non-positive quiet duration falls back to the default
// window; tests pass a short one.
func NewBoundsTracker(quiet time.Duration, emit func(domain.Bounds)) *BoundsTracker {
	if quiet <= 0 {
		quiet = debounceWindow
	}
	return &BoundsTracker{quiet: quiet, emit: emit}
}

// Ready forces exactly one immediate emission once the map surface reports
// ready, so the initial data load is not starved waiting for a pan/zoom.
func (t *BoundsTracker) Ready(b domain.Bounds) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.lastSig = b.Signature()
	t.mu.Unlock()

	t.emit(b)
}

// Observe records a raw viewport signal. Emission happens only after the
// quiet window passes without further signals, and only if the final bounds
// differ from the last emitted signature.
func (t *BoundsTracker) Observe(b domain.Bounds) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.pending = b
	if b.Signature() == t.lastSig && t.timer == nil {
		// Nothing pending and nothing changed.
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.quiet, t.fire)
}

func (t *BoundsTracker) fire() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	b := t.pending
	sig := b.Signature()
	if sig == t.lastSig {
		// The burst ended back where it started.
		t.mu.Unlock()
		return
	}
	t.lastSig = sig
	t.mu.Unlock()

	t.emit(b)
}

// Close cancels any pending emission. The tracker must not emit after Close.
func (t *BoundsTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
