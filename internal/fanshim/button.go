package fanshim

import (
	"sync"
	"time"

	"github.com/sweeney/fanshim-mqtt/internal/logic"
)

type stopper interface {
	Stop() bool
}

// holdTracker turns raw press/release edges into ButtonEvents. A press that
// lasts holdTime emits Held once; the release then reports WasHeld.
type holdTracker struct {
	mu        sync.Mutex
	holdTime  time.Duration
	now       func() time.Time
	afterFunc func(time.Duration, func()) stopper
	emit      func(logic.ButtonEvent)

	pressed bool
	held    bool
	gen     int
	timer   stopper
	stopped bool
}

func newHoldTracker(holdTime time.Duration, emit func(logic.ButtonEvent)) *holdTracker {
	return &holdTracker{
		holdTime: holdTime,
		now:      time.Now,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
		emit: emit,
	}
}

// press handles the button going down. Repeated presses without a release
// (contact bounce) are ignored.
func (h *holdTracker) press() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pressed || h.stopped {
		return
	}
	h.pressed = true
	h.held = false
	h.gen++
	gen := h.gen
	h.timer = h.afterFunc(h.holdTime, func() { h.fireHold(gen) })
}

func (h *holdTracker) fireHold(gen int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.pressed || h.held || h.stopped || gen != h.gen {
		return
	}
	h.held = true
	h.emit(logic.ButtonEvent{Kind: logic.ButtonHeld, Time: h.now()})
}

// release handles the button going up.
func (h *holdTracker) release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.pressed || h.stopped {
		return
	}
	h.pressed = false
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.emit(logic.ButtonEvent{Kind: logic.ButtonReleased, WasHeld: h.held, Time: h.now()})
}

// stop disarms the tracker; no events are emitted afterwards.
func (h *holdTracker) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopped = true
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

// sendEvent delivers ev without blocking the caller (the GPIO edge handler or
// the hold timer). A full channel drops the event.
func sendEvent(ch chan<- logic.ButtonEvent, ev logic.ButtonEvent) bool {
	select {
	case ch <- ev:
		return true
	default:
		return false
	}
}
