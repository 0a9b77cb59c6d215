package fanshim

import (
	"sync"

	"github.com/sweeney/fanshim-mqtt/internal/logic"
)

// FakeDevice is a test double that records fan and LED writes.
// It is safe for concurrent use.
type FakeDevice struct {
	mu sync.Mutex

	fanCalls []bool
	lights   []logic.RGB
	closed   bool

	// FanError, if set, will be returned by SetFan.
	FanError error

	// LightError, if set, will be returned by SetLight.
	LightError error

	events chan logic.ButtonEvent
}

// NewFakeDevice creates a FakeDevice with a buffered event channel.
func NewFakeDevice() *FakeDevice {
	return &FakeDevice{events: make(chan logic.ButtonEvent, eventBuffer)}
}

// SetFan records the call.
func (f *FakeDevice) SetFan(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FanError != nil {
		return f.FanError
	}
	f.fanCalls = append(f.fanCalls, on)
	return nil
}

// SetLight records the color.
func (f *FakeDevice) SetLight(c logic.RGB) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LightError != nil {
		return f.LightError
	}
	f.lights = append(f.lights, c)
	return nil
}

// Events returns the scripted event channel.
func (f *FakeDevice) Events() <-chan logic.ButtonEvent {
	return f.events
}

// Emit queues a button event as if the hardware produced it.
func (f *FakeDevice) Emit(ev logic.ButtonEvent) bool {
	return sendEvent(f.events, ev)
}

// Close marks the device as closed.
func (f *FakeDevice) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// FanCalls returns a copy of every SetFan argument in order.
func (f *FakeDevice) FanCalls() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.fanCalls...)
}

// Lights returns a copy of every SetLight color in order.
func (f *FakeDevice) Lights() []logic.RGB {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.RGB(nil), f.lights...)
}

// Closed reports whether Close was called.
func (f *FakeDevice) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset clears recorded calls and errors.
func (f *FakeDevice) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fanCalls = nil
	f.lights = nil
	f.closed = false
	f.FanError = nil
	f.LightError = nil
}
