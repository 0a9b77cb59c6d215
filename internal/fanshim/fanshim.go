// Package fanshim drives the Fan SHIM board: a fan, an APA102 RGB LED and a
// push button, all on the Raspberry Pi header.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package fanshim

import (
	"time"

	"github.com/sweeney/fanshim-mqtt/internal/logic"
)

// Device is the hardware surface used by the controller.
type Device interface {
	// SetFan switches the fan on or off.
	SetFan(on bool) error

	// SetLight sets the LED color.
	SetLight(c logic.RGB) error

	// Events returns button events. The channel is nil when the button is
	// disabled.
	Events() <-chan logic.ButtonEvent

	// Close switches the fan and LED off and releases GPIO resources.
	Close() error
}

// Pins holds BCM line offsets.
type Pins struct {
	Fan    int
	Button int
	Data   int // APA102 data
	Clock  int // APA102 clock
}

// Pin definitions (BCM numbering)
var DefaultPins = Pins{
	Fan:    18,
	Button: 17,
	Data:   15,
	Clock:  14,
}

const (
	DefaultChip     = "gpiochip0"
	DefaultHoldTime = time.Second

	// eventBuffer bounds queued button events; extra events are dropped.
	eventBuffer = 8
)

// Options configures a RealDevice.
type Options struct {
	Chip     string
	Pins     Pins
	HoldTime time.Duration
	Button   bool // false leaves the button line unrequested
	LED      bool // false keeps Close from writing to the LED
}

// DefaultOptions returns the stock Fan SHIM wiring with the button enabled.
func DefaultOptions() Options {
	return Options{
		Chip:     DefaultChip,
		Pins:     DefaultPins,
		HoldTime: DefaultHoldTime,
		Button:   true,
		LED:      true,
	}
}
