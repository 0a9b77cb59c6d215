//go:build linux

package fanshim

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/fanshim-mqtt/internal/logger"
	"github.com/sweeney/fanshim-mqtt/internal/logic"
)

// buttonDebounce filters contact bounce in the kernel before edges reach the
// hold tracker.
const buttonDebounce = 10 * time.Millisecond

// RealDevice drives the Fan SHIM using the Linux GPIO character device.
type RealDevice struct {
	chip   *gpiocdev.Chip
	fan    *gpiocdev.Line
	data   *gpiocdev.Line
	clock  *gpiocdev.Line
	button *gpiocdev.Line

	ledMu      sync.Mutex
	led        *apa102
	ledEnabled bool

	tracker *holdTracker
	events  chan logic.ButtonEvent
}

// NewRealDevice requests the Fan SHIM lines. The fan starts off.
func NewRealDevice(opts Options) (*RealDevice, error) {
	chip, err := gpiocdev.NewChip(opts.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	d := &RealDevice{chip: chip, ledEnabled: opts.LED}

	d.fan, err = chip.RequestLine(opts.Pins.Fan, gpiocdev.AsOutput(0))
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("request fan pin %d: %w", opts.Pins.Fan, err)
	}

	d.data, err = chip.RequestLine(opts.Pins.Data, gpiocdev.AsOutput(0))
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("request led data pin %d: %w", opts.Pins.Data, err)
	}

	d.clock, err = chip.RequestLine(opts.Pins.Clock, gpiocdev.AsOutput(0))
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("request led clock pin %d: %w", opts.Pins.Clock, err)
	}
	d.led = &apa102{data: d.data, clock: d.clock}

	if opts.Button {
		d.events = make(chan logic.ButtonEvent, eventBuffer)
		d.tracker = newHoldTracker(opts.HoldTime, func(ev logic.ButtonEvent) {
			if !sendEvent(d.events, ev) {
				logger.Warn().Str("event", string(ev.Kind)).Msg("button event queue full, dropping")
			}
		})

		// The button pulls the line low when pressed.
		d.button, err = chip.RequestLine(opts.Pins.Button,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithBothEdges,
			gpiocdev.WithDebounce(buttonDebounce),
			gpiocdev.WithEventHandler(d.handleEdge),
		)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("request button pin %d: %w", opts.Pins.Button, err)
		}
	}

	return d, nil
}

func (d *RealDevice) handleEdge(evt gpiocdev.LineEvent) {
	switch evt.Type {
	case gpiocdev.LineEventFallingEdge:
		d.tracker.press()
	case gpiocdev.LineEventRisingEdge:
		d.tracker.release()
	}
}

// SetFan drives the fan line.
func (d *RealDevice) SetFan(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := d.fan.SetValue(v); err != nil {
		return fmt.Errorf("set fan: %w", err)
	}
	return nil
}

// SetLight writes one APA102 frame.
func (d *RealDevice) SetLight(c logic.RGB) error {
	d.ledMu.Lock()
	defer d.ledMu.Unlock()
	if err := d.led.write(c); err != nil {
		return fmt.Errorf("set light: %w", err)
	}
	return nil
}

// Events returns button events, or nil when the button is disabled.
func (d *RealDevice) Events() <-chan logic.ButtonEvent {
	if d.events == nil {
		return nil
	}
	return d.events
}

// Close switches the fan off, and the LED too unless it is disabled, then
// releases all lines.
// The button line is reconfigured as a plain input before release so the
// header is left as the Pi boots it.
func (d *RealDevice) Close() error {
	var errs []error

	if d.tracker != nil {
		d.tracker.stop()
	}
	if d.button != nil {
		if err := d.button.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure button pin: %w", err))
		}
		if err := d.button.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin: %w", err))
		}
	}
	if d.fan != nil {
		if err := d.fan.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("fan off: %w", err))
		}
		if err := d.fan.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close fan pin: %w", err))
		}
	}
	d.ledMu.Lock()
	err := closeLight(d.led, d.ledEnabled)
	d.ledMu.Unlock()
	if err != nil {
		errs = append(errs, err)
	}
	for name, l := range map[string]*gpiocdev.Line{"led data": d.data, "led clock": d.clock} {
		if l == nil {
			continue
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
