package logic

import (
	"sync"
	"time"
)

// Fan is the output the Controller commands.
type Fan interface {
	SetFan(on bool) error
}

// Controller owns the armed/enabled state machine. All mutations go through
// its methods and are serialized by mu, so the control loop and button
// handling never observe a half-applied transition.
type Controller struct {
	mu  sync.Mutex
	cfg Config
	fan Fan

	armed   bool
	enabled bool
	intent  bool
	isFast  bool

	lastTemp       float64
	lastChangeTemp float64
	lastChangeTime time.Time

	fanTransitions  int
	modeTransitions int
}

// NewController creates a Controller in automatic mode with the fan assumed off.
// The caller is responsible for having driven the fan off beforehand.
func NewController(cfg Config, fan Fan) *Controller {
	return &Controller{
		cfg:   cfg,
		fan:   fan,
		armed: true,
	}
}

// Prime performs the startup temperature check: the fan is switched on
// immediately when temp is already at or above the on threshold.
func (c *Controller) Prime(temp float64, now time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastTemp = temp
	if temp < c.cfg.OnThreshold {
		return false, nil
	}
	c.intent = true
	return c.setFanLocked(true, now)
}

// Decide runs one tick of the state machine and returns the desired fan state.
// It does not touch the fan; call SetFan with the result.
func (c *Controller) Decide(r Reading) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastTemp = r.Temperature

	wasFast := c.isFast
	c.isFast = r.FrequencyValid && r.Frequency.Saturated()

	switch {
	case c.cfg.Preempt && c.isFast && wasFast:
		c.intent = true
	case c.armed:
		if r.Temperature >= c.cfg.OnThreshold {
			c.intent = true
		} else if r.Temperature <= c.cfg.OffThreshold {
			c.intent = false
		}
	}
	// In manual mode the intent only moves with button releases.

	return c.intent
}

// SetFan drives the fan to status. The driver is only invoked when status
// differs from the current state; changed reports whether that happened.
// On a driver error the state is left untouched.
func (c *Controller) SetFan(status bool, now time.Time) (changed bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setFanLocked(status, now)
}

func (c *Controller) setFanLocked(status bool, now time.Time) (bool, error) {
	if status == c.enabled {
		return false, nil
	}
	if err := c.fan.SetFan(status); err != nil {
		return false, err
	}
	c.enabled = status
	c.lastChangeTemp = c.lastTemp
	c.lastChangeTime = now
	c.fanTransitions++
	return true, nil
}

// SetArmed switches between automatic (true) and manual (false) mode.
// The last-change record is cleared so a mode switch reads differently from
// a thermal transition.
func (c *Controller) SetArmed(status bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setArmedLocked(status)
}

func (c *Controller) setArmedLocked(status bool) {
	if status != c.armed {
		c.modeTransitions++
	}
	c.armed = status
	c.lastChangeTemp = 0
	c.lastChangeTime = time.Time{}
}

// HandleRelease applies a button release. A release after a hold toggles the
// mode; a short press toggles the fan in manual mode and is ignored in
// automatic mode.
func (c *Controller) HandleRelease(wasHeld bool, now time.Time) (ReleaseAction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if wasHeld {
		c.setArmedLocked(!c.armed)
		return ReleaseToggledMode, nil
	}
	if c.armed {
		return ReleaseIgnored, nil
	}

	want := !c.enabled
	if _, err := c.setFanLocked(want, now); err != nil {
		return ReleaseIgnored, err
	}
	c.intent = want
	return ReleaseToggledFan, nil
}

// Armed reports whether the Controller is in automatic mode.
func (c *Controller) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

// Enabled reports the current commanded fan state.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// State returns a snapshot of the Controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Armed:           c.armed,
		Enabled:         c.enabled,
		Intent:          c.intent,
		Fast:            c.isFast,
		Temperature:     c.lastTemp,
		LastChangeTemp:  c.lastChangeTemp,
		LastChangeTime:  c.lastChangeTime,
		FanTransitions:  c.fanTransitions,
		ModeTransitions: c.modeTransitions,
	}
}
