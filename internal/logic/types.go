// Package logic contains the fan control state machine and LED color mapping.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"math"
	"time"
)

// Config holds the thresholds the Controller works against.
type Config struct {
	OnThreshold  float64 // °C at or above which the fan is switched on
	OffThreshold float64 // °C at or below which the fan is switched off
	Preempt      bool    // force the fan on after two saturated frequency samples
}

// Frequency is a CPU clock sample in MHz.
type Frequency struct {
	Current float64
	Max     float64
}

// Saturated reports whether the CPU is running at its maximum clock.
func (f Frequency) Saturated() bool {
	return math.Round(f.Current) == math.Round(f.Max)
}

// Reading is one sample taken by the control loop.
type Reading struct {
	Temperature float64
	Frequency   Frequency
	// FrequencyValid is false when the frequency could not be read. The
	// preemptive check is skipped for that tick.
	FrequencyValid bool
	Time           time.Time
}

// ButtonKind identifies a semantic button event.
type ButtonKind string

const (
	ButtonReleased ButtonKind = "RELEASED"
	ButtonHeld     ButtonKind = "HELD"
)

// ButtonEvent is produced by the button driver.
type ButtonEvent struct {
	Kind ButtonKind
	// WasHeld is only meaningful for ButtonReleased.
	WasHeld bool
	Time    time.Time
}

// ReleaseAction describes what a button release did to the Controller.
type ReleaseAction int

const (
	ReleaseIgnored ReleaseAction = iota
	ReleaseToggledMode
	ReleaseToggledFan
)

func (a ReleaseAction) String() string {
	switch a {
	case ReleaseToggledMode:
		return "toggled_mode"
	case ReleaseToggledFan:
		return "toggled_fan"
	default:
		return "ignored"
	}
}

// State is a point-in-time copy of the Controller state.
type State struct {
	Armed          bool
	Enabled        bool
	Intent         bool
	Fast           bool
	Temperature    float64
	LastChangeTemp float64
	// LastChangeTime is zero after a mode switch.
	LastChangeTime  time.Time
	FanTransitions  int
	ModeTransitions int
}

// RGB is an LED color.
type RGB struct {
	R, G, B uint8
}

var (
	Off  = RGB{}
	Blue = RGB{B: 255}
)
