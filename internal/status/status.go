// Package status provides a thread-safe status tracker for the fanshim daemon.
// It is read by the HTTP handlers and used for MQTT lifecycle payloads.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/fanshim-mqtt/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	OnThreshold  float64
	OffThreshold float64
	DelayMs      int64
	Preempt      bool
	Button       bool
	LED          bool
	Brightness   float64
	Broker       string
	HTTPAddr     string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	logic.State

	Frequency      logic.Frequency
	FrequencyValid bool
	// Sampled is false until the first reading has been recorded.
	Sampled       bool
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update stores the controller state. Called by the control loop every tick
// and after button transitions.
func (t *Tracker) Update(st logic.State) {
	t.mu.Lock()
	t.snap.State = st
	t.mu.Unlock()
}

// SetReading stores the latest frequency sample.
func (t *Tracker) SetReading(r logic.Reading) {
	t.mu.Lock()
	t.snap.Frequency = r.Frequency
	t.snap.FrequencyValid = r.FrequencyValid
	t.snap.Sampled = true
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
