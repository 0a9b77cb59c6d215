// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"strconv"
	"time"
)

// TopicTemperature carries the latest CPU temperature as a decimal string.
const TopicTemperature = "fanshim/temperature"

// TopicActive carries the fan intent, "true" or "false".
const TopicActive = "fanshim/active"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "fanshim/system"

// Lifecycle event names published on TopicSystem.
const (
	EventStartup  = "STARTUP"
	EventShutdown = "SHUTDOWN"
)

// Publisher publishes telemetry to MQTT.
type Publisher interface {
	// PublishTemperature sends the current temperature.
	// Errors are reported but are never fatal to the caller.
	PublishTemperature(celsius float64) error

	// PublishActive sends the fan intent for this tick.
	PublishActive(active bool) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (startup or shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // EventStartup or EventShutdown
	Reason     string // e.g. "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// FormatTemperature renders celsius with the shortest exact representation,
// e.g. 48.3 -> "48.3", 50 -> "50".
func FormatTemperature(celsius float64) []byte {
	return []byte(strconv.FormatFloat(celsius, 'f', -1, 64))
}

// FormatActive renders the fan intent.
func FormatActive(active bool) []byte {
	return []byte(strconv.FormatBool(active))
}

// SystemPayload is the fallback payload for system events that carry no
// status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
