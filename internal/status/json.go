package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event          string        `json:"event,omitempty"`
	Reason         string        `json:"reason,omitempty"`
	Mode           string        `json:"mode"`
	Fan            string        `json:"fan"`
	Intent         bool          `json:"intent"`
	Temperature    float64       `json:"temperature"`
	Frequency      FrequencyJSON `json:"frequency"`
	LastChangeTemp float64       `json:"last_change_temperature"`
	LastChangeTime string        `json:"last_change_time,omitempty"`
	UptimeSeconds  int64         `json:"uptime_seconds"`
	StartTime      string        `json:"start_time"`
	Timestamp      string        `json:"timestamp"`
	MQTT           MQTTStatus    `json:"mqtt"`
	Counts         CountsJSON    `json:"counts"`
	Config         ConfigJSON    `json:"config"`
}

// FrequencyJSON is the latest CPU clock sample in MHz.
type FrequencyJSON struct {
	Current float64 `json:"current_mhz"`
	Max     float64 `json:"max_mhz"`
	Valid   bool    `json:"valid"`
	Fast    bool    `json:"fast"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON holds transition counters.
type CountsJSON struct {
	Fan  int `json:"fan_transitions"`
	Mode int `json:"mode_switches"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	OnThreshold  float64 `json:"on_threshold"`
	OffThreshold float64 `json:"off_threshold"`
	DelayMs      int64   `json:"delay_ms"`
	Preempt      bool    `json:"preempt"`
	Button       bool    `json:"button"`
	LED          bool    `json:"led"`
	Brightness   float64 `json:"brightness"`
	Broker       string  `json:"broker"`
	HTTPAddr     string  `json:"http_addr,omitempty"`
}

// ModeName returns "automatic" or "manual".
func ModeName(armed bool) string {
	if armed {
		return "automatic"
	}
	return "manual"
}

// FanName returns "ON" or "OFF".
func FanName(enabled bool) string {
	if enabled {
		return "ON"
	}
	return "OFF"
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Mode:           ModeName(snap.Armed),
		Fan:            FanName(snap.Enabled),
		Intent:         snap.Intent,
		Temperature:    snap.Temperature,
		LastChangeTemp: snap.LastChangeTemp,
		Frequency: FrequencyJSON{
			Current: snap.Frequency.Current,
			Max:     snap.Frequency.Max,
			Valid:   snap.FrequencyValid,
			Fast:    snap.Fast,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts:        CountsJSON{Fan: snap.FanTransitions, Mode: snap.ModeTransitions},
		Config: ConfigJSON{
			OnThreshold:  snap.Config.OnThreshold,
			OffThreshold: snap.Config.OffThreshold,
			DelayMs:      snap.Config.DelayMs,
			Preempt:      snap.Config.Preempt,
			Button:       snap.Config.Button,
			LED:          snap.Config.LED,
			Brightness:   snap.Config.Brightness,
			Broker:       snap.Config.Broker,
			HTTPAddr:     snap.Config.HTTPAddr,
		},
	}
	if !snap.LastChangeTime.IsZero() {
		inner.LastChangeTime = snap.LastChangeTime.UTC().Format(time.RFC3339)
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
