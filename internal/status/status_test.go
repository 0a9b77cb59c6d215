package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/fanshim-mqtt/internal/logic"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		OnThreshold:  65,
		OffThreshold: 55,
		DelayMs:      2000,
		Preempt:      true,
		Button:       true,
		LED:          true,
		Brightness:   255,
		Broker:       "tcp://localhost:1883",
		HTTPAddr:     ":8080",
	}
}

func TestNewTracker(t *testing.T) {
	tr := NewTracker(start, testConfig())

	snap := tr.Snapshot()
	assert.True(t, snap.StartTime.Equal(start))
	assert.Equal(t, 65.0, snap.Config.OnThreshold)
	assert.Equal(t, ":8080", snap.Config.HTTPAddr)
	assert.False(t, snap.Sampled)
	assert.False(t, snap.MQTTConnected)
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(start, Config{})

	tr.Update(logic.State{Armed: true, Enabled: true, Intent: true, Temperature: 66, FanTransitions: 3})
	tr.SetReading(logic.Reading{Frequency: logic.Frequency{Current: 1500, Max: 1500}, FrequencyValid: true})

	snap := tr.Snapshot()
	assert.True(t, snap.Armed)
	assert.True(t, snap.Enabled)
	assert.Equal(t, 66.0, snap.Temperature)
	assert.Equal(t, 3, snap.FanTransitions)
	assert.Equal(t, 1500.0, snap.Frequency.Current)
	assert.True(t, snap.FrequencyValid)
	assert.True(t, snap.Sampled)
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(start, Config{})

	tr.SetMQTTConnected(true)
	assert.True(t, tr.Snapshot().MQTTConnected)

	tr.SetMQTTConnected(false)
	assert.False(t, tr.Snapshot().MQTTConnected)
}

func TestSnapshotUptime(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(15 * time.Minute)}
	assert.Equal(t, 15*time.Minute, snap.Uptime())
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(start, Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	assert.False(t, snap.Now.Before(before))
	assert.False(t, snap.Now.After(after))
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.Update(logic.State{Enabled: true})

	snap1 := tr.Snapshot()
	tr.Update(logic.State{Enabled: false})

	assert.True(t, snap1.Enabled, "snapshot should be a copy")
}

func TestModeAndFanNames(t *testing.T) {
	assert.Equal(t, "automatic", ModeName(true))
	assert.Equal(t, "manual", ModeName(false))
	assert.Equal(t, "ON", FanName(true))
	assert.Equal(t, "OFF", FanName(false))
}

func TestFormatJSON(t *testing.T) {
	snap := Snapshot{
		State: logic.State{
			Armed:           true,
			Enabled:         true,
			Intent:          true,
			Fast:            true,
			Temperature:     66.5,
			LastChangeTemp:  65.2,
			LastChangeTime:  start.Add(10 * time.Minute),
			FanTransitions:  4,
			ModeTransitions: 1,
		},
		Frequency:      logic.Frequency{Current: 1500, Max: 1500},
		FrequencyValid: true,
		StartTime:      start,
		Now:            start.Add(15 * time.Minute),
		MQTTConnected:  true,
		Config:         testConfig(),
	}

	var parsed StatusJSON
	require.NoError(t, json.Unmarshal(FormatJSON(snap), &parsed))
	s := parsed.Status

	assert.Empty(t, s.Event)
	assert.Equal(t, "automatic", s.Mode)
	assert.Equal(t, "ON", s.Fan)
	assert.True(t, s.Intent)
	assert.Equal(t, 66.5, s.Temperature)
	assert.Equal(t, 65.2, s.LastChangeTemp)
	assert.Equal(t, "2026-01-01T00:10:00Z", s.LastChangeTime)
	assert.Equal(t, FrequencyJSON{Current: 1500, Max: 1500, Valid: true, Fast: true}, s.Frequency)
	assert.Equal(t, int64(900), s.UptimeSeconds)
	assert.Equal(t, "2026-01-01T00:00:00Z", s.StartTime)
	assert.Equal(t, "2026-01-01T00:15:00Z", s.Timestamp)
	assert.Equal(t, MQTTStatus{Connected: true, Broker: "tcp://localhost:1883"}, s.MQTT)
	assert.Equal(t, CountsJSON{Fan: 4, Mode: 1}, s.Counts)
	assert.Equal(t, int64(2000), s.Config.DelayMs)
	assert.True(t, s.Config.Preempt)
}

func TestFormatJSONManualModeOmitsChangeTime(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start}

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(FormatJSON(snap), &raw))
	assert.Equal(t, "manual", raw["status"]["mode"])
	assert.Equal(t, "OFF", raw["status"]["fan"])
	_, exists := raw["status"]["last_change_time"]
	assert.False(t, exists)
}

func TestFormatStatusEvent(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(time.Hour), Config: testConfig()}

	var parsed StatusJSON
	require.NoError(t, json.Unmarshal(FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"), &parsed))
	assert.Equal(t, "SHUTDOWN", parsed.Status.Event)
	assert.Equal(t, "SIGTERM", parsed.Status.Reason)
	assert.Equal(t, int64(3600), parsed.Status.UptimeSeconds)
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start}

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(FormatStatusEvent(snap, "STARTUP", ""), &raw))
	assert.Equal(t, "STARTUP", raw["status"]["event"])
	_, exists := raw["status"]["reason"]
	assert.False(t, exists)
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(start, Config{})
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(logic.State{FanTransitions: i})
			tr.SetReading(logic.Reading{Temperature: float64(i)})
			tr.SetMQTTConnected(i%2 == 0)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = FormatJSON(tr.Snapshot())
		}
	}()
	wg.Wait()
}
