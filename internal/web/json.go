package web

import (
	"encoding/json"
	"time"

	"github.com/sweeney/fanshim-mqtt/internal/history"
	"github.com/sweeney/fanshim-mqtt/internal/status"
)

// HistoryJSON is the JSON envelope for /history.json.
type HistoryJSON struct {
	History []HistoryEntryJSON `json:"history"`
}

// HistoryEntryJSON is one transition, newest first.
type HistoryEntryJSON struct {
	Timestamp   string  `json:"timestamp"`
	Kind        string  `json:"kind"`
	Mode        string  `json:"mode"`
	Fan         string  `json:"fan"`
	Temperature float64 `json:"temperature"`
}

func formatHistory(entries []history.Entry) []byte {
	hj := HistoryJSON{History: make([]HistoryEntryJSON, 0, len(entries))}
	for _, e := range entries {
		hj.History = append(hj.History, HistoryEntryJSON{
			Timestamp:   e.Time.UTC().Format(time.RFC3339),
			Kind:        string(e.Kind),
			Mode:        status.ModeName(e.Armed),
			Fan:         status.FanName(e.Enabled),
			Temperature: e.Temperature,
		})
	}
	data, _ := json.MarshalIndent(hj, "", "  ")
	return data
}
