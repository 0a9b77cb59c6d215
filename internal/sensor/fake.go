package sensor

import (
	"errors"
	"sync"

	"github.com/sweeney/fanshim-mqtt/internal/logic"
)

// FakeSampler is a test double that returns scripted readings.
type FakeSampler struct {
	mu sync.Mutex

	// Temperatures contains scripted values. Each call to Temperature()
	// consumes the next one; the last value repeats once exhausted.
	Temperatures []float64

	// Frequencies works like Temperatures for Frequency().
	Frequencies []logic.Frequency

	// TemperatureError, if set, will be returned by Temperature().
	TemperatureError error

	// FrequencyError, if set, will be returned by Frequency().
	FrequencyError error

	tIndex int
	fIndex int
}

// NewFakeSampler creates a FakeSampler with the given temperatures and an
// idle frequency.
func NewFakeSampler(temps ...float64) *FakeSampler {
	return &FakeSampler{
		Temperatures: temps,
		Frequencies:  []logic.Frequency{{Current: 600, Max: 1500}},
	}
}

// Temperature returns the next scripted temperature.
func (f *FakeSampler) Temperature() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.TemperatureError != nil {
		return 0, f.TemperatureError
	}
	if len(f.Temperatures) == 0 {
		return 0, errors.New("no temperatures configured")
	}

	t := f.Temperatures[f.tIndex]
	if f.tIndex < len(f.Temperatures)-1 {
		f.tIndex++
	}
	return t, nil
}

// Frequency returns the next scripted frequency.
func (f *FakeSampler) Frequency() (logic.Frequency, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FrequencyError != nil {
		return logic.Frequency{}, f.FrequencyError
	}
	if len(f.Frequencies) == 0 {
		return logic.Frequency{}, errors.New("no frequencies configured")
	}

	fr := f.Frequencies[f.fIndex]
	if f.fIndex < len(f.Frequencies)-1 {
		f.fIndex++
	}
	return fr, nil
}
