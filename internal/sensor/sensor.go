// Package sensor reads CPU temperature and clock frequency.
// The real implementation reads sysfs; the fake implementation allows testing
// without hardware.
package sensor

import (
	"errors"

	"github.com/sweeney/fanshim-mqtt/internal/logger"
	"github.com/sweeney/fanshim-mqtt/internal/logic"
)

// Sampler reads instantaneous CPU temperature and frequency.
type Sampler interface {
	// Temperature returns the CPU temperature in °C.
	Temperature() (float64, error)

	// Frequency returns the current and maximum CPU clock in MHz.
	Frequency() (logic.Frequency, error)
}

// ErrNoSensor is returned when no CPU thermal zone could be found.
var ErrNoSensor = errors.New("sensor: no cpu thermal zone")

// ThermalZoneNames are the thermal zone types treated as the CPU sensor.
var ThermalZoneNames = []string{"cpu-thermal", "cpu_thermal"}

// ReadTemperature returns the CPU temperature, or 0 when the sensor cannot be
// read. The failure is logged; the control loop treats it as a cold reading.
func ReadTemperature(s Sampler) float64 {
	t, err := s.Temperature()
	if err != nil {
		logger.Warn().Err(err).Msg("unable to get CPU temperature, assuming 0")
		return 0
	}
	return t
}
