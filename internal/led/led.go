// Package led serializes writes to the status LED.
package led

import (
	"sync"
	"time"

	"github.com/sweeney/fanshim-mqtt/internal/logic"
)

// Light is the LED driver.
type Light interface {
	SetLight(c logic.RGB) error
}

// Config controls LED output.
type Config struct {
	Enabled      bool
	Brightness   float64 // 0-255
	OffThreshold float64
	OnThreshold  float64
}

// Updater owns the LED lock. Every driver write happens under mu, so a
// temperature update never lands in the middle of a blink sequence.
type Updater struct {
	mu    sync.Mutex
	light Light
	cfg   Config
	sleep func(time.Duration)
}

// NewUpdater creates an Updater for light.
func NewUpdater(light Light, cfg Config) *Updater {
	return &Updater{
		light: light,
		cfg:   cfg,
		sleep: time.Sleep,
	}
}

// Enabled reports whether LED output is on.
func (u *Updater) Enabled() bool {
	return u.cfg.Enabled
}

// Init writes the startup state. With the LED disabled it is switched off
// once; this is the only write a disabled Updater ever makes.
func (u *Updater) Init() error {
	if u.cfg.Enabled {
		return nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.light.SetLight(logic.Off)
}

// ShowTemperature writes the color for temp.
func (u *Updater) ShowTemperature(temp float64) error {
	if !u.cfg.Enabled {
		return nil
	}
	c := logic.ColorFor(temp, u.cfg.OffThreshold, u.cfg.OnThreshold, u.cfg.Brightness)

	u.mu.Lock()
	defer u.mu.Unlock()
	return u.light.SetLight(c)
}

// Blink flashes c times times, each flash lasting period on and period off.
// The lock is held for the whole sequence.
func (u *Updater) Blink(c logic.RGB, times int, period time.Duration) error {
	if !u.cfg.Enabled {
		return nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	for i := 0; i < times; i++ {
		if err := u.light.SetLight(c); err != nil {
			return err
		}
		u.sleep(period)
		if err := u.light.SetLight(logic.Off); err != nil {
			return err
		}
		u.sleep(period)
	}
	return nil
}

// Off switches the LED off.
func (u *Updater) Off() error {
	if !u.cfg.Enabled {
		return nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.light.SetLight(logic.Off)
}
