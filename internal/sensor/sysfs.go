package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sweeney/fanshim-mqtt/internal/logic"
)

// DefaultRoot is the sysfs mount point.
const DefaultRoot = "/sys"

// SysfsSampler reads the thermal zone and cpufreq policies from sysfs.
type SysfsSampler struct {
	root string
}

// NewSysfsSampler creates a sampler rooted at root (normally DefaultRoot).
func NewSysfsSampler(root string) *SysfsSampler {
	return &SysfsSampler{root: root}
}

// Temperature returns the temperature of the first thermal zone whose type is
// one of ThermalZoneNames. Values are reported in millidegrees by the kernel.
func (s *SysfsSampler) Temperature() (float64, error) {
	zones, err := filepath.Glob(filepath.Join(s.root, "class", "thermal", "thermal_zone*"))
	if err != nil {
		return 0, fmt.Errorf("list thermal zones: %w", err)
	}

	for _, zone := range zones {
		kind, err := readString(filepath.Join(zone, "type"))
		if err != nil || !isCPUZone(kind) {
			continue
		}
		milli, err := readFloat(filepath.Join(zone, "temp"))
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", filepath.Base(zone), err)
		}
		return milli / 1000, nil
	}
	return 0, ErrNoSensor
}

// Frequency averages scaling_cur_freq and scaling_max_freq over all cpufreq
// policies. Values are reported in kHz by the kernel.
func (s *SysfsSampler) Frequency() (logic.Frequency, error) {
	policies, err := filepath.Glob(filepath.Join(s.root, "devices", "system", "cpu", "cpufreq", "policy*"))
	if err != nil {
		return logic.Frequency{}, fmt.Errorf("list cpufreq policies: %w", err)
	}
	if len(policies) == 0 {
		return logic.Frequency{}, fmt.Errorf("no cpufreq policies under %s", s.root)
	}

	var cur, top float64
	for _, p := range policies {
		c, err := readFloat(filepath.Join(p, "scaling_cur_freq"))
		if err != nil {
			return logic.Frequency{}, fmt.Errorf("read %s current: %w", filepath.Base(p), err)
		}
		m, err := readFloat(filepath.Join(p, "scaling_max_freq"))
		if err != nil {
			return logic.Frequency{}, fmt.Errorf("read %s max: %w", filepath.Base(p), err)
		}
		cur += c
		top += m
	}

	n := float64(len(policies))
	return logic.Frequency{
		Current: cur / n / 1000,
		Max:     top / n / 1000,
	}, nil
}

func isCPUZone(kind string) bool {
	for _, name := range ThermalZoneNames {
		if kind == name {
			return true
		}
	}
	return false
}

func readString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func readFloat(path string) (float64, error) {
	s, err := readString(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}
