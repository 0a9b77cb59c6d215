package web

import (
	"io"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/sweeney/fanshim-mqtt/internal/status"
)

var metricsFormat = expfmt.NewFormat(expfmt.TypeTextPlain)

func ptr[T any](v T) *T { return &v }

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func gauge(name, help string, v float64, labels ...*dto.LabelPair) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   ptr(name),
		Help:   ptr(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Label: labels, Gauge: &dto.Gauge{Value: ptr(v)}}},
	}
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   ptr(name),
		Help:   ptr(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: ptr(v)}}},
	}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: ptr(name), Value: ptr(value)}
}

// metricFamilies renders snap as Prometheus metric families.
func metricFamilies(snap status.Snapshot) []*dto.MetricFamily {
	freq := &dto.MetricFamily{
		Name: ptr("fanshim_cpu_frequency_mhz"),
		Help: ptr("Average CPU clock across cores."),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{
			{Label: []*dto.LabelPair{label("kind", "current")}, Gauge: &dto.Gauge{Value: ptr(snap.Frequency.Current)}},
			{Label: []*dto.LabelPair{label("kind", "max")}, Gauge: &dto.Gauge{Value: ptr(snap.Frequency.Max)}},
		},
	}

	return []*dto.MetricFamily{
		gauge("fanshim_temperature_celsius", "Latest CPU temperature.", snap.Temperature),
		freq,
		gauge("fanshim_fan_on", "1 when the fan is running.", b2f(snap.Enabled)),
		gauge("fanshim_automatic", "1 in automatic mode, 0 in manual mode.", b2f(snap.Armed)),
		gauge("fanshim_mqtt_connected", "1 while the broker connection is up.", b2f(snap.MQTTConnected)),
		gauge("fanshim_uptime_seconds", "Seconds since the daemon started.", snap.Uptime().Seconds()),
		counter("fanshim_fan_transitions_total", "Fan on/off switches.", float64(snap.FanTransitions)),
		counter("fanshim_mode_switches_total", "Automatic/manual mode switches.", float64(snap.ModeTransitions)),
	}
}

func writeMetrics(w io.Writer, snap status.Snapshot) error {
	enc := expfmt.NewEncoder(w, metricsFormat)
	for _, mf := range metricFamilies(snap) {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
