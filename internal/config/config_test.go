package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// isolate points the config search at an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := ConfigPaths
	ConfigPaths = []string{dir}
	t.Cleanup(func() { ConfigPaths = old })
	return dir
}

func TestDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 65.0, cfg.OnThreshold)
	assert.Equal(t, 55.0, cfg.OffThreshold)
	assert.Equal(t, 2*time.Second, cfg.Delay)
	assert.False(t, cfg.Preempt)
	assert.False(t, cfg.NoButton)
	assert.False(t, cfg.NoLED)
	assert.Equal(t, 255.0, cfg.Brightness)
	assert.Equal(t, time.Second, cfg.HoldTime)
	assert.Equal(t, "localhost", cfg.MQTT.Host)
	assert.Equal(t, 1883, cfg.MQTT.Port)
	assert.Equal(t, 60, cfg.MQTT.KeepAlive)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker())
	assert.Equal(t, time.Minute, cfg.MQTT.KeepAliveDuration())
	assert.Empty(t, cfg.HTTPAddr)
	assert.Empty(t, cfg.HistoryDB)
	assert.Empty(t, cfg.ConfigFile)
}

func TestFlags(t *testing.T) {
	isolate(t)

	cfg, err := Load([]string{
		"--on-threshold=70", "--off-threshold", "50",
		"--delay=0.5", "--preempt", "--verbose", "--nobutton", "--noled",
		"--brightness=128", "--hold-time=2s",
		"--mqttHost=broker.lan", "--mqttPort=8883", "--mqttUser=pi",
		"--mqttPassword=secret", "--mqttKeepAlive=30",
		"--http=:8080", "--history-db=/tmp/fan.db",
	})
	require.NoError(t, err)

	assert.Equal(t, 70.0, cfg.OnThreshold)
	assert.Equal(t, 50.0, cfg.OffThreshold)
	assert.Equal(t, 500*time.Millisecond, cfg.Delay)
	assert.True(t, cfg.Preempt)
	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.NoButton)
	assert.True(t, cfg.NoLED)
	assert.Equal(t, 128.0, cfg.Brightness)
	assert.Equal(t, 2*time.Second, cfg.HoldTime)
	assert.Equal(t, "tcp://broker.lan:8883", cfg.MQTT.Broker())
	assert.Equal(t, "pi", cfg.MQTT.User)
	assert.Equal(t, "secret", cfg.MQTT.Password)
	assert.Equal(t, 30, cfg.MQTT.KeepAlive)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "/tmp/fan.db", cfg.HistoryDB)
}

func TestEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("FANSHIM_ON_THRESHOLD", "72")
	t.Setenv("FANSHIM_PREEMPT", "true")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 72.0, cfg.OnThreshold)
	assert.True(t, cfg.Preempt)

	// Flags beat the environment.
	cfg, err = Load([]string{"--on-threshold=68"})
	require.NoError(t, err)
	assert.Equal(t, 68.0, cfg.OnThreshold)
}

func TestConfigFileSearch(t *testing.T) {
	dir := isolate(t)
	body := "on-threshold: 75\noff-threshold: 60\nmqtthost: mosquitto\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fanshim.yaml"), []byte(body), 0o644))

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 75.0, cfg.OnThreshold)
	assert.Equal(t, 60.0, cfg.OffThreshold)
	assert.Equal(t, "mosquitto", cfg.MQTT.Host)
	assert.Equal(t, filepath.Join(dir, "fanshim.yaml"), cfg.ConfigFile)
}

func TestExplicitConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("brightness: 64\n"), 0o644))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, 64.0, cfg.Brightness)
}

func TestExplicitConfigFileMissing(t *testing.T) {
	isolate(t)
	_, err := Load([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestDeprecatedOptions(t *testing.T) {
	isolate(t)

	for _, args := range [][]string{
		{"--threshold=60"},
		{"--hysteresis=5"},
		{"--threshold=0"},
	} {
		_, err := Load(args)
		assert.ErrorIs(t, err, ErrDeprecatedOptions, "%v", args)
	}
}

func TestValidation(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"on equals off", []string{"--on-threshold=60", "--off-threshold=60"}, ErrInvalidThresholds},
		{"on below off", []string{"--on-threshold=50", "--off-threshold=60"}, ErrInvalidThresholds},
		{"brightness high", []string{"--brightness=300"}, ErrInvalidBrightness},
		{"brightness negative", []string{"--brightness=-1"}, ErrInvalidBrightness},
		{"zero delay", []string{"--delay=0"}, ErrInvalidDelay},
		{"port zero", []string{"--mqttPort=0"}, ErrInvalidMQTT},
		{"port too high", []string{"--mqttPort=70000"}, ErrInvalidMQTT},
		{"negative keepalive", []string{"--mqttKeepAlive=-1"}, ErrInvalidMQTT},
		{"empty host", []string{"--mqttHost="}, ErrInvalidMQTT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHelp(t *testing.T) {
	isolate(t)
	_, err := Load([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestUnknownFlag(t *testing.T) {
	isolate(t)
	_, err := Load([]string{"--bogus"})
	assert.Error(t, err)
}

func TestYAMLOmitsPassword(t *testing.T) {
	isolate(t)
	cfg, err := Load([]string{"--mqttPassword=hunter2", "--mqttUser=pi"})
	require.NoError(t, err)

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hunter2")

	var back fileConfig
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, 65.0, back.OnThreshold)
	assert.Equal(t, 2.0, back.Delay)
	assert.Equal(t, "pi", back.MQTTUser)
}

func TestPrintedConfigLoadsBack(t *testing.T) {
	isolate(t)
	cfg, err := Load([]string{
		"--on-threshold=70", "--off-threshold=60", "--delay=5",
		"--preempt", "--noled", "--brightness=100", "--hold-time=1500ms",
		"--mqttHost=broker.lan", "--mqttPort=8883", "--mqttUser=pi", "--mqttKeepAlive=30",
		"--http=:8080", "--history-db=/var/lib/fanshim/history.db",
	})
	require.NoError(t, err)

	out, err := cfg.YAML()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "fanshim.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o644))

	back, err := Load([]string{"--config", path})
	require.NoError(t, err)

	assert.Equal(t, 70.0, back.OnThreshold)
	assert.Equal(t, 60.0, back.OffThreshold)
	assert.Equal(t, 5*time.Second, back.Delay)
	assert.True(t, back.Preempt)
	assert.True(t, back.NoLED)
	assert.False(t, back.NoButton)
	assert.Equal(t, 100.0, back.Brightness)
	assert.Equal(t, 1500*time.Millisecond, back.HoldTime)
	assert.Equal(t, "tcp://broker.lan:8883", back.MQTT.Broker())
	assert.Equal(t, "pi", back.MQTT.User)
	assert.Equal(t, 30, back.MQTT.KeepAlive)
	assert.Equal(t, ":8080", back.HTTPAddr)
	assert.Equal(t, "/var/lib/fanshim/history.db", back.HistoryDB)
	assert.Equal(t, path, back.ConfigFile)
}

func TestPrintedDefaultsLoadBack(t *testing.T) {
	isolate(t)
	cfg, err := Load(nil)
	require.NoError(t, err)

	out, err := cfg.YAML()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "fanshim.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o644))

	back, err := Load([]string{"--config", path})
	require.NoError(t, err)
	back.ConfigFile = ""
	assert.Equal(t, cfg, back)
}

func TestUsageHidesDeprecated(t *testing.T) {
	u := Usage()
	assert.Contains(t, u, "--on-threshold")
	assert.Contains(t, u, "--mqttHost")
	assert.NotContains(t, u, "--hysteresis")
}
