// Package config loads daemon options from flags, environment and an optional
// config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default values applied when an option is not set anywhere.
const (
	DefaultOnThreshold   = 65.0
	DefaultOffThreshold  = 55.0
	DefaultDelay         = 2.0 // seconds
	DefaultBrightness    = 255.0
	DefaultMQTTHost      = "localhost"
	DefaultMQTTPort      = 1883
	DefaultMQTTKeepAlive = 60 // seconds
	DefaultHoldTime      = time.Second

	// EnvPrefix is prepended to option names looked up in the environment,
	// e.g. FANSHIM_ON_THRESHOLD.
	EnvPrefix = "FANSHIM"

	// unset marks the deprecated options as not supplied.
	unset = -1.0
)

// ConfigName is the base name searched for in ConfigPaths.
const ConfigName = "fanshim"

// ConfigPaths are searched in order when --config is not given.
var ConfigPaths = []string{"/etc/fanshim", "."}

var (
	ErrDeprecatedOptions = errors.New("the --threshold and --hysteresis options have been deprecated, use --on-threshold and --off-threshold instead")
	ErrInvalidThresholds = errors.New("on-threshold must be greater than off-threshold")
	ErrInvalidBrightness = errors.New("brightness must be between 0 and 255")
	ErrInvalidDelay      = errors.New("delay must be greater than 0")
	ErrInvalidMQTT       = errors.New("invalid mqtt settings")
)

// Config is the effective daemon configuration. It is read-only once loaded.
type Config struct {
	OnThreshold  float64
	OffThreshold float64
	Delay        time.Duration
	Preempt      bool
	Verbose      bool
	NoButton     bool
	NoLED        bool
	Brightness   float64
	HoldTime     time.Duration

	MQTT MQTTConfig

	// HTTPAddr is the status server address; empty disables it.
	HTTPAddr string

	// HistoryDB is the SQLite transition log path; empty disables it.
	HistoryDB string

	// ConfigFile is the file that was read, if any.
	ConfigFile string

	PrintConfig bool
	PrintState  bool
}

// MQTTConfig holds broker connection settings.
type MQTTConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	KeepAlive int
}

// fileConfig is the config file layout. Keys are the flag names so that
// --print-config output can be saved as fanshim.yaml and read back.
type fileConfig struct {
	OnThreshold   float64 `yaml:"on-threshold"`
	OffThreshold  float64 `yaml:"off-threshold"`
	Delay         float64 `yaml:"delay"`
	Preempt       bool    `yaml:"preempt"`
	Verbose       bool    `yaml:"verbose"`
	NoButton      bool    `yaml:"nobutton"`
	NoLED         bool    `yaml:"noled"`
	Brightness    float64 `yaml:"brightness"`
	HoldTime      string  `yaml:"hold-time"`
	MQTTHost      string  `yaml:"mqttHost"`
	MQTTPort      int     `yaml:"mqttPort"`
	MQTTUser      string  `yaml:"mqttUser,omitempty"`
	MQTTKeepAlive int     `yaml:"mqttKeepAlive"`
	HTTPAddr      string  `yaml:"http,omitempty"`
	HistoryDB     string  `yaml:"history-db,omitempty"`
}

// Broker returns the broker URL in the form paho expects.
func (m MQTTConfig) Broker() string {
	return fmt.Sprintf("tcp://%s:%d", m.Host, m.Port)
}

// KeepAliveDuration returns the keepalive as a time.Duration.
func (m MQTTConfig) KeepAliveDuration() time.Duration {
	return time.Duration(m.KeepAlive) * time.Second
}

// newFlagSet declares every option. Flag names match the long-standing
// command line of the fan controller.
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false

	fs.Float64("on-threshold", DefaultOnThreshold, "Temperature threshold in degrees C to enable fan")
	fs.Float64("off-threshold", DefaultOffThreshold, "Temperature threshold in degrees C to disable fan")
	fs.Float64("delay", DefaultDelay, "Delay, in seconds, between temperature readings")
	fs.Bool("preempt", false, "Monitor CPU frequency and activate cooling preemptively")
	fs.Bool("verbose", false, "Output temp and fan status messages")
	fs.Bool("nobutton", false, "Disable button input")
	fs.Bool("noled", false, "Disable LED control")
	fs.Float64("brightness", DefaultBrightness, "LED brightness, from 0 to 255")
	fs.Duration("hold-time", DefaultHoldTime, "How long the button must be pressed to count as a hold")

	fs.String("mqttHost", DefaultMQTTHost, "Host for mqtt broker")
	fs.Int("mqttPort", DefaultMQTTPort, "Port for mqtt broker")
	fs.String("mqttUser", "", "User for authentication for mqtt broker")
	fs.String("mqttPassword", "", "Password for authentication for mqtt broker")
	fs.Int("mqttKeepAlive", DefaultMQTTKeepAlive, "Keep alive for mqtt broker, in seconds")

	fs.String("http", "", "HTTP status address, e.g. :8080 (empty to disable)")
	fs.String("history-db", "", "SQLite file recording fan and mode transitions (empty to disable)")
	fs.String("config", "", "Config file (default: fanshim.{yaml,toml,json} in /etc/fanshim or .)")
	fs.Bool("print-config", false, "Print the effective configuration as YAML and exit")
	fs.Bool("print-state", false, "Print current temperature and CPU frequency and exit")

	fs.Float64("threshold", unset, "Deprecated: use --on-threshold")
	fs.Float64("hysteresis", unset, "Deprecated: use --off-threshold")
	_ = fs.MarkHidden("threshold")
	_ = fs.MarkHidden("hysteresis")

	return fs
}

// Load parses args (without the program name) and merges them over the
// environment, the config file and the defaults. --help yields pflag.ErrHelp.
func Load(args []string) (*Config, error) {
	fs := newFlagSet("fanshim")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		for _, p := range ConfigPaths {
			v.AddConfigPath(p)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if v.GetFloat64("threshold") > unset || v.GetFloat64("hysteresis") > unset {
		return nil, ErrDeprecatedOptions
	}

	cfg := &Config{
		OnThreshold:  v.GetFloat64("on-threshold"),
		OffThreshold: v.GetFloat64("off-threshold"),
		Delay:        time.Duration(v.GetFloat64("delay") * float64(time.Second)),
		Preempt:      v.GetBool("preempt"),
		Verbose:      v.GetBool("verbose"),
		NoButton:     v.GetBool("nobutton"),
		NoLED:        v.GetBool("noled"),
		Brightness:   v.GetFloat64("brightness"),
		HoldTime:     v.GetDuration("hold-time"),
		MQTT: MQTTConfig{
			Host:      v.GetString("mqttHost"),
			Port:      v.GetInt("mqttPort"),
			User:      v.GetString("mqttUser"),
			Password:  v.GetString("mqttPassword"),
			KeepAlive: v.GetInt("mqttKeepAlive"),
		},
		HTTPAddr:    v.GetString("http"),
		HistoryDB:   v.GetString("history-db"),
		ConfigFile:  v.ConfigFileUsed(),
		PrintConfig: v.GetBool("print-config"),
		PrintState:  v.GetBool("print-state"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	if c.OnThreshold <= c.OffThreshold {
		return fmt.Errorf("%w (on=%.1f off=%.1f)", ErrInvalidThresholds, c.OnThreshold, c.OffThreshold)
	}
	if c.Brightness < 0 || c.Brightness > 255 {
		return fmt.Errorf("%w (got %.1f)", ErrInvalidBrightness, c.Brightness)
	}
	if c.Delay <= 0 {
		return fmt.Errorf("%w (got %v)", ErrInvalidDelay, c.Delay)
	}
	if c.HoldTime <= 0 {
		return fmt.Errorf("hold-time must be greater than 0 (got %v)", c.HoldTime)
	}
	if c.MQTT.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidMQTT)
	}
	if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidMQTT, c.MQTT.Port)
	}
	if c.MQTT.KeepAlive < 0 {
		return fmt.Errorf("%w: keepalive must not be negative", ErrInvalidMQTT)
	}
	return nil
}

// YAML renders the configuration for --print-config in the config file
// format. The MQTT password is never included.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(fileConfig{
		OnThreshold:   c.OnThreshold,
		OffThreshold:  c.OffThreshold,
		Delay:         c.Delay.Seconds(),
		Preempt:       c.Preempt,
		Verbose:       c.Verbose,
		NoButton:      c.NoButton,
		NoLED:         c.NoLED,
		Brightness:    c.Brightness,
		HoldTime:      c.HoldTime.String(),
		MQTTHost:      c.MQTT.Host,
		MQTTPort:      c.MQTT.Port,
		MQTTUser:      c.MQTT.User,
		MQTTKeepAlive: c.MQTT.KeepAlive,
		HTTPAddr:      c.HTTPAddr,
		HistoryDB:     c.HistoryDB,
	})
}

// Usage returns the flag help text.
func Usage() string {
	return newFlagSet("fanshim").FlagUsages()
}
