// Package config loads the controller configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nkey/pelarboj/internal/effect"
)

// Config represents the controller configuration
type Config struct {
	MQTT      MQTTConfig    `yaml:"mqtt"`
	HTTP      HTTPConfig    `yaml:"http"`
	Button    ButtonConfig  `yaml:"button"`
	LED       LEDConfig     `yaml:"led"`
	Lock      LockConfig    `yaml:"lock"`
	Effects   EffectsConfig `yaml:"effects"`
	Startup   StartupConfig `yaml:"startup"`
	Log       LogConfig     `yaml:"log"`
	Heartbeat Duration      `yaml:"heartbeat"` // 0 disables
}

// MQTTConfig contains coordinator connection settings
type MQTTConfig struct {
	Broker         string   `yaml:"broker"`
	ClientID       string   `yaml:"client_id"` // empty: generated
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	BufferSize     int      `yaml:"buffer_size"` // messages kept while offline
	ConnectRetry   Duration `yaml:"connect_retry"`
	PublishTimeout Duration `yaml:"publish_timeout"`
}

// HTTPConfig contains status server settings
type HTTPConfig struct {
	Disabled       bool     `yaml:"disabled"`
	Addr           string   `yaml:"addr"`
	StreamInterval Duration `yaml:"stream_interval"` // websocket push period
}

// ButtonConfig contains button input and timing settings
type ButtonConfig struct {
	Chip          string   `yaml:"chip"`
	Pins          []int    `yaml:"pins"` // one or two BCM lines, ORed
	Period        Duration `yaml:"period"`
	Debounce      Duration `yaml:"debounce"`
	DoubleTap     Duration `yaml:"double_tap"`
	LongPress     Duration `yaml:"long_press"`
	ConfirmWindow Duration `yaml:"confirm_window"`
	ConfirmPoll   Duration `yaml:"confirm_poll"`
}

// LEDConfig contains PWM output settings
type LEDConfig struct {
	Red       string   `yaml:"red"`
	Green     string   `yaml:"green"`
	Blue      string   `yaml:"blue"`
	Bits      int      `yaml:"bits"`
	Frequency int      `yaml:"frequency"` // Hz
	Period    Duration `yaml:"period"`
}

// LockConfig contains shared record wait limits
type LockConfig struct {
	FrameTimeout  Duration `yaml:"frame_timeout"`
	ActionTimeout Duration `yaml:"action_timeout"`
}

// EffectsConfig selects the starting effect and the AUTO_CYCLE pool
type EffectsConfig struct {
	Initial   string   `yaml:"initial"`
	AutoCycle []string `yaml:"auto_cycle"` // empty: every procedural effect
	Seed      uint64   `yaml:"seed"`       // 0: seeded from the clock
}

// StartupConfig contains power-on behaviour
type StartupConfig struct {
	SkipSelfTest bool     `yaml:"skip_self_test"`
	ConnectWait  Duration `yaml:"connect_wait"` // 0: do not wait for the coordinator
	ConnectStep  Duration `yaml:"connect_step"`
	On           bool     `yaml:"on"`
	Brightness   *int     `yaml:"brightness"` // unset: 255
	Color        []int    `yaml:"color"` // r, g, b
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Colors bool   `yaml:"colors"`
	JSON   bool   `yaml:"json"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads, expands and validates the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes configuration from YAML bytes
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDuration(d *Duration, def time.Duration) {
	if *d == 0 {
		*d = Duration(def)
	}
}

func (c *Config) applyDefaults() {
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://localhost:1883"
	}
	if c.MQTT.BufferSize == 0 {
		c.MQTT.BufferSize = 64
	}
	setDuration(&c.MQTT.ConnectRetry, 5*time.Second)
	setDuration(&c.MQTT.PublishTimeout, 5*time.Second)

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":80"
	}
	setDuration(&c.HTTP.StreamInterval, 250*time.Millisecond)

	if c.Button.Chip == "" {
		c.Button.Chip = "gpiochip0"
	}
	if len(c.Button.Pins) == 0 {
		c.Button.Pins = []int{17}
	}
	setDuration(&c.Button.Period, 10*time.Millisecond)
	setDuration(&c.Button.Debounce, 50*time.Millisecond)
	setDuration(&c.Button.DoubleTap, 400*time.Millisecond)
	setDuration(&c.Button.LongPress, 5*time.Second)
	setDuration(&c.Button.ConfirmWindow, 5*time.Second)
	setDuration(&c.Button.ConfirmPoll, 10*time.Millisecond)

	if c.LED.Red == "" {
		c.LED.Red = "GPIO12"
	}
	if c.LED.Green == "" {
		c.LED.Green = "GPIO13"
	}
	if c.LED.Blue == "" {
		c.LED.Blue = "GPIO18"
	}
	if c.LED.Bits == 0 {
		c.LED.Bits = 12
	}
	if c.LED.Frequency == 0 {
		c.LED.Frequency = 12000
	}
	setDuration(&c.LED.Period, 20*time.Millisecond)

	setDuration(&c.Lock.FrameTimeout, 5*time.Millisecond)
	setDuration(&c.Lock.ActionTimeout, 20*time.Millisecond)

	if c.Effects.Initial == "" {
		c.Effects.Initial = effect.None.String()
	}

	setDuration(&c.Startup.ConnectStep, 100*time.Millisecond)
	if c.Startup.Brightness == nil {
		full := 255
		c.Startup.Brightness = &full
	}
	if len(c.Startup.Color) == 0 {
		c.Startup.Color = []int{255, 255, 255}
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks values the controller cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if n := len(c.Button.Pins); n < 1 || n > 2 {
		errs = append(errs, fmt.Errorf("button.pins: need one or two pins, got %d", n))
	}
	if c.LED.Bits != 8 && c.LED.Bits != 12 {
		errs = append(errs, fmt.Errorf("led.bits: must be 8 or 12, got %d", c.LED.Bits))
	}
	if c.LED.Frequency < 0 {
		errs = append(errs, fmt.Errorf("led.frequency: must be positive, got %d", c.LED.Frequency))
	}
	for name, d := range map[string]Duration{
		"button.period":         c.Button.Period,
		"button.debounce":       c.Button.Debounce,
		"button.double_tap":     c.Button.DoubleTap,
		"button.long_press":     c.Button.LongPress,
		"button.confirm_window": c.Button.ConfirmWindow,
		"button.confirm_poll":   c.Button.ConfirmPoll,
		"led.period":            c.LED.Period,
		"lock.frame_timeout":    c.Lock.FrameTimeout,
		"lock.action_timeout":   c.Lock.ActionTimeout,
		"http.stream_interval":  c.HTTP.StreamInterval,
		"mqtt.connect_retry":    c.MQTT.ConnectRetry,
		"mqtt.publish_timeout":  c.MQTT.PublishTimeout,
		"startup.connect_wait":  c.Startup.ConnectWait,
		"startup.connect_step":  c.Startup.ConnectStep,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s: must not be negative", name))
		}
	}
	if c.Heartbeat < 0 {
		errs = append(errs, errors.New("heartbeat: must not be negative"))
	}
	if _, ok := effect.ParseType(c.Effects.Initial); !ok {
		errs = append(errs, fmt.Errorf("effects.initial: unknown effect %q", c.Effects.Initial))
	}
	if _, err := c.AutoCycleEffects(); err != nil {
		errs = append(errs, err)
	}
	if b := *c.Startup.Brightness; b < 0 || b > 255 {
		errs = append(errs, fmt.Errorf("startup.brightness: out of range: %d", b))
	}
	if len(c.Startup.Color) != 3 {
		errs = append(errs, fmt.Errorf("startup.color: need r, g, b, got %d values", len(c.Startup.Color)))
	} else {
		for _, v := range c.Startup.Color {
			if v < 0 || v > 255 {
				errs = append(errs, fmt.Errorf("startup.color: out of range: %d", v))
				break
			}
		}
	}
	return errors.Join(errs...)
}

// InitialEffect returns the configured starting effect.
func (c *Config) InitialEffect() effect.Type {
	fx, _ := effect.ParseType(c.Effects.Initial)
	return fx
}

// AutoCycleEffects parses the AUTO_CYCLE pool. An empty list means the
// engine default.
func (c *Config) AutoCycleEffects() ([]effect.Type, error) {
	if len(c.Effects.AutoCycle) == 0 {
		return nil, nil
	}
	seen := make(map[effect.Type]bool)
	var out []effect.Type
	for _, name := range c.Effects.AutoCycle {
		fx, ok := effect.ParseType(name)
		if !ok {
			return nil, fmt.Errorf("effects.auto_cycle: unknown effect %q", name)
		}
		if fx == effect.None || fx == effect.AutoCycle {
			return nil, fmt.Errorf("effects.auto_cycle: %s cannot be cycled", fx)
		}
		if !seen[fx] {
			seen[fx] = true
			out = append(out, fx)
		}
	}
	if len(out) < 2 {
		return nil, errors.New("effects.auto_cycle: need at least two distinct effects")
	}
	return out, nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
