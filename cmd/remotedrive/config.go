package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"remotedrive/internal/hubproto"
)

// Config is the top-level YAML configuration for the remotedrive daemon.
//
// Defaults and validation live here so the rest of the code can assume a
// well-formed config.
type Config struct {
	// Remote input link
	Remote RemoteConfig `yaml:"remote"`

	// Hub bridge and port assignment
	Hub HubConfig `yaml:"hub"`

	// Control loop timing
	Control ControlFileConfig `yaml:"control"`

	Motor MotorConfig `yaml:"motor"`
	Light LightConfig `yaml:"light"`

	// Status light
	Indicator IndicatorConfig `yaml:"indicator"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

type RemoteConfig struct {
	Device           string         `yaml:"device,omitempty"` // e.g. /dev/input/event6
	Name             string         `yaml:"name,omitempty"`   // evdev name, used when device is empty
	ConnectTimeoutMS int            `yaml:"connect_timeout_ms"`
	RetryDelayMS     int            `yaml:"retry_delay_ms"`
	Keymap           map[string]int `yaml:"keymap,omitempty"` // button name -> key code
}

type HubConfig struct {
	WsURL        string             `yaml:"ws_url"`
	TimeoutMS    int                `yaml:"timeout_ms"`
	KeepaliveSec int                `yaml:"keepalive_sec"`
	MotorPort    string             `yaml:"motor_port"`
	LightPort    string             `yaml:"light_port"`
	AuxLightPort string             `yaml:"aux_light_port,omitempty"`
	DriveProbes  []DriveProbeConfig `yaml:"drive_probes"`
}

type DriveProbeConfig struct {
	Kind      string `yaml:"kind"` // "dc_motor" or "motor"
	TimeoutMS int    `yaml:"timeout_ms"`
	Attempts  int    `yaml:"attempts"`
}

type ControlFileConfig struct {
	PollPeriodMS int `yaml:"poll_period_ms"`
}

type MotorConfig struct {
	MaxStep       int  `yaml:"max_step"`
	SlewPerTick   int  `yaml:"slew_per_tick"`
	Bidirectional bool `yaml:"bidirectional"`
}

type LightConfig struct {
	MaxLevel    int `yaml:"max_level"`
	SlewPerTick int `yaml:"slew_per_tick"`
}

type IndicatorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Mode    string `yaml:"mode"` // "light" or "motor"
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go.
func DefaultConfig() Config {
	return Config{
		Remote: RemoteConfig{
			Device:           "/dev/input/event6",
			ConnectTimeoutMS: defaultRemoteConnectTimeoutMS,
			RetryDelayMS:     defaultRemoteRetryDelayMS,
		},
		Hub: HubConfig{
			WsURL:        defaultHubWsURL,
			TimeoutMS:    defaultHubTimeoutMS,
			KeepaliveSec: defaultHubKeepaliveSec,
			MotorPort:    defaultMotorPort,
			LightPort:    defaultLightPort,
			DriveProbes: []DriveProbeConfig{
				{Kind: string(hubproto.DeviceDCMotor), TimeoutMS: defaultProbeTimeoutMS, Attempts: defaultProbeAttempts},
				{Kind: string(hubproto.DeviceMotor), TimeoutMS: defaultProbeTimeoutMS, Attempts: defaultProbeAttempts},
			},
		},
		Control: ControlFileConfig{
			PollPeriodMS: defaultPollPeriodMS,
		},
		Motor: MotorConfig{
			MaxStep:     defaultMotorMaxStep,
			SlewPerTick: defaultMotorSlewPerTick,
		},
		Light: LightConfig{
			MaxLevel:    defaultLightMaxLevel,
			SlewPerTick: defaultLightSlewPerTick,
		},
		Indicator: IndicatorConfig{
			Enabled: true,
			Mode:    string(IndicatorModeLight),
		},
		Logging: LoggingConfig{
			Level: defaultLogLevel,
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of DefaultConfig.
//
// Unknown fields are rejected (helps catch typos) via KnownFields(true).
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Ensure there's no trailing garbage (only whitespace/comments are allowed after the document).
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides holds values set on the command line. A nil pointer means the
// flag was not given; a non-nil pointer is applied even if it is a zero value.
type FlagOverrides struct {
	RemoteDevice *string
	RemoteName   *string

	HubWsURL *string

	PollPeriodMS *int

	MotorMaxStep       *int
	MotorSlewPerTick   *int
	MotorBidirectional *bool

	LightMaxLevel    *int
	LightSlewPerTick *int

	IndicatorMode *string

	LogLevel *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.RemoteDevice != nil {
		cfg.Remote.Device = *o.RemoteDevice
	}
	if o.RemoteName != nil {
		cfg.Remote.Name = *o.RemoteName
		if o.RemoteDevice == nil {
			// Naming a remote on the command line means "find it by name".
			cfg.Remote.Device = ""
		}
	}

	if o.HubWsURL != nil {
		cfg.Hub.WsURL = *o.HubWsURL
	}

	if o.PollPeriodMS != nil {
		cfg.Control.PollPeriodMS = *o.PollPeriodMS
	}

	if o.MotorMaxStep != nil {
		cfg.Motor.MaxStep = *o.MotorMaxStep
	}
	if o.MotorSlewPerTick != nil {
		cfg.Motor.SlewPerTick = *o.MotorSlewPerTick
	}
	if o.MotorBidirectional != nil {
		cfg.Motor.Bidirectional = *o.MotorBidirectional
	}

	if o.LightMaxLevel != nil {
		cfg.Light.MaxLevel = *o.LightMaxLevel
	}
	if o.LightSlewPerTick != nil {
		cfg.Light.SlewPerTick = *o.LightSlewPerTick
	}

	if o.IndicatorMode != nil {
		if *o.IndicatorMode == string(IndicatorModeNone) {
			cfg.Indicator.Enabled = false
		} else {
			cfg.Indicator.Enabled = true
			cfg.Indicator.Mode = *o.IndicatorMode
		}
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// It is called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// Remote
	if c.Remote.Device == "" && c.Remote.Name == "" {
		return errors.New("remote.device or remote.name must be set")
	}
	if c.Remote.ConnectTimeoutMS <= 0 {
		return errors.New("remote.connect_timeout_ms must be > 0")
	}
	if c.Remote.RetryDelayMS < 0 {
		return errors.New("remote.retry_delay_ms must be >= 0")
	}
	if _, err := c.ToKeymap(); err != nil {
		return err
	}

	// Hub
	if c.Hub.WsURL == "" {
		return errors.New("hub.ws_url must not be empty")
	}
	if c.Hub.TimeoutMS <= 0 {
		return errors.New("hub.timeout_ms must be > 0")
	}
	if c.Hub.KeepaliveSec < 0 {
		return errors.New("hub.keepalive_sec must be >= 0")
	}
	if c.Hub.MotorPort == "" {
		return errors.New("hub.motor_port must not be empty")
	}
	if c.Hub.LightPort == "" {
		return errors.New("hub.light_port must not be empty")
	}
	if c.Hub.MotorPort == c.Hub.LightPort {
		return errors.New("hub.motor_port and hub.light_port must differ")
	}
	if c.Hub.AuxLightPort != "" && (c.Hub.AuxLightPort == c.Hub.MotorPort || c.Hub.AuxLightPort == c.Hub.LightPort) {
		return errors.New("hub.aux_light_port must differ from the motor and light ports")
	}
	if len(c.Hub.DriveProbes) == 0 {
		return errors.New("hub.drive_probes must not be empty")
	}
	for i, p := range c.Hub.DriveProbes {
		switch hubproto.DeviceKind(p.Kind) {
		case hubproto.DeviceDCMotor, hubproto.DeviceMotor:
		default:
			return fmt.Errorf("hub.drive_probes[%d].kind must be %q or %q", i, hubproto.DeviceDCMotor, hubproto.DeviceMotor)
		}
		if p.TimeoutMS <= 0 {
			return fmt.Errorf("hub.drive_probes[%d].timeout_ms must be > 0", i)
		}
		if p.Attempts < 1 {
			return fmt.Errorf("hub.drive_probes[%d].attempts must be >= 1", i)
		}
	}

	// Control
	if c.Control.PollPeriodMS <= 0 || c.Control.PollPeriodMS > 1000 {
		return errors.New("control.poll_period_ms must be between 1 and 1000")
	}

	// Motor
	if c.Motor.MaxStep < 1 {
		return errors.New("motor.max_step must be >= 1")
	}
	if c.Motor.SlewPerTick < 1 || c.Motor.SlewPerTick > maxDuty {
		return fmt.Errorf("motor.slew_per_tick must be between 1 and %d", maxDuty)
	}

	// Light
	if c.Light.MaxLevel < 1 {
		return errors.New("light.max_level must be >= 1")
	}
	if c.Light.SlewPerTick < 1 || c.Light.SlewPerTick > maxBrightness {
		return fmt.Errorf("light.slew_per_tick must be between 1 and %d", maxBrightness)
	}

	// Indicator
	if c.Indicator.Enabled {
		switch IndicatorMode(c.Indicator.Mode) {
		case IndicatorModeLight, IndicatorModeMotor:
		default:
			return fmt.Errorf("indicator.mode must be %q or %q", IndicatorModeLight, IndicatorModeMotor)
		}
	}

	// Logging
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// ToControlConfig converts the file config into the control core's config.
func (c *Config) ToControlConfig() ControlConfig {
	mode := IndicatorModeNone
	if c.Indicator.Enabled {
		mode = IndicatorMode(c.Indicator.Mode)
	}
	return ControlConfig{
		PollPeriod:         time.Duration(c.Control.PollPeriodMS) * time.Millisecond,
		MotorMaxStep:       c.Motor.MaxStep,
		MotorSlewPerTick:   c.Motor.SlewPerTick,
		MotorBidirectional: c.Motor.Bidirectional,
		LightMaxLevel:      c.Light.MaxLevel,
		LightSlewPerTick:   c.Light.SlewPerTick,
		Indicator:          mode,
	}
}

// ToKeymap returns the configured keymap, or the default when none is set.
func (c *Config) ToKeymap() (Keymap, error) {
	if len(c.Remote.Keymap) == 0 {
		return DefaultKeymap(), nil
	}

	km := make(Keymap, len(c.Remote.Keymap))
	for name, code := range c.Remote.Keymap {
		b, ok := buttonByName(name)
		if !ok {
			return nil, fmt.Errorf("remote.keymap: unknown button %q", name)
		}
		if code < 0 || code > KEY_MAX {
			return nil, fmt.Errorf("remote.keymap.%s: key code %d out of range", name, code)
		}
		if other, dup := km[uint16(code)]; dup {
			return nil, fmt.Errorf("remote.keymap: key code %d used for both %s and %s", code, other, b)
		}
		km[uint16(code)] = b
	}
	if err := km.validate(); err != nil {
		return nil, fmt.Errorf("remote.keymap: %w", err)
	}
	return km, nil
}

// ToOutputSetup converts the hub section into the output construction plan.
func (c *Config) ToOutputSetup() OutputSetup {
	probes := make([]DriveProbe, 0, len(c.Hub.DriveProbes))
	for _, p := range c.Hub.DriveProbes {
		probes = append(probes, DriveProbe{
			Kind:     hubproto.DeviceKind(p.Kind),
			Timeout:  time.Duration(p.TimeoutMS) * time.Millisecond,
			Attempts: p.Attempts,
		})
	}
	return OutputSetup{
		MotorPort:    c.Hub.MotorPort,
		LightPort:    c.Hub.LightPort,
		AuxLightPort: c.Hub.AuxLightPort,
		DriveProbes:  probes,
		LightTimeout: time.Duration(defaultProbeTimeoutMS) * time.Millisecond,
		RetryDelay:   time.Duration(defaultConstructRetryMS) * time.Millisecond,
		BlinkOn:      time.Duration(defaultIndicatorBlinkMS) * time.Millisecond,
	}
}

// buttonByName resolves a case-insensitive button name such as "left_plus".
func buttonByName(name string) (Button, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for b := Button(0); b < numButtons; b++ {
		if buttonNames[b] == name {
			return b, true
		}
	}
	return 0, false
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
