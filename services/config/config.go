// Package config holds the build-time configuration of one board. Each
// supported board has an embedded YAML document; there is no runtime
// reconfiguration.
package config

import (
	"fmt"
	"time"

	"meowbox-go/bus"
	"meowbox-go/errcode"
	"meowbox-go/types"

	"gopkg.in/yaml.v3"
)

const (
	BoardPico  = "pico"
	BoardLinux = "linux"
	BoardHost  = "host"

	topicPrefix = "config"
)

// EmbeddedConfigLookup resolves the raw YAML for a board. Tests swap it.
var EmbeddedConfigLookup = func(board string) ([]byte, bool) {
	b, ok := embedded[board]
	return b, ok
}

type Config struct {
	Board    string         `yaml:"board"`
	Logging  LoggingConfig  `yaml:"logging"`
	Timing   TimingConfig   `yaml:"timing"`
	Buzzer   BuzzerConfig   `yaml:"buzzer"`
	Rotation RotationConfig `yaml:"rotation"`
	Pins     PinsConfig     `yaml:"pins"`
	Display  DisplayConfig  `yaml:"display"`
	Monitor  MonitorConfig  `yaml:"monitor"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
	Output string `yaml:"output"` // stdout | stderr | uart
	Baud   uint32 `yaml:"baud"`
}

// TimingConfig durations are milliseconds.
type TimingConfig struct {
	StartupSettleMs int    `yaml:"startup_settle_ms"`
	EncoderHz       uint32 `yaml:"encoder_hz"`
	SwitchHoldMs    int    `yaml:"switch_hold_ms"`
	ErrorBlinkMs    int    `yaml:"error_blink_ms"`
	MenuRefreshMs   int    `yaml:"menu_refresh_ms"`
	RingStepMs      int    `yaml:"ring_step_ms"`
	FlowSlowMs      int    `yaml:"flow_slow_ms"`
	FlowFastMs      int    `yaml:"flow_fast_ms"`
	DebugRefreshMs  int    `yaml:"debug_refresh_ms"`
	DisplayRetryMs  int    `yaml:"display_retry_ms"`
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func (t TimingConfig) StartupSettle() time.Duration { return ms(t.StartupSettleMs) }
func (t TimingConfig) SwitchHold() time.Duration    { return ms(t.SwitchHoldMs) }
func (t TimingConfig) ErrorBlink() time.Duration    { return ms(t.ErrorBlinkMs) }
func (t TimingConfig) MenuRefresh() time.Duration   { return ms(t.MenuRefreshMs) }
func (t TimingConfig) RingStep() time.Duration      { return ms(t.RingStepMs) }
func (t TimingConfig) FlowSlow() time.Duration      { return ms(t.FlowSlowMs) }
func (t TimingConfig) FlowFast() time.Duration      { return ms(t.FlowFastMs) }
func (t TimingConfig) DebugRefresh() time.Duration  { return ms(t.DebugRefreshMs) }
func (t TimingConfig) DisplayRetry() time.Duration  { return ms(t.DisplayRetryMs) }

type SequenceConfig struct {
	OnMs   int `yaml:"on_ms"`
	OffMs  int `yaml:"off_ms"`
	Repeat int `yaml:"repeat"`
}

// BuzzerConfig names the preset each input plays.
type BuzzerConfig struct {
	Presets     map[string]SequenceConfig `yaml:"presets"`
	LeftButton  string                    `yaml:"left_button"`
	RightButton string                    `yaml:"right_button"`
	RightSwitch string                    `yaml:"right_switch"`
}

// Sequence resolves a preset by name.
func (b BuzzerConfig) Sequence(name string) (types.BuzzerSequence, error) {
	p, ok := b.Presets[name]
	if !ok {
		return types.BuzzerSequence{}, &errcode.E{C: errcode.InvalidConfig, Op: "buzzer", Msg: "unknown preset " + name}
	}
	return types.BuzzerSequence{Name: name, On: ms(p.OnMs), Off: ms(p.OffMs), Repeat: p.Repeat}, nil
}

type RotationConfig struct {
	Order        []string `yaml:"order"`
	OnMs         int      `yaml:"on_ms"`
	Repeat       int      `yaml:"repeat"`
	LeftReverse  bool     `yaml:"left_reverse"`
	RightReverse bool     `yaml:"right_reverse"`
	NavQueue     int      `yaml:"nav_queue"`
	// StepsPerDetent is the number of quadrature steps in one click.
	StepsPerDetent int `yaml:"steps_per_detent"`
}

// Params is the LED rotation published by the left rotary switch.
func (r RotationConfig) Params() (types.LEDRotationParams, error) {
	order := make([]types.LED, 0, len(r.Order))
	for _, s := range r.Order {
		l, ok := types.ParseLED(s)
		if !ok {
			return types.LEDRotationParams{}, &errcode.E{C: errcode.InvalidConfig, Op: "rotation", Msg: "unknown led " + s}
		}
		order = append(order, l)
	}
	return types.LEDRotationParams{Order: order, On: ms(r.OnMs), Repeat: r.Repeat}, nil
}

// PinsConfig holds board pin names: "GPn" on the pico, periph.io names
// ("GPIO17") on linux.
type PinsConfig struct {
	LeftButton        string `yaml:"left_button"`
	RightButton       string `yaml:"right_button"`
	LeftButtonLED     string `yaml:"left_button_led"`
	RightButtonLED    string `yaml:"right_button_led"`
	Buzzer            string `yaml:"buzzer"`
	LeftRotarySwitch  string `yaml:"left_rotary_switch"`
	RightRotarySwitch string `yaml:"right_rotary_switch"`
	Red               string `yaml:"red_led"`
	Green             string `yaml:"green_led"`
	Blue              string `yaml:"blue_led"`
	Yellow            string `yaml:"yellow_led"`
	White             string `yaml:"white_led"`
	LeftRotaryA       string `yaml:"left_rotary_a"`
	LeftRotaryB       string `yaml:"left_rotary_b"`
	RightRotaryA      string `yaml:"right_rotary_a"`
	RightRotaryB      string `yaml:"right_rotary_b"`
	DebounceMs        int    `yaml:"debounce_ms"`
}

func (p PinsConfig) Debounce() time.Duration { return ms(p.DebounceMs) }

type DisplayConfig struct {
	Enabled bool   `yaml:"enabled"`
	Width   int16  `yaml:"width"`
	Height  int16  `yaml:"height"`
	Address uint16 `yaml:"address"`
	SDA     string `yaml:"sda"`
	SCL     string `yaml:"scl"`
	KHz     uint32 `yaml:"khz"`
	Queue   int    `yaml:"queue"`
}

type MonitorConfig struct {
	HeartbeatMs int `yaml:"heartbeat_ms"`
}

func (m MonitorConfig) Heartbeat() time.Duration { return ms(m.HeartbeatMs) }

// Load parses and validates the embedded configuration of board.
func Load(board string) (*Config, error) {
	raw, ok := EmbeddedConfigLookup(board)
	if !ok || len(raw) == 0 {
		return nil, &errcode.E{C: errcode.UnknownBoard, Op: "config.Load", Msg: "no embedded config for board " + board}
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if cfg.Board == "" {
		cfg.Board = board
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(raw []byte) (*Config, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errcode.Wrap(errcode.InvalidConfig, "config.Parse", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "text", Output: "stdout", Baud: 115200},
		Timing: TimingConfig{
			StartupSettleMs: 500,
			EncoderHz:       1000,
			SwitchHoldMs:    200,
			ErrorBlinkMs:    200,
			MenuRefreshMs:   500,
			RingStepMs:      500,
			FlowSlowMs:      100,
			FlowFastMs:      20,
			DebugRefreshMs:  250,
			DisplayRetryMs:  200,
		},
		Buzzer: BuzzerConfig{
			Presets: map[string]SequenceConfig{
				"chirp":     {OnMs: 10, OffMs: 10, Repeat: 10},
				"tone200ms": {OnMs: 1, OffMs: 1, Repeat: 100},
			},
			LeftButton:  "chirp",
			RightButton: "tone200ms",
			RightSwitch: "tone200ms",
		},
		Rotation: RotationConfig{
			Order:    []string{"red", "green", "blue", "yellow", "white"},
			OnMs:     100,
			Repeat:         1,
			NavQueue:       16,
			StepsPerDetent: 4,
		},
		Display: DisplayConfig{Enabled: true, Width: 128, Height: 64, Address: 0x3C, KHz: 400, Queue: 20},
		Monitor: MonitorConfig{HeartbeatMs: 10000},
	}
}

// Validate rejects configurations that would stall a loop or name unknown
// presets.
func (c *Config) Validate() error {
	bad := func(msg string) error {
		return &errcode.E{C: errcode.InvalidConfig, Op: "config.Validate", Msg: msg}
	}
	t := c.Timing
	periods := []struct {
		name string
		v    int
	}{
		{"error_blink_ms", t.ErrorBlinkMs},
		{"menu_refresh_ms", t.MenuRefreshMs},
		{"ring_step_ms", t.RingStepMs},
		{"flow_slow_ms", t.FlowSlowMs},
		{"flow_fast_ms", t.FlowFastMs},
		{"debug_refresh_ms", t.DebugRefreshMs},
		{"display_retry_ms", t.DisplayRetryMs},
		{"heartbeat_ms", c.Monitor.HeartbeatMs},
	}
	for _, p := range periods {
		if p.v <= 0 {
			return bad(p.name + " must be > 0")
		}
	}
	if t.EncoderHz == 0 {
		return bad("encoder_hz must be > 0")
	}
	if t.StartupSettleMs < 0 || t.SwitchHoldMs < 0 || c.Pins.DebounceMs < 0 {
		return bad("negative duration")
	}
	for _, name := range []string{c.Buzzer.LeftButton, c.Buzzer.RightButton, c.Buzzer.RightSwitch} {
		p, err := c.Buzzer.Sequence(name)
		if err != nil {
			return err
		}
		if p.Repeat < 0 || p.On < 0 || p.Off < 0 {
			return bad("buzzer preset " + name + " has negative fields")
		}
	}
	if _, err := c.Rotation.Params(); err != nil {
		return err
	}
	if c.Rotation.NavQueue <= 0 {
		return bad("nav_queue must be > 0")
	}
	if c.Rotation.StepsPerDetent <= 0 {
		return bad("steps_per_detent must be > 0")
	}
	if c.Display.Enabled && (c.Display.Width <= 0 || c.Display.Height <= 0 || c.Display.Queue <= 0) {
		return bad("display geometry and queue must be > 0")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return bad(fmt.Sprintf("unknown log format %q", c.Logging.Format))
	}
	return nil
}

// Publish announces each section as a retained message under config/<section>.
func Publish(conn *bus.Connection, cfg *Config) {
	sections := []struct {
		name string
		v    any
	}{
		{"board", cfg.Board},
		{"logging", cfg.Logging},
		{"timing", cfg.Timing},
		{"buzzer", cfg.Buzzer},
		{"rotation", cfg.Rotation},
		{"pins", cfg.Pins},
		{"display", cfg.Display},
		{"monitor", cfg.Monitor},
	}
	for _, s := range sections {
		conn.Publish(conn.NewMessage(bus.T(topicPrefix, s.name), s.v, true))
	}
}
