// Package script replays YAML input scripts against a headless seat.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bnema/swc/internal/config"
)

// ErrInvalidStep is returned for steps that name no action or several
var ErrInvalidStep = errors.New("invalid step")

// Script is a seat layout and the steps to run on it
type Script struct {
	Seat string `yaml:"seat"`
	// Hardware and Fallback default to true.
	Hardware *bool                 `yaml:"hardware"`
	Fallback *bool                 `yaml:"fallback"`
	Cursor   string                `yaml:"cursor"`
	Screens  []config.ScreenConfig `yaml:"screens"`
	// ManualDispatch leaves idle work queued until a dispatch step.
	ManualDispatch bool   `yaml:"manual_dispatch"`
	Steps          []Step `yaml:"steps"`
}

// Step is one action. Exactly one action field is set.
type Step struct {
	Connect    string               `yaml:"connect"`
	Disconnect string               `yaml:"disconnect"`
	Bind       *Bind                `yaml:"bind"`
	Window     *Window              `yaml:"window"`
	Focus      *Ref                 `yaml:"focus"`
	Destroy    *Ref                 `yaml:"destroy"`
	Motion     *Motion              `yaml:"motion"`
	Button     *Press               `yaml:"button"`
	Axis       *Axis                `yaml:"axis"`
	Key        *Press               `yaml:"key"`
	Cursor     string               `yaml:"cursor"`
	SetCursor  *SetCursor           `yaml:"set_cursor"`
	AddScreen  *config.ScreenConfig `yaml:"add_screen"`
	Remove     string               `yaml:"remove_screen"`
	Session    string               `yaml:"session"`
	Fail       *Fail                `yaml:"fail"`
	Dispatch   bool                 `yaml:"dispatch"`
	Expect     *Expect              `yaml:"expect"`

	// Error, when set, is a substring the step's error must contain.
	Error string `yaml:"error"`
}

// Bind creates pointer and keyboard resources for a client. Zero ids are
// skipped.
type Bind struct {
	Client   string `yaml:"client"`
	Pointer  uint32 `yaml:"pointer"`
	Keyboard uint32 `yaml:"keyboard"`
}

// Window creates a surface with a solid buffer. Cursor surfaces are not
// shown by the compositor.
type Window struct {
	Client string `yaml:"client"`
	ID     uint32 `yaml:"id"`
	X      int32  `yaml:"x"`
	Y      int32  `yaml:"y"`
	Width  int32  `yaml:"width"`
	Height int32  `yaml:"height"`
	Color  uint32 `yaml:"color"`
	Cursor bool   `yaml:"cursor"`
}

// Ref names a surface, or asks for the one under the pointer
type Ref struct {
	Client       string `yaml:"client"`
	ID           uint32 `yaml:"id"`
	UnderPointer bool   `yaml:"under_pointer"`
	None         bool   `yaml:"none"`
}

// Motion is relative pointer motion
type Motion struct {
	DX float64 `yaml:"dx"`
	DY float64 `yaml:"dy"`
}

// Press is a button or key transition
type Press struct {
	Code    uint32 `yaml:"code"`
	Pressed bool   `yaml:"pressed"`
}

// Axis is a scroll; the axis is "vertical" or "horizontal"
type Axis struct {
	Axis   string  `yaml:"axis"`
	Amount float64 `yaml:"amount"`
}

// SetCursor is a client set_cursor request. A zero surface restores the
// default cursor.
type SetCursor struct {
	Client   string `yaml:"client"`
	Surface  uint32 `yaml:"surface"`
	HotspotX int32  `yaml:"hotspot_x"`
	HotspotY int32  `yaml:"hotspot_y"`
}

// Fail injects hardware cursor failures
type Fail struct {
	Set  bool `yaml:"set"`
	Move bool `yaml:"move"`
}

// Expect checks the seat. Unset fields are not checked.
type Expect struct {
	Pointer []float64 `yaml:"pointer"`
	// Focus is "none" or "client:id".
	Focus  string            `yaml:"focus"`
	Cursor string            `yaml:"cursor"`
	Modes  map[string]string `yaml:"modes"`
	// Events are the event names each client received since the last
	// expect naming it.
	Events map[string][]string `yaml:"events"`
	// Calls are the hardware cursor calls since the start or the last
	// expect with calls.
	Calls []string `yaml:"calls"`
}

// Action names the action of a step
func (s Step) Action() (string, error) {
	var actions []string
	add := func(set bool, name string) {
		if set {
			actions = append(actions, name)
		}
	}
	add(s.Connect != "", "connect")
	add(s.Disconnect != "", "disconnect")
	add(s.Bind != nil, "bind")
	add(s.Window != nil, "window")
	add(s.Focus != nil, "focus")
	add(s.Destroy != nil, "destroy")
	add(s.Motion != nil, "motion")
	add(s.Button != nil, "button")
	add(s.Axis != nil, "axis")
	add(s.Key != nil, "key")
	add(s.Cursor != "", "cursor")
	add(s.SetCursor != nil, "set_cursor")
	add(s.AddScreen != nil, "add_screen")
	add(s.Remove != "", "remove_screen")
	add(s.Session != "", "session")
	add(s.Fail != nil, "fail")
	add(s.Dispatch, "dispatch")
	add(s.Expect != nil, "expect")

	switch len(actions) {
	case 0:
		return "", fmt.Errorf("%w: no action", ErrInvalidStep)
	case 1:
		return actions[0], nil
	default:
		return "", fmt.Errorf("%w: several actions %v", ErrInvalidStep, actions)
	}
}

// Parse decodes a script. Unknown keys are rejected.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	for i, step := range s.Steps {
		if _, err := step.Action(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &s, nil
}

// Load reads and decodes a script file
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return Parse(data)
}

// Config returns the headless configuration the script runs with
func (s *Script) Config() *config.Config {
	cfg := config.DefaultConfig
	cfg.DRM.Headless = true
	cfg.Session.VTSwitching = false
	cfg.IPC.Socket = ""
	cfg.Input.Devices = nil
	cfg.Screens = append([]config.ScreenConfig(nil), s.Screens...)
	if s.Seat != "" {
		cfg.Seat.Name = s.Seat
	}
	if s.Cursor != "" {
		cfg.Cursor.Default = s.Cursor
	}
	if s.Hardware != nil {
		cfg.Cursor.Hardware = *s.Hardware
	}
	if s.Fallback != nil {
		cfg.Cursor.SoftwareFallback = *s.Fallback
	}
	return &cfg
}
