package protocol

import (
	"fmt"

	"github.com/bnema/swc/internal/fixed"
)

// Button states.
const (
	ButtonReleased uint32 = 0
	ButtonPressed  uint32 = 1
)

// Axes.
const (
	AxisVerticalScroll   uint32 = 0
	AxisHorizontalScroll uint32 = 1
)

// Key states.
const (
	KeyReleased uint32 = 0
	KeyPressed  uint32 = 1
)

// PointerEnter is wl_pointer.enter.
type PointerEnter struct {
	Serial  uint32
	Surface *Resource
	X, Y    fixed.Fixed
}

func (PointerEnter) Name() string { return "wl_pointer.enter" }

// PointerLeave is wl_pointer.leave.
type PointerLeave struct {
	Serial  uint32
	Surface *Resource
}

func (PointerLeave) Name() string { return "wl_pointer.leave" }

// PointerMotion is wl_pointer.motion.
type PointerMotion struct {
	Time uint32
	X, Y fixed.Fixed
}

func (PointerMotion) Name() string { return "wl_pointer.motion" }

// PointerButton is wl_pointer.button.
type PointerButton struct {
	Serial uint32
	Time   uint32
	Button uint32
	State  uint32
}

func (PointerButton) Name() string { return "wl_pointer.button" }

// PointerAxis is wl_pointer.axis.
type PointerAxis struct {
	Time  uint32
	Axis  uint32
	Value fixed.Fixed
}

func (PointerAxis) Name() string { return "wl_pointer.axis" }

// KeyboardEnter is wl_keyboard.enter.
type KeyboardEnter struct {
	Serial  uint32
	Surface *Resource
	Keys    []uint32
}

func (KeyboardEnter) Name() string { return "wl_keyboard.enter" }

// KeyboardLeave is wl_keyboard.leave.
type KeyboardLeave struct {
	Serial  uint32
	Surface *Resource
}

func (KeyboardLeave) Name() string { return "wl_keyboard.leave" }

// KeyboardKey is wl_keyboard.key.
type KeyboardKey struct {
	Serial uint32
	Time   uint32
	Key    uint32
	State  uint32
}

func (KeyboardKey) Name() string { return "wl_keyboard.key" }

// Describe renders an event with its arguments for traces.
func Describe(ev Event) string {
	switch e := ev.(type) {
	case PointerEnter:
		return fmt.Sprintf("%s serial=%d surface=%s x=%.2f y=%.2f", e.Name(), e.Serial, e.Surface, e.X.Float(), e.Y.Float())
	case PointerLeave:
		return fmt.Sprintf("%s serial=%d surface=%s", e.Name(), e.Serial, e.Surface)
	case PointerMotion:
		return fmt.Sprintf("%s time=%d x=%.2f y=%.2f", e.Name(), e.Time, e.X.Float(), e.Y.Float())
	case PointerButton:
		return fmt.Sprintf("%s serial=%d time=%d button=%#x state=%d", e.Name(), e.Serial, e.Time, e.Button, e.State)
	case PointerAxis:
		return fmt.Sprintf("%s time=%d axis=%d value=%.2f", e.Name(), e.Time, e.Axis, e.Value.Float())
	case KeyboardEnter:
		return fmt.Sprintf("%s serial=%d surface=%s keys=%v", e.Name(), e.Serial, e.Surface, e.Keys)
	case KeyboardLeave:
		return fmt.Sprintf("%s serial=%d surface=%s", e.Name(), e.Serial, e.Surface)
	case KeyboardKey:
		return fmt.Sprintf("%s serial=%d time=%d key=%d state=%d", e.Name(), e.Serial, e.Time, e.Key, e.State)
	default:
		return ev.Name()
	}
}
