// Package input feeds evdev devices into a seat.
package input

import (
	"syscall"

	"github.com/bnema/swc/internal/fixed"
	"github.com/bnema/swc/internal/protocol"
	evdev "github.com/gvalkov/golang-evdev"
)

// ScrollStep is the axis distance of one wheel detent.
const ScrollStep = 15

// ActionType identifies a decoded input action
type ActionType int

const (
	ActionMotion ActionType = iota
	ActionButton
	ActionAxis
	ActionKey
)

// Action is one seat-level input event decoded from evdev
type Action struct {
	Type   ActionType
	Time   uint32
	DX, DY fixed.Fixed
	Code   uint32
	State  uint32
	Axis   uint32
	Amount fixed.Fixed
}

// Decoder turns raw evdev events into actions. Relative motion is
// accumulated until the next SYN_REPORT so a diagonal move is one action.
type Decoder struct {
	dx, dy int32
}

// Feed decodes a batch of events
func (d *Decoder) Feed(events []evdev.InputEvent) []Action {
	var actions []Action
	for _, ev := range events {
		t := millis(ev.Time)
		switch ev.Type {
		case evdev.EV_SYN:
			if ev.Code == evdev.SYN_REPORT && (d.dx != 0 || d.dy != 0) {
				actions = append(actions, Action{
					Type: ActionMotion,
					Time: t,
					DX:   fixed.FromInt(d.dx),
					DY:   fixed.FromInt(d.dy),
				})
				d.dx, d.dy = 0, 0
			}

		case evdev.EV_REL:
			switch ev.Code {
			case evdev.REL_X:
				d.dx += ev.Value
			case evdev.REL_Y:
				d.dy += ev.Value
			case evdev.REL_WHEEL:
				// Wheel up is negative on the wire.
				actions = append(actions, Action{
					Type:   ActionAxis,
					Time:   t,
					Axis:   protocol.AxisVerticalScroll,
					Amount: fixed.FromInt(-ev.Value * ScrollStep),
				})
			case evdev.REL_HWHEEL:
				actions = append(actions, Action{
					Type:   ActionAxis,
					Time:   t,
					Axis:   protocol.AxisHorizontalScroll,
					Amount: fixed.FromInt(ev.Value * ScrollStep),
				})
			}

		case evdev.EV_KEY:
			// Autorepeat is generated by clients.
			if ev.Value > 1 {
				continue
			}
			state := protocol.KeyReleased
			if ev.Value == 1 {
				state = protocol.KeyPressed
			}
			typ := ActionKey
			if isButton(ev.Code) {
				typ = ActionButton
			}
			actions = append(actions, Action{Type: typ, Time: t, Code: uint32(ev.Code), State: state})
		}
	}
	return actions
}

func isButton(code uint16) bool {
	return code >= evdev.BTN_MOUSE && code <= evdev.BTN_TASK
}

func millis(tv syscall.Timeval) uint32 {
	return uint32(int64(tv.Sec)*1000 + int64(tv.Usec)/1000) //nolint:gosec // wraps like the wire time
}

// PointerTarget receives pointer actions
type PointerTarget interface {
	HandleRelativeMotion(time uint32, dx, dy fixed.Fixed)
	HandleButton(time, button, state uint32)
	HandleAxis(time, axis uint32, amount fixed.Fixed)
}

// KeyboardTarget receives key actions
type KeyboardTarget interface {
	HandleKey(time, key, state uint32)
}

// Dispatch delivers actions in order. It must run on the loop goroutine.
func Dispatch(actions []Action, p PointerTarget, k KeyboardTarget) {
	for _, a := range actions {
		switch a.Type {
		case ActionMotion:
			p.HandleRelativeMotion(a.Time, a.DX, a.DY)
		case ActionButton:
			p.HandleButton(a.Time, a.Code, a.State)
		case ActionAxis:
			p.HandleAxis(a.Time, a.Axis, a.Amount)
		case ActionKey:
			k.HandleKey(a.Time, a.Code, a.State)
		}
	}
}
