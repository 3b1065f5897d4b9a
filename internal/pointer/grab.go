package pointer

import "github.com/bnema/swc/internal/fixed"

// GrabHandler intercepts pointer events before they are delivered to the
// focused client. Returning true consumes the event.
type GrabHandler interface {
	Motion(p *Pointer, time uint32) bool
	Button(p *Pointer, time, button, state uint32) bool
	Axis(p *Pointer, time, axis uint32, amount fixed.Fixed) bool
}

// GrabFuncs adapts functions to GrabHandler. A nil function does not
// consume its event.
type GrabFuncs struct {
	MotionFunc func(p *Pointer, time uint32) bool
	ButtonFunc func(p *Pointer, time, button, state uint32) bool
	AxisFunc   func(p *Pointer, time, axis uint32, amount fixed.Fixed) bool
}

func (g GrabFuncs) Motion(p *Pointer, time uint32) bool {
	return g.MotionFunc != nil && g.MotionFunc(p, time)
}

func (g GrabFuncs) Button(p *Pointer, time, button, state uint32) bool {
	return g.ButtonFunc != nil && g.ButtonFunc(p, time, button, state)
}

func (g GrabFuncs) Axis(p *Pointer, time, axis uint32, amount fixed.Fixed) bool {
	return g.AxisFunc != nil && g.AxisFunc(p, time, axis, amount)
}
