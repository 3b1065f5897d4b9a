package pointer

import (
	"github.com/bnema/swc/internal/cursorplane"
	"github.com/bnema/swc/internal/screen"
	"github.com/bnema/swc/internal/view"
)

// Mode is how the cursor is shown on a screen.
type Mode int

const (
	// ModeNone means the screen cannot show the cursor.
	ModeNone Mode = iota
	// ModeHardware shows the cursor on the screen's cursor plane.
	ModeHardware
	// ModeSoftware composites the cursor into the screen's frames.
	ModeSoftware
)

func (m Mode) String() string {
	switch m {
	case ModeHardware:
		return "hardware"
	case ModeSoftware:
		return "software"
	default:
		return "none"
	}
}

// EventType identifies a pointer event.
type EventType int

const (
	// CursorModeChanged is emitted when a screen switches cursor mode.
	CursorModeChanged EventType = iota
	// CursorUpdated is emitted when the cursor image changed.
	CursorUpdated
)

// Event is delivered on a pointer's Events signal.
type Event struct {
	Type EventType
	// Screen and Mode are set for CursorModeChanged.
	Screen *screen.Screen
	Mode   Mode
}

// Mode returns the cursor mode of a screen.
func (p *Pointer) Mode(s *screen.Screen) Mode {
	return p.modes[s]
}

// SoftwareScreens returns the mask of screens that composite the cursor in
// software.
func (p *Pointer) SoftwareScreens() uint32 {
	var mask uint32
	for s, m := range p.modes {
		if m == ModeSoftware {
			mask |= s.Mask()
		}
	}
	return mask
}

func (p *Pointer) modeFor(s *screen.Screen) Mode {
	plane := s.CursorPlane()
	switch {
	case plane != nil && (plane.OK() || !p.ctx.SoftwareFallback):
		return ModeHardware
	case p.ctx.SoftwareFallback:
		return ModeSoftware
	default:
		return ModeNone
	}
}

func (p *Pointer) refreshMode(s *screen.Screen) {
	mode := p.modeFor(s)
	if old, ok := p.modes[s]; ok && old == mode {
		return
	}
	p.modes[s] = mode
	p.log.Info("Cursor mode changed", "screen", s.Name, "mode", mode)

	if plane := s.CursorPlane(); plane != nil {
		switch {
		case mode == ModeSoftware:
			plane.Hide()
		case mode == ModeHardware && plane.Hidden() && !p.attaching &&
			p.cursor.view.Screens()&s.Mask() != 0:
			_ = plane.View().Attach(p.cursor.buffer)
		}
	}
	p.Events.Emit(Event{Type: CursorModeChanged, Screen: s, Mode: mode})
}

// AddScreen starts tracking a screen's cursor plane.
func (p *Pointer) AddScreen(s *screen.Screen) {
	if _, ok := p.modes[s]; ok {
		return
	}
	if plane := s.CursorPlane(); plane != nil {
		p.planeSubs[s] = plane.Events.Add(func(cursorplane.Status) { p.refreshMode(s) })
	}
	p.refreshMode(s)
}

// RemoveScreen stops tracking a screen.
func (p *Pointer) RemoveScreen(s *screen.Screen) {
	if _, ok := p.modes[s]; !ok {
		return
	}
	p.planeSubs[s].Remove()
	delete(p.planeSubs, s)
	delete(p.modes, s)
	p.Events.Emit(Event{Type: CursorModeChanged, Screen: s, Mode: ModeNone})
}

// UpdateScreens resynchronizes the cursor planes with the cursor position
// and recomputes which screens show the cursor. It is called after the
// screen layout changed.
func (p *Pointer) UpdateScreens() {
	g := p.cursor.view.Geometry()
	p.movePlanes(g.X, g.Y)
	p.cursor.view.UpdateScreens(p.ctx.Screens.Outputs())
}

func (p *Pointer) movePlanes(x, y int32) {
	for _, s := range p.ctx.Screens.Screens() {
		if plane := s.CursorPlane(); plane != nil {
			_ = plane.View().Move(x, y)
		}
	}
}

func (p *Pointer) handleViewEvent(ev view.Event) {
	switch ev.Type {
	case view.Moved:
		g := ev.View.Geometry()
		p.movePlanes(g.X, g.Y)
		ev.View.UpdateScreens(p.ctx.Screens.Outputs())
	case view.Resized:
		ev.View.UpdateScreens(p.ctx.Screens.Outputs())
	case view.ScreensChanged:
		for _, s := range p.ctx.Screens.Screens() {
			plane := s.CursorPlane()
			if plane == nil {
				continue
			}
			switch {
			case ev.Entered&s.Mask() != 0:
				software := p.modes[s] == ModeSoftware
				p.attaching = true
				_ = plane.View().Attach(p.cursor.buffer)
				p.attaching = false
				if software && p.modes[s] == ModeSoftware {
					plane.Hide()
				}
			case ev.Left&s.Mask() != 0:
				_ = plane.View().Attach(nil)
			}
		}
	}
}
