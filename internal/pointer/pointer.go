// Package pointer implements the seat pointer: position tracking clipped to
// the screen layout, focus and grab routed event delivery and the cursor,
// shown through hardware cursor planes or composited in software.
package pointer

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/bnema/swc/internal/buffer"
	"github.com/bnema/swc/internal/core"
	"github.com/bnema/swc/internal/cursor"
	"github.com/bnema/swc/internal/cursorplane"
	"github.com/bnema/swc/internal/event"
	"github.com/bnema/swc/internal/fixed"
	"github.com/bnema/swc/internal/focus"
	"github.com/bnema/swc/internal/protocol"
	"github.com/bnema/swc/internal/region"
	"github.com/bnema/swc/internal/screen"
	"github.com/bnema/swc/internal/surface"
	"github.com/bnema/swc/internal/view"
)

const (
	// Interface is the protocol interface name of pointer resources.
	Interface = "wl_pointer"
	// Version is the protocol version resources are created with.
	Version = 3
	// CursorSize is the width and height of the cursor buffer.
	CursorSize = 64
)

var (
	// ErrUnknownCursor is returned by SetCursor for ids without an image
	ErrUnknownCursor = errors.New("unknown cursor")
	// ErrNotFocused is returned for cursor requests from unfocused clients
	ErrNotFocused = errors.New("client does not have pointer focus")
)

type cursorState struct {
	view *view.View
	// buffer is the fixed size buffer shown on every screen. Cursor images
	// and cursor surfaces are copied into it.
	buffer   *buffer.Buffer
	internal *buffer.Buffer
	id       cursor.ID
	surface  *surface.Surface
	sub      *event.Subscription[*surface.Surface]
	hotspotX int32
	hotspotY int32
}

// Pointer is one seat's pointer device.
type Pointer struct {
	// Events reports cursor mode and content changes.
	Events event.Signal[Event]

	ctx    core.Context
	log    *log.Logger
	x, y   fixed.Fixed
	region region.Region
	focus  *focus.Focus
	grab   GrabHandler
	cursor cursorState

	viewSub   *event.Subscription[view.Event]
	modes     map[*screen.Screen]Mode
	planeSubs map[*screen.Screen]*event.Subscription[cursorplane.Status]
	// attaching is set while a plane is attached on screen entry.
	attaching bool
	closed    bool
}

// New creates the pointer of a seat, centered on the primary screen and
// clipped to the screen layout.
func New(ctx core.Context) (*Pointer, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}

	p := &Pointer{
		ctx:       ctx,
		log:       ctx.Logger("pointer"),
		modes:     make(map[*screen.Screen]Mode),
		planeSubs: make(map[*screen.Screen]*event.Subscription[cursorplane.Status]),
	}

	if primary := ctx.Screens.Primary(); primary != nil {
		g := primary.Geometry()
		p.x = fixed.FromInt(g.X + g.Width/2)
		p.y = fixed.FromInt(g.Y + g.Height/2)
	}

	b, err := ctx.Allocator.Create(CursorSize, CursorSize, buffer.FormatARGB8888)
	if err != nil {
		return nil, fmt.Errorf("create cursor buffer: %w", err)
	}
	p.cursor.buffer = b
	p.cursor.view = view.New(cursorImpl{p})
	p.viewSub = p.cursor.view.Events.Add(p.handleViewEvent)

	p.focus = focus.New(focus.HandlerFuncs{EnterFunc: p.enter, LeaveFunc: p.leave}, p.log)
	p.region = ctx.Screens.Region()

	for _, s := range ctx.Screens.Screens() {
		p.AddScreen(s)
	}

	if err := p.SetCursor(ctx.DefaultCursor); err != nil {
		p.log.Error("Failed to set default cursor", "cursor", ctx.DefaultCursor, "err", err)
	}
	return p, nil
}

// FromResource returns the pointer a resource was bound to.
func FromResource(r *protocol.Resource) *Pointer {
	if r == nil {
		return nil
	}
	p, _ := r.Data.(*Pointer)
	return p
}

// Position returns the pointer position in global coordinates.
func (p *Pointer) Position() (x, y fixed.Fixed) {
	return p.x, p.y
}

// Region returns the clip region.
func (p *Pointer) Region() region.Region {
	return p.region.Copy()
}

// Focus returns the focused surface.
func (p *Pointer) Focus() *surface.Surface {
	return p.focus.Surface()
}

// FocusState exposes the underlying focus, mostly to observe Changed.
func (p *Pointer) FocusState() *focus.Focus {
	return p.focus
}

// SetFocus moves the pointer focus to s, nil clears it.
func (p *Pointer) SetFocus(s *surface.Surface) {
	p.focus.Set(s)
}

// SetGrab installs a grab handler, nil removes it.
func (p *Pointer) SetGrab(g GrabHandler) {
	p.grab = g
}

// Grab returns the installed grab handler.
func (p *Pointer) Grab() GrabHandler {
	return p.grab
}

// CursorView returns the view the cursor is shown through.
func (p *Pointer) CursorView() *view.View {
	return p.cursor.view
}

// CursorBuffer returns the buffer holding the current cursor image.
func (p *Pointer) CursorBuffer() *buffer.Buffer {
	return p.cursor.buffer
}

// CursorSurface returns the client cursor surface, nil for built-in cursors.
func (p *Pointer) CursorSurface() *surface.Surface {
	return p.cursor.surface
}

// Hotspot returns the cursor hotspot.
func (p *Pointer) Hotspot() (x, y int32) {
	return p.cursor.hotspotX, p.cursor.hotspotY
}

// Bind creates a pointer resource for a client. When the resource cannot be
// allocated the client is sent a no-memory error.
func (p *Pointer) Bind(c *protocol.Client, id uint32) (*protocol.Resource, error) {
	r, err := c.NewResource(Interface, Version, id)
	if err != nil {
		if errors.Is(err, protocol.ErrNoMemory) {
			c.PostNoMemory()
		}
		p.log.Error("Failed to bind pointer", "client", c, "id", id, "err", err)
		return nil, err
	}
	r.Data = p
	p.focus.AddResource(r)
	return r, nil
}

// SetRegion replaces the clip region and clips the current position
// against it.
func (p *Pointer) SetRegion(r region.Region) {
	p.region = r.Copy()
	p.x, p.y = p.clip(p.x, p.y)
	p.updateCursor()
}

// clip applies the clip policy to a target position. A target inside the
// region is taken as is. Otherwise each axis is clamped to the rectangle
// that contains the last position, or the rectangle nearest to it, so the
// pointer slides along the edge instead of jumping to another rectangle.
// An axis that is already within the rectangle keeps its sub-pixel part.
func (p *Pointer) clip(x, y fixed.Fixed) (fixed.Fixed, fixed.Fixed) {
	ix, iy := x.Int(), y.Int()
	if p.region.Contains(ix, iy) {
		return x, y
	}

	lx, ly := p.x.Int(), p.y.Int()
	box, ok := p.region.BoxAt(lx, ly)
	if !ok {
		box, ok = p.region.Nearest(lx, ly)
	}
	if !ok {
		return p.x, p.y
	}

	cx, cy := box.Clamp(ix, iy)
	if cx != ix {
		x = fixed.FromInt(cx)
	}
	if cy != iy {
		y = fixed.FromInt(cy)
	}
	return x, y
}

func (p *Pointer) updateCursor() {
	_ = p.cursor.view.Move(p.x.Int()-p.cursor.hotspotX, p.y.Int()-p.cursor.hotspotY)
}

// surfacePosition returns the pointer position relative to s.
func (p *Pointer) surfacePosition(s *surface.Surface) (fixed.Fixed, fixed.Fixed) {
	g := s.Geometry()
	return p.x - fixed.FromInt(g.X), p.y - fixed.FromInt(g.Y)
}

func (p *Pointer) enter(r *protocol.Resource, s *surface.Surface) {
	sx, sy := p.surfacePosition(s)
	ev := protocol.PointerEnter{
		Serial:  p.ctx.Display.NextSerial(),
		Surface: s.Resource(),
		X:       sx,
		Y:       sy,
	}
	if err := r.Send(ev); err != nil {
		p.log.Debug("Dropped pointer enter", "err", err)
	}
}

func (p *Pointer) leave(r *protocol.Resource, s *surface.Surface) {
	ev := protocol.PointerLeave{
		Serial:  p.ctx.Display.NextSerial(),
		Surface: s.Resource(),
	}
	if err := r.Send(ev); err != nil {
		p.log.Debug("Dropped pointer leave", "err", err)
	}
}

// HandleRelativeMotion moves the pointer by a delta. The cursor follows the
// device even when a grab consumes the event.
func (p *Pointer) HandleRelativeMotion(time uint32, dx, dy fixed.Fixed) {
	p.x, p.y = p.clip(p.x+dx, p.y+dy)

	if p.grab == nil || !p.grab.Motion(p, time) {
		if r := p.focus.Resource(); r != nil {
			sx, sy := p.surfacePosition(p.focus.Surface())
			if err := r.Send(protocol.PointerMotion{Time: time, X: sx, Y: sy}); err != nil {
				p.log.Debug("Dropped pointer motion", "err", err)
			}
		}
	}

	p.updateCursor()
}

// HandleButton delivers a button event to the grab or the focus.
func (p *Pointer) HandleButton(time, button, state uint32) {
	if p.grab != nil && p.grab.Button(p, time, button, state) {
		return
	}
	r := p.focus.Resource()
	if r == nil {
		return
	}
	ev := protocol.PointerButton{
		Serial: p.ctx.Display.NextSerial(),
		Time:   time,
		Button: button,
		State:  state,
	}
	if err := r.Send(ev); err != nil {
		p.log.Debug("Dropped pointer button", "err", err)
	}
}

// HandleAxis delivers a scroll event to the grab or the focus. The amount
// is passed on unmodified.
func (p *Pointer) HandleAxis(time, axis uint32, amount fixed.Fixed) {
	if p.grab != nil && p.grab.Axis(p, time, axis, amount) {
		return
	}
	if r := p.focus.Resource(); r != nil {
		if err := r.Send(protocol.PointerAxis{Time: time, Axis: axis, Value: amount}); err != nil {
			p.log.Debug("Dropped pointer axis", "err", err)
		}
	}
}

// Close releases the cursor and focus. Hardware cursors are hidden.
func (p *Pointer) Close() {
	if p.closed {
		return
	}
	p.closed = true

	p.focus.Close()
	p.detachSurface()
	p.viewSub.Remove()
	for s := range p.modes {
		p.RemoveScreen(s)
	}
	for _, s := range p.ctx.Screens.Screens() {
		if plane := s.CursorPlane(); plane != nil {
			_ = plane.View().Attach(nil)
		}
	}
	p.cursor.view.Release()
	buffer.Replace(&p.cursor.internal, nil)
	buffer.Replace(&p.cursor.buffer, nil)
	p.Events.Clear()
}
