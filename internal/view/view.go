// Package view implements positionable, buffer-backed rendering targets.
//
// A View does not know how it is displayed. The Impl it is created with
// decides that: a hardware cursor plane, a software-composited surface, or
// anything else that can attach a buffer and move.
package view

import (
	"github.com/bnema/swc/internal/buffer"
	"github.com/bnema/swc/internal/event"
	"github.com/bnema/swc/internal/region"
)

// Impl is the backing of a view. Implementations report their effect on the
// view's geometry through SetPosition and SetSizeFromBuffer.
type Impl interface {
	// Update re-validates the current content without moving the view.
	Update(v *View) error
	// Attach retargets the view to a buffer, nil detaches it.
	Attach(v *View, b *buffer.Buffer) error
	// Move places the view at absolute coordinates.
	Move(v *View, x, y int32) error
}

// EventType identifies a view event.
type EventType int

const (
	// Moved is emitted when the position changes.
	Moved EventType = iota
	// Resized is emitted when the size changes.
	Resized
	// ScreensChanged is emitted when the set of screens showing the view changes.
	ScreensChanged
)

func (t EventType) String() string {
	switch t {
	case Moved:
		return "moved"
	case Resized:
		return "resized"
	case ScreensChanged:
		return "screens-changed"
	default:
		return "unknown"
	}
}

// Event is delivered on a view's Events signal.
type Event struct {
	Type EventType
	View *View
	// Entered and Left are screen masks, set for ScreensChanged.
	Entered uint32
	Left    uint32
}

// Output is a screen as seen by a view.
type Output interface {
	Mask() uint32
	Geometry() region.Rect
}

// View is a rendering target with a geometry and an attached buffer.
type View struct {
	// Events reports geometry and screen membership changes.
	Events event.Signal[Event]

	impl     Impl
	geometry region.Rect
	buffer   *buffer.Buffer
	screens  uint32
}

// New creates a detached view at the origin.
func New(impl Impl) *View {
	return &View{impl: impl}
}

// Geometry returns the current position and size.
func (v *View) Geometry() region.Rect {
	return v.geometry
}

// Buffer returns the last successfully attached buffer.
func (v *View) Buffer() *buffer.Buffer {
	return v.buffer
}

// Screens returns the mask of screens the view is shown on.
func (v *View) Screens() uint32 {
	return v.screens
}

// Attach retargets the view. On success the view holds a reference to b
// and drops the previous buffer. On failure the previous buffer is kept.
func (v *View) Attach(b *buffer.Buffer) error {
	if err := v.impl.Attach(v, b); err != nil {
		return err
	}
	buffer.Replace(&v.buffer, b)
	return nil
}

// Update asks the backing to re-render the current content.
func (v *View) Update() error {
	return v.impl.Update(v)
}

// Move asks the backing to place the view at x, y.
func (v *View) Move(x, y int32) error {
	return v.impl.Move(v, x, y)
}

// Release drops the attached buffer without going through the backing. It
// is used when the owner is being destroyed.
func (v *View) Release() {
	buffer.Replace(&v.buffer, nil)
	v.Events.Clear()
}

// SetPosition records a new position, emitting Moved when it changed.
func (v *View) SetPosition(x, y int32) {
	if v.geometry.X == x && v.geometry.Y == y {
		return
	}
	v.geometry.X, v.geometry.Y = x, y
	v.Events.Emit(Event{Type: Moved, View: v})
}

// SetSize records a new size, emitting Resized when it changed.
func (v *View) SetSize(width, height int32) {
	if v.geometry.Width == width && v.geometry.Height == height {
		return
	}
	v.geometry.Width, v.geometry.Height = width, height
	v.Events.Emit(Event{Type: Resized, View: v})
}

// SetSizeFromBuffer records the size of b, or zero for nil.
func (v *View) SetSizeFromBuffer(b *buffer.Buffer) {
	if b == nil {
		v.SetSize(0, 0)
		return
	}
	v.SetSize(b.Width, b.Height)
}

// UpdateScreens recomputes which outputs intersect the view and emits
// ScreensChanged when the set differs from the previous one.
func (v *View) UpdateScreens(outputs []Output) {
	var screens uint32
	for _, o := range outputs {
		if o.Geometry().Intersects(v.geometry) {
			screens |= o.Mask()
		}
	}
	if screens == v.screens {
		return
	}
	old := v.screens
	v.screens = screens
	v.Events.Emit(Event{
		Type:    ScreensChanged,
		View:    v,
		Entered: screens &^ old,
		Left:    old &^ screens,
	})
}
