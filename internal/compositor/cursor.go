package compositor

import (
	"image"

	"github.com/bnema/swc/internal/buffer"
	"github.com/bnema/swc/internal/event"
	"github.com/bnema/swc/internal/pointer"
	"github.com/bnema/swc/internal/render"
	"github.com/bnema/swc/internal/screen"
	"github.com/bnema/swc/internal/view"
)

// CursorLayer draws the pointer cursor on screens that composite it in
// software.
type CursorLayer struct {
	pointer *pointer.Pointer
	sub     *event.Subscription[pointer.Event]
	viewSub *event.Subscription[view.Event]
	damage  uint32
}

// NewCursorLayer follows the cursor of p.
func NewCursorLayer(p *pointer.Pointer) *CursorLayer {
	l := &CursorLayer{pointer: p}
	l.sub = p.Events.Add(l.handlePointerEvent)
	l.viewSub = p.CursorView().Events.Add(l.handleViewEvent)
	l.damage = p.SoftwareScreens()
	return l
}

func (l *CursorLayer) handlePointerEvent(ev pointer.Event) {
	switch ev.Type {
	case pointer.CursorModeChanged:
		// Either the cursor appears in the frame or a stale one must go.
		l.damage |= ev.Screen.Mask()
	case pointer.CursorUpdated:
		l.damage |= l.visible()
	}
}

func (l *CursorLayer) handleViewEvent(ev view.Event) {
	switch ev.Type {
	case view.Moved, view.Resized:
		l.damage |= l.visible()
	case view.ScreensChanged:
		l.damage |= (ev.Entered | ev.Left) & l.pointer.SoftwareScreens()
	}
}

func (l *CursorLayer) visible() uint32 {
	return l.pointer.CursorView().Screens() & l.pointer.SoftwareScreens()
}

// Damaged returns the mask of screens whose cursor needs redrawing.
func (l *CursorLayer) Damaged() uint32 {
	return l.damage
}

// Composite draws the cursor onto fb when s shows a software cursor.
func (l *CursorLayer) Composite(s *screen.Screen, fb *buffer.Buffer) error {
	l.damage &^= s.Mask()
	if l.pointer.Mode(s) != pointer.ModeSoftware {
		return nil
	}
	v := l.pointer.CursorView()
	if v.Buffer() == nil || v.Screens()&s.Mask() == 0 {
		return nil
	}
	g, origin := v.Geometry(), s.Geometry()
	return render.Over(fb, l.pointer.CursorBuffer(), image.Pt(int(g.X-origin.X), int(g.Y-origin.Y)))
}

// Close stops following the pointer.
func (l *CursorLayer) Close() {
	l.sub.Remove()
	l.viewSub.Remove()
}
