// Package compositor draws surfaces and the software cursor into screen
// framebuffers. It is the fallback path for screens whose cursor plane is
// missing or failing, and the renderer of headless seats.
package compositor

import (
	"image"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/bnema/swc/internal/buffer"
	"github.com/bnema/swc/internal/event"
	"github.com/bnema/swc/internal/logger"
	"github.com/bnema/swc/internal/render"
	"github.com/bnema/swc/internal/screen"
	"github.com/bnema/swc/internal/surface"
	"github.com/bnema/swc/internal/view"
)

// Compositor keeps the stacking order of surface views.
type Compositor struct {
	screens *screen.Manager
	views   []*entry
	damage  uint32
	cursor  *CursorLayer
	log     *log.Logger
}

type entry struct {
	view    *view.View
	surface *surface.Surface
	sub     *event.Subscription[*surface.Surface]
	viewSub *event.Subscription[view.Event]
}

// New creates a compositor drawing onto the given screens.
func New(screens *screen.Manager, l *log.Logger) *Compositor {
	if l == nil {
		l = logger.With("compositor")
	}
	return &Compositor{screens: screens, log: l}
}

// SetCursorLayer sets the layer drawn above every surface.
func (c *Compositor) SetCursorLayer(layer *CursorLayer) {
	c.cursor = layer
}

// surfaceImpl backs surface views. Content is read from the attached buffer
// at composite time, so every operation only records damage.
type surfaceImpl struct {
	c *Compositor
}

func (i surfaceImpl) Update(v *view.View) error {
	i.c.damage |= v.Screens()
	return nil
}

func (i surfaceImpl) Attach(v *view.View, b *buffer.Buffer) error {
	i.c.damage |= v.Screens()
	v.SetSizeFromBuffer(b)
	return nil
}

func (i surfaceImpl) Move(v *view.View, x, y int32) error {
	i.c.damage |= v.Screens()
	v.SetPosition(x, y)
	return nil
}

// Show creates a view for s at x, y on top of the stack. The view goes away
// with the surface.
func (c *Compositor) Show(s *surface.Surface, x, y int32) (*view.View, error) {
	v := view.New(surfaceImpl{c})
	e := &entry{view: v, surface: s}
	e.viewSub = v.Events.Add(func(ev view.Event) {
		switch ev.Type {
		case view.Moved, view.Resized:
			v.UpdateScreens(c.screens.Outputs())
			c.damage |= v.Screens()
		case view.ScreensChanged:
			c.damage |= ev.Entered | ev.Left
		}
	})
	e.sub = s.OnDestroy(func(*surface.Surface) { c.remove(e) })
	c.views = append(c.views, e)

	if err := v.Move(x, y); err != nil {
		return nil, err
	}
	if err := s.SetView(v); err != nil {
		c.remove(e)
		return nil, err
	}
	return v, nil
}

// Hide removes the view of s.
func (c *Compositor) Hide(s *surface.Surface) {
	for _, e := range c.views {
		if e.surface == s {
			_ = s.SetView(nil)
			c.remove(e)
			return
		}
	}
}

// Raise moves the view of s to the top of the stack.
func (c *Compositor) Raise(s *surface.Surface) {
	i := slices.IndexFunc(c.views, func(e *entry) bool { return e.surface == s })
	if i < 0 || i == len(c.views)-1 {
		return
	}
	e := c.views[i]
	c.views = append(slices.Delete(c.views, i, i+1), e)
	c.damage |= e.view.Screens()
}

// SurfaceAt returns the topmost surface containing the point.
func (c *Compositor) SurfaceAt(x, y int32) *surface.Surface {
	for i := len(c.views) - 1; i >= 0; i-- {
		e := c.views[i]
		if e.view.Buffer() != nil && e.view.Geometry().Contains(x, y) {
			return e.surface
		}
	}
	return nil
}

// Views returns the surface views bottom to top.
func (c *Compositor) Views() []*view.View {
	out := make([]*view.View, len(c.views))
	for i, e := range c.views {
		out[i] = e.view
	}
	return out
}

func (c *Compositor) remove(e *entry) {
	i := slices.Index(c.views, e)
	if i < 0 {
		return
	}
	c.views = slices.Delete(c.views, i, i+1)
	c.damage |= e.view.Screens()
	e.sub.Remove()
	e.viewSub.Remove()
}

// Damaged reports whether a screen needs to be redrawn.
func (c *Compositor) Damaged(s *screen.Screen) bool {
	mask := c.damage
	if c.cursor != nil {
		mask |= c.cursor.damage
	}
	return mask&s.Mask() != 0
}

// Composite redraws a screen into fb, which must be at least the size of
// the screen.
func (c *Compositor) Composite(s *screen.Screen, fb *buffer.Buffer) error {
	if err := render.Clear(fb); err != nil {
		return err
	}
	origin := s.Geometry()
	for _, e := range c.views {
		b := e.view.Buffer()
		if b == nil || e.view.Screens()&s.Mask() == 0 {
			continue
		}
		g := e.view.Geometry()
		if err := render.Over(fb, b, image.Pt(int(g.X-origin.X), int(g.Y-origin.Y))); err != nil {
			c.log.Error("Failed to draw surface", "surface", e.surface.Resource(), "err", err)
			return err
		}
		e.surface.ClearDamage()
	}
	c.damage &^= s.Mask()

	if c.cursor != nil {
		return c.cursor.Composite(s, fb)
	}
	return nil
}
