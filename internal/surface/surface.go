// Package surface implements client surfaces: double-buffered buffer and
// damage state bound to a protocol resource and shown through a view.
package surface

import (
	"errors"

	"github.com/bnema/swc/internal/buffer"
	"github.com/bnema/swc/internal/event"
	"github.com/bnema/swc/internal/protocol"
	"github.com/bnema/swc/internal/region"
	"github.com/bnema/swc/internal/view"
)

// Interface is the protocol interface name of surfaces.
const Interface = "wl_surface"

// ErrDestroyed is returned by requests on a destroyed surface.
var ErrDestroyed = errors.New("surface destroyed")

type state struct {
	buffer   *buffer.Buffer
	attached bool
	damage   region.Region
}

// Surface is a client-owned rectangle of content.
type Surface struct {
	resource  *protocol.Resource
	sub       *event.Subscription[*protocol.Resource]
	view      *view.View
	pending   state
	current   state
	destroy   event.Signal[*Surface]
	destroyed bool
}

// New creates a surface backed by r. Destroying r destroys the surface.
func New(r *protocol.Resource) *Surface {
	s := &Surface{resource: r}
	r.Data = s
	s.sub = r.OnDestroy(func(*protocol.Resource) { s.Destroy() })
	return s
}

// FromResource returns the surface behind r, or nil.
func FromResource(r *protocol.Resource) *Surface {
	if r == nil {
		return nil
	}
	s, _ := r.Data.(*Surface)
	return s
}

// Resource returns the protocol resource.
func (s *Surface) Resource() *protocol.Resource {
	return s.resource
}

// Client returns the owning client.
func (s *Surface) Client() *protocol.Client {
	return s.resource.Client()
}

// Attach sets the pending buffer. A nil buffer unmaps the surface on commit.
func (s *Surface) Attach(b *buffer.Buffer) error {
	if s.destroyed {
		return ErrDestroyed
	}
	buffer.Replace(&s.pending.buffer, b)
	s.pending.attached = true
	return nil
}

// Damage adds a rectangle to the pending damage.
func (s *Surface) Damage(r region.Rect) error {
	if s.destroyed {
		return ErrDestroyed
	}
	s.pending.damage.Union(r)
	return nil
}

// Commit applies the pending state. A newly attached buffer is attached to
// the view; otherwise the view is asked to update its current content.
func (s *Surface) Commit() error {
	if s.destroyed {
		return ErrDestroyed
	}
	attached := s.pending.attached
	if attached {
		buffer.Replace(&s.current.buffer, s.pending.buffer)
		buffer.Replace(&s.pending.buffer, nil)
		s.pending.attached = false
	}
	for _, r := range s.pending.damage.Rects() {
		s.current.damage.Union(r)
	}
	s.pending.damage = region.Region{}

	if s.view == nil {
		return nil
	}
	if attached {
		return s.view.Attach(s.current.buffer)
	}
	return s.view.Update()
}

// SetView changes the view the surface is shown through. The current
// buffer is attached to the new view and the old one is detached.
func (s *Surface) SetView(v *view.View) error {
	if s.view == v {
		return nil
	}
	old := s.view
	s.view = v
	if old != nil {
		_ = old.Attach(nil)
	}
	if v != nil && !s.destroyed {
		return v.Attach(s.current.buffer)
	}
	return nil
}

// View returns the view the surface is shown through.
func (s *Surface) View() *view.View {
	return s.view
}

// Buffer returns the committed buffer.
func (s *Surface) Buffer() *buffer.Buffer {
	return s.current.buffer
}

// Geometry returns the view geometry, or the committed buffer size when the
// surface has no view.
func (s *Surface) Geometry() region.Rect {
	if s.view != nil {
		return s.view.Geometry()
	}
	if b := s.current.buffer; b != nil {
		return region.Rect{Width: b.Width, Height: b.Height}
	}
	return region.Rect{}
}

// Damaged returns the committed damage.
func (s *Surface) Damaged() region.Region {
	return s.current.damage.Copy()
}

// ClearDamage forgets the committed damage once it was repainted.
func (s *Surface) ClearDamage() {
	s.current.damage = region.Region{}
}

// OnDestroy registers fn to run when the surface is destroyed. Observers
// run before the surface releases its buffers.
func (s *Surface) OnDestroy(fn func(*Surface)) *event.Subscription[*Surface] {
	return s.destroy.Add(fn)
}

// Destroyed reports whether the surface was destroyed.
func (s *Surface) Destroyed() bool {
	return s.destroyed
}

// Destroy tears the surface down and destroys its resource.
func (s *Surface) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.destroy.Emit(s)
	s.destroy.Clear()

	if s.view != nil {
		_ = s.view.Attach(nil)
		s.view = nil
	}
	buffer.Replace(&s.pending.buffer, nil)
	buffer.Replace(&s.current.buffer, nil)

	s.sub.Remove()
	s.resource.Destroy()
}
