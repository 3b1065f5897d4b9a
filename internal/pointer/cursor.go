package pointer

import (
	"fmt"
	"image"

	"github.com/bnema/swc/internal/buffer"
	"github.com/bnema/swc/internal/cursor"
	"github.com/bnema/swc/internal/protocol"
	"github.com/bnema/swc/internal/render"
	"github.com/bnema/swc/internal/surface"
	"github.com/bnema/swc/internal/view"
)

// cursorImpl backs the cursor view: whatever is attached is copied into the
// cursor buffer, which is what the screens show.
type cursorImpl struct {
	p *Pointer
}

func (c cursorImpl) Update(v *view.View) error {
	s := c.p.cursor.surface
	if s == nil || s.Damaged().Empty() {
		return nil
	}
	return c.copy(v, v.Buffer())
}

func (c cursorImpl) Attach(v *view.View, b *buffer.Buffer) error {
	s := c.p.cursor.surface
	if s != nil && b != nil && b == v.Buffer() && s.Damaged().Empty() {
		return nil
	}
	return c.copy(v, b)
}

func (c cursorImpl) Move(v *view.View, x, y int32) error {
	v.SetPosition(x, y)
	return nil
}

func (c cursorImpl) copy(v *view.View, b *buffer.Buffer) error {
	p := c.p
	if err := render.Clear(p.cursor.buffer); err != nil {
		p.log.Error("Failed to clear cursor buffer", "err", err)
		return err
	}
	if b != nil {
		if err := render.Copy(p.cursor.buffer, b, image.Point{}); err != nil {
			p.log.Error("Failed to copy cursor image", "err", err)
			return err
		}
	}
	if s := p.cursor.surface; s != nil {
		s.ClearDamage()
	}
	// Images larger than the cursor buffer are cropped by the copy.
	if b != nil {
		v.SetSize(min(b.Width, p.cursor.buffer.Width), min(b.Height, p.cursor.buffer.Height))
	} else {
		v.SetSize(0, 0)
	}
	p.Events.Emit(Event{Type: CursorUpdated})
	return nil
}

// SetCursor shows a built-in cursor image. A client cursor surface in use
// is detached first.
func (p *Pointer) SetCursor(id cursor.ID) error {
	img, ok := cursor.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCursor, id)
	}

	b, err := p.ctx.Allocator.Import(buffer.KindData, buffer.Object{Data: img.Pixels},
		img.Width, img.Height, buffer.FormatARGB8888, img.Stride())
	if err != nil {
		p.log.Error("Failed to create cursor buffer", "cursor", id, "err", err)
		return fmt.Errorf("import cursor %s: %w", id, err)
	}

	p.detachSurface()
	buffer.Replace(&p.cursor.internal, b)
	b.Unreference()

	p.cursor.id = id
	p.cursor.hotspotX, p.cursor.hotspotY = img.HotspotX, img.HotspotY
	p.updateCursor()
	return p.cursor.view.Attach(p.cursor.internal)
}

// CursorName names what the cursor shows: a built-in cursor, or "client"
// while a client cursor surface is set.
func (p *Pointer) CursorName() string {
	if p.cursor.surface != nil {
		return "client"
	}
	return p.cursor.id.String()
}

// HandleSetCursor implements the set_cursor request of a pointer resource.
// Only the client owning the focused surface may change the cursor. A nil
// surface restores the default cursor.
func (p *Pointer) HandleSetCursor(r *protocol.Resource, serial uint32, s *surface.Surface, hotspotX, hotspotY int32) error {
	focused := p.focus.Surface()
	if focused == nil || focused.Client() != r.Client() {
		p.log.Debug("Ignoring set_cursor from unfocused client", "client", r.Client(), "serial", serial)
		return ErrNotFocused
	}

	if s == nil || s.Destroyed() {
		return p.SetCursor(p.ctx.DefaultCursor)
	}

	if s != p.cursor.surface {
		p.detachSurface()
		buffer.Replace(&p.cursor.internal, nil)
		p.cursor.surface = s
		p.cursor.sub = s.OnDestroy(p.handleCursorSurfaceDestroy)
	}
	p.cursor.hotspotX, p.cursor.hotspotY = hotspotX, hotspotY
	err := s.SetView(p.cursor.view)
	p.updateCursor()
	return err
}

// detachSurface stops showing the client cursor surface, if any.
func (p *Pointer) detachSurface() {
	s := p.cursor.surface
	if s == nil {
		return
	}
	p.cursor.sub.Remove()
	p.cursor.sub = nil
	p.cursor.surface = nil
	if s.View() == p.cursor.view {
		_ = s.SetView(nil)
	}
}

func (p *Pointer) handleCursorSurfaceDestroy(s *surface.Surface) {
	if s != p.cursor.surface {
		return
	}
	p.cursor.sub = nil
	p.cursor.surface = nil
	_ = p.cursor.view.Attach(nil)
}
