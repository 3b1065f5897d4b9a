// Package cursorplane drives a display controller's hardware cursor overlay
// as a view, so the pointer can show its cursor without re-rendering the
// screen.
package cursorplane

import (
	"errors"
	"fmt"

	"github.com/bnema/swc/internal/buffer"
	"github.com/bnema/swc/internal/drm"
	"github.com/bnema/swc/internal/event"
	"github.com/bnema/swc/internal/launch"
	"github.com/bnema/swc/internal/logger"
	"github.com/bnema/swc/internal/region"
	"github.com/bnema/swc/internal/view"
	"github.com/charmbracelet/log"
)

// ErrHardware is returned when the display controller rejects a cursor update
var ErrHardware = errors.New("cursor plane programming failed")

// Config carries the collaborators a plane programs through.
type Config struct {
	Driver drm.Driver
	// Session may be nil, in which case the hardware is always owned.
	Session *launch.Session
	Log     *log.Logger
}

// Status is emitted when the plane's hardware state starts or stops
// matching what was last requested.
type Status struct {
	Plane *Plane
	OK    bool
}

// Plane is the cursor overlay of one crtc.
type Plane struct {
	// Events reports hardware health transitions.
	Events event.Signal[Status]

	view    *view.View
	driver  drm.Driver
	session *launch.Session
	sub     *event.Subscription[launch.State]
	log     *log.Logger

	crtc   uint32
	origin *region.Rect

	// intent is the last buffer requested, kept so the plane can be
	// re-armed after the hardware was handed to another session.
	intent   *buffer.Buffer
	attachOK bool
	moveOK   bool
	hidden   bool
	closed   bool
}

// New initializes the cursor plane of crtc. The hardware cursor is cleared
// first and the plane is only usable if that succeeds. origin is the screen
// geometry that absolute cursor positions are translated against; the
// plane reads it but never owns it.
func New(cfg Config, crtc uint32, origin *region.Rect) (*Plane, error) {
	if err := cfg.Driver.SetCursor(crtc, 0, 0, 0); err != nil {
		return nil, fmt.Errorf("%w: clear crtc %d: %w", ErrHardware, crtc, err)
	}

	l := cfg.Log
	if l == nil {
		l = logger.With("cursor-plane")
	}

	p := &Plane{
		driver:   cfg.Driver,
		session:  cfg.Session,
		log:      l,
		crtc:     crtc,
		origin:   origin,
		attachOK: true,
		moveOK:   true,
	}
	p.view = view.New(p)
	if p.session != nil {
		p.sub = p.session.Events.Add(p.handleSession)
	}
	return p, nil
}

// View returns the view backed by this plane.
func (p *Plane) View() *view.View {
	return p.view
}

// CRTC returns the crtc the plane belongs to.
func (p *Plane) CRTC() uint32 {
	return p.crtc
}

// OK reports whether the last hardware calls succeeded.
func (p *Plane) OK() bool {
	return p.attachOK && p.moveOK
}

// Close clears the hardware cursor and releases the plane.
func (p *Plane) Close() {
	if p.closed {
		return
	}
	p.closed = true
	if err := p.driver.SetCursor(p.crtc, 0, 0, 0); err != nil {
		p.log.Error("Could not clear cursor", "crtc", p.crtc, "err", err)
	}
	p.sub.Remove()
	buffer.Replace(&p.intent, nil)
	p.view.Release()
	p.Events.Clear()
}

func (p *Plane) active() bool {
	return !p.closed && (p.session == nil || p.session.Active())
}

// Update has nothing to do: the hardware scans the buffer out directly.
func (p *Plane) Update(v *view.View) error {
	return nil
}

// Attach programs the hardware cursor with b, or clears it for nil. The view
// size follows b even when the hardware rejects it, so later moves use the
// right geometry once the hardware recovers.
func (p *Plane) Attach(v *view.View, b *buffer.Buffer) error {
	buffer.Replace(&p.intent, b)
	v.SetSizeFromBuffer(b)
	p.hidden = false

	if !p.active() {
		return nil
	}

	err := p.program(b)
	p.setHealth(err == nil, p.moveOK)
	return err
}

// Hide clears the hardware cursor while the cursor is shown some other way.
// The requested buffer and the health state are kept, so a later Attach or
// re-arm shows it again.
func (p *Plane) Hide() {
	p.hidden = true
	if !p.active() {
		return
	}
	if err := p.driver.SetCursor(p.crtc, 0, 0, 0); err != nil {
		p.log.Warn("Could not hide cursor", "crtc", p.crtc, "err", err)
	}
}

// Hidden reports whether Hide was called since the last Attach.
func (p *Plane) Hidden() bool {
	return p.hidden
}

func (p *Plane) program(b *buffer.Buffer) error {
	if b == nil {
		if err := p.driver.SetCursor(p.crtc, 0, 0, 0); err != nil {
			p.log.Error("Could not unset cursor", "crtc", p.crtc, "err", err)
			return fmt.Errorf("%w: unset: %w", ErrHardware, err)
		}
		return nil
	}

	obj, err := b.Export(buffer.KindDRMHandle)
	if err != nil {
		p.log.Error("Could not export buffer to DRM handle", "crtc", p.crtc, "err", err)
		return fmt.Errorf("%w: export: %w", ErrHardware, err)
	}
	if err := p.driver.SetCursor(p.crtc, obj.Handle, uint32(b.Width), uint32(b.Height)); err != nil {
		p.log.Error("Could not set cursor", "crtc", p.crtc, "err", err)
		return fmt.Errorf("%w: set: %w", ErrHardware, err)
	}
	return nil
}

// Move places the hardware cursor. The position is recorded in the view
// whether or not the hardware accepts it.
func (p *Plane) Move(v *view.View, x, y int32) error {
	v.SetPosition(x, y)

	if !p.active() {
		return nil
	}

	var err error
	if merr := p.driver.MoveCursor(p.crtc, x-p.origin.X, y-p.origin.Y); merr != nil {
		p.log.Error("Could not move cursor", "crtc", p.crtc, "err", merr)
		err = fmt.Errorf("%w: move: %w", ErrHardware, merr)
	}
	p.setHealth(p.attachOK, err == nil)
	return err
}

func (p *Plane) setHealth(attachOK, moveOK bool) {
	was := p.OK()
	p.attachOK, p.moveOK = attachOK, moveOK
	if now := p.OK(); now != was {
		p.Events.Emit(Status{Plane: p, OK: now})
	}
}

// handleSession re-arms the hardware after the session regains the device;
// cursor plane state does not survive the hand-off.
func (p *Plane) handleSession(state launch.State) {
	if state != launch.Activated {
		return
	}
	g := p.view.Geometry()
	p.log.Debug("Re-arming cursor plane", "crtc", p.crtc, "x", g.X, "y", g.Y)
	hidden := p.hidden
	_ = p.view.Move(g.X, g.Y)
	_ = p.view.Attach(p.intent)
	if hidden && !p.OK() {
		p.Hide()
	}
}
