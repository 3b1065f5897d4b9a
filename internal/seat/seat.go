// Package seat assembles the pointer and keyboard of one seat and keeps
// them in sync with the screen layout.
package seat

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/bnema/swc/internal/core"
	"github.com/bnema/swc/internal/event"
	"github.com/bnema/swc/internal/focus"
	"github.com/bnema/swc/internal/keyboard"
	"github.com/bnema/swc/internal/pointer"
	"github.com/bnema/swc/internal/screen"
	"github.com/bnema/swc/internal/surface"
)

// Seat is a pointer and a keyboard sharing one focus policy.
type Seat struct {
	Name string

	ctx       core.Context
	log       *log.Logger
	pointer   *pointer.Pointer
	keyboard  *keyboard.Keyboard
	deferred  *focus.Deferred
	screenSub *event.Subscription[screen.Event]
}

// New creates a seat on the screens and loop of ctx.
func New(name string, ctx core.Context) (*Seat, error) {
	p, err := pointer.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("pointer: %w", err)
	}
	k, err := keyboard.New(ctx)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("keyboard: %w", err)
	}

	s := &Seat{
		Name:     name,
		ctx:      ctx,
		log:      ctx.Logger("seat"),
		pointer:  p,
		keyboard: k,
	}
	s.deferred = focus.NewDeferred(ctx.Loop, s.commitFocus)
	s.screenSub = ctx.Screens.Events.Add(s.handleScreenEvent)
	s.log.Info("Seat ready", "seat", name, "screens", ctx.Screens.Len())
	return s, nil
}

// Pointer returns the seat pointer.
func (s *Seat) Pointer() *pointer.Pointer {
	return s.pointer
}

// Keyboard returns the seat keyboard.
func (s *Seat) Keyboard() *keyboard.Keyboard {
	return s.keyboard
}

// Context returns the context the seat was created with.
func (s *Seat) Context() core.Context {
	return s.ctx
}

// RequestFocus asks for pointer and keyboard focus to move to target on the
// next loop iteration. It is safe to call from destruction observers: only
// the last request before the loop goes idle is applied, and a target that
// is destroyed in between resolves to no focus.
func (s *Seat) RequestFocus(target *surface.Surface) {
	s.deferred.Request(target)
}

// FocusPending reports whether a focus request is waiting to be committed.
func (s *Seat) FocusPending() bool {
	return s.deferred.Pending()
}

func (s *Seat) commitFocus(target *surface.Surface) {
	s.keyboard.SetFocus(target)
	s.pointer.SetFocus(target)
}

func (s *Seat) handleScreenEvent(ev screen.Event) {
	switch ev.Type {
	case screen.Added:
		s.pointer.AddScreen(ev.Screen)
	case screen.Removed:
		s.pointer.RemoveScreen(ev.Screen)
	}
	s.pointer.SetRegion(s.ctx.Screens.Region())
	s.pointer.UpdateScreens()
}

// Close tears the seat down.
func (s *Seat) Close() {
	s.screenSub.Remove()
	s.deferred.Cancel()
	s.keyboard.Close()
	s.pointer.Close()
	s.log.Info("Seat closed", "seat", s.Name)
}
