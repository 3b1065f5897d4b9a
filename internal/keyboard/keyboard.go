// Package keyboard implements the seat keyboard: key state and delivery of
// key events to the focused client.
package keyboard

import (
	"errors"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/bnema/swc/internal/core"
	"github.com/bnema/swc/internal/focus"
	"github.com/bnema/swc/internal/protocol"
	"github.com/bnema/swc/internal/surface"
)

const (
	// Interface is the protocol interface name of keyboard resources.
	Interface = "wl_keyboard"
	// Version is the protocol version resources are created with.
	Version = 3
)

// Handler intercepts key events before they reach the focused client.
// Returning true consumes the event.
type Handler func(time, key, state uint32) bool

// Keyboard is one seat's keyboard.
type Keyboard struct {
	ctx     core.Context
	log     *log.Logger
	focus   *focus.Focus
	pressed []uint32
	handler Handler
}

// New creates a keyboard without focus.
func New(ctx core.Context) (*Keyboard, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	k := &Keyboard{ctx: ctx, log: ctx.Logger("keyboard")}
	k.focus = focus.New(focus.HandlerFuncs{EnterFunc: k.enter, LeaveFunc: k.leave}, k.log)
	return k, nil
}

// Bind creates a keyboard resource for a client. When the resource cannot
// be allocated the client is sent a no-memory error.
func (k *Keyboard) Bind(c *protocol.Client, id uint32) (*protocol.Resource, error) {
	r, err := c.NewResource(Interface, Version, id)
	if err != nil {
		if errors.Is(err, protocol.ErrNoMemory) {
			c.PostNoMemory()
		}
		k.log.Error("Failed to bind keyboard", "client", c, "id", id, "err", err)
		return nil, err
	}
	r.Data = k
	k.focus.AddResource(r)
	return r, nil
}

// SetFocus moves the keyboard focus to s, nil clears it.
func (k *Keyboard) SetFocus(s *surface.Surface) {
	k.focus.Set(s)
}

// Focus returns the focused surface.
func (k *Keyboard) Focus() *surface.Surface {
	return k.focus.Surface()
}

// FocusState exposes the underlying focus.
func (k *Keyboard) FocusState() *focus.Focus {
	return k.focus
}

// SetHandler installs a key handler, nil removes it.
func (k *Keyboard) SetHandler(h Handler) {
	k.handler = h
}

// Pressed returns the keys currently held down.
func (k *Keyboard) Pressed() []uint32 {
	return slices.Clone(k.pressed)
}

// HandleKey updates the key state and delivers the event. A handler that
// consumes a press still has the key recorded as held.
func (k *Keyboard) HandleKey(time, key, state uint32) {
	switch state {
	case protocol.KeyPressed:
		if slices.Contains(k.pressed, key) {
			return
		}
		k.pressed = append(k.pressed, key)
	case protocol.KeyReleased:
		i := slices.Index(k.pressed, key)
		if i < 0 {
			return
		}
		k.pressed = slices.Delete(k.pressed, i, i+1)
	}

	if k.handler != nil && k.handler(time, key, state) {
		return
	}
	r := k.focus.Resource()
	if r == nil {
		return
	}
	ev := protocol.KeyboardKey{
		Serial: k.ctx.Display.NextSerial(),
		Time:   time,
		Key:    key,
		State:  state,
	}
	if err := r.Send(ev); err != nil {
		k.log.Debug("Dropped key", "err", err)
	}
}

func (k *Keyboard) enter(r *protocol.Resource, s *surface.Surface) {
	ev := protocol.KeyboardEnter{
		Serial:  k.ctx.Display.NextSerial(),
		Surface: s.Resource(),
		Keys:    k.Pressed(),
	}
	if err := r.Send(ev); err != nil {
		k.log.Debug("Dropped keyboard enter", "err", err)
	}
}

func (k *Keyboard) leave(r *protocol.Resource, s *surface.Surface) {
	ev := protocol.KeyboardLeave{
		Serial:  k.ctx.Display.NextSerial(),
		Surface: s.Resource(),
	}
	if err := r.Send(ev); err != nil {
		k.log.Debug("Dropped keyboard leave", "err", err)
	}
}

// Close drops the focus and forgets the key state.
func (k *Keyboard) Close() {
	k.focus.Close()
	k.pressed = nil
}
