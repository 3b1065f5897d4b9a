package script

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bnema/swc/internal/buffer"
	"github.com/bnema/swc/internal/cursor"
	"github.com/bnema/swc/internal/fixed"
	"github.com/bnema/swc/internal/keyboard"
	"github.com/bnema/swc/internal/logger"
	"github.com/bnema/swc/internal/protocol"
	"github.com/bnema/swc/internal/region"
	"github.com/bnema/swc/internal/render"
	"github.com/bnema/swc/internal/server"
	"github.com/bnema/swc/internal/surface"
)

// ErrExpectation is returned when an expect step does not hold
var ErrExpectation = errors.New("expectation failed")

// errInjected is what an injected hardware failure returns.
var errInjected = errors.New("injected failure")

// SurfaceVersion is the version of the surfaces a script creates.
const SurfaceVersion = 4

type client struct {
	client   *protocol.Client
	recorder *protocol.Recorder
	pointer  *protocol.Resource
	keyboard *protocol.Resource
}

// Runner executes a script step by step
type Runner struct {
	script  *Script
	server  *server.Server
	clients map[string]*client
	log     *log.Logger
	time    uint32
}

// NewRunner builds the headless seat a script runs on
func NewRunner(s *Script) (*Runner, error) {
	srv, err := server.New(s.Config())
	if err != nil {
		return nil, err
	}
	// Calls made while the seat came up are not part of the script.
	srv.Headless().Reset()
	return &Runner{
		script:  s,
		server:  srv,
		clients: make(map[string]*client),
		log:     logger.With("script"),
	}, nil
}

// Server returns the seat the script runs on
func (r *Runner) Server() *server.Server {
	return r.server
}

// Run executes every step, dispatching idle work after each one unless
// the script dispatches manually.
func (r *Runner) Run(ctx context.Context) error {
	for i, step := range r.script.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		action, err := step.Action()
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}

		r.log.Debug("Step", "n", i+1, "action", action)
		err = r.apply(action, step)
		switch {
		case step.Error != "" && err == nil:
			return fmt.Errorf("step %d (%s): %w: expected error containing %q", i+1, action, ErrExpectation, step.Error)
		case step.Error != "" && !strings.Contains(err.Error(), step.Error):
			return fmt.Errorf("step %d (%s): %w: error %q does not contain %q", i+1, action, ErrExpectation, err, step.Error)
		case step.Error == "" && err != nil:
			return fmt.Errorf("step %d (%s): %w", i+1, action, err)
		}

		if !r.script.ManualDispatch {
			r.server.Loop().DispatchPending()
		}
	}
	r.log.Info("Script complete", "steps", len(r.script.Steps))
	return nil
}

// Close tears the seat down
func (r *Runner) Close() {
	r.server.Close()
}

func (r *Runner) apply(action string, step Step) error {
	switch action {
	case "connect":
		return r.connect(step.Connect)
	case "disconnect":
		c, err := r.client(step.Disconnect)
		if err != nil {
			return err
		}
		c.client.Destroy()
		delete(r.clients, step.Disconnect)
		return nil
	case "bind":
		return r.bind(step.Bind)
	case "window":
		return r.window(step.Window)
	case "focus":
		s, err := r.resolve(step.Focus)
		if err != nil {
			return err
		}
		r.server.Seat().RequestFocus(s)
		return nil
	case "destroy":
		s, err := r.resolve(step.Destroy)
		if err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("nothing to destroy")
		}
		s.Destroy()
		return nil
	case "motion":
		r.server.Seat().Pointer().HandleRelativeMotion(r.tick(), fixed.FromFloat(step.Motion.DX), fixed.FromFloat(step.Motion.DY))
		return nil
	case "button":
		r.server.Seat().Pointer().HandleButton(r.tick(), step.Button.Code, state(step.Button.Pressed))
		return nil
	case "axis":
		return r.axis(step.Axis)
	case "key":
		r.server.Seat().Keyboard().HandleKey(r.tick(), step.Key.Code, state(step.Key.Pressed))
		return nil
	case "cursor":
		id, err := cursor.ParseID(step.Cursor)
		if err != nil {
			return err
		}
		return r.server.Seat().Pointer().SetCursor(id)
	case "set_cursor":
		return r.setCursor(step.SetCursor)
	case "add_screen":
		sc := step.AddScreen
		_, err := r.server.Screens().Add(sc.Name, sc.CRTC, sc.Rect())
		return err
	case "remove_screen":
		scr := r.server.Screens().ByName(step.Remove)
		if scr == nil {
			return fmt.Errorf("unknown screen %q", step.Remove)
		}
		r.server.Screens().Remove(scr)
		return nil
	case "session":
		return r.session(step.Session)
	case "fail":
		null := r.server.Headless()
		null.SetErr, null.MoveErr = nil, nil
		if step.Fail.Set {
			null.SetErr = errInjected
		}
		if step.Fail.Move {
			null.MoveErr = errInjected
		}
		return nil
	case "dispatch":
		r.server.Loop().DispatchPending()
		return nil
	case "expect":
		return r.expect(step.Expect)
	}
	return fmt.Errorf("%w: unknown action %q", ErrInvalidStep, action)
}

func (r *Runner) tick() uint32 {
	r.time += 10
	return r.time
}

func state(pressed bool) uint32 {
	if pressed {
		return protocol.ButtonPressed
	}
	return protocol.ButtonReleased
}

func (r *Runner) connect(name string) error {
	if _, ok := r.clients[name]; ok {
		return fmt.Errorf("client %q already connected", name)
	}
	rec := &protocol.Recorder{}
	c := &client{client: r.server.Display().NewClient(name, rec), recorder: rec}
	r.clients[name] = c
	return nil
}

func (r *Runner) client(name string) (*client, error) {
	c, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("unknown client %q", name)
	}
	return c, nil
}

func (r *Runner) bind(b *Bind) error {
	c, err := r.client(b.Client)
	if err != nil {
		return err
	}
	if b.Pointer != 0 {
		res, err := r.server.Seat().Pointer().Bind(c.client, b.Pointer)
		if err != nil {
			return err
		}
		c.pointer = res
	}
	if b.Keyboard != 0 {
		res, err := r.server.Seat().Keyboard().Bind(c.client, b.Keyboard)
		if err != nil {
			return err
		}
		c.keyboard = res
	}
	return nil
}

func (r *Runner) window(w *Window) error {
	c, err := r.client(w.Client)
	if err != nil {
		return err
	}
	res, err := c.client.NewResource(surface.Interface, SurfaceVersion, w.ID)
	if err != nil {
		return err
	}
	s := surface.New(res)

	b, err := r.server.Allocator().Create(w.Width, w.Height, buffer.FormatARGB8888)
	if err != nil {
		s.Destroy()
		return err
	}
	defer b.Unreference()

	color := w.Color
	if color == 0 {
		color = 0xff808080
	}
	if err := render.Fill(b, color, image.Rect(0, 0, int(w.Width), int(w.Height))); err != nil {
		s.Destroy()
		return err
	}

	if err := s.Attach(b); err != nil {
		return err
	}
	if err := s.Damage(region.Rect{Width: w.Width, Height: w.Height}); err != nil {
		return err
	}
	if err := s.Commit(); err != nil {
		return err
	}
	if w.Cursor {
		return nil
	}
	_, err = r.server.Compositor().Show(s, w.X, w.Y)
	return err
}

// resolve returns the surface a ref names. A none ref resolves to nil.
func (r *Runner) resolve(ref *Ref) (*surface.Surface, error) {
	switch {
	case ref.None:
		return nil, nil
	case ref.UnderPointer:
		x, y := r.server.Seat().Pointer().Position()
		return r.server.Compositor().SurfaceAt(x.Int(), y.Int()), nil
	}
	c, err := r.client(ref.Client)
	if err != nil {
		return nil, err
	}
	res := c.client.Resource(ref.ID)
	if res == nil || res.Interface() != surface.Interface {
		return nil, fmt.Errorf("client %q has no surface %d", ref.Client, ref.ID)
	}
	return surface.FromResource(res), nil
}

func (r *Runner) axis(a *Axis) error {
	var axis uint32
	switch a.Axis {
	case "", "vertical":
		axis = protocol.AxisVerticalScroll
	case "horizontal":
		axis = protocol.AxisHorizontalScroll
	default:
		return fmt.Errorf("unknown axis %q", a.Axis)
	}
	r.server.Seat().Pointer().HandleAxis(r.tick(), axis, fixed.FromFloat(a.Amount))
	return nil
}

func (r *Runner) setCursor(sc *SetCursor) error {
	c, err := r.client(sc.Client)
	if err != nil {
		return err
	}
	if c.pointer == nil {
		return fmt.Errorf("client %q has no pointer", sc.Client)
	}
	var s *surface.Surface
	if sc.Surface != 0 {
		s, err = r.resolve(&Ref{Client: sc.Client, ID: sc.Surface})
		if err != nil {
			return err
		}
	}
	p := r.server.Seat().Pointer()
	return p.HandleSetCursor(c.pointer, r.server.Display().Serial(), s, sc.HotspotX, sc.HotspotY)
}

func (r *Runner) session(op string) error {
	switch op {
	case "deactivate":
		return r.server.Session().Deactivate()
	case "activate":
		return r.server.Session().Activate()
	default:
		return fmt.Errorf("unknown session operation %q", op)
	}
}

func (r *Runner) expect(e *Expect) error {
	var failures []string
	fail := func(format string, args ...any) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	p := r.server.Seat().Pointer()
	if e.Pointer != nil {
		if len(e.Pointer) != 2 {
			return fmt.Errorf("%w: pointer wants [x, y]", ErrInvalidStep)
		}
		x, y := p.Position()
		if x.Float() != e.Pointer[0] || y.Float() != e.Pointer[1] {
			fail("pointer at (%g, %g), want (%g, %g)", x.Float(), y.Float(), e.Pointer[0], e.Pointer[1])
		}
	}

	if e.Focus != "" {
		if got := r.focusName(r.server.Seat().Keyboard()); got != e.Focus {
			fail("focus is %s, want %s", got, e.Focus)
		}
	}

	if e.Cursor != "" && p.CursorName() != e.Cursor {
		fail("cursor is %s, want %s", p.CursorName(), e.Cursor)
	}

	for name, want := range e.Modes {
		scr := r.server.Screens().ByName(name)
		if scr == nil {
			fail("unknown screen %q", name)
			continue
		}
		if got := p.Mode(scr).String(); got != want {
			fail("screen %s cursor mode is %s, want %s", name, got, want)
		}
	}

	for name, want := range e.Events {
		c, err := r.client(name)
		if err != nil {
			fail("%v", err)
			continue
		}
		if got := c.recorder.Names(); !slices.Equal(got, want) {
			fail("client %s received %v, want %v", name, got, want)
		}
		c.recorder.Reset()
	}

	if e.Calls != nil {
		null := r.server.Headless()
		got := make([]string, len(null.Calls))
		for i, call := range null.Calls {
			got[i] = call.String()
		}
		if !slices.Equal(got, e.Calls) {
			fail("hardware calls %v, want %v", got, e.Calls)
		}
		null.Reset()
	}

	if len(failures) > 0 {
		return fmt.Errorf("%w: %s", ErrExpectation, strings.Join(failures, "; "))
	}
	return nil
}

// focusName formats the keyboard focus as "client:id" or "none"
func (r *Runner) focusName(k *keyboard.Keyboard) string {
	s := k.Focus()
	if s == nil {
		return "none"
	}
	return fmt.Sprintf("%s:%d", s.Client().Name, s.Resource().ID())
}
