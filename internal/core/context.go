// Package core holds the state shared by every seat component. It is
// passed explicitly at initialization so several seats, or several test
// harnesses, can live in one process.
package core

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/bnema/swc/internal/buffer"
	"github.com/bnema/swc/internal/cursor"
	"github.com/bnema/swc/internal/launch"
	"github.com/bnema/swc/internal/logger"
	"github.com/bnema/swc/internal/loop"
	"github.com/bnema/swc/internal/protocol"
	"github.com/bnema/swc/internal/screen"
)

// ErrIncomplete is returned by Validate when a required collaborator is missing
var ErrIncomplete = errors.New("incomplete context")

// Context carries the collaborators of a seat.
type Context struct {
	Loop    *loop.Loop
	Screens *screen.Manager
	// Allocator creates the cursor buffers. Buffers it creates must be
	// exportable as DRM handles for hardware cursor planes to show them.
	Allocator buffer.Allocator
	Display   *protocol.Display
	// Session may be nil when the process owns the device for its whole
	// lifetime.
	Session *launch.Session
	Log     *log.Logger

	// DefaultCursor is shown when no client cursor is set.
	DefaultCursor cursor.ID
	// SoftwareFallback composites the cursor in software on screens whose
	// cursor plane is missing or failing.
	SoftwareFallback bool
}

// Validate checks that the required collaborators are set.
func (c *Context) Validate() error {
	switch {
	case c.Loop == nil:
		return errors.Join(ErrIncomplete, errors.New("loop is nil"))
	case c.Screens == nil:
		return errors.Join(ErrIncomplete, errors.New("screens is nil"))
	case c.Allocator == nil:
		return errors.Join(ErrIncomplete, errors.New("allocator is nil"))
	case c.Display == nil:
		return errors.Join(ErrIncomplete, errors.New("display is nil"))
	}
	return nil
}

// Logger returns a sub-logger for a component.
func (c *Context) Logger(component string) *log.Logger {
	if c.Log == nil {
		return logger.With(component)
	}
	return c.Log.WithPrefix(component)
}
