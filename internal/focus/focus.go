// Package focus tracks which surface receives the events of an input
// device and which client resource they are delivered to.
package focus

import (
	"github.com/charmbracelet/log"

	"github.com/bnema/swc/internal/event"
	"github.com/bnema/swc/internal/logger"
	"github.com/bnema/swc/internal/protocol"
	"github.com/bnema/swc/internal/surface"
)

// Handler sends the device specific enter and leave events.
type Handler interface {
	Enter(r *protocol.Resource, s *surface.Surface)
	Leave(r *protocol.Resource, s *surface.Surface)
}

// HandlerFuncs adapts a pair of functions to Handler. Nil fields are
// skipped.
type HandlerFuncs struct {
	EnterFunc func(r *protocol.Resource, s *surface.Surface)
	LeaveFunc func(r *protocol.Resource, s *surface.Surface)
}

func (h HandlerFuncs) Enter(r *protocol.Resource, s *surface.Surface) {
	if h.EnterFunc != nil {
		h.EnterFunc(r, s)
	}
}

func (h HandlerFuncs) Leave(r *protocol.Resource, s *surface.Surface) {
	if h.LeaveFunc != nil {
		h.LeaveFunc(r, s)
	}
}

// Change is emitted on Changed after every focus assignment.
type Change struct {
	Old, New *surface.Surface
}

type registered struct {
	resource *protocol.Resource
	sub      *event.Subscription[*protocol.Resource]
}

// Focus holds the focused surface of one input device.
//
// The focused surface is observed: when it is destroyed the focus is
// cleared on the spot, without a leave event and without picking a
// replacement. Callers that want to refocus in reaction to a destruction
// should go through Deferred.
type Focus struct {
	// Changed is emitted after Set changes the focus.
	Changed event.Signal[Change]

	handler   Handler
	resources []registered
	surface   *surface.Surface
	resource  *protocol.Resource
	sub       *event.Subscription[*surface.Surface]
	log       *log.Logger
}

// New creates an empty focus.
func New(handler Handler, l *log.Logger) *Focus {
	if l == nil {
		l = logger.Logger
	}
	return &Focus{handler: handler, log: l}
}

// Surface returns the focused surface or nil.
func (f *Focus) Surface() *surface.Surface {
	return f.surface
}

// Resource returns the resource events for the focused surface go to, or
// nil when its client has no registered resource.
func (f *Focus) Resource() *protocol.Resource {
	return f.resource
}

// Resources returns the registered resources.
func (f *Focus) Resources() []*protocol.Resource {
	out := make([]*protocol.Resource, len(f.resources))
	for i, reg := range f.resources {
		out[i] = reg.resource
	}
	return out
}

// AddResource registers a client resource of the device. It is removed
// again when it is destroyed. If the focused surface belongs to the same
// client and has no resource yet, r becomes active and receives enter.
func (f *Focus) AddResource(r *protocol.Resource) {
	for _, reg := range f.resources {
		if reg.resource == r {
			return
		}
	}
	sub := r.OnDestroy(f.RemoveResource)
	f.resources = append(f.resources, registered{resource: r, sub: sub})

	if f.surface != nil && f.resource == nil && f.surface.Client() == r.Client() {
		f.resource = r
		f.handler.Enter(r, f.surface)
	}
}

// RemoveResource unregisters r. Removing the active resource leaves the
// focused surface unchanged.
func (f *Focus) RemoveResource(r *protocol.Resource) {
	for i, reg := range f.resources {
		if reg.resource != r {
			continue
		}
		reg.sub.Remove()
		f.resources = append(f.resources[:i:i], f.resources[i+1:]...)
		break
	}
	if f.resource == r {
		f.resource = nil
	}
}

func (f *Focus) find(c *protocol.Client) *protocol.Resource {
	for _, reg := range f.resources {
		if reg.resource.Client() == c && !reg.resource.Destroyed() {
			return reg.resource
		}
	}
	return nil
}

// Set moves the focus to s. A destroyed s is treated as nil. Setting the
// current focus again does nothing.
func (f *Focus) Set(s *surface.Surface) {
	if s != nil && s.Destroyed() {
		s = nil
	}
	if s == f.surface {
		return
	}

	old := f.surface
	if old != nil {
		if f.resource != nil {
			f.handler.Leave(f.resource, old)
		}
		f.sub.Remove()
		f.sub = nil
	}
	f.surface = nil
	f.resource = nil

	if s != nil {
		f.sub = s.OnDestroy(f.handleDestroy)
		f.surface = s
		f.resource = f.find(s.Client())
		if f.resource != nil {
			f.handler.Enter(f.resource, s)
		}
	}

	f.log.Debug("focus changed", "old", describe(old), "new", describe(s))
	f.Changed.Emit(Change{Old: old, New: s})
}

func (f *Focus) handleDestroy(s *surface.Surface) {
	if s != f.surface {
		return
	}
	f.log.Debug("focused surface destroyed", "surface", describe(s))
	f.surface = nil
	f.resource = nil
	f.sub = nil
}

// Close drops the focus without a leave event and releases every observer.
func (f *Focus) Close() {
	f.sub.Remove()
	f.sub = nil
	f.surface = nil
	f.resource = nil
	for _, reg := range f.resources {
		reg.sub.Remove()
	}
	f.resources = nil
	f.Changed.Clear()
}

func describe(s *surface.Surface) string {
	if s == nil {
		return "none"
	}
	return s.Resource().String()
}
