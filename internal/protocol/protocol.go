// Package protocol models the client side of the display server: client
// connections, the resources they create and the typed events the seat
// sends to them. Wire encoding is left to the binding layer, which plugs in
// through Sink.
package protocol

import (
	"errors"
	"fmt"

	"github.com/bnema/swc/internal/event"
)

var (
	// ErrNoMemory is returned when a client resource cannot be allocated
	ErrNoMemory = errors.New("no memory")
	// ErrIDInUse is returned when a client reuses a live object id
	ErrIDInUse = errors.New("object id already in use")
	// ErrDestroyed is returned when sending on a destroyed resource
	ErrDestroyed = errors.New("resource destroyed")
)

// Error codes posted to clients.
const (
	ErrorCodeInvalidObject uint32 = 0
	ErrorCodeNoMemory      uint32 = 2
)

// Event is a server-to-client message.
type Event interface {
	// Name is the protocol event name, e.g. "wl_pointer.enter".
	Name() string
}

// Sink receives the events sent to a client's resources.
type Sink interface {
	Send(r *Resource, ev Event)
}

// Display owns the serial counter shared by every client.
type Display struct {
	serial  uint32
	clients []*Client
}

// NewDisplay creates a display with no clients.
func NewDisplay() *Display {
	return &Display{}
}

// NextSerial allocates a new serial.
func (d *Display) NextSerial() uint32 {
	d.serial++
	return d.serial
}

// Serial returns the last allocated serial.
func (d *Display) Serial() uint32 {
	return d.serial
}

// Clients returns the connected clients.
func (d *Display) Clients() []*Client {
	return append([]*Client(nil), d.clients...)
}

// ProtocolError is an error posted to a client. It is fatal to the
// connection in a real binding.
type ProtocolError struct {
	Object  uint32
	Code    uint32
	Message string
}

func (e ProtocolError) Error() string {
	return fmt.Sprintf("object %d: error %d: %s", e.Object, e.Code, e.Message)
}

// Client is a connection to the display.
type Client struct {
	// Name identifies the client in logs.
	Name string
	// MaxObjects caps live resources, zero means unlimited. Creating a
	// resource beyond the cap fails like an allocation failure.
	MaxObjects int

	display   *Display
	sink      Sink
	resources map[uint32]*Resource
	order     []*Resource
	errors    []ProtocolError
	destroyed bool
	destroy   event.Signal[*Client]
}

// NewClient connects a client whose events are delivered to sink.
func (d *Display) NewClient(name string, sink Sink) *Client {
	c := &Client{
		Name:      name,
		display:   d,
		sink:      sink,
		resources: make(map[uint32]*Resource),
	}
	d.clients = append(d.clients, c)
	return c
}

// Display returns the display the client is connected to.
func (c *Client) Display() *Display {
	return c.display
}

// NewResource creates a resource with the client-chosen id.
func (c *Client) NewResource(iface string, version, id uint32) (*Resource, error) {
	if c.destroyed {
		return nil, ErrDestroyed
	}
	if _, ok := c.resources[id]; ok {
		return nil, fmt.Errorf("%s@%d: %w", iface, id, ErrIDInUse)
	}
	if c.MaxObjects > 0 && len(c.resources) >= c.MaxObjects {
		return nil, fmt.Errorf("%s@%d: %w", iface, id, ErrNoMemory)
	}
	r := &Resource{client: c, id: id, iface: iface, version: version}
	c.resources[id] = r
	c.order = append(c.order, r)
	return r, nil
}

// Resource returns the live resource with the given id.
func (c *Client) Resource(id uint32) *Resource {
	return c.resources[id]
}

// PostNoMemory reports an allocation failure to the client.
func (c *Client) PostNoMemory() {
	c.errors = append(c.errors, ProtocolError{Object: 1, Code: ErrorCodeNoMemory, Message: "no memory"})
}

// PostError reports a protocol error on a resource.
func (c *Client) PostError(r *Resource, code uint32, format string, args ...any) {
	c.errors = append(c.errors, ProtocolError{Object: r.id, Code: code, Message: fmt.Sprintf(format, args...)})
}

// Errors returns the protocol errors posted so far.
func (c *Client) Errors() []ProtocolError {
	return append([]ProtocolError(nil), c.errors...)
}

// OnDestroy registers fn to run when the client disconnects, after all of
// its resources were destroyed.
func (c *Client) OnDestroy(fn func(*Client)) *event.Subscription[*Client] {
	return c.destroy.Add(fn)
}

// Destroyed reports whether the client disconnected.
func (c *Client) Destroyed() bool {
	return c.destroyed
}

// Destroy disconnects the client, destroying its resources newest first.
func (c *Client) Destroy() {
	if c.destroyed {
		return
	}
	for len(c.order) > 0 {
		c.order[len(c.order)-1].Destroy()
	}
	c.destroyed = true
	for i, other := range c.display.clients {
		if other == c {
			c.display.clients = append(c.display.clients[:i:i], c.display.clients[i+1:]...)
			break
		}
	}
	c.destroy.Emit(c)
	c.destroy.Clear()
}

func (c *Client) String() string {
	if c.Name != "" {
		return c.Name
	}
	return "client"
}

// Resource is a protocol object owned by a client.
type Resource struct {
	// Data is the server-side object behind the resource.
	Data any

	client    *Client
	id        uint32
	iface     string
	version   uint32
	destroyed bool
	destroy   event.Signal[*Resource]
}

// Client returns the owning client.
func (r *Resource) Client() *Client {
	return r.client
}

// ID returns the object id.
func (r *Resource) ID() uint32 {
	return r.id
}

// Interface returns the interface name.
func (r *Resource) Interface() string {
	return r.iface
}

// Version returns the bound version.
func (r *Resource) Version() uint32 {
	return r.version
}

// Destroyed reports whether the resource was destroyed.
func (r *Resource) Destroyed() bool {
	return r.destroyed
}

// Send delivers an event to the client.
func (r *Resource) Send(ev Event) error {
	if r.destroyed {
		return fmt.Errorf("%s on %s: %w", ev.Name(), r, ErrDestroyed)
	}
	if r.client.sink != nil {
		r.client.sink.Send(r, ev)
	}
	return nil
}

// OnDestroy registers a destruction observer.
func (r *Resource) OnDestroy(fn func(*Resource)) *event.Subscription[*Resource] {
	return r.destroy.Add(fn)
}

// Destroy destroys the resource. Observers run while the resource is still
// registered with its client, then it is unlinked. Sending from an observer
// fails with ErrDestroyed.
func (r *Resource) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.destroy.Emit(r)
	r.destroy.Clear()

	c := r.client
	delete(c.resources, r.id)
	for i, other := range c.order {
		if other == r {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
}

func (r *Resource) String() string {
	return fmt.Sprintf("%s@%d", r.iface, r.id)
}
