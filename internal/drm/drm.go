// Package drm programs the display controller: hardware cursor planes, DRM
// master hand-off and dumb buffers the cursor plane can scan out.
package drm

import (
	"errors"
	"fmt"

	"github.com/bnema/swc/internal/buffer"
)

var (
	// ErrNotSupported is returned on platforms without DRM
	ErrNotSupported = errors.New("drm is not supported on this platform")
	// ErrUnknownBuffer is returned when exporting a buffer another allocator created
	ErrUnknownBuffer = errors.New("buffer was not allocated by this device")
)

// Driver is the hardware cursor plane contract.
type Driver interface {
	// SetCursor shows the buffer named by handle on the crtc's cursor plane.
	// A zero handle with zero size hides the cursor.
	SetCursor(crtc, handle, width, height uint32) error
	// MoveCursor places the cursor at crtc-relative coordinates.
	MoveCursor(crtc uint32, x, y int32) error
}

// Master is implemented by devices that can hand display control to another
// session.
type Master interface {
	SetMaster() error
	DropMaster() error
}

// Call is one recorded hardware call.
type Call struct {
	Op     string // "set" or "move"
	CRTC   uint32
	Handle uint32
	Width  uint32
	Height uint32
	X      int32
	Y      int32
}

func (c Call) String() string {
	if c.Op == "move" {
		return fmt.Sprintf("move crtc=%d (%d,%d)", c.CRTC, c.X, c.Y)
	}
	return fmt.Sprintf("set crtc=%d handle=%d %dx%d", c.CRTC, c.Handle, c.Width, c.Height)
}

// Null is a driver and allocator without hardware behind it. Every call
// succeeds unless a failure is injected, and is recorded.
type Null struct {
	Calls []Call
	// SetErr and MoveErr, when non-nil, are returned by the matching call.
	SetErr  error
	MoveErr error
	// MasterErr is returned by SetMaster and DropMaster.
	MasterErr error
	Master    bool

	next    uint32
	handles map[*buffer.Buffer]uint32
}

// NewNull creates a headless driver.
func NewNull() *Null {
	return &Null{Master: true, handles: make(map[*buffer.Buffer]uint32)}
}

// SetCursor records the call.
func (n *Null) SetCursor(crtc, handle, width, height uint32) error {
	n.Calls = append(n.Calls, Call{Op: "set", CRTC: crtc, Handle: handle, Width: width, Height: height})
	return n.SetErr
}

// MoveCursor records the call.
func (n *Null) MoveCursor(crtc uint32, x, y int32) error {
	n.Calls = append(n.Calls, Call{Op: "move", CRTC: crtc, X: x, Y: y})
	return n.MoveErr
}

// SetMaster marks the device as owned.
func (n *Null) SetMaster() error {
	if n.MasterErr != nil {
		return n.MasterErr
	}
	n.Master = true
	return nil
}

// DropMaster marks the device as released.
func (n *Null) DropMaster() error {
	if n.MasterErr != nil {
		return n.MasterErr
	}
	n.Master = false
	return nil
}

// Reset forgets recorded calls.
func (n *Null) Reset() {
	n.Calls = nil
}

// Create allocates a CPU buffer with a fake GEM handle.
func (n *Null) Create(width, height int32, format buffer.Format) (*buffer.Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, buffer.ErrInvalidSize
	}
	stride := width * format.BytesPerPixel()
	return n.track(width, height, format, stride, make([]byte, int(stride)*int(height))), nil
}

// Import copies pixel data into a new buffer.
func (n *Null) Import(kind buffer.Kind, obj buffer.Object, width, height int32, format buffer.Format, stride int32) (*buffer.Buffer, error) {
	if kind != buffer.KindData {
		return nil, fmt.Errorf("import %s: %w", kind, buffer.ErrUnsupported)
	}
	if width <= 0 || height <= 0 || len(obj.Data) < int(stride)*int(height) {
		return nil, buffer.ErrInvalidSize
	}
	pixels := make([]byte, int(stride)*int(height))
	copy(pixels, obj.Data)
	return n.track(width, height, format, stride, pixels), nil
}

// Export returns the fake handle or the pixels.
func (n *Null) Export(b *buffer.Buffer, kind buffer.Kind) (buffer.Object, error) {
	switch kind {
	case buffer.KindData:
		return buffer.Object{Data: b.Pixels}, nil
	case buffer.KindDRMHandle:
		h, ok := n.handles[b]
		if !ok {
			return buffer.Object{}, ErrUnknownBuffer
		}
		return buffer.Object{Handle: h}, nil
	default:
		return buffer.Object{}, buffer.ErrUnsupported
	}
}

// Handle returns the fake handle of a buffer, zero if unknown.
func (n *Null) Handle(b *buffer.Buffer) uint32 {
	return n.handles[b]
}

func (n *Null) track(width, height int32, format buffer.Format, stride int32, pixels []byte) *buffer.Buffer {
	n.next++
	var b *buffer.Buffer
	b = buffer.New(n, width, height, format, stride, pixels, func() { delete(n.handles, b) })
	n.handles[b] = n.next
	return b
}
