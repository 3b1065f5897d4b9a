// Package buffer defines reference-counted pixel buffers and the allocator
// contract they are created through.
package buffer

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is returned when an allocator cannot handle a handle kind
	ErrUnsupported = errors.New("unsupported handle kind")
	// ErrInvalidSize is returned for non-positive dimensions or short strides
	ErrInvalidSize = errors.New("invalid buffer size")
	// ErrExhausted is returned when the allocator cannot provide more memory
	ErrExhausted = errors.New("buffer allocation failed")
)

// Format is a pixel format.
type Format uint32

const (
	// FormatARGB8888 is 32-bit little endian ARGB, premultiplied alpha.
	FormatARGB8888 Format = iota
	// FormatXRGB8888 is 32-bit little endian RGB with an ignored alpha byte.
	FormatXRGB8888
)

func (f Format) String() string {
	switch f {
	case FormatARGB8888:
		return "argb8888"
	case FormatXRGB8888:
		return "xrgb8888"
	default:
		return fmt.Sprintf("format(%d)", uint32(f))
	}
}

// BytesPerPixel returns the pixel size of the format.
func (f Format) BytesPerPixel() int32 {
	return 4
}

// Kind selects how a buffer is named across an allocator boundary.
type Kind int

const (
	// KindData names a buffer by its CPU-visible pixel bytes.
	KindData Kind = iota
	// KindDRMHandle names a buffer by a GEM handle on the DRM device.
	KindDRMHandle
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindDRMHandle:
		return "drm-handle"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Object is an imported or exported buffer name. Only the field matching
// the Kind it travels with is meaningful.
type Object struct {
	Data   []byte
	Handle uint32
}

// Allocator creates, imports and exports buffers.
type Allocator interface {
	Create(width, height int32, format Format) (*Buffer, error)
	Import(kind Kind, obj Object, width, height int32, format Format, stride int32) (*Buffer, error)
	Export(b *Buffer, kind Kind) (Object, error)
}

// Buffer is a reference-counted pixel buffer shared between its allocator
// and every component holding a reference.
type Buffer struct {
	Width  int32
	Height int32
	Format Format
	Stride int32
	// Pixels is the CPU mapping of the buffer, nil when it cannot be mapped.
	Pixels []byte

	allocator Allocator
	release   func()
	refs      int
}

// New wraps storage created by an allocator. The buffer starts with one
// reference; release runs when the last reference is dropped.
func New(a Allocator, width, height int32, format Format, stride int32, pixels []byte, release func()) *Buffer {
	return &Buffer{
		Width:     width,
		Height:    height,
		Format:    format,
		Stride:    stride,
		Pixels:    pixels,
		allocator: a,
		release:   release,
		refs:      1,
	}
}

// Reference adds a reference and returns the buffer.
func (b *Buffer) Reference() *Buffer {
	if b != nil {
		b.refs++
	}
	return b
}

// Unreference drops a reference, releasing the storage at zero.
func (b *Buffer) Unreference() {
	if b == nil || b.refs == 0 {
		return
	}
	b.refs--
	if b.refs == 0 && b.release != nil {
		b.release()
		b.release = nil
	}
}

// Refs returns the current reference count.
func (b *Buffer) Refs() int {
	return b.refs
}

// Export names the buffer through the allocator that created it.
func (b *Buffer) Export(kind Kind) (Object, error) {
	if b.allocator == nil {
		return Object{}, fmt.Errorf("export %s: %w", kind, ErrUnsupported)
	}
	return b.allocator.Export(b, kind)
}

// Replace swaps the buffer held in *slot for b, referencing b before
// dropping the previous one so swapping a buffer for itself is safe.
func Replace(slot **Buffer, b *Buffer) {
	b.Reference()
	(*slot).Unreference()
	*slot = b
}

func checkSize(width, height int32, format Format, stride int32) error {
	if width <= 0 || height <= 0 || stride < width*format.BytesPerPixel() {
		return fmt.Errorf("%dx%d stride %d: %w", width, height, stride, ErrInvalidSize)
	}
	return nil
}
