//go:build !linux

package drm

import "github.com/bnema/swc/internal/buffer"

// Device is unavailable on this platform.
type Device struct{}

// Open always fails on this platform.
func Open(path string) (*Device, error) {
	return nil, ErrNotSupported
}

func (d *Device) Close() error {
	return ErrNotSupported
}

func (d *Device) SetCursor(crtc, handle, width, height uint32) error {
	return ErrNotSupported
}

func (d *Device) MoveCursor(crtc uint32, x, y int32) error {
	return ErrNotSupported
}

func (d *Device) SetMaster() error {
	return ErrNotSupported
}

func (d *Device) DropMaster() error {
	return ErrNotSupported
}

func (d *Device) Create(width, height int32, format buffer.Format) (*buffer.Buffer, error) {
	return nil, ErrNotSupported
}

func (d *Device) Import(kind buffer.Kind, obj buffer.Object, width, height int32, format buffer.Format, stride int32) (*buffer.Buffer, error) {
	return nil, ErrNotSupported
}

func (d *Device) Export(b *buffer.Buffer, kind buffer.Kind) (buffer.Object, error) {
	return buffer.Object{}, ErrNotSupported
}
