//go:build linux

package drm

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/bnema/swc/internal/buffer"
	"golang.org/x/sys/unix"
)

// Device is an open DRM node.
type Device struct {
	file *os.File
	fd   int

	dumb map[*buffer.Buffer]uint32
}

// Open opens a DRM device node such as /dev/dri/card0.
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open drm device %s: %w", path, err)
	}
	return &Device{
		file: f,
		fd:   int(f.Fd()),
		dumb: make(map[*buffer.Buffer]uint32),
	}, nil
}

// Close closes the device node.
func (d *Device) Close() error {
	return d.file.Close()
}

// SetCursor programs the cursor plane with DRM_MODE_CURSOR_BO.
func (d *Device) SetCursor(crtc, handle, width, height uint32) error {
	arg := modeCursor{Flags: cursorBO, CRTC: crtc, Handle: handle, Width: width, Height: height}
	if err := ioctl(d.fd, ioctlModeCursor, unsafe.Pointer(&arg)); err != nil {
		return fmt.Errorf("set cursor on crtc %d: %w", crtc, err)
	}
	return nil
}

// MoveCursor moves the cursor plane with DRM_MODE_CURSOR_MOVE.
func (d *Device) MoveCursor(crtc uint32, x, y int32) error {
	arg := modeCursor{Flags: cursorMove, CRTC: crtc, X: x, Y: y}
	if err := ioctl(d.fd, ioctlModeCursor, unsafe.Pointer(&arg)); err != nil {
		return fmt.Errorf("move cursor on crtc %d: %w", crtc, err)
	}
	return nil
}

// SetMaster acquires display control.
func (d *Device) SetMaster() error {
	if err := ioctl(d.fd, ioctlSetMaster, nil); err != nil {
		return fmt.Errorf("set drm master: %w", err)
	}
	return nil
}

// DropMaster releases display control.
func (d *Device) DropMaster() error {
	if err := ioctl(d.fd, ioctlDropMaster, nil); err != nil {
		return fmt.Errorf("drop drm master: %w", err)
	}
	return nil
}

// Create allocates a mapped dumb buffer.
func (d *Device) Create(width, height int32, format buffer.Format) (*buffer.Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, buffer.ErrInvalidSize
	}

	create := createDumb{Width: uint32(width), Height: uint32(height), BPP: uint32(format.BytesPerPixel() * 8)}
	if err := ioctl(d.fd, ioctlCreateDumb, unsafe.Pointer(&create)); err != nil {
		return nil, fmt.Errorf("create dumb buffer: %w: %w", buffer.ErrExhausted, err)
	}

	mp := mapDumb{Handle: create.Handle}
	if err := ioctl(d.fd, ioctlMapDumb, unsafe.Pointer(&mp)); err != nil {
		d.destroyDumb(create.Handle)
		return nil, fmt.Errorf("map dumb buffer: %w", err)
	}

	pixels, err := unix.Mmap(d.fd, int64(mp.Offset), int(create.Size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		d.destroyDumb(create.Handle)
		return nil, fmt.Errorf("mmap dumb buffer: %w: %w", buffer.ErrExhausted, err)
	}

	handle := create.Handle
	var b *buffer.Buffer
	b = buffer.New(d, width, height, format, int32(create.Pitch), pixels, func() {
		delete(d.dumb, b)
		_ = unix.Munmap(pixels)
		d.destroyDumb(handle)
	})
	d.dumb[b] = handle
	return b, nil
}

// Import copies client pixel data into a new dumb buffer so it can be
// scanned out.
func (d *Device) Import(kind buffer.Kind, obj buffer.Object, width, height int32, format buffer.Format, stride int32) (*buffer.Buffer, error) {
	if kind != buffer.KindData {
		return nil, fmt.Errorf("import %s: %w", kind, buffer.ErrUnsupported)
	}
	if len(obj.Data) < int(stride)*int(height) {
		return nil, buffer.ErrInvalidSize
	}

	b, err := d.Create(width, height, format)
	if err != nil {
		return nil, err
	}
	row := int(width * format.BytesPerPixel())
	for y := 0; y < int(height); y++ {
		copy(b.Pixels[y*int(b.Stride):y*int(b.Stride)+row], obj.Data[y*int(stride):])
	}
	return b, nil
}

// Export returns the GEM handle or the mapping.
func (d *Device) Export(b *buffer.Buffer, kind buffer.Kind) (buffer.Object, error) {
	switch kind {
	case buffer.KindData:
		return buffer.Object{Data: b.Pixels}, nil
	case buffer.KindDRMHandle:
		h, ok := d.dumb[b]
		if !ok {
			return buffer.Object{}, ErrUnknownBuffer
		}
		return buffer.Object{Handle: h}, nil
	default:
		return buffer.Object{}, buffer.ErrUnsupported
	}
}

func (d *Device) destroyDumb(handle uint32) {
	arg := destroyDumb{Handle: handle}
	_ = ioctl(d.fd, ioctlDestroyDumb, unsafe.Pointer(&arg))
}
