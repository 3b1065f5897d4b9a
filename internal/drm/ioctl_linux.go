//go:build linux

package drm

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Request numbers from drm.h and drm_mode.h.
const (
	ioctlSetMaster   = 0x641e
	ioctlDropMaster  = 0x641f
	ioctlModeCursor  = 0xc01c64a3
	ioctlCreateDumb  = 0xc02064b2
	ioctlMapDumb     = 0xc01064b3
	ioctlDestroyDumb = 0xc00464b4

	cursorBO   = 0x01
	cursorMove = 0x02
)

type modeCursor struct {
	Flags  uint32
	CRTC   uint32
	X      int32
	Y      int32
	Width  uint32
	Height uint32
	Handle uint32
}

type createDumb struct {
	Height uint32
	Width  uint32
	BPP    uint32
	Flags  uint32
	Handle uint32
	Pitch  uint32
	Size   uint64
}

type mapDumb struct {
	Handle uint32
	Pad    uint32
	Offset uint64
}

type destroyDumb struct {
	Handle uint32
}

// ioctl issues a request, restarting it when interrupted like drmIoctl.
func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
		switch errno {
		case 0:
			return nil
		case unix.EINTR, unix.EAGAIN:
			continue
		default:
			return errno
		}
	}
}
