//go:build linux

package launch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"unsafe"

	"golang.org/x/sys/unix"
)

// From linux/vt.h.
const (
	vtSetMode    = 0x5602
	vtRelDisp    = 0x5605
	vtProcess    = 0x01
	vtAuto       = 0x00
	vtAckAcquire = 0x02
)

type vtMode struct {
	Mode   int8
	Waitv  int8
	Relsig int16
	Acqsig int16
	Frsig  int16
}

// WatchVT puts the terminal in process-controlled switching mode and turns
// release/acquire requests into Deactivate/Activate calls. Calls are handed
// to post so they run on the event loop. It returns when ctx is done,
// restoring automatic switching.
func (s *Session) WatchVT(ctx context.Context, tty string, post func(func()) error) error {
	f, err := os.OpenFile(tty, os.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("failed to open tty %s: %w", tty, err)
	}
	defer f.Close()
	fd := int(f.Fd())

	mode := vtMode{Mode: vtProcess, Relsig: int16(unix.SIGUSR1), Acqsig: int16(unix.SIGUSR2)}
	if err := vtSetModeIoctl(fd, &mode); err != nil {
		return fmt.Errorf("failed to set vt mode: %w", err)
	}
	defer func() {
		auto := vtMode{Mode: vtAuto}
		if err := vtSetModeIoctl(fd, &auto); err != nil {
			s.log.Error("Could not restore vt mode", "tty", tty, "err", err)
		}
	}()

	signals := make(chan os.Signal, 4)
	signal.Notify(signals, unix.SIGUSR1, unix.SIGUSR2)
	defer signal.Stop(signals)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-signals:
			switch sig {
			case unix.SIGUSR1:
				err = post(func() {
					s.releaseVT(func() error { return vtIoctl(fd, vtRelDisp, 1) })
				})
			case unix.SIGUSR2:
				err = post(func() {
					s.acquireVT(func() error { return vtIoctl(fd, vtRelDisp, vtAckAcquire) })
				})
			}
			if err != nil {
				return err
			}
		}
	}
}

func vtSetModeIoctl(fd int, mode *vtMode) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), vtSetMode, uintptr(unsafe.Pointer(mode)))
	if errno != 0 {
		return errno
	}
	return nil
}

func vtIoctl(fd int, req uintptr, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}
