package server

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/swc/internal/fixed"
	"github.com/bnema/swc/internal/input"
	"github.com/bnema/swc/internal/logger"
)

// ReleaseFile is the trigger file, next to the IPC socket.
const ReleaseFile = "swc-release"

// EmergencyRelease gives control back when a pointer grab or device grab
// goes wrong: a trigger file appearing, or a grab outliving the
// configured idle timeout.
type EmergencyRelease struct {
	server          *Server
	activityTimeout time.Duration
	lastActivity    atomic.Int64
	triggerFile     string
	stopChan        chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
}

// NewEmergencyRelease creates a new emergency release handler
func NewEmergencyRelease(s *Server, timeout time.Duration) *EmergencyRelease {
	er := &EmergencyRelease{
		server:          s,
		activityTimeout: timeout,
		stopChan:        make(chan struct{}),
	}
	if s.config.IPC.Socket != "" {
		er.triggerFile = filepath.Join(filepath.Dir(s.config.IPC.Socket), ReleaseFile)
	}
	er.UpdateActivity()
	return er
}

// Start begins monitoring for emergency release conditions
func (er *EmergencyRelease) Start(ctx context.Context) {
	if er.activityTimeout > 0 {
		er.wg.Add(1)
		go er.monitorActivity(ctx)
	}
	if er.triggerFile != "" {
		er.wg.Add(1)
		go er.monitorFileTrigger(ctx)
	}
	logger.Debug("[EMERGENCY] Emergency release mechanisms activated")
}

// Stop stops all emergency monitoring
func (er *EmergencyRelease) Stop() {
	er.stopOnce.Do(func() {
		close(er.stopChan)
	})
	er.wg.Wait()
}

// UpdateActivity records input activity
func (er *EmergencyRelease) UpdateActivity() {
	er.lastActivity.Store(time.Now().UnixNano())
}

// Idle returns the time since the last input
func (er *EmergencyRelease) Idle() time.Duration {
	return time.Since(time.Unix(0, er.lastActivity.Load()))
}

func (er *EmergencyRelease) monitorActivity(ctx context.Context) {
	defer er.wg.Done()

	interval := min(er.activityTimeout/2, 5*time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if er.Idle() > er.activityTimeout {
				er.post(func() {
					if er.server.seat.Pointer().Grab() == nil {
						return
					}
					logger.Warnf("[EMERGENCY] No input for %v - triggering emergency release", er.activityTimeout)
					er.Release("timeout")
				})
			}
		case <-ctx.Done():
			return
		case <-er.stopChan:
			return
		}
	}
}

func (er *EmergencyRelease) monitorFileTrigger(ctx context.Context) {
	defer er.wg.Done()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := os.Stat(er.triggerFile); err == nil {
				logger.Warn("[EMERGENCY] Release file detected - triggering emergency release")
				os.Remove(er.triggerFile)
				er.post(func() { er.Release("file") })
			}
		case <-ctx.Done():
			return
		case <-er.stopChan:
			return
		}
	}
}

func (er *EmergencyRelease) post(fn func()) {
	if err := er.server.loop.Post(fn); err != nil {
		logger.Debugf("[EMERGENCY] Loop closed: %v", err)
	}
}

// Release drops the pointer grab and the device grab. It must run on the
// loop goroutine.
func (er *EmergencyRelease) Release(reason string) {
	logger.Warnf("[EMERGENCY] Emergency release triggered (reason: %s)", reason)

	er.server.seat.Pointer().SetGrab(nil)
	if src := er.server.input; src != nil {
		src.Ungrab()
	}
	er.UpdateActivity()
}

// activityPointer forwards pointer input and records it as activity
type activityPointer struct {
	input.PointerTarget
	er *EmergencyRelease
}

func (a activityPointer) HandleRelativeMotion(time uint32, dx, dy fixed.Fixed) {
	a.er.UpdateActivity()
	a.PointerTarget.HandleRelativeMotion(time, dx, dy)
}

func (a activityPointer) HandleButton(time, button, state uint32) {
	a.er.UpdateActivity()
	a.PointerTarget.HandleButton(time, button, state)
}
