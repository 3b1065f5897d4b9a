// Package server runs a seat on real or headless hardware
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bnema/swc/internal/buffer"
	"github.com/bnema/swc/internal/compositor"
	"github.com/bnema/swc/internal/config"
	"github.com/bnema/swc/internal/core"
	"github.com/bnema/swc/internal/cursor"
	"github.com/bnema/swc/internal/cursorplane"
	"github.com/bnema/swc/internal/drm"
	"github.com/bnema/swc/internal/input"
	"github.com/bnema/swc/internal/ipc"
	"github.com/bnema/swc/internal/launch"
	"github.com/bnema/swc/internal/logger"
	"github.com/bnema/swc/internal/loop"
	"github.com/bnema/swc/internal/protocol"
	"github.com/bnema/swc/internal/screen"
	"github.com/bnema/swc/internal/seat"
)

// CallTimeout bounds how long an IPC request waits for the loop.
const CallTimeout = 2 * time.Second

// ErrLoopBusy is returned when the loop did not answer in time
var ErrLoopBusy = errors.New("event loop did not answer")

// Server owns one seat and everything it runs on
type Server struct {
	config *config.Config
	log    *log.Logger

	loop        *loop.Loop
	device      *drm.Device
	headless    *drm.Null
	display     *protocol.Display
	session     *launch.Session
	screens     *screen.Manager
	seat        *seat.Seat
	compositor  *compositor.Compositor
	cursorLayer *compositor.CursorLayer

	ipc       *ipc.SocketServer
	input     *input.Source
	emergency *EmergencyRelease

	wg sync.WaitGroup
}

// New builds the seat described by cfg. Nothing runs until Run.
func New(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config:  cfg,
		log:     logger.With("server"),
		loop:    loop.New(),
		display: protocol.NewDisplay(),
	}

	var (
		driver    drm.Driver
		allocator buffer.Allocator
		master    drm.Master
	)
	if cfg.DRM.Headless {
		s.headless = drm.NewNull()
		driver, allocator, master = s.headless, s.headless, s.headless
		s.log.Info("Running headless")
	} else {
		dev, err := drm.Open(cfg.DRM.Device)
		if err != nil {
			return nil, fmt.Errorf("failed to open DRM device: %w", err)
		}
		s.device = dev
		driver, allocator, master = dev, dev, dev
	}

	s.session = launch.NewSession(master, logger.With("session"))
	s.screens = screen.NewManager(cursorplane.Config{
		Driver:  driver,
		Session: s.session,
		Log:     logger.With("cursorplane"),
	}, cfg.Cursor.Hardware, logger.With("screen"))

	for _, sc := range cfg.Screens {
		if _, err := s.screens.Add(sc.Name, sc.CRTC, sc.Rect()); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to add screen: %w", err)
		}
	}

	defaultCursor, err := cursor.ParseID(cfg.Cursor.Default)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: cursor.default: %w", config.ErrInvalid, err)
	}

	st, err := seat.New(cfg.Seat.Name, core.Context{
		Loop:             s.loop,
		Screens:          s.screens,
		Allocator:        allocator,
		Display:          s.display,
		Session:          s.session,
		Log:              logger.Logger,
		DefaultCursor:    defaultCursor,
		SoftwareFallback: cfg.Cursor.SoftwareFallback,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create seat: %w", err)
	}
	s.seat = st

	s.compositor = compositor.New(s.screens, logger.With("compositor"))
	s.cursorLayer = compositor.NewCursorLayer(st.Pointer())
	s.compositor.SetCursorLayer(s.cursorLayer)

	s.emergency = NewEmergencyRelease(s, cfg.Input.GrabTimeout)
	return s, nil
}

// Loop returns the event loop
func (s *Server) Loop() *loop.Loop {
	return s.loop
}

// Seat returns the seat
func (s *Server) Seat() *seat.Seat {
	return s.seat
}

// Display returns the client registry
func (s *Server) Display() *protocol.Display {
	return s.display
}

// Screens returns the screen set
func (s *Server) Screens() *screen.Manager {
	return s.screens
}

// Session returns the privilege session
func (s *Server) Session() *launch.Session {
	return s.session
}

// Compositor returns the software compositor
func (s *Server) Compositor() *compositor.Compositor {
	return s.compositor
}

// Allocator returns the buffer allocator backing the seat
func (s *Server) Allocator() buffer.Allocator {
	if s.headless != nil {
		return s.headless
	}
	return s.device
}

// Headless returns the headless driver, or nil on real hardware
func (s *Server) Headless() *drm.Null {
	return s.headless
}

// Run starts IPC, input and VT handling, then dispatches the loop until
// ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.config.IPC.Socket != "" {
		srv, err := ipc.NewSocketServer(s.config.IPC.Socket, s)
		if err != nil {
			return err
		}
		if err := srv.Start(); err != nil {
			return fmt.Errorf("failed to start IPC: %w", err)
		}
		s.ipc = srv
		defer srv.Stop()
	}

	if !s.config.DRM.Headless || len(s.config.Input.Devices) > 0 {
		src := input.NewSource(s.config.Input.Devices, s.config.Input.Grab, s.loop,
			activityPointer{s.seat.Pointer(), s.emergency}, s.seat.Keyboard(), logger.With("input"))
		if err := src.Start(ctx); err != nil {
			s.log.Warn("Input unavailable", "err", err)
		} else {
			s.input = src
			defer src.Stop()
		}
	}

	if s.config.Session.VTSwitching {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.session.WatchVT(ctx, s.config.Session.TTY, s.loop.Post); err != nil {
				s.log.Error("VT switching disabled", "err", err)
			}
		}()
	}

	if s.config.Session.Logind {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.session.WatchLogind(ctx, s.loop.Post); err != nil {
				s.log.Error("logind session tracking disabled", "err", err)
			}
		}()
	}

	s.emergency.Start(ctx)
	defer s.emergency.Stop()

	s.log.Info("Seat running", "seat", s.seat.Name, "screens", s.screens.Len())
	err := s.loop.Run(ctx)
	cancel()
	s.wg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// call runs fn on the loop and waits for its result
func (s *Server) call(fn func() (*ipc.Message, error)) (*ipc.Message, error) {
	type result struct {
		msg *ipc.Message
		err error
	}
	done := make(chan result, 1)
	err := s.loop.Post(func() {
		msg, err := fn()
		done <- result{msg, err}
	})
	if err != nil {
		return nil, err
	}

	select {
	case r := <-done:
		return r.msg, r.err
	case <-time.After(CallTimeout):
		return nil, ErrLoopBusy
	}
}

// Close tears the seat down. It must not race with Run.
func (s *Server) Close() {
	if s.cursorLayer != nil {
		s.cursorLayer.Close()
	}
	if s.seat != nil {
		s.seat.Close()
	}
	if s.screens != nil {
		s.screens.Close()
	}
	if s.device != nil {
		if err := s.device.Close(); err != nil {
			s.log.Warn("Failed to close DRM device", "err", err)
		}
	}
	s.loop.Close()
}
