package input

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	evdev "github.com/gvalkov/golang-evdev"
)

// DeviceGlob matches every event device node.
const DeviceGlob = "/dev/input/event*"

// ErrNoDevices is returned when no usable device could be opened
var ErrNoDevices = errors.New("no input devices")

// Poster hands work to the event loop. PostContext returns once ctx is done
// even if the loop is no longer draining its queue.
type Poster interface {
	PostContext(ctx context.Context, fn func()) error
}

// Source reads evdev devices and dispatches their actions on the loop
type Source struct {
	mu       sync.Mutex
	paths    []string
	grab     bool
	loop     Poster
	pointer  PointerTarget
	keyboard KeyboardTarget
	log      *log.Logger

	devices []*evdev.InputDevice
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSource creates a source for the given device paths. An empty list
// selects every pointer and keyboard device under /dev/input.
func NewSource(paths []string, grab bool, loop Poster, p PointerTarget, k KeyboardTarget, l *log.Logger) *Source {
	return &Source{
		paths:    paths,
		grab:     grab,
		loop:     loop,
		pointer:  p,
		keyboard: k,
		log:      l,
	}
}

// Start opens the devices and starts one reader per device
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return fmt.Errorf("already started")
	}

	devices, err := s.open()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return ErrNoDevices
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.devices = devices

	for _, dev := range devices {
		if s.grab {
			if err := dev.Grab(); err != nil {
				s.log.Warnf("Failed to grab %s: %v", dev.Fn, err)
			}
		}
		s.wg.Add(1)
		go s.read(ctx, dev)
		s.log.Infof("Added input device: %s (%s)", dev.Name, dev.Fn)
	}

	return nil
}

func (s *Source) open() ([]*evdev.InputDevice, error) {
	if len(s.paths) > 0 {
		var devices []*evdev.InputDevice
		for _, path := range s.paths {
			dev, err := evdev.Open(path)
			if err != nil {
				closeAll(devices)
				return nil, fmt.Errorf("failed to open input device %s: %w", path, err)
			}
			devices = append(devices, dev)
		}
		return devices, nil
	}

	matches, err := filepath.Glob(DeviceGlob)
	if err != nil {
		return nil, fmt.Errorf("failed to list input devices: %w", err)
	}

	var devices []*evdev.InputDevice
	for _, path := range matches {
		dev, err := evdev.Open(path)
		if err != nil {
			s.log.Debugf("Cannot open device %s: %v", path, err)
			continue
		}
		if !Relevant(dev.Name, dev.Capabilities) {
			s.log.Debugf("Device %s not suitable for the seat", path)
			dev.File.Close()
			continue
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

func (s *Source) read(ctx context.Context, dev *evdev.InputDevice) {
	defer s.wg.Done()

	var dec Decoder
	for {
		events, err := dev.Read()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if errors.Is(err, os.ErrClosed) {
				return
			}
			if !strings.Contains(err.Error(), "resource temporarily unavailable") {
				s.log.Errorf("Error reading %s: %v", dev.Fn, err)
				return
			}
			time.Sleep(5 * time.Millisecond)
			continue
		}

		if err := s.post(ctx, dec.Feed(events)); err != nil {
			return
		}
	}
}

func (s *Source) post(ctx context.Context, actions []Action) error {
	if len(actions) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.loop.PostContext(ctx, func() { Dispatch(actions, s.pointer, s.keyboard) })
}

// Ungrab releases exclusive access so other readers see the devices again
func (s *Source) Ungrab() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.grab {
		return
	}
	for _, dev := range s.devices {
		if err := dev.Release(); err != nil {
			s.log.Warnf("Failed to release %s: %v", dev.Fn, err)
		}
	}
	s.grab = false
	s.log.Info("Released input devices")
}

// Devices returns the names of the open devices
func (s *Source) Devices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.devices))
	for _, dev := range s.devices {
		names = append(names, dev.Fn)
	}
	return names
}

// Stop releases and closes every device and waits for the readers
func (s *Source) Stop() {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.cancel = nil
	for _, dev := range s.devices {
		if s.grab {
			dev.Release()
		}
	}
	closeAll(s.devices)
	s.devices = nil
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("Input source stopped")
}

func closeAll(devices []*evdev.InputDevice) {
	for _, dev := range devices {
		dev.File.Close()
	}
}

var excludePatterns = []string{
	"virtual console",
	"system console",
	"pc speaker",
	"video bus",
	"power button",
	"sleep button",
	"lid switch",
}

// Relevant reports whether a device with these capabilities drives a seat:
// relative pointer axes, mouse buttons or letter keys.
func Relevant(name string, capabilities map[evdev.CapabilityType][]evdev.CapabilityCode) bool {
	lower := strings.ToLower(name)
	for _, pattern := range excludePatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}

	for capType, codes := range capabilities {
		switch capType.Type {
		case evdev.EV_KEY:
			for _, c := range codes {
				if c.Code >= evdev.BTN_LEFT && c.Code <= evdev.BTN_TASK {
					return true
				}
				if c.Code >= evdev.KEY_Q && c.Code <= evdev.KEY_P {
					return true
				}
			}
		case evdev.EV_REL:
			for _, c := range codes {
				if c.Code == evdev.REL_X || c.Code == evdev.REL_Y {
					return true
				}
			}
		}
	}
	return false
}
