// Package screen keeps the ordered set of active screens and the hardware
// cursor plane that belongs to each of them.
package screen

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/bnema/swc/internal/cursorplane"
	"github.com/bnema/swc/internal/event"
	"github.com/bnema/swc/internal/logger"
	"github.com/bnema/swc/internal/region"
	"github.com/bnema/swc/internal/view"
	"github.com/charmbracelet/log"
)

// MaxScreens is the number of screens a view mask can describe.
const MaxScreens = 32

var (
	// ErrTooManyScreens is returned when every screen id is in use
	ErrTooManyScreens = errors.New("too many screens")
	// ErrDuplicateScreen is returned when a screen name is already active
	ErrDuplicateScreen = errors.New("screen already exists")
	// ErrInvalidGeometry is returned for empty screen geometry
	ErrInvalidGeometry = errors.New("invalid screen geometry")
)

// Screen represents a physical display
type Screen struct {
	ID   uint8
	Name string
	CRTC uint32

	geometry region.Rect
	plane    *cursorplane.Plane
}

// Mask returns the bit identifying this screen in view masks.
func (s *Screen) Mask() uint32 {
	return 1 << s.ID
}

// Geometry returns the screen rectangle in the global coordinate space.
func (s *Screen) Geometry() region.Rect {
	return s.geometry
}

// Bounds returns the screen's boundaries
func (s *Screen) Bounds() (x1, y1, x2, y2 int32) {
	return s.geometry.X, s.geometry.Y, s.geometry.X2(), s.geometry.Y2()
}

// Contains checks if a point is within this screen
func (s *Screen) Contains(x, y int32) bool {
	return s.geometry.Contains(x, y)
}

// CursorPlane returns the hardware cursor plane, nil when the screen has
// none and the cursor must be composited in software.
func (s *Screen) CursorPlane() *cursorplane.Plane {
	return s.plane
}

func (s *Screen) String() string {
	g := s.geometry
	return fmt.Sprintf("%s(%d) %dx%d+%d+%d", s.Name, s.ID, g.Width, g.Height, g.X, g.Y)
}

// EventType identifies a screen set change.
type EventType int

const (
	// Added is emitted after a screen joined the set.
	Added EventType = iota
	// Removed is emitted after a screen left the set.
	Removed
	// Changed is emitted after a screen's geometry changed.
	Changed
)

// Event describes a change of the screen set.
type Event struct {
	Type   EventType
	Screen *Screen
}

// Manager is the ordered set of active screens.
type Manager struct {
	// Events reports hotplug and geometry changes.
	Events event.Signal[Event]

	screens  []*Screen
	used     uint32
	planes   cursorplane.Config
	hardware bool
	log      *log.Logger
}

// NewManager creates an empty screen set. When hardware is false no cursor
// planes are created and the cursor is always composited in software.
func NewManager(planes cursorplane.Config, hardware bool, l *log.Logger) *Manager {
	if l == nil {
		l = logger.With("screen")
	}
	return &Manager{planes: planes, hardware: hardware, log: l}
}

// Add activates a screen. A new screen whose cursor plane cannot be
// initialized is still added, without a plane.
func (m *Manager) Add(name string, crtc uint32, geometry region.Rect) (*Screen, error) {
	if geometry.Empty() {
		return nil, fmt.Errorf("%s: %w", name, ErrInvalidGeometry)
	}
	if m.ByName(name) != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrDuplicateScreen)
	}
	free := ^m.used
	if free == 0 {
		return nil, ErrTooManyScreens
	}
	id := uint8(bits.TrailingZeros32(free))

	s := &Screen{ID: id, Name: name, CRTC: crtc, geometry: geometry}
	if m.hardware && m.planes.Driver != nil {
		plane, err := cursorplane.New(m.planes, crtc, &s.geometry)
		if err != nil {
			m.log.Warn("Cursor plane not supported, using software cursor", "screen", name, "err", err)
		} else {
			s.plane = plane
		}
	}

	m.used |= s.Mask()
	m.screens = append(m.screens, s)
	m.log.Info("Screen added", "screen", s.String(), "hardware_cursor", s.plane != nil)
	m.Events.Emit(Event{Type: Added, Screen: s})
	return s, nil
}

// Remove deactivates a screen, clearing its hardware cursor.
func (m *Manager) Remove(s *Screen) {
	for i, other := range m.screens {
		if other != s {
			continue
		}
		m.screens = append(m.screens[:i:i], m.screens[i+1:]...)
		m.used &^= s.Mask()
		if s.plane != nil {
			s.plane.Close()
		}
		m.log.Info("Screen removed", "screen", s.String())
		m.Events.Emit(Event{Type: Removed, Screen: s})
		return
	}
}

// SetGeometry moves or resizes a screen.
func (m *Manager) SetGeometry(s *Screen, geometry region.Rect) error {
	if geometry.Empty() {
		return fmt.Errorf("%s: %w", s.Name, ErrInvalidGeometry)
	}
	if s.geometry == geometry {
		return nil
	}
	s.geometry = geometry
	m.Events.Emit(Event{Type: Changed, Screen: s})
	return nil
}

// Close removes every screen.
func (m *Manager) Close() {
	for len(m.screens) > 0 {
		m.Remove(m.screens[len(m.screens)-1])
	}
}

// Screens returns the active screens in order.
func (m *Manager) Screens() []*Screen {
	return append([]*Screen(nil), m.screens...)
}

// Len returns the number of active screens.
func (m *Manager) Len() int {
	return len(m.screens)
}

// Outputs returns the screens as view outputs.
func (m *Manager) Outputs() []view.Output {
	out := make([]view.Output, len(m.screens))
	for i, s := range m.screens {
		out[i] = s
	}
	return out
}

// Region returns the union of all screen geometries.
func (m *Manager) Region() region.Region {
	var r region.Region
	for _, s := range m.screens {
		r.Union(s.geometry)
	}
	return r
}

// At returns the screen containing the given coordinates
func (m *Manager) At(x, y int32) *Screen {
	for _, s := range m.screens {
		if s.Contains(x, y) {
			return s
		}
	}
	return nil
}

// ByName returns the active screen with the given name.
func (m *Manager) ByName(name string) *Screen {
	for _, s := range m.screens {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Primary returns the screen at the origin, falling back to the first one.
func (m *Manager) Primary() *Screen {
	for _, s := range m.screens {
		if s.geometry.X == 0 && s.geometry.Y == 0 {
			return s
		}
	}
	if len(m.screens) > 0 {
		return m.screens[0]
	}
	return nil
}
