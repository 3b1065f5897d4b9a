package screen

import (
	"errors"
	"testing"

	"github.com/bnema/swc/internal/cursorplane"
	"github.com/bnema/swc/internal/drm"
	"github.com/bnema/swc/internal/logger"
	"github.com/bnema/swc/internal/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(dev *drm.Null) *Manager {
	return NewManager(cursorplane.Config{Driver: dev, Log: logger.Discard()}, true, logger.Discard())
}

func TestManager(t *testing.T) {
	t.Run("assigns lowest free ids and creates planes", func(t *testing.T) {
		dev := drm.NewNull()
		m := newManager(dev)

		a, err := m.Add("DP-1", 10, region.Rect{Width: 1920, Height: 1080})
		require.NoError(t, err)
		b, err := m.Add("HDMI-A-1", 11, region.Rect{X: 1920, Width: 1280, Height: 1024})
		require.NoError(t, err)

		assert.Equal(t, uint32(1), a.Mask())
		assert.Equal(t, uint32(2), b.Mask())
		assert.NotNil(t, a.CursorPlane())

		m.Remove(a)
		c, err := m.Add("DP-2", 12, region.Rect{X: -800, Width: 800, Height: 600})
		require.NoError(t, err)
		assert.Equal(t, uint8(0), c.ID, "freed id is reused")
	})

	t.Run("plane failure leaves screen without plane", func(t *testing.T) {
		dev := drm.NewNull()
		dev.SetErr = errors.New("ENXIO")
		m := newManager(dev)

		s, err := m.Add("DP-1", 10, region.Rect{Width: 100, Height: 100})
		require.NoError(t, err)
		assert.Nil(t, s.CursorPlane())
	})

	t.Run("software only manager never creates planes", func(t *testing.T) {
		dev := drm.NewNull()
		m := NewManager(cursorplane.Config{Driver: dev}, false, logger.Discard())
		s, err := m.Add("DP-1", 10, region.Rect{Width: 100, Height: 100})
		require.NoError(t, err)
		assert.Nil(t, s.CursorPlane())
		assert.Empty(t, dev.Calls)
	})

	t.Run("rejects duplicates and empty geometry", func(t *testing.T) {
		m := newManager(drm.NewNull())
		_, err := m.Add("DP-1", 10, region.Rect{Width: 100, Height: 100})
		require.NoError(t, err)

		_, err = m.Add("DP-1", 11, region.Rect{Width: 100, Height: 100})
		assert.ErrorIs(t, err, ErrDuplicateScreen)
		_, err = m.Add("DP-2", 11, region.Rect{})
		assert.ErrorIs(t, err, ErrInvalidGeometry)
	})

	t.Run("removal clears the hardware cursor and emits", func(t *testing.T) {
		dev := drm.NewNull()
		m := newManager(dev)
		s, _ := m.Add("DP-1", 10, region.Rect{Width: 100, Height: 100})

		var events []EventType
		m.Events.Add(func(e Event) { events = append(events, e.Type) })

		dev.Reset()
		m.Remove(s)
		assert.Equal(t, []drm.Call{{Op: "set", CRTC: 10}}, dev.Calls)
		assert.Equal(t, []EventType{Removed}, events)
		assert.Equal(t, 0, m.Len())
	})

	t.Run("region, lookup and primary", func(t *testing.T) {
		m := newManager(drm.NewNull())
		right, _ := m.Add("right", 2, region.Rect{X: 1920, Width: 1920, Height: 1080})
		left, _ := m.Add("left", 1, region.Rect{Width: 1920, Height: 1080})

		assert.Equal(t, left, m.Primary())
		assert.Equal(t, right, m.At(2000, 10))
		assert.Nil(t, m.At(5000, 10))
		assert.Equal(t, region.Rect{Width: 3840, Height: 1080}, m.Region().Extents())
		assert.Len(t, m.Outputs(), 2)
	})

	t.Run("geometry changes are visible through the plane origin", func(t *testing.T) {
		dev := drm.NewNull()
		m := newManager(dev)
		s, _ := m.Add("DP-1", 10, region.Rect{Width: 100, Height: 100})

		require.NoError(t, m.SetGeometry(s, region.Rect{X: 100, Width: 100, Height: 100}))
		dev.Reset()
		require.NoError(t, s.CursorPlane().View().Move(150, 10))
		assert.Equal(t, int32(50), dev.Calls[0].X)
	})
}
