package pointer

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/swc/internal/buffer"
	"github.com/bnema/swc/internal/cursor"
	"github.com/bnema/swc/internal/drm"
	"github.com/bnema/swc/internal/fixed"
	"github.com/bnema/swc/internal/region"
	"github.com/bnema/swc/internal/render"
	"github.com/bnema/swc/internal/surface"
)

func clientCursor(t *testing.T, s *surface.Surface, width, height int32, argb uint32) *buffer.Buffer {
	t.Helper()
	b, err := buffer.NewMemory().Create(width, height, buffer.FormatARGB8888)
	require.NoError(t, err)
	require.NoError(t, render.Fill(b, argb, image.Rect(0, 0, int(width), int(height))))
	require.NoError(t, s.Attach(b))
	require.NoError(t, s.Damage(region.Rect{Width: width, Height: height}))
	require.NoError(t, s.Commit())
	b.Unreference()
	return b
}

func TestSetCursorBuiltin(t *testing.T) {
	h := newHarness(t, setup{screens: []region.Rect{left}})
	require.NoError(t, h.pointer.SetCursor(cursor.Crosshair))

	img, _ := cursor.Lookup(cursor.Crosshair)
	hx, hy := h.pointer.Hotspot()
	assert.Equal(t, img.HotspotX, hx)
	assert.Equal(t, img.HotspotY, hy)
	g := h.pointer.CursorView().Geometry()
	assert.Equal(t, region.Rect{X: 50 - hx, Y: 50 - hy, Width: img.Width, Height: img.Height}, g)
	assert.Equal(t, 2, h.pointer.CursorView().Buffer().Refs(), "held by the pointer and the view")
	assert.Equal(t, "crosshair", h.pointer.CursorName())

	assert.ErrorIs(t, h.pointer.SetCursor(cursor.ID(99)), ErrUnknownCursor)
}

func TestSetCursorReleasesPreviousInternalBuffer(t *testing.T) {
	h := newHarness(t, setup{screens: []region.Rect{left}})
	first := h.pointer.CursorView().Buffer()
	require.NoError(t, h.pointer.SetCursor(cursor.Hand))
	assert.Zero(t, first.Refs())
	assert.Zero(t, h.dev.Handle(first), "released buffers are forgotten by the allocator")
}

func TestSetCursorCopiesImage(t *testing.T) {
	h := newHarness(t, setup{screens: []region.Rect{left}})
	require.NoError(t, h.pointer.SetCursor(cursor.LeftPtr))
	assert.Equal(t, uint32(0xff000000), render.PixelAt(h.pointer.CursorBuffer(), 0, 0))
	assert.Zero(t, render.PixelAt(h.pointer.CursorBuffer(), 63, 63))
}

func TestHandleSetCursorRequiresFocus(t *testing.T) {
	h := newHarness(t, setup{screens: []region.Rect{left}})
	c, _, r := h.client(t)
	other, _, _ := h.client(t)
	h.pointer.SetFocus(h.surface(t, other, left))

	s := h.surface(t, c, region.Rect{})
	err := h.pointer.HandleSetCursor(r, 1, s, 0, 0)
	assert.ErrorIs(t, err, ErrNotFocused)
	assert.Nil(t, h.pointer.CursorSurface())
}

func TestHandleSetCursorSurface(t *testing.T) {
	h := newHarness(t, setup{screens: []region.Rect{left}})
	c, _, r := h.client(t)
	h.pointer.SetFocus(h.surface(t, c, left))

	cs := surface.New(mustResource(t, c, 500))
	require.NoError(t, h.pointer.HandleSetCursor(r, 1, cs, 2, 3))
	b := clientCursor(t, cs, 8, 8, 0xff00ff00)

	assert.Same(t, cs, h.pointer.CursorSurface())
	assert.Equal(t, "client", h.pointer.CursorName())
	assert.Same(t, b, h.pointer.CursorView().Buffer())
	assert.Equal(t, uint32(0xff00ff00), render.PixelAt(h.pointer.CursorBuffer(), 7, 7))
	assert.Zero(t, render.PixelAt(h.pointer.CursorBuffer(), 8, 8))
	assert.True(t, cs.Damaged().Empty(), "copying consumes the damage")

	g := h.pointer.CursorView().Geometry()
	assert.Equal(t, region.Rect{X: 48, Y: 47, Width: 8, Height: 8}, g)
}

func TestOversizedCursorSurfaceIsCropped(t *testing.T) {
	h := newHarness(t, setup{hardware: true, screens: []region.Rect{left}})
	c, _, r := h.client(t)
	h.pointer.SetFocus(h.surface(t, c, left))

	cs := surface.New(mustResource(t, c, 500))
	require.NoError(t, h.pointer.HandleSetCursor(r, 1, cs, 0, 0))
	clientCursor(t, cs, 2*CursorSize, 2*CursorSize, 0xffff0000)

	g := h.pointer.CursorView().Geometry()
	assert.Equal(t, int32(CursorSize), g.Width)
	assert.Equal(t, int32(CursorSize), g.Height)
	assert.Equal(t, uint32(0xffff0000), render.PixelAt(h.pointer.CursorBuffer(), CursorSize-1, CursorSize-1))

	plane := h.screens.Primary().CursorPlane()
	assert.Equal(t, g.Width, plane.View().Geometry().Width, "plane stays the size of the cursor buffer")
}

func TestCursorSurfaceDestroyDetachesView(t *testing.T) {
	h := newHarness(t, setup{screens: []region.Rect{left}})
	c, _, r := h.client(t)
	h.pointer.SetFocus(h.surface(t, c, left))

	cs := surface.New(mustResource(t, c, 500))
	require.NoError(t, h.pointer.HandleSetCursor(r, 1, cs, 0, 0))
	b := clientCursor(t, cs, 8, 8, 0xffffffff)

	cs.Destroy()
	assert.Nil(t, h.pointer.CursorView().Buffer())
	assert.Nil(t, h.pointer.CursorSurface())
	assert.Zero(t, b.Refs())
	assert.Zero(t, render.PixelAt(h.pointer.CursorBuffer(), 0, 0))

	h.pointer.HandleRelativeMotion(1, fixed.FromInt(1), 0)
	assert.Nil(t, h.pointer.CursorView().Buffer())
}

func TestReplacingCursorSurfaceDetachesOld(t *testing.T) {
	h := newHarness(t, setup{screens: []region.Rect{left}})
	c, _, r := h.client(t)
	h.pointer.SetFocus(h.surface(t, c, left))

	first := surface.New(mustResource(t, c, 500))
	second := surface.New(mustResource(t, c, 501))
	require.NoError(t, h.pointer.HandleSetCursor(r, 1, first, 0, 0))
	require.NoError(t, h.pointer.HandleSetCursor(r, 2, second, 0, 0))

	assert.Nil(t, first.View())
	assert.Same(t, h.pointer.CursorView(), second.View())

	// Commits on the old surface no longer reach the cursor.
	clientCursor(t, first, 4, 4, 0xffffffff)
	assert.Nil(t, h.pointer.CursorView().Buffer())
}

func TestHandleSetCursorNilRestoresDefault(t *testing.T) {
	h := newHarness(t, setup{screens: []region.Rect{left}})
	c, _, r := h.client(t)
	h.pointer.SetFocus(h.surface(t, c, left))

	cs := surface.New(mustResource(t, c, 500))
	require.NoError(t, h.pointer.HandleSetCursor(r, 1, cs, 4, 4))
	require.NoError(t, h.pointer.HandleSetCursor(r, 2, nil, 0, 0))

	img, _ := cursor.Lookup(cursor.LeftPtr)
	assert.Nil(t, h.pointer.CursorSurface())
	assert.Nil(t, cs.View())
	assert.Equal(t, img.Width, h.pointer.CursorView().Geometry().Width)
	hx, hy := h.pointer.Hotspot()
	assert.Equal(t, img.HotspotX, hx)
	assert.Equal(t, img.HotspotY, hy)
}

func TestCursorFollowsScreens(t *testing.T) {
	adjacent := region.Rect{X: 100, Y: 0, Width: 100, Height: 100}
	h := newHarness(t, setup{hardware: true, screens: []region.Rect{left, adjacent}})
	a, b := h.screens.Screens()[0], h.screens.Screens()[1]
	h.dev.Reset()

	h.pointer.HandleRelativeMotion(1, fixed.FromInt(60), 0)

	assert.Equal(t, b.Mask(), h.pointer.CursorView().Screens())
	assert.Nil(t, a.CursorPlane().View().Buffer())
	assert.Same(t, h.pointer.CursorBuffer(), b.CursorPlane().View().Buffer())
	assert.Contains(t, h.dev.Calls, drm.Call{Op: "move", CRTC: 2, X: 10, Y: 50})
	assert.Contains(t, h.dev.Calls, drm.Call{Op: "set", CRTC: 1})
}

func TestSoftwareFallback(t *testing.T) {
	adjacent := region.Rect{X: 100, Y: 0, Width: 100, Height: 100}

	tests := []struct {
		name     string
		fallback bool
		want     Mode
	}{
		{name: "fallback enabled", fallback: true, want: ModeSoftware},
		{name: "fallback disabled", fallback: false, want: ModeHardware},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, setup{hardware: true, fallback: tt.fallback, screens: []region.Rect{left, adjacent}})
			b := h.screens.Screens()[1]
			require.Equal(t, ModeHardware, h.pointer.Mode(b))

			var changes []Event
			h.pointer.Events.Add(func(ev Event) {
				if ev.Type == CursorModeChanged {
					changes = append(changes, ev)
				}
			})

			h.dev.SetErr = errors.New("EINVAL")
			h.pointer.HandleRelativeMotion(1, fixed.FromInt(60), 0)

			assert.Equal(t, tt.want, h.pointer.Mode(b))
			assert.False(t, b.CursorPlane().OK())
			if tt.fallback {
				assert.Contains(t, changes, Event{Type: CursorModeChanged, Screen: b, Mode: ModeSoftware})
				assert.NotZero(t, h.pointer.SoftwareScreens()&b.Mask())
			} else {
				assert.Empty(t, changes)
			}

			// The plane recovers on the next successful programming.
			h.dev.SetErr = nil
			h.pointer.HandleRelativeMotion(2, fixed.FromInt(-60), 0)
			h.pointer.HandleRelativeMotion(3, fixed.FromInt(60), 0)
			assert.Equal(t, ModeHardware, h.pointer.Mode(b))
		})
	}
}

func TestSoftwareFallbackHidesHardwareCursor(t *testing.T) {
	screen := region.Rect{Width: 1000, Height: 1000}
	h := newHarness(t, setup{hardware: true, fallback: true, screens: []region.Rect{screen}})
	s := h.screens.Primary()
	plane := s.CursorPlane()
	h.dev.Reset()

	h.dev.MoveErr = errors.New("EBUSY")
	h.pointer.HandleRelativeMotion(1, fixed.FromInt(10), 0)

	require.Equal(t, ModeSoftware, h.pointer.Mode(s))
	require.NotEmpty(t, h.dev.Calls)
	assert.Equal(t, drm.Call{Op: "set", CRTC: 1}, h.dev.Calls[len(h.dev.Calls)-1], "plane is cleared")
	assert.False(t, plane.OK(), "hiding does not change plane health")
	assert.Same(t, h.pointer.CursorBuffer(), plane.View().Buffer())

	// Further motion keeps trying the plane without showing the cursor.
	h.dev.Reset()
	h.pointer.HandleRelativeMotion(2, fixed.FromInt(10), 0)
	for _, c := range h.dev.Calls {
		assert.Equal(t, "move", c.Op)
	}

	h.dev.MoveErr = nil
	h.dev.Reset()
	h.pointer.HandleRelativeMotion(3, fixed.FromInt(10), 0)

	assert.Equal(t, ModeHardware, h.pointer.Mode(s))
	assert.True(t, plane.OK())
	assert.Equal(t, drm.Call{
		Op:     "set",
		CRTC:   1,
		Handle: h.dev.Handle(h.pointer.CursorBuffer()),
		Width:  CursorSize,
		Height: CursorSize,
	}, h.dev.Calls[len(h.dev.Calls)-1], "cursor buffer is shown again")
}

func TestScreenWithoutPlane(t *testing.T) {
	tests := []struct {
		name     string
		fallback bool
		want     Mode
	}{
		{name: "software", fallback: true, want: ModeSoftware},
		{name: "none", fallback: false, want: ModeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, setup{fallback: tt.fallback, screens: []region.Rect{left}})
			assert.Equal(t, tt.want, h.pointer.Mode(h.screens.Primary()))
		})
	}
}

func TestCloseHidesHardwareCursor(t *testing.T) {
	h := newHarness(t, setup{hardware: true, screens: []region.Rect{left}})
	cursorBuffer := h.pointer.CursorBuffer()
	h.dev.Reset()

	h.pointer.Close()
	assert.Equal(t, []drm.Call{{Op: "set", CRTC: 1}}, h.dev.Calls)
	assert.Zero(t, cursorBuffer.Refs())
	h.pointer.Close()
}
