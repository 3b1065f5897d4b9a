package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRect(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 100, Height: 50}

	tests := []struct {
		name     string
		x, y     int32
		expected bool
	}{
		{"top left corner", 10, 20, true},
		{"inside", 50, 40, true},
		{"right edge is exclusive", 110, 40, false},
		{"bottom edge is exclusive", 50, 70, false},
		{"last pixel", 109, 69, true},
		{"left of rect", 9, 40, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Contains(tt.x, tt.y))
		})
	}

	t.Run("clamp uses last covered pixel", func(t *testing.T) {
		x, y := r.Clamp(500, -5)
		assert.Equal(t, int32(109), x)
		assert.Equal(t, int32(20), y)
	})

	t.Run("zero size never intersects", func(t *testing.T) {
		assert.False(t, Rect{X: 20, Y: 30}.Intersects(r))
		assert.True(t, Rect{X: 100, Y: 60, Width: 20, Height: 20}.Intersects(r))
		assert.False(t, Rect{X: 110, Y: 20, Width: 20, Height: 20}.Intersects(r))
	})
}

func TestRegion(t *testing.T) {
	r1 := Rect{X: 0, Y: 0, Width: 100, Height: 100}
	r2 := Rect{X: 200, Y: 0, Width: 100, Height: 100}
	reg := New(r1, r2, Rect{})

	assert.Len(t, reg.Rects(), 2)
	assert.True(t, reg.Contains(250, 50))
	assert.False(t, reg.Contains(150, 50))

	box, ok := reg.BoxAt(50, 50)
	assert.True(t, ok)
	assert.Equal(t, r1, box)

	near, ok := reg.Nearest(180, 50)
	assert.True(t, ok)
	assert.Equal(t, r2, near)

	assert.Equal(t, Rect{X: 0, Y: 0, Width: 300, Height: 100}, reg.Extents())

	cp := reg.Copy()
	cp.Union(Rect{X: 0, Y: 100, Width: 10, Height: 10})
	assert.Len(t, reg.Rects(), 2, "copy must not alias")

	_, ok = Region{}.Nearest(0, 0)
	assert.False(t, ok)
}
