package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAllocator(t *testing.T) {
	t.Run("create and release", func(t *testing.T) {
		m := NewMemory()
		b, err := m.Create(64, 64, FormatARGB8888)
		require.NoError(t, err)

		assert.Equal(t, int32(256), b.Stride)
		assert.Len(t, b.Pixels, 64*64*4)
		assert.Equal(t, 1, m.Live())

		b.Reference()
		b.Unreference()
		assert.Equal(t, 1, m.Live())
		b.Unreference()
		assert.Equal(t, 0, m.Live())

		// Extra unreference is harmless
		b.Unreference()
		assert.Equal(t, 0, m.Live())
	})

	t.Run("import copies data", func(t *testing.T) {
		m := NewMemory()
		data := make([]byte, 2*2*4)
		data[0] = 0xff
		b, err := m.Import(KindData, Object{Data: data}, 2, 2, FormatARGB8888, 8)
		require.NoError(t, err)

		data[0] = 0
		assert.Equal(t, byte(0xff), b.Pixels[0])
	})

	t.Run("import rejects short data and drm handles", func(t *testing.T) {
		m := NewMemory()
		_, err := m.Import(KindData, Object{Data: make([]byte, 3)}, 2, 2, FormatARGB8888, 8)
		assert.ErrorIs(t, err, ErrInvalidSize)

		_, err = m.Import(KindDRMHandle, Object{Handle: 1}, 2, 2, FormatARGB8888, 8)
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("export drm handle is unsupported", func(t *testing.T) {
		m := NewMemory()
		b, err := m.Create(4, 4, FormatARGB8888)
		require.NoError(t, err)

		_, err = b.Export(KindDRMHandle)
		assert.ErrorIs(t, err, ErrUnsupported)

		obj, err := b.Export(KindData)
		require.NoError(t, err)
		assert.Len(t, obj.Data, len(b.Pixels))
	})

	t.Run("limit reports exhaustion", func(t *testing.T) {
		m := &Memory{Limit: 1}
		_, err := m.Create(1, 1, FormatARGB8888)
		require.NoError(t, err)
		_, err = m.Create(1, 1, FormatARGB8888)
		assert.ErrorIs(t, err, ErrExhausted)
	})
}

func TestReplace(t *testing.T) {
	m := NewMemory()
	a, _ := m.Create(1, 1, FormatARGB8888)
	var slot *Buffer

	Replace(&slot, a)
	assert.Equal(t, 2, a.Refs())

	Replace(&slot, a)
	assert.Equal(t, 2, a.Refs(), "replacing with the same buffer keeps the count")

	Replace(&slot, nil)
	assert.Equal(t, 1, a.Refs())
	assert.Nil(t, slot)
}
