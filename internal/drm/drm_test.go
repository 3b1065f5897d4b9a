package drm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/swc/internal/buffer"
)

func TestNullRecordsCalls(t *testing.T) {
	n := NewNull()
	require.NoError(t, n.SetCursor(1, 7, 64, 64))
	require.NoError(t, n.MoveCursor(1, -3, 10))
	require.NoError(t, n.SetCursor(1, 0, 0, 0))

	var got []string
	for _, c := range n.Calls {
		got = append(got, c.String())
	}
	assert.Equal(t, []string{
		"set crtc=1 handle=7 64x64",
		"move crtc=1 (-3,10)",
		"set crtc=1 handle=0 0x0",
	}, got)

	n.Reset()
	assert.Empty(t, n.Calls)
}

func TestNullInjectedFailures(t *testing.T) {
	n := NewNull()
	boom := errors.New("boom")
	n.SetErr = boom
	n.MoveErr = boom

	assert.ErrorIs(t, n.SetCursor(1, 1, 64, 64), boom)
	assert.ErrorIs(t, n.MoveCursor(1, 0, 0), boom)
	assert.Len(t, n.Calls, 2, "failed calls are still recorded")

	n.MasterErr = boom
	assert.ErrorIs(t, n.DropMaster(), boom)
	assert.True(t, n.Master)
}

func TestNullMaster(t *testing.T) {
	n := NewNull()
	assert.True(t, n.Master)
	require.NoError(t, n.DropMaster())
	assert.False(t, n.Master)
	require.NoError(t, n.SetMaster())
	assert.True(t, n.Master)
}

func TestNullBuffers(t *testing.T) {
	t.Run("create hands out distinct handles", func(t *testing.T) {
		n := NewNull()
		a, err := n.Create(64, 64, buffer.FormatARGB8888)
		require.NoError(t, err)
		b, err := n.Create(64, 64, buffer.FormatARGB8888)
		require.NoError(t, err)

		assert.NotZero(t, n.Handle(a))
		assert.NotEqual(t, n.Handle(a), n.Handle(b))
		assert.Len(t, a.Pixels, 64*64*4)

		obj, err := n.Export(a, buffer.KindDRMHandle)
		require.NoError(t, err)
		assert.Equal(t, n.Handle(a), obj.Handle)
	})

	t.Run("release forgets the handle", func(t *testing.T) {
		n := NewNull()
		b, err := n.Create(8, 8, buffer.FormatARGB8888)
		require.NoError(t, err)
		b.Unreference()

		assert.Zero(t, n.Handle(b))
		_, err = n.Export(b, buffer.KindDRMHandle)
		assert.ErrorIs(t, err, ErrUnknownBuffer)
	})

	t.Run("create rejects empty sizes", func(t *testing.T) {
		_, err := NewNull().Create(0, 64, buffer.FormatARGB8888)
		assert.ErrorIs(t, err, buffer.ErrInvalidSize)
	})

	t.Run("import copies data", func(t *testing.T) {
		n := NewNull()
		data := make([]byte, 2*2*4)
		data[0] = 0xff
		b, err := n.Import(buffer.KindData, buffer.Object{Data: data}, 2, 2, buffer.FormatARGB8888, 8)
		require.NoError(t, err)
		data[0] = 0
		assert.Equal(t, byte(0xff), b.Pixels[0])
	})

	t.Run("import rejects short data and other kinds", func(t *testing.T) {
		n := NewNull()
		_, err := n.Import(buffer.KindData, buffer.Object{Data: make([]byte, 4)}, 2, 2, buffer.FormatARGB8888, 8)
		assert.ErrorIs(t, err, buffer.ErrInvalidSize)
		_, err = n.Import(buffer.KindDRMHandle, buffer.Object{Handle: 1}, 2, 2, buffer.FormatARGB8888, 8)
		assert.ErrorIs(t, err, buffer.ErrUnsupported)
	})
}
