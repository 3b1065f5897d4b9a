package cursor

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		want    ID
		wantErr bool
	}{
		{name: "left_ptr", want: LeftPtr},
		{name: "default", want: LeftPtr},
		{name: "", want: LeftPtr},
		{name: "Hand", want: Hand},
		{name: "crosshair", want: Crosshair},
		{name: "watch", want: Watch},
		{name: "spinner", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseID(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImagesFitCursorBuffer(t *testing.T) {
	for _, id := range All {
		t.Run(id.String(), func(t *testing.T) {
			img, ok := Lookup(id)
			require.True(t, ok)
			assert.LessOrEqual(t, img.Width, int32(64))
			assert.LessOrEqual(t, img.Height, int32(64))
			assert.Len(t, img.Pixels, int(img.Stride()*img.Height))
			assert.Less(t, img.HotspotX, img.Width)
			assert.Less(t, img.HotspotY, img.Height)
		})
	}
}

func TestLeftPtrHotspotIsOpaque(t *testing.T) {
	img, ok := Lookup(LeftPtr)
	require.True(t, ok)
	off := (img.HotspotY*img.Width + img.HotspotX) * 4
	assert.Equal(t, uint32(outline), binary.LittleEndian.Uint32(img.Pixels[off:]))
}

func TestLookupUnknown(t *testing.T) {
	_, ok := Lookup(ID(99))
	assert.False(t, ok)
	assert.Equal(t, "cursor(99)", ID(99).String())
}

func TestAllMatchesNames(t *testing.T) {
	assert.Len(t, All, len(names))
	for _, id := range All {
		parsed, err := ParseID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	}
}
