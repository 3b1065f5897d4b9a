// Package cursor holds the built-in cursor images used when a client has
// not set its own cursor surface.
package cursor

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ID names a built-in cursor.
type ID int

const (
	LeftPtr ID = iota
	Hand
	Text
	Crosshair
	Watch
)

// All lists the built-in cursors in ID order.
var All = []ID{LeftPtr, Hand, Text, Crosshair, Watch}

var names = map[ID]string{
	LeftPtr:   "left_ptr",
	Hand:      "hand",
	Text:      "text",
	Crosshair: "crosshair",
	Watch:     "watch",
}

func (id ID) String() string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("cursor(%d)", int(id))
}

// ParseID returns the cursor with the given name. "default" and "arrow" are
// accepted for LeftPtr.
func ParseID(name string) (ID, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default", "arrow":
		return LeftPtr, nil
	}
	for id, n := range names {
		if strings.EqualFold(n, name) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown cursor %q", name)
}

// Image is an ARGB8888 cursor image.
type Image struct {
	Width, Height      int32
	HotspotX, HotspotY int32
	// Pixels holds little-endian ARGB8888 words, Width*4 bytes per row.
	Pixels []byte
}

// Stride returns the row length in bytes.
func (img *Image) Stride() int32 {
	return img.Width * 4
}

// Lookup returns the image of a built-in cursor.
func Lookup(id ID) (*Image, bool) {
	img, ok := images[id]
	return img, ok
}

const (
	outline = 0xff000000
	fill    = 0xffffffff
)

// bitmap builds an image from rows where '#' is outline, '.' is fill and
// anything else is transparent.
func bitmap(hx, hy int32, rows ...string) *Image {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	img := &Image{
		Width:    int32(width),
		Height:   int32(len(rows)),
		HotspotX: hx,
		HotspotY: hy,
		Pixels:   make([]byte, width*len(rows)*4),
	}
	for y, row := range rows {
		for x, c := range row {
			var px uint32
			switch c {
			case '#':
				px = outline
			case '.':
				px = fill
			default:
				continue
			}
			binary.LittleEndian.PutUint32(img.Pixels[(y*width+x)*4:], px)
		}
	}
	return img
}

var images = map[ID]*Image{
	LeftPtr: bitmap(0, 0,
		"#",
		"##",
		"#.#",
		"#..#",
		"#...#",
		"#....#",
		"#.....#",
		"#......#",
		"#.......#",
		"#........#",
		"#.........#",
		"#......####",
		"#...#..#",
		"#..##..#",
		"#.#  #..#",
		"##   #..#",
		"#     #..#",
		"      #..#",
		"       ##",
	),
	Hand: bitmap(5, 0,
		"    ##",
		"   #..#",
		"   #..#",
		"   #..#",
		"   #..###",
		"   #..#..###",
		"   #..#..#..##",
		"## #..#..#..#.#",
		"#.##........#.#",
		"#..#..........#",
		" #............#",
		"  #...........#",
		"  #..........#",
		"   #.........#",
		"   #........#",
		"    #.......#",
		"    #########",
	),
	Text: bitmap(3, 8,
		"### ###",
		"   #",
		"   #",
		"   #",
		"   #",
		"   #",
		"   #",
		"   #",
		"   #",
		"   #",
		"   #",
		"   #",
		"   #",
		"   #",
		"   #",
		"   #",
		"### ###",
	),
	Crosshair: bitmap(7, 7,
		"       #",
		"       #",
		"       #",
		"       #",
		"       #",
		"       #",
		"",
		"######   ######",
		"",
		"       #",
		"       #",
		"       #",
		"       #",
		"       #",
		"       #",
	),
	Watch: bitmap(7, 7,
		"    #######",
		"    #######",
		"   #.......#",
		"  #.........#",
		" #.....#.....#",
		"#......#......#",
		"#......#......#",
		"#......####...#",
		"#.............#",
		"#.............#",
		" #...........#",
		"  #.........#",
		"   #.......#",
		"    #######",
		"    #######",
	),
}
