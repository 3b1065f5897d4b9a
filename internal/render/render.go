// Package render implements the pixel-copy operations the seat needs to
// draw cursors in software.
package render

import (
	"errors"
	"image"
	"image/color"

	"github.com/bnema/swc/internal/buffer"
	"golang.org/x/image/draw"
)

// ErrNotMapped is returned when a buffer has no CPU mapping
var ErrNotMapped = errors.New("buffer is not mapped")

// image wraps the buffer pixels. ARGB8888 is stored B,G,R,A in memory; the
// operations below treat the first three channels uniformly, so the bytes
// can be handed to the RGBA image type unchanged.
func wrap(b *buffer.Buffer) (*image.RGBA, error) {
	if b == nil || b.Pixels == nil {
		return nil, ErrNotMapped
	}
	return &image.RGBA{
		Pix:    b.Pixels,
		Stride: int(b.Stride),
		Rect:   image.Rect(0, 0, int(b.Width), int(b.Height)),
	}, nil
}

// ARGB converts a 0xAARRGGBB premultiplied value to the in-memory color.
func ARGB(c uint32) color.RGBA {
	return color.RGBA{R: uint8(c), G: uint8(c >> 8), B: uint8(c >> 16), A: uint8(c >> 24)}
}

// Fill sets every pixel of r to c, clipped to the buffer.
func Fill(dst *buffer.Buffer, c uint32, r image.Rectangle) error {
	img, err := wrap(dst)
	if err != nil {
		return err
	}
	draw.Draw(img, r, image.NewUniform(ARGB(c)), image.Point{}, draw.Src)
	return nil
}

// Clear makes the whole buffer transparent.
func Clear(dst *buffer.Buffer) error {
	img, err := wrap(dst)
	if err != nil {
		return err
	}
	clear(img.Pix)
	return nil
}

// Copy replaces the pixels at dp with the whole of src.
func Copy(dst, src *buffer.Buffer, dp image.Point) error {
	return composite(dst, src, dp, draw.Src)
}

// Over blends src onto dst at dp.
func Over(dst, src *buffer.Buffer, dp image.Point) error {
	return composite(dst, src, dp, draw.Over)
}

func composite(dst, src *buffer.Buffer, dp image.Point, op draw.Op) error {
	d, err := wrap(dst)
	if err != nil {
		return err
	}
	s, err := wrap(src)
	if err != nil {
		return err
	}
	draw.Copy(d, dp, s, s.Bounds(), op, nil)
	return nil
}

// PixelAt returns the 0xAARRGGBB value at x, y.
func PixelAt(b *buffer.Buffer, x, y int32) uint32 {
	if b == nil || b.Pixels == nil || x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return 0
	}
	i := int(y)*int(b.Stride) + int(x)*4
	p := b.Pixels[i : i+4]
	return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
}
