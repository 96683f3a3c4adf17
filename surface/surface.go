// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync/atomic"
)

// BytesPerPixel is the size of one RGBA pixel.
const BytesPerPixel = 4

// ErrDisposed is returned when a destroyed surface is used.
var ErrDisposed = errors.New("surface: surface is disposed")

var nextID atomic.Uint64

// Surface is a rectangular RGBA pixel buffer.
type Surface struct {
	id       uint64
	width    int
	height   int
	data     []uint8 // RGBA format, 4 bytes per pixel
	disposed bool
}

// New creates a new surface with the given dimensions.
// Width and height must be positive.
func New(width, height int) *Surface {
	mustPositive(width, height)
	return &Surface{
		id:     nextID.Add(1),
		width:  width,
		height: height,
		data:   make([]uint8, width*height*BytesPerPixel),
	}
}

func mustPositive(width, height int) {
	if width <= 0 || height <= 0 {
		panic("surface: non-positive dimensions")
	}
}

// ID returns the surface identity. It never changes, including across
// resizes and pool round trips.
func (s *Surface) ID() uint64 {
	return s.id
}

// Width returns the width of the surface.
func (s *Surface) Width() int {
	return s.width
}

// Height returns the height of the surface.
func (s *Surface) Height() int {
	return s.height
}

// Bytes returns the estimated memory held by the pixels.
func (s *Surface) Bytes() int64 {
	return int64(s.width) * int64(s.height) * BytesPerPixel
}

// Disposed reports whether Destroy has been called.
func (s *Surface) Disposed() bool {
	return s.disposed
}

// Data returns the raw pixel data (RGBA format).
// It returns nil for a disposed surface.
func (s *Surface) Data() []uint8 {
	if s.disposed {
		return nil
	}
	return s.data
}

// Image returns an *image.RGBA sharing the surface pixels.
// Drawing into the image draws into the surface.
// It returns nil for a disposed surface.
func (s *Surface) Image() *image.RGBA {
	if s.disposed {
		return nil
	}
	return &image.RGBA{
		Pix:    s.data,
		Stride: s.width * BytesPerPixel,
		Rect:   image.Rect(0, 0, s.width, s.height),
	}
}

// Clear resets every pixel to transparent black.
func (s *Surface) Clear() {
	if s.disposed {
		return
	}
	clear(s.data)
}

// Fill fills the entire surface with a color.
func (s *Surface) Fill(c color.Color) {
	if s.disposed {
		return
	}
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	for i := 0; i < len(s.data); i += BytesPerPixel {
		s.data[i+0] = rgba.R
		s.data[i+1] = rgba.G
		s.data[i+2] = rgba.B
		s.data[i+3] = rgba.A
	}
}

// Resize changes the surface dimensions. The backing storage is reused when
// it is large enough. Existing content is discarded.
func (s *Surface) Resize(width, height int) error {
	if s.disposed {
		return ErrDisposed
	}
	mustPositive(width, height)
	n := width * height * BytesPerPixel
	if cap(s.data) >= n {
		s.data = s.data[:n]
		clear(s.data)
	} else {
		s.data = make([]uint8, n)
	}
	s.width = width
	s.height = height
	return nil
}

// Clone returns a new surface holding a copy of the pixels, or nil for a
// disposed surface. The copy is not pooled.
func (s *Surface) Clone() *Surface {
	if s.disposed {
		return nil
	}
	c := New(s.width, s.height)
	copy(c.data, s.data)
	return c
}

// Destroy drops the backing memory and zeroes the dimensions.
// Destroy is idempotent.
func (s *Surface) Destroy() {
	s.data = nil
	s.width = 0
	s.height = 0
	s.disposed = true
}

// SavePNG saves the surface to a PNG file.
func (s *Surface) SavePNG(path string) error {
	img := s.Image()
	if img == nil {
		return ErrDisposed
	}
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	return png.Encode(f, img)
}
