package pdfview

import "math"

const (
	// MaxScale is the largest accepted pixels-per-point scale.
	MaxScale = 64.0

	// MaxPixels caps each viewport dimension, so a page surface never
	// exceeds 1 GiB whatever the page size.
	MaxPixels = 1 << 14
)

// Size is a page size in points.
type Size struct {
	Width, Height float64
}

// Viewport maps a page to pixels at a scale and rotation.
type Viewport struct {
	Scale    float64 // Pixels per point
	Rotation int     // Clockwise degrees: 0, 90, 180 or 270
	Width    int     // Pixel width after rotation
	Height   int     // Pixel height after rotation
}

// NewViewport returns the viewport of a page of the given size. Rotation is
// rounded to the nearest quarter turn; quarter and three-quarter turns swap
// the axes. Pixel dimensions round up and lie within [1, MaxPixels].
func NewViewport(size Size, scale float64, rotation int) Viewport {
	rotation = normalizeRotation(rotation)
	w, h := size.Width, size.Height
	if rotation == 90 || rotation == 270 {
		w, h = h, w
	}
	return Viewport{
		Scale:    scale,
		Rotation: rotation,
		Width:    pixels(w * scale),
		Height:   pixels(h * scale),
	}
}

// Swapped reports whether the viewport turns the page on its side.
func (vp Viewport) Swapped() bool {
	return vp.Rotation == 90 || vp.Rotation == 270
}

func pixels(v float64) int {
	switch {
	case math.IsNaN(v) || v < 1:
		return 1
	case v >= MaxPixels:
		return MaxPixels
	}
	return int(math.Ceil(v))
}

// normalizeRotation rounds degrees to the nearest quarter turn in [0, 360).
func normalizeRotation(degrees int) int {
	quarter := int(math.Floor(float64(degrees+45) / 90))
	return (quarter%4 + 4) % 4 * 90
}

// validScale rejects NaN, non-positive scales and scales above MaxScale.
func validScale(scale float64) bool {
	return scale > 0 && scale <= MaxScale
}
