package pdfview

import (
	"math"
	"testing"
)

func TestNewViewport(t *testing.T) {
	letter := Size{Width: 612, Height: 792}
	tests := []struct {
		name     string
		size     Size
		scale    float64
		rotation int
		want     Viewport
	}{
		{"identity", letter, 1, 0, Viewport{Scale: 1, Rotation: 0, Width: 612, Height: 792}},
		{"scaled", letter, 1.5, 0, Viewport{Scale: 1.5, Rotation: 0, Width: 918, Height: 1188}},
		{"quarter turn", letter, 1, 90, Viewport{Scale: 1, Rotation: 90, Width: 792, Height: 612}},
		{"half turn", letter, 1, 180, Viewport{Scale: 1, Rotation: 180, Width: 612, Height: 792}},
		{"negative turn", letter, 1, -90, Viewport{Scale: 1, Rotation: 270, Width: 792, Height: 612}},
		{"full turn", letter, 1, 360, Viewport{Scale: 1, Rotation: 0, Width: 612, Height: 792}},
		{"rounds up", Size{Width: 10.2, Height: 10.8}, 1, 0, Viewport{Scale: 1, Rotation: 0, Width: 11, Height: 11}},
		{"at least one pixel", Size{Width: 0.1, Height: 0}, 1, 0, Viewport{Scale: 1, Rotation: 0, Width: 1, Height: 1}},
		{"NaN size", Size{Width: math.NaN(), Height: 2}, 1, 0, Viewport{Scale: 1, Rotation: 0, Width: 1, Height: 2}},
		{"saturates", letter, 1e300, 0, Viewport{Scale: 1e300, Rotation: 0, Width: MaxPixels, Height: MaxPixels}},
		{"infinite size", Size{Width: math.Inf(1), Height: 10}, MaxScale, 90, Viewport{Scale: MaxScale, Rotation: 90, Width: 640, Height: MaxPixels}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewViewport(tt.size, tt.scale, tt.rotation); got != tt.want {
				t.Errorf("NewViewport() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeRotation(t *testing.T) {
	tests := map[int]int{
		0: 0, 44: 0, 45: 90, 90: 90, 134: 90, 180: 180, 270: 270,
		359: 0, 360: 0, 450: 90, -45: 0, -46: 270, -90: 270, -180: 180,
	}
	for in, want := range tests {
		if got := normalizeRotation(in); got != want {
			t.Errorf("normalizeRotation(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestViewportSwapped(t *testing.T) {
	for rotation, want := range map[int]bool{0: false, 90: true, 180: false, 270: true} {
		vp := NewViewport(Size{Width: 1, Height: 2}, 1, rotation)
		if vp.Swapped() != want {
			t.Errorf("rotation %d: Swapped() = %v, want %v", rotation, vp.Swapped(), want)
		}
	}
}

func TestValidScale(t *testing.T) {
	for _, scale := range []float64{0, -1, math.Inf(1), math.NaN(), MaxScale * 1.01, 1e300} {
		if validScale(scale) {
			t.Errorf("validScale(%v) = true", scale)
		}
	}
	for _, scale := range []float64{0.25, 1, MaxScale} {
		if !validScale(scale) {
			t.Errorf("validScale(%v) = false", scale)
		}
	}
}
