// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"golang.org/x/image/draw"
)

// Quality selects the resampling kernel used by Scale.
type Quality uint8

const (
	// QualityFast uses nearest-neighbor sampling.
	QualityFast Quality = iota
	// QualityBalanced uses approximate bilinear sampling.
	QualityBalanced
	// QualityBest uses the Catmull-Rom kernel.
	QualityBest
)

// String returns the quality name.
func (q Quality) String() string {
	switch q {
	case QualityFast:
		return "fast"
	case QualityBalanced:
		return "balanced"
	case QualityBest:
		return "best"
	default:
		return "unknown"
	}
}

func (q Quality) scaler() draw.Scaler {
	switch q {
	case QualityFast:
		return draw.NearestNeighbor
	case QualityBest:
		return draw.CatmullRom
	default:
		return draw.ApproxBiLinear
	}
}

// Scale resamples src into the whole of dst, replacing its pixels.
func Scale(dst, src *Surface, q Quality) error {
	d, s := dst.Image(), src.Image()
	if d == nil || s == nil {
		return ErrDisposed
	}
	q.scaler().Scale(d, d.Bounds(), s, s.Bounds(), draw.Src, nil)
	return nil
}

// FitWidth returns the dimensions of src scaled to maxWidth, preserving the
// aspect ratio. Surfaces narrower than maxWidth keep their size.
func FitWidth(src *Surface, maxWidth int) (width, height int) {
	w, h := src.Width(), src.Height()
	if w <= maxWidth || w == 0 {
		return w, h
	}
	height = h * maxWidth / w
	if height < 1 {
		height = 1
	}
	return maxWidth, height
}
