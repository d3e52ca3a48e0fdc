// Package geometry computes target image dimensions from an optional
// width/height pair, preserving the source aspect ratio when only one
// dimension is requested.
package geometry

import "math"

// ResizeSpec holds the requested output dimensions. A zero value means the
// dimension was not requested. Constructed once per run and shared read-only
// across all workers.
type ResizeSpec struct {
	Width  int
	Height int
}

// IsZero reports whether no resize was requested at all.
func (s ResizeSpec) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// Resolve returns the target dimensions for a source of origW x origH pixels.
//
// With both dimensions set the result is taken verbatim, even if it distorts
// the aspect ratio. With exactly one set, the other is derived from the
// source aspect ratio, rounded to the nearest pixel with a 1px floor so that
// extreme ratios never collapse to zero. With neither set the source
// dimensions pass through unchanged.
//
// origW and origH must be positive; images that decode to an empty bounds
// are rejected before reaching this point.
func (s ResizeSpec) Resolve(origW, origH int) (int, int) {
	switch {
	case s.Width > 0 && s.Height > 0:
		return s.Width, s.Height
	case s.Width > 0:
		h := int(math.Round(float64(s.Width) * float64(origH) / float64(origW)))
		return s.Width, maxInt(h, 1)
	case s.Height > 0:
		w := int(math.Round(float64(s.Height) * float64(origW) / float64(origH)))
		return maxInt(w, 1), s.Height
	default:
		return origW, origH
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
