// Package geom owns normalized image-plane geometry for the scanning
// pipeline.
//
// Responsibilities: the NormalizedRect type (unit-square coordinates),
// clamping of noisy upstream boxes, and the overlap/size scoring used by
// both frame-level matching and session-level deduplication.
//
// Dependency rule: geom depends on nothing inside this module.
package geom

// NormalizedRect is an axis-aligned rectangle in normalized image
// coordinates. All four edges are in [0, 1] with (0, 0) at the top-left
// of the frame. Construct values through NewRect (or call Clamp) so that
// out-of-range upstream boxes are tolerated rather than rejected.
type NormalizedRect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// NewRect builds a NormalizedRect clamped to the unit square.
func NewRect(left, top, right, bottom float64) NormalizedRect {
	r := NormalizedRect{Left: left, Top: top, Right: right, Bottom: bottom}
	return r.Clamp()
}

// Clamp returns a copy of the rectangle with every edge forced into
// [0, 1] and edges reordered so that Left <= Right and Top <= Bottom.
// Noisy detectors routinely emit boxes slightly outside the frame;
// clamping keeps the frame instead of dropping it.
func (r NormalizedRect) Clamp() NormalizedRect {
	r.Left = clamp01(r.Left)
	r.Top = clamp01(r.Top)
	r.Right = clamp01(r.Right)
	r.Bottom = clamp01(r.Bottom)
	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Top > r.Bottom {
		r.Top, r.Bottom = r.Bottom, r.Top
	}
	return r
}

// Width returns the horizontal extent of the rectangle.
func (r NormalizedRect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent of the rectangle.
func (r NormalizedRect) Height() float64 { return r.Bottom - r.Top }

// Area returns the normalized area of the rectangle.
func (r NormalizedRect) Area() float64 { return r.Width() * r.Height() }

// IoU calculates the intersection-over-union of two rectangles.
// Returns a value in [0, 1] where 1 means perfect alignment and 0 means
// the rectangles do not overlap.
func IoU(a, b NormalizedRect) float64 {
	interLeft := a.Left
	if b.Left > interLeft {
		interLeft = b.Left
	}
	interTop := a.Top
	if b.Top > interTop {
		interTop = b.Top
	}
	interRight := a.Right
	if b.Right < interRight {
		interRight = b.Right
	}
	interBottom := a.Bottom
	if b.Bottom < interBottom {
		interBottom = b.Bottom
	}

	if interLeft >= interRight || interTop >= interBottom {
		return 0.0
	}

	intersection := (interRight - interLeft) * (interBottom - interTop)
	union := a.Area() + b.Area() - intersection
	if union <= 0 {
		return 0.0
	}
	return intersection / union
}

// SizeRatio returns the smaller of the two areas divided by the larger,
// in [0, 1]. A ratio of 1 means identical size. Returns 0 when either
// area is zero so degenerate boxes never look similar.
func SizeRatio(a, b NormalizedRect) float64 {
	areaA, areaB := a.Area(), b.Area()
	if areaA <= 0 || areaB <= 0 {
		return 0.0
	}
	if areaA < areaB {
		return areaA / areaB
	}
	return areaB / areaA
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
