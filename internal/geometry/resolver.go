package geometry

import (
	"math"

	"github.com/anthonynsimon/bild/blur"

	"github.com/cinelab/chart-audit/internal/buffer"
)

// CornerSet is exactly four points ordered top-left, top-right,
// bottom-right, bottom-left, in source-image pixel coordinates. It is
// either fully present or entirely absent (nil), never partial.
type CornerSet [4][2]float64

// Options tunes the corner refinement. The zero value is unusable; use
// DefaultOptions.
type Options struct {
	// CannyLow, CannyHigh are the hysteresis thresholds on the 0-255
	// scale.
	CannyLow  int
	CannyHigh int

	// MaskDilate grows the polygon search mask by this many pixels so
	// slightly-off proposals still cover the true border.
	MaskDilate int

	// MinSegment is the shortest line segment (pixels) accepted as
	// boundary evidence.
	MinSegment int

	// BlurRadius for the Gaussian pre-smooth of the grayscale proxy.
	BlurRadius float64
}

// DefaultOptions returns the refinement tuning used in production.
func DefaultOptions() Options {
	return Options{
		CannyLow:   50,
		CannyHigh:  150,
		MaskDilate: 12,
		MinSegment: 40,
		BlurRadius: 2.0,
	}
}

// Resolve refines an approximate chart polygon into virtual corners.
//
// A nil result means refinement was unreliable and the caller should keep
// the unrefined polygon. Resolve itself never fails: every degenerate
// condition (empty input, too little line evidence, parallel boundaries)
// lands on the nil fallback.
func Resolve(buf *buffer.Buffer, approx [][2]float64, opts Options) *CornerSet {
	if len(approx) == 0 || buf == nil || buf.Width == 0 || buf.Height == 0 {
		return nil
	}

	smoothed := blur.Gaussian(buf.Gray(), opts.BlurRadius)
	edges := cannyEdges(smoothed, opts.CannyLow, opts.CannyHigh)

	mask := polygonMask(approx, buf.Width, buf.Height, opts.MaskDilate)
	for y := range edges {
		for x := range edges[y] {
			if !mask[y][x] {
				edges[y][x] = false
			}
		}
	}

	segments := houghSegments(edges, opts.MinSegment)

	var horizontal, vertical []Segment
	for _, s := range segments {
		if s.Horizontal() {
			horizontal = append(horizontal, s)
		} else {
			vertical = append(vertical, s)
		}
	}
	if len(horizontal) < 2 || len(vertical) < 2 {
		return nil
	}

	top, bottom := horizontal[0], horizontal[0]
	for _, s := range horizontal[1:] {
		if s.MidY() < top.MidY() {
			top = s
		}
		if s.MidY() > bottom.MidY() {
			bottom = s
		}
	}
	left, right := vertical[0], vertical[0]
	for _, s := range vertical[1:] {
		if s.MidX() < left.MidX() {
			left = s
		}
		if s.MidX() > right.MidX() {
			right = s
		}
	}

	tl, ok := intersect(top, left)
	if !ok {
		return nil
	}
	tr, ok := intersect(top, right)
	if !ok {
		return nil
	}
	br, ok := intersect(bottom, right)
	if !ok {
		return nil
	}
	bl, ok := intersect(bottom, left)
	if !ok {
		return nil
	}

	return &CornerSet{tl, tr, br, bl}
}

// intersect computes the intersection of two segments extended to infinite
// lines, using the standard two-line formula. A near-zero denominator means
// the lines are parallel and refinement must fall back.
func intersect(a, b Segment) ([2]float64, bool) {
	x1, y1, x2, y2 := a.X1, a.Y1, a.X2, a.Y2
	x3, y3, x4, y4 := b.X1, b.Y1, b.X2, b.Y2

	denom := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if math.Abs(denom) < 1e-9 {
		return [2]float64{}, false
	}

	det1 := x1*y2 - y1*x2
	det2 := x3*y4 - y3*x4
	px := (det1*(x3-x4) - (x1-x2)*det2) / denom
	py := (det1*(y3-y4) - (y1-y2)*det2) / denom
	return [2]float64{px, py}, true
}

// FromPoints produces an ordered corner set from an arbitrary polygon.
//
// Four-point polygons are ordered by the sum/difference rule (top-left has
// the smallest x+y, bottom-right the largest, top-right the largest x−y,
// bottom-left the smallest). Anything else is reduced to its axis-aligned
// bounding quad. Empty input yields nil.
func FromPoints(points [][2]float64) *CornerSet {
	if len(points) == 0 {
		return nil
	}
	if len(points) != 4 {
		return boundingQuad(points)
	}

	var cs CornerSet
	minSum, maxSum := math.MaxFloat64, -math.MaxFloat64
	minDiff, maxDiff := math.MaxFloat64, -math.MaxFloat64
	for _, p := range points {
		sum := p[0] + p[1]
		diff := p[0] - p[1]
		if sum < minSum {
			minSum = sum
			cs[0] = p
		}
		if sum > maxSum {
			maxSum = sum
			cs[2] = p
		}
		if diff > maxDiff {
			maxDiff = diff
			cs[1] = p
		}
		if diff < minDiff {
			minDiff = diff
			cs[3] = p
		}
	}
	return &cs
}

func boundingQuad(points [][2]float64) *CornerSet {
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, p := range points {
		minX = math.Min(minX, p[0])
		maxX = math.Max(maxX, p[0])
		minY = math.Min(minY, p[1])
		maxY = math.Max(maxY, p[1])
	}
	return &CornerSet{
		{minX, minY},
		{maxX, minY},
		{maxX, maxY},
		{minX, maxY},
	}
}
