package geometry

import (
	"math"
	"sort"
)

// Segment is a detected straight line segment in source-image pixels.
type Segment struct {
	X1, Y1 float64
	X2, Y2 float64
}

// Length returns the segment's Euclidean length.
func (s Segment) Length() float64 {
	dx := s.X2 - s.X1
	dy := s.Y2 - s.Y1
	return math.Sqrt(dx*dx + dy*dy)
}

// MidX and MidY give the segment midpoint, which is what H/V classification
// and extreme-segment selection key on.
func (s Segment) MidX() float64 { return (s.X1 + s.X2) / 2 }
func (s Segment) MidY() float64 { return (s.Y1 + s.Y2) / 2 }

// Horizontal reports whether the segment leans horizontal (|Δx| > |Δy|).
func (s Segment) Horizontal() bool {
	return math.Abs(s.X2-s.X1) > math.Abs(s.Y2-s.Y1)
}

const maxSegments = 24

// houghSegments finds straight segments in an edge map using a Hough
// transform: edge pixels vote in (rho, theta) space, local maxima above a
// vote threshold become candidate lines, and each line's actual extent is
// traced back through the edge pixels that lie on it.
func houghSegments(edges [][]bool, minLength int) []Segment {
	height := len(edges)
	if height == 0 {
		return nil
	}
	width := len(edges[0])

	maxDist := int(math.Sqrt(float64(width*width + height*height)))
	const numAngles = 180
	accumulator := make([][]int, maxDist*2)
	for i := range accumulator {
		accumulator[i] = make([]int, numAngles)
	}

	var cosTab, sinTab [numAngles]float64
	for theta := 0; theta < numAngles; theta++ {
		angle := float64(theta) * math.Pi / 180.0
		cosTab[theta] = math.Cos(angle)
		sinTab[theta] = math.Sin(angle)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !edges[y][x] {
				continue
			}
			for theta := 0; theta < numAngles; theta++ {
				rho := float64(x)*cosTab[theta] + float64(y)*sinTab[theta]
				rhoIdx := int(rho) + maxDist
				if rhoIdx >= 0 && rhoIdx < maxDist*2 {
					accumulator[rhoIdx][theta]++
				}
			}
		}
	}

	type peak struct {
		rho   int
		theta int
		votes int
	}
	var peaks []peak
	threshold := minLength / 2
	if threshold < 8 {
		threshold = 8
	}

	for rhoIdx := 0; rhoIdx < maxDist*2; rhoIdx++ {
		for theta := 0; theta < numAngles; theta++ {
			votes := accumulator[rhoIdx][theta]
			if votes < threshold {
				continue
			}
			isMax := true
			for dr := -2; dr <= 2 && isMax; dr++ {
				for dt := -2; dt <= 2 && isMax; dt++ {
					if dr == 0 && dt == 0 {
						continue
					}
					nr := rhoIdx + dr
					nt := (theta + dt + numAngles) % numAngles
					if nr >= 0 && nr < maxDist*2 && accumulator[nr][nt] > votes {
						isMax = false
					}
				}
			}
			if isMax {
				peaks = append(peaks, peak{rho: rhoIdx - maxDist, theta: theta, votes: votes})
			}
		}
	}

	sort.Slice(peaks, func(i, j int) bool { return peaks[i].votes > peaks[j].votes })

	var segments []Segment
	for _, p := range peaks {
		if len(segments) >= maxSegments {
			break
		}

		cosA := cosTab[p.theta]
		sinA := sinTab[p.theta]
		rho := float64(p.rho)

		// Trace the edge pixels lying on this line and keep their extent.
		minD := math.MaxFloat64
		maxD := -math.MaxFloat64
		var sx, sy, ex, ey int
		count := 0
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if !edges[y][x] {
					continue
				}
				if math.Abs(float64(x)*cosA+float64(y)*sinA-rho) >= 2.0 {
					continue
				}
				count++
				// Position along the line direction (-sin, cos).
				d := float64(x)*(-sinA) + float64(y)*cosA
				if d < minD {
					minD = d
					sx, sy = x, y
				}
				if d > maxD {
					maxD = d
					ex, ey = x, y
				}
			}
		}

		if count < minLength {
			continue
		}

		seg := Segment{X1: float64(sx), Y1: float64(sy), X2: float64(ex), Y2: float64(ey)}
		if seg.Length() < float64(minLength) {
			continue
		}
		segments = append(segments, seg)
	}
	return segments
}
