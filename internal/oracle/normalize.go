package oracle

import (
	"regexp"
	"strconv"
)

var locToken = regexp.MustCompile(`<loc_(\d+)>`)

// NormalizeToPoints reduces an ROI to absolute pixel coordinates on an image
// of the given dimensions. It accepts, in order of preference:
//
//   - a polygon in Points (pixel or normalized units),
//   - the first entry of Boxes, expanded to its four corners in
//     TL, TR, BR, BL order,
//   - <loc_N> tokens in Raw, interpreted as ymin xmin ymax xmax on the
//     0-1000 grid some detectors emit.
//
// Coordinates whose largest magnitude is at most 1.5 are treated as
// normalized and scaled by the image dimensions; anything larger is taken
// as pixels already. There is no failure mode: an ROI carrying nothing
// usable yields an empty slice.
func NormalizeToPoints(roi ROI, width, height int) [][2]float64 {
	if len(roi.Points) > 0 {
		return scalePoints(roi.Points, width, height)
	}

	if len(roi.Boxes) > 0 {
		b := roi.Boxes[0]
		corners := [][2]float64{
			{b[0], b[1]},
			{b[2], b[1]},
			{b[2], b[3]},
			{b[0], b[3]},
		}
		return scalePoints(corners, width, height)
	}

	if roi.Raw != "" {
		if pts := pointsFromTokens(roi.Raw); len(pts) > 0 {
			return scalePoints(pts, width, height)
		}
	}

	return nil
}

// pointsFromTokens extracts a bounding quad from <loc_N> location tokens,
// which arrive row-first: ymin, xmin, ymax, xmax. The grid is 0-1000, so
// dividing by 1000 lands in normalized units that scalePoints then maps
// onto the image.
func pointsFromTokens(raw string) [][2]float64 {
	matches := locToken.FindAllStringSubmatch(raw, -1)
	if len(matches) < 4 {
		return nil
	}

	vals := make([]float64, 0, 4)
	for _, m := range matches[:4] {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		vals = append(vals, float64(n)/1000.0)
	}

	y1, x1, y2, x2 := vals[0], vals[1], vals[2], vals[3]
	return [][2]float64{
		{x1, y1},
		{x2, y1},
		{x2, y2},
		{x1, y2},
	}
}

func scalePoints(pts [][2]float64, width, height int) [][2]float64 {
	var max float64
	for _, p := range pts {
		if p[0] > max {
			max = p[0]
		}
		if p[1] > max {
			max = p[1]
		}
	}

	out := make([][2]float64, len(pts))
	if max <= 1.5 {
		for i, p := range pts {
			out[i] = [2]float64{p[0] * float64(width), p[1] * float64(height)}
		}
		return out
	}
	copy(out, pts)
	return out
}
