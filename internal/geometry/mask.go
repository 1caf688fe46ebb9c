package geometry

import (
	"math"
	"sort"
)

// polygonMask rasterizes the approximate polygon into a boolean mask and
// dilates it by margin pixels. Edge search is confined to this mask so that
// background clutter near the chart cannot contribute line evidence.
func polygonMask(poly [][2]float64, width, height, margin int) [][]bool {
	mask := make([][]bool, height)
	for y := range mask {
		mask[y] = make([]bool, width)
	}
	if len(poly) < 3 {
		// Degenerate outline: search everywhere rather than nowhere.
		for y := range mask {
			for x := range mask[y] {
				mask[y][x] = true
			}
		}
		return mask
	}

	// Even-odd scanline fill.
	for y := 0; y < height; y++ {
		fy := float64(y) + 0.5
		var xs []float64
		for i := range poly {
			j := (i + 1) % len(poly)
			y1, y2 := poly[i][1], poly[j][1]
			if (y1 <= fy) == (y2 <= fy) {
				continue
			}
			t := (fy - y1) / (y2 - y1)
			xs = append(xs, poly[i][0]+t*(poly[j][0]-poly[i][0]))
		}
		sort.Float64s(xs)
		for k := 0; k+1 < len(xs); k += 2 {
			x0 := clampInt(int(math.Ceil(xs[k])), 0, width)
			x1 := clampInt(int(math.Floor(xs[k+1]))+1, 0, width)
			for x := x0; x < x1; x++ {
				mask[y][x] = true
			}
		}
	}

	if margin > 0 {
		mask = dilate(mask, width, height, margin)
	}
	return mask
}

// dilate grows the mask by radius using a square structuring element,
// implemented as two separable passes.
func dilate(mask [][]bool, width, height, radius int) [][]bool {
	horiz := make([][]bool, height)
	for y := 0; y < height; y++ {
		horiz[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			for d := -radius; d <= radius && !horiz[y][x]; d++ {
				px := x + d
				if px >= 0 && px < width && mask[y][px] {
					horiz[y][x] = true
				}
			}
		}
	}

	out := make([][]bool, height)
	for y := 0; y < height; y++ {
		out[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			for d := -radius; d <= radius && !out[y][x]; d++ {
				py := y + d
				if py >= 0 && py < height && horiz[py][x] {
					out[y][x] = true
				}
			}
		}
	}
	return out
}
