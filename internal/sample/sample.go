// Package sample extracts robust per-patch colors from the rectified frame.
package sample

import (
	"github.com/cinelab/chart-audit/internal/buffer"
	"github.com/cinelab/chart-audit/internal/topology"
)

// Patch couples one sampled patch with its reference value. Patches are
// fully constructed here and never mutated afterwards.
type Patch struct {
	// Name of the patch, from the signature layout.
	Name string `json:"name"`

	// Index is the stable ordinal within the layout. Matches the
	// topology order exactly; neutral-index selection depends on it.
	Index int `json:"index"`

	// X, Y is the patch center in canonical coordinates.
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// Observed is the sampled mean in linear RGB.
	Observed [3]float32 `json:"observed"`

	// Target is the signature reference in linear RGB. The zero value is
	// a sentinel meaning "no resolved reference".
	Target [3]float32 `json:"target"`
}

// Mean samples every center with a size×size window and returns patches in
// exactly the input center order, never re-sorted. A window that clips
// to nothing (center at or beyond a border) yields the zero-color sentinel
// rather than an error, so one bad center cannot sink the audit.
func Mean(buf *buffer.Buffer, centers []topology.Center, size int) []Patch {
	if size < 1 {
		size = 1
	}

	patches := make([]Patch, 0, len(centers))
	for _, c := range centers {
		patches = append(patches, Patch{
			Name:     c.Name,
			Index:    c.Index,
			X:        c.X,
			Y:        c.Y,
			Observed: windowMean(buf, c.X, c.Y, size),
		})
	}
	return patches
}

// windowMean averages the size×size window centered at (cx, cy), clipped to
// the buffer bounds.
func windowMean(buf *buffer.Buffer, cx, cy float64, size int) [3]float32 {
	half := size / 2
	x0 := int(cx) - half
	y0 := int(cy) - half
	x1 := x0 + size
	y1 := y0 + size

	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > buf.Width {
		x1 = buf.Width
	}
	if y1 > buf.Height {
		y1 = buf.Height
	}
	if x0 >= x1 || y0 >= y1 {
		return [3]float32{}
	}

	var sum [3]float64
	for y := y0; y < y1; y++ {
		i := (y*buf.Width + x0) * 3
		for x := x0; x < x1; x++ {
			sum[0] += float64(buf.Pix[i])
			sum[1] += float64(buf.Pix[i+1])
			sum[2] += float64(buf.Pix[i+2])
			i += 3
		}
	}

	n := float64((x1 - x0) * (y1 - y0))
	return [3]float32{
		float32(sum[0] / n),
		float32(sum[1] / n),
		float32(sum[2] / n),
	}
}

// AttachTargets copies signature reference values onto patches by ordinal
// index. Patches beyond the target table keep the zero sentinel. The input
// slice is returned with fresh values; order is untouched.
func AttachTargets(patches []Patch, targets [][3]float32) []Patch {
	out := make([]Patch, len(patches))
	copy(out, patches)
	for i := range out {
		if out[i].Index >= 0 && out[i].Index < len(targets) {
			out[i].Target = targets[out[i].Index]
		}
	}
	return out
}
