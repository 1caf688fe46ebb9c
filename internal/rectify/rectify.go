// Package rectify perspective-warps a located chart into the fixed-size
// canonical frame all downstream coordinates are expressed in.
package rectify

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/cinelab/chart-audit/internal/buffer"
	"github.com/cinelab/chart-audit/internal/geometry"
)

// Homography is a 3×3 projective transform with h33 fixed at 1.
type Homography [8]float64

// Apply maps a point through the homography.
func (h Homography) Apply(x, y float64) (float64, float64) {
	w := h[6]*x + h[7]*y + 1
	if w == 0 {
		return 0, 0
	}
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w
}

// Solve computes the homography mapping each src point onto the
// corresponding dst point, by direct linear transform over the four
// correspondences. A degenerate corner set (collinear or repeated points)
// makes the system singular and is returned as an error.
func Solve(src, dst [4][2]float64) (Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		sx, sy := src[i][0], src[i][1]
		dx, dy := dst[i][0], dst[i][1]

		a.SetRow(2*i, []float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx})
		b.SetVec(2*i, dx)
		a.SetRow(2*i+1, []float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy})
		b.SetVec(2*i+1, dy)
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return Homography{}, fmt.Errorf("degenerate corner set: %w", err)
	}

	var h Homography
	for i := range h {
		h[i] = x.AtVec(i)
	}
	return h, nil
}

// Warp resamples the source buffer into a width×height canonical frame
// whose corners correspond to the given source corners (TL, TR, BR, BL).
//
// Output dimensions are exactly (width, height) regardless of the source
// resolution or chart tilt; every canonical pixel is inverse-mapped through
// the canonical→source homography and sampled bilinearly.
func Warp(src *buffer.Buffer, corners geometry.CornerSet, width, height int) (*buffer.Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canonical size %dx%d", width, height)
	}

	canonical := [4][2]float64{
		{0, 0},
		{float64(width - 1), 0},
		{float64(width - 1), float64(height - 1)},
		{0, float64(height - 1)},
	}

	h, err := Solve(canonical, [4][2]float64(corners))
	if err != nil {
		return nil, err
	}

	out := buffer.New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx, sy := h.Apply(float64(x), float64(y))
			out.Set(x, y, bilinear(src, sx, sy))
		}
	}
	return out, nil
}

// bilinear samples the buffer at a fractional position with clamped-edge
// handling.
func bilinear(buf *buffer.Buffer, x, y float64) [3]float32 {
	x0 := int(x)
	y0 := int(y)
	if x < 0 {
		x0 = -1
	}
	if y < 0 {
		y0 = -1
	}
	fx := float32(x - float64(x0))
	fy := float32(y - float64(y0))

	p00 := buf.At(x0, y0)
	p10 := buf.At(x0+1, y0)
	p01 := buf.At(x0, y0+1)
	p11 := buf.At(x0+1, y0+1)

	var out [3]float32
	for c := 0; c < 3; c++ {
		top := p00[c]*(1-fx) + p10[c]*fx
		bot := p01[c]*(1-fx) + p11[c]*fx
		out[c] = top*(1-fy) + bot*fy
	}
	return out
}
