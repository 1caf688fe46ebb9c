package rectify

import (
	"math"
	"testing"

	"github.com/cinelab/chart-audit/internal/buffer"
	"github.com/cinelab/chart-audit/internal/geometry"
)

func TestSolve_Identity(t *testing.T) {
	quad := [4][2]float64{{0, 0}, {99, 0}, {99, 49}, {0, 49}}

	h, err := Solve(quad, quad)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	for _, p := range [][2]float64{{0, 0}, {50, 25}, {99, 49}} {
		x, y := h.Apply(p[0], p[1])
		if math.Abs(x-p[0]) > 1e-6 || math.Abs(y-p[1]) > 1e-6 {
			t.Errorf("identity map moved (%v) to (%f,%f)", p, x, y)
		}
	}
}

func TestSolve_MapsCorners(t *testing.T) {
	src := [4][2]float64{{0, 0}, {100, 0}, {100, 100}, {0, 100}}
	dst := [4][2]float64{{20, 10}, {180, 30}, {170, 150}, {10, 140}}

	h, err := Solve(src, dst)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	for i := range src {
		x, y := h.Apply(src[i][0], src[i][1])
		if math.Abs(x-dst[i][0]) > 1e-6 || math.Abs(y-dst[i][1]) > 1e-6 {
			t.Errorf("corner %d: got (%f,%f), want (%v)", i, x, y, dst[i])
		}
	}
}

func TestSolve_DegenerateCorners(t *testing.T) {
	// All four source points collinear: no valid perspective exists.
	src := [4][2]float64{{0, 0}, {10, 10}, {20, 20}, {30, 30}}
	dst := [4][2]float64{{0, 0}, {100, 0}, {100, 100}, {0, 100}}

	if _, err := Solve(src, dst); err == nil {
		t.Error("Solve should reject a collinear corner set")
	}
}

func TestWarp_FixedOutputSize(t *testing.T) {
	// A tilted chart in sources of different sizes always lands on the
	// configured canonical dimensions.
	tests := []struct {
		name string
		w, h int
	}{
		{"small source", 160, 120},
		{"large source", 1200, 900},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := buffer.New(tt.w, tt.h)
			corners := geometry.CornerSet{
				{float64(tt.w) * 0.3, float64(tt.h) * 0.1},
				{float64(tt.w) * 0.9, float64(tt.h) * 0.25},
				{float64(tt.w) * 0.75, float64(tt.h) * 0.9},
				{float64(tt.w) * 0.12, float64(tt.h) * 0.8},
			}

			out, err := Warp(src, corners, 960, 640)
			if err != nil {
				t.Fatalf("Warp failed: %v", err)
			}
			if out.Width != 960 || out.Height != 640 {
				t.Errorf("canonical size: got %dx%d, want 960x640", out.Width, out.Height)
			}
		})
	}
}

func TestWarp_AxisAlignedCrop(t *testing.T) {
	// Quadrants of solid color; warping the top-left quadrant should
	// yield a uniformly red canonical frame.
	src := buffer.New(100, 100)
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			rgb := [3]float32{0, 0, 1}
			if x < 50 && y < 50 {
				rgb = [3]float32{1, 0, 0}
			}
			src.Set(x, y, rgb)
		}
	}
	corners := geometry.CornerSet{{0, 0}, {45, 0}, {45, 45}, {0, 45}}

	out, err := Warp(src, corners, 64, 64)
	if err != nil {
		t.Fatalf("Warp failed: %v", err)
	}
	center := out.At(32, 32)
	if center[0] < 0.99 || center[2] > 0.01 {
		t.Errorf("center of warped quadrant: got %v, want red", center)
	}
}

func TestWarp_InvalidSize(t *testing.T) {
	src := buffer.New(10, 10)
	corners := geometry.CornerSet{{0, 0}, {9, 0}, {9, 9}, {0, 9}}
	if _, err := Warp(src, corners, 0, 64); err == nil {
		t.Error("zero canonical width must be rejected")
	}
}
