package topology

import (
	"testing"

	"github.com/cinelab/chart-audit/internal/signature"
)

func TestResolve_Grid6x4(t *testing.T) {
	sig := &signature.Signature{Kind: signature.Grid, Cols: 6, Rows: 4}

	centers := Resolve(sig, 960, 640)
	if len(centers) != 24 {
		t.Fatalf("center count: got %d, want 24", len(centers))
	}

	// 960/6 = 160 wide cells, 640/4 = 160 tall cells.
	if centers[0].X != 80 || centers[0].Y != 80 {
		t.Errorf("index 0: got (%f,%f), want top-left cell midpoint (80,80)", centers[0].X, centers[0].Y)
	}
	if centers[23].X != 880 || centers[23].Y != 560 {
		t.Errorf("index 23: got (%f,%f), want bottom-right cell midpoint (880,560)", centers[23].X, centers[23].Y)
	}

	// Strict row-major: Y never decreases, X resets at each new row.
	for i := 1; i < len(centers); i++ {
		if centers[i].Index != i {
			t.Fatalf("index %d out of order: %d", i, centers[i].Index)
		}
		if centers[i].Y < centers[i-1].Y {
			t.Fatalf("row order broken at %d", i)
		}
		if centers[i].Y == centers[i-1].Y && centers[i].X <= centers[i-1].X {
			t.Fatalf("column order broken at %d", i)
		}
	}
}

func TestResolve_GridNames(t *testing.T) {
	sig := &signature.Signature{
		Kind: signature.Grid, Cols: 2, Rows: 1,
		Names: []string{"left"},
	}
	centers := Resolve(sig, 100, 50)
	if centers[0].Name != "left" {
		t.Errorf("named patch: got %q, want left", centers[0].Name)
	}
	if centers[1].Name != "patch_01" {
		t.Errorf("unnamed patch: got %q, want patch_01", centers[1].Name)
	}
}

func TestResolve_Anchored(t *testing.T) {
	sig := &signature.Signature{
		Kind: signature.Anchored,
		Anchors: []signature.Anchor{
			{Name: "white", X: 0.25, Y: 0.5},
			{Name: "black", X: 0.75, Y: 0.5},
		},
	}

	centers := Resolve(sig, 400, 200)
	if len(centers) != 2 {
		t.Fatalf("center count: got %d, want 2", len(centers))
	}
	if centers[0].Name != "white" || centers[0].X != 100 || centers[0].Y != 100 {
		t.Errorf("anchor 0: got %+v", centers[0])
	}
	if centers[1].Name != "black" || centers[1].X != 300 || centers[1].Y != 100 {
		t.Errorf("anchor 1: got %+v", centers[1])
	}
}

func TestResolve_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		sig  *signature.Signature
		w, h int
	}{
		{"nil signature", nil, 100, 100},
		{"zero width", &signature.Signature{Kind: signature.Grid, Cols: 2, Rows: 2}, 0, 100},
		{"zero cols", &signature.Signature{Kind: signature.Grid, Rows: 2}, 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if centers := Resolve(tt.sig, tt.w, tt.h); centers != nil {
				t.Errorf("got %d centers, want nil", len(centers))
			}
		})
	}
}
