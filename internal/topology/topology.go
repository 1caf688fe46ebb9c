// Package topology computes patch-center coordinates in the canonical
// rectified frame. It is pure geometry: no pixel access, no state.
package topology

import (
	"fmt"

	"github.com/cinelab/chart-audit/internal/signature"
)

// Center is one patch location in canonical coordinates.
type Center struct {
	// Name of the patch, carried through for name-based neutral lookup
	// on anchored charts.
	Name string

	// X, Y in canonical pixels.
	X, Y float64

	// Index is the stable ordinal of this patch within its signature's
	// layout order.
	Index int
}

// Resolve enumerates the patch centers of a signature on a width×height
// canonical frame.
//
// Grid charts yield cell midpoints in strict row-major order: left-to-right
// within each row, rows top-to-bottom. Index 0 is top-left and index
// cols*rows-1 is bottom-right. Downstream neutral-index selection depends on
// this ordering, so it is a contract, not an implementation detail.
//
// Anchored charts yield their normalized anchor positions scaled to the
// frame, in declaration order, names preserved.
func Resolve(sig *signature.Signature, width, height int) []Center {
	if sig == nil || width <= 0 || height <= 0 {
		return nil
	}

	if sig.Kind == signature.Anchored {
		centers := make([]Center, 0, len(sig.Anchors))
		for i, a := range sig.Anchors {
			centers = append(centers, Center{
				Name:  a.Name,
				X:     a.X * float64(width),
				Y:     a.Y * float64(height),
				Index: i,
			})
		}
		return centers
	}

	if sig.Cols <= 0 || sig.Rows <= 0 {
		return nil
	}

	cellW := float64(width) / float64(sig.Cols)
	cellH := float64(height) / float64(sig.Rows)

	centers := make([]Center, 0, sig.Cols*sig.Rows)
	for r := 0; r < sig.Rows; r++ {
		for c := 0; c < sig.Cols; c++ {
			i := r*sig.Cols + c
			centers = append(centers, Center{
				Name:  patchName(sig, i),
				X:     float64(c)*cellW + cellW/2,
				Y:     float64(r)*cellH + cellH/2,
				Index: i,
			})
		}
	}
	return centers
}

func patchName(sig *signature.Signature, i int) string {
	if i < len(sig.Names) {
		return sig.Names[i]
	}
	return fmt.Sprintf("patch_%02d", i)
}
