package audit

import (
	"math"
	"testing"

	"github.com/cinelab/chart-audit/internal/sample"
	"github.com/cinelab/chart-audit/internal/signature"
)

func TestDeltaE2000_EqualColors(t *testing.T) {
	tests := []struct {
		name string
		rgb  [3]float32
	}{
		{"mid gray", [3]float32{0.18, 0.18, 0.18}},
		{"saturated red", [3]float32{0.8, 0.05, 0.05}},
		{"near white", [3]float32{0.97, 0.97, 0.95}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if de := DeltaE2000(tt.rgb, tt.rgb); de != 0 {
				t.Errorf("identical colors: got dE %f, want 0", de)
			}
		})
	}
}

func TestDeltaE2000_SentinelTarget(t *testing.T) {
	if de := DeltaE2000([3]float32{0.5, 0.5, 0.5}, [3]float32{}); de != 0 {
		t.Errorf("zero-sentinel target: got dE %f, want 0", de)
	}
}

func TestDeltaE2000_DifferentColors(t *testing.T) {
	de := DeltaE2000([3]float32{0.8, 0.1, 0.1}, [3]float32{0.1, 0.1, 0.8})
	if de < 10 {
		t.Errorf("red vs blue: got dE %f, want a large distance", de)
	}
}

// perfectPatches builds patches whose observed colors equal the signature
// targets exactly.
func perfectPatches(sig *signature.Signature) []sample.Patch {
	patches := make([]sample.Patch, sig.PatchCount())
	for i := range patches {
		patches[i] = sample.Patch{
			Name:     sig.Names[i],
			Index:    i,
			Observed: sig.Targets[i],
			Target:   sig.Targets[i],
		}
	}
	return patches
}

func TestPerform_PerfectChart(t *testing.T) {
	// A perfectly reproduced chart: every observed color equals its
	// reference, so the audit must report zero error and identity CDL.
	sig := signature.Builtin().ByKey("colorchecker24")
	patches := perfectPatches(sig)

	res := Perform("plate_001", patches, sig, DefaultTolerance)

	if res.MeanDeltaE != 0 {
		t.Errorf("MeanDeltaE: got %f, want 0", res.MeanDeltaE)
	}
	if res.MaxDeltaE != 0 {
		t.Errorf("MaxDeltaE: got %f, want 0", res.MaxDeltaE)
	}
	if !res.Pass {
		t.Error("perfect chart must pass")
	}
	if res.Unrecognized {
		t.Error("matched signature must not be flagged unrecognized")
	}
	if len(res.PerPatchDeltaE) != 24 {
		t.Errorf("PerPatchDeltaE length: got %d, want 24", len(res.PerPatchDeltaE))
	}
	for c := 0; c < 3; c++ {
		if res.Slope[c] < 0.99 || res.Slope[c] > 1.01 {
			t.Errorf("slope[%d]: got %f, want ~1", c, res.Slope[c])
		}
		if res.Offset[c] < -0.01 || res.Offset[c] > 0.01 {
			t.Errorf("offset[%d]: got %f, want ~0", c, res.Offset[c])
		}
		if res.Power[c] != 1 {
			t.Errorf("power[%d]: got %f, want 1", c, res.Power[c])
		}
	}
	if res.Saturation != 1.0 {
		t.Errorf("saturation: got %f, want 1", res.Saturation)
	}
}

func TestPerform_ToleranceGate(t *testing.T) {
	sig := signature.Builtin().ByKey("colorchecker24")
	patches := perfectPatches(sig)
	// Push every observed color well off its target.
	for i := range patches {
		patches[i].Observed = [3]float32{
			patches[i].Target[0]*0.4 + 0.3,
			patches[i].Target[1] * 0.5,
			patches[i].Target[2]*0.6 + 0.1,
		}
	}

	res := Perform("plate_002", patches, sig, DefaultTolerance)
	if res.MeanDeltaE <= DefaultTolerance {
		t.Fatalf("distorted chart should exceed tolerance, mean %f", res.MeanDeltaE)
	}
	if res.Pass {
		t.Error("distorted chart must fail")
	}
	if res.MaxDeltaE < res.MeanDeltaE {
		t.Errorf("max %f below mean %f", res.MaxDeltaE, res.MeanDeltaE)
	}
}

func TestPerform_EmptyPatchList(t *testing.T) {
	res := Perform("empty", nil, nil, DefaultTolerance)

	if res.MeanDeltaE != 0 || res.MaxDeltaE != 0 {
		t.Errorf("aggregates: got mean %f max %f, want zeros", res.MeanDeltaE, res.MaxDeltaE)
	}
	if res.Slope != [3]float64{1, 1, 1} {
		t.Errorf("slope: got %v, want identity", res.Slope)
	}
	if res.Offset != [3]float64{} {
		t.Errorf("offset: got %v, want zeros", res.Offset)
	}
	if res.Power != [3]float64{1, 1, 1} {
		t.Errorf("power: got %v, want ones", res.Power)
	}
}

func TestPerform_AllZeroTargets(t *testing.T) {
	patches := []sample.Patch{
		{Index: 0, Observed: [3]float32{0.4, 0.4, 0.4}},
		{Index: 1, Observed: [3]float32{0.2, 0.6, 0.3}},
	}

	res := Perform("no_refs", patches, nil, DefaultTolerance)
	for i, de := range res.PerPatchDeltaE {
		if de != 0 {
			t.Errorf("patch %d: got dE %f, want 0 for sentinel targets", i, de)
		}
	}
	if res.MeanDeltaE != 0 {
		t.Errorf("MeanDeltaE: got %f, want 0", res.MeanDeltaE)
	}
}

func TestPerform_UnmatchedSignatureUsesSaturationFallback(t *testing.T) {
	// 13 patches match no registered chart. Six achromatic patches
	// with identical observed/target grays; seven loud chromatic ones.
	var patches []sample.Patch
	for i := 0; i < 7; i++ {
		patches = append(patches, sample.Patch{
			Index:    i,
			Observed: [3]float32{0.9, 0.05, 0.05},
			Target:   [3]float32{0.9, 0.05, 0.05},
		})
	}
	grays := []float32{0.85, 0.6, 0.4, 0.25, 0.12, 0.04}
	for i, g := range grays {
		patches = append(patches, sample.Patch{
			Index:    7 + i,
			Observed: [3]float32{g, g, g},
			Target:   [3]float32{g, g, g},
		})
	}

	res := Perform("mystery_chart", patches, nil, DefaultTolerance)
	if !res.Unrecognized {
		t.Error("unmatched patch count must flag the result unrecognized")
	}
	// Neutrals match their targets exactly, so the correction is identity
	// even though the chromatic patches are loud.
	for c := 0; c < 3; c++ {
		if res.Slope[c] < 0.99 || res.Slope[c] > 1.01 {
			t.Errorf("slope[%d]: got %f, want ~1", c, res.Slope[c])
		}
	}
}

func TestNeutralSet_FallbackPicksSixLowestSaturation(t *testing.T) {
	var patches []sample.Patch
	for i := 0; i < 7; i++ {
		patches = append(patches, sample.Patch{Index: i, Observed: [3]float32{1, 0, 0}})
	}
	for i := 0; i < 6; i++ {
		g := 0.1 * float32(i+1)
		patches = append(patches, sample.Patch{Index: 7 + i, Observed: [3]float32{g, g, g}})
	}

	neutrals := neutralSet(patches, nil)
	if len(neutrals) != 6 {
		t.Fatalf("fallback neutral count: got %d, want 6", len(neutrals))
	}
	for _, p := range neutrals {
		if p.Index < 7 {
			t.Errorf("chromatic patch %d selected as neutral", p.Index)
		}
	}
	// Darkest last so the offset anchors on it.
	last := neutrals[len(neutrals)-1]
	if last.Observed[0] != 0.1 {
		t.Errorf("darkest neutral should come last, got %v", last.Observed)
	}
}

func TestNeutralSet_NamedSelector(t *testing.T) {
	sig := &signature.Signature{
		Kind:         signature.Anchored,
		NeutralNames: []string{"white", "black"},
	}
	patches := []sample.Patch{
		{Name: "red", Index: 0},
		{Name: "white", Index: 1},
		{Name: "black", Index: 2},
	}

	neutrals := neutralSet(patches, sig)
	if len(neutrals) != 2 {
		t.Fatalf("named neutrals: got %d, want 2", len(neutrals))
	}
	if neutrals[0].Name != "white" || neutrals[1].Name != "black" {
		t.Errorf("named selection order: got %s,%s", neutrals[0].Name, neutrals[1].Name)
	}
}

func TestDeriveCDL_SlopeClampsAtFour(t *testing.T) {
	// Near-black observed neutral against a bright target: the raw slope
	// explodes and must pin at the clamp ceiling.
	neutrals := []sample.Patch{
		{Observed: [3]float32{0.0001, 0.0001, 0.0001}, Target: [3]float32{0.9, 0.9, 0.9}},
	}

	slope, offset := deriveCDL(neutrals)
	for c := 0; c < 3; c++ {
		if slope[c] != 4 {
			t.Errorf("slope[%d]=%f, want clamp ceiling 4", c, slope[c])
		}
		if offset[c] < -1 || offset[c] > 1 {
			t.Errorf("offset[%d]=%f outside [-1,1]", c, offset[c])
		}
	}
}

func TestDeriveCDL_OffsetUsesRawSlope(t *testing.T) {
	// The darkest-neutral pin must come from the unclipped gain. With a
	// dim neutral against a bright target the raw gain is ~81.8, so the
	// pin lands essentially at zero; deriving it from the clipped gain
	// of 4 would drift it to ~0.856.
	neutrals := []sample.Patch{
		{Observed: [3]float32{0.011, 0.011, 0.011}, Target: [3]float32{0.9, 0.9, 0.9}},
	}

	slope, offset := deriveCDL(neutrals)
	for c := 0; c < 3; c++ {
		if slope[c] != 4 {
			t.Errorf("slope[%d]=%f, want clamp ceiling 4", c, slope[c])
		}
		if math.Abs(offset[c]) > 0.001 {
			t.Errorf("offset[%d]=%f, want ~0 from the raw-slope pin", c, offset[c])
		}
	}
}

func TestDeriveCDL_OffsetClampsAtFloor(t *testing.T) {
	// A hugely bright darkest neutral drives the raw offset far below -1.
	neutrals := []sample.Patch{
		{Observed: [3]float32{0.01, 0.01, 0.01}, Target: [3]float32{2, 2, 2}},
		{Observed: [3]float32{10, 10, 10}, Target: [3]float32{2, 2, 2}},
	}

	slope, offset := deriveCDL(neutrals)
	for c := 0; c < 3; c++ {
		if slope[c] < 0 || slope[c] > 4 {
			t.Errorf("slope[%d]=%f outside [0,4]", c, slope[c])
		}
		if offset[c] != -1 {
			t.Errorf("offset[%d]=%f, want clamp floor -1", c, offset[c])
		}
	}
}

func TestDeriveCDL_NoNeutrals(t *testing.T) {
	slope, offset := deriveCDL(nil)
	if slope != [3]float64{1, 1, 1} || offset != [3]float64{} {
		t.Errorf("empty neutral set: got slope %v offset %v, want identity", slope, offset)
	}
}
