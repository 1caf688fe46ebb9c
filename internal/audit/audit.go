// Package audit compares sampled patch colors against their references and
// derives the neutralization correction.
//
// Two outputs per audit: a perceptual error verdict (per-patch and
// aggregate CIE Delta E 2000 against a tolerance) and an ASC-CDL
// slope/offset/power triple that would neutralize the measured cast. Every
// degenerate input (no patches, no usable neutrals, unreferenced targets)
// produces a well-formed default Result; callers always get a structured
// verdict.
package audit

import (
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/cinelab/chart-audit/internal/sample"
	"github.com/cinelab/chart-audit/internal/signature"
)

// DefaultTolerance is the mean Delta E at or below which a plate passes:
// the conventional just-noticeable-difference threshold.
const DefaultTolerance = 2.0

// epsilon guards the slope division against all-black neutral means.
const epsilon = 1e-6

// fallbackNeutralCount is how many lowest-saturation patches stand in for
// the neutral set when no signature matched.
const fallbackNeutralCount = 6

// Result is the final verdict for one source. It is finalized by the call
// that creates it and never mutated afterwards.
type Result struct {
	SourceID string `json:"source_id"`

	// Corners of the located chart in source pixels (TL, TR, BR, BL),
	// when the creating pipeline knows them.
	Corners [][2]float64 `json:"corners,omitempty"`

	// RectifiedRef names the persisted rectified/overlay artifact.
	RectifiedRef string `json:"rectified_reference,omitempty"`

	PerPatchDeltaE []float64 `json:"per_patch_delta_e"`
	MeanDeltaE     float64   `json:"mean_delta_e"`
	MaxDeltaE      float64   `json:"max_delta_e"`
	Pass           bool      `json:"pass"`

	// Unrecognized is set when no signature matched the patch count and
	// the heuristic neutral fallback was used.
	Unrecognized bool `json:"unrecognized"`

	// ASC-CDL neutralization, per channel.
	Slope      [3]float64 `json:"slope"`
	Offset     [3]float64 `json:"offset"`
	Power      [3]float64 `json:"power"`
	Saturation float64    `json:"saturation"`
}

// Perform audits sampled patches against their attached targets.
//
// sig is the matched chart signature, or nil when the patch count matched
// nothing in the registry; in that case the neutral set is guessed from
// saturation and the result is flagged Unrecognized.
func Perform(sourceID string, patches []sample.Patch, sig *signature.Signature, tolerance float64) Result {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	res := Result{
		SourceID:   sourceID,
		Power:      [3]float64{1, 1, 1},
		Saturation: 1.0,
	}

	if len(patches) == 0 {
		res.Slope = [3]float64{1, 1, 1}
		res.Pass = true
		return res
	}

	res.PerPatchDeltaE = make([]float64, len(patches))
	var total float64
	resolved := 0
	for i, p := range patches {
		de := DeltaE2000(p.Observed, p.Target)
		res.PerPatchDeltaE[i] = de
		if p.Target != [3]float32{} {
			total += de
			resolved++
			if de > res.MaxDeltaE {
				res.MaxDeltaE = de
			}
		}
	}
	if resolved > 0 {
		res.MeanDeltaE = total / float64(resolved)
	}
	res.Pass = res.MeanDeltaE <= tolerance

	neutrals := neutralSet(patches, sig)
	if sig == nil {
		res.Unrecognized = true
	}
	res.Slope, res.Offset = deriveCDL(neutrals)
	return res
}

// DeltaE2000 is the CIE 2000 perceptual difference between two linear RGB
// triples. A zero target is the "no resolved reference" sentinel and
// reports 0 by definition. HDR components are clamped into [0, 1] before
// the Lab conversion, which is only defined on display-range values.
func DeltaE2000(observed, target [3]float32) float64 {
	if target == [3]float32{} {
		return 0
	}
	return toColor(observed).DistanceCIEDE2000(toColor(target))
}

func toColor(rgb [3]float32) colorful.Color {
	return colorful.LinearRgb(
		clamp01(float64(rgb[0])),
		clamp01(float64(rgb[1])),
		clamp01(float64(rgb[2])),
	)
}

// neutralSet resolves the achromatic patches to derive the correction from.
// With a signature the selector is authoritative (indices for grids, names
// for anchored charts); without one, the patches with the lowest saturation
// (max channel − min channel) stand in, darkest-last so the offset anchors
// on the darkest step.
func neutralSet(patches []sample.Patch, sig *signature.Signature) []sample.Patch {
	if sig != nil {
		var out []sample.Patch
		if len(sig.NeutralIndices) > 0 {
			for _, idx := range sig.NeutralIndices {
				for _, p := range patches {
					if p.Index == idx {
						out = append(out, p)
						break
					}
				}
			}
			return out
		}
		for _, name := range sig.NeutralNames {
			for _, p := range patches {
				if p.Name == name {
					out = append(out, p)
					break
				}
			}
		}
		return out
	}

	type rated struct {
		p   sample.Patch
		sat float32
	}
	rs := make([]rated, 0, len(patches))
	for _, p := range patches {
		rs = append(rs, rated{p: p, sat: saturation(p.Observed)})
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].sat < rs[j].sat })

	n := fallbackNeutralCount
	if len(rs) < n {
		n = len(rs)
	}
	out := make([]sample.Patch, 0, n)
	for _, r := range rs[:n] {
		out = append(out, r.p)
	}
	// Darkest last, matching the signature convention.
	sort.SliceStable(out, func(i, j int) bool {
		return luma(out[i].Observed) > luma(out[j].Observed)
	})
	return out
}

// deriveCDL computes the per-channel slope (gain) and offset (lift) that
// neutralize the observed cast. Slope is the ratio of target to observed
// neutral means; offset pins the darkest neutral exactly, derived from the
// raw slope so the pinning holds even when the slope is later clipped.
// Both values are clamped last, rejecting numerically unstable results
// from noisy or mismatched neutral sets.
func deriveCDL(neutrals []sample.Patch) (slope, offset [3]float64) {
	slope = [3]float64{1, 1, 1}
	if len(neutrals) == 0 {
		return slope, offset
	}

	var obsMean, tgtMean [3]float64
	for _, p := range neutrals {
		for c := 0; c < 3; c++ {
			obsMean[c] += float64(p.Observed[c])
			tgtMean[c] += float64(p.Target[c])
		}
	}
	n := float64(len(neutrals))

	last := neutrals[len(neutrals)-1]
	for c := 0; c < 3; c++ {
		obsMean[c] /= n
		tgtMean[c] /= n

		raw := tgtMean[c] / (obsMean[c] + epsilon)
		offset[c] = clamp(float64(last.Target[c])-float64(last.Observed[c])*raw, -1, 1)
		slope[c] = clamp(raw, 0, 4)
	}
	return slope, offset
}

func saturation(rgb [3]float32) float32 {
	max, min := rgb[0], rgb[0]
	for _, v := range rgb[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return max - min
}

func luma(rgb [3]float32) float64 {
	return 0.299*float64(rgb[0]) + 0.587*float64(rgb[1]) + 0.114*float64(rgb[2])
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
