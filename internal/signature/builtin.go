package signature

import (
	"github.com/lucasb-eyer/go-colorful"
)

// Reference values below are display-referred sRGB 8-bit and are converted
// to the linear working space once, when the builtin registry is assembled.

// colorChecker24 holds the classic 24-patch reference set, row-major from
// dark skin (top-left) to black (bottom-right). Values are the commonly
// published averages for the pre-2014 classic chart.
var colorChecker24 = []struct {
	name    string
	r, g, b uint8
}{
	{"dark_skin", 115, 82, 68},
	{"light_skin", 194, 150, 130},
	{"blue_sky", 98, 122, 157},
	{"foliage", 87, 108, 67},
	{"blue_flower", 133, 128, 177},
	{"bluish_green", 103, 189, 170},
	{"orange", 214, 126, 44},
	{"purplish_blue", 80, 91, 166},
	{"moderate_red", 193, 90, 99},
	{"purple", 94, 60, 108},
	{"yellow_green", 157, 188, 64},
	{"orange_yellow", 224, 163, 46},
	{"blue", 56, 61, 150},
	{"green", 70, 148, 73},
	{"red", 175, 54, 60},
	{"yellow", 231, 199, 31},
	{"magenta", 187, 86, 149},
	{"cyan", 8, 133, 161},
	{"white", 243, 243, 242},
	{"neutral_8", 200, 200, 200},
	{"neutral_65", 160, 160, 160},
	{"neutral_5", 122, 122, 121},
	{"neutral_35", 85, 85, 85},
	{"black", 52, 52, 52},
}

// greyRamp9 is a 9-step reflective grey wedge, brightest step first. Every
// patch is achromatic, so the whole ramp doubles as the neutral set.
var greyRamp9 = []struct {
	name string
	v    uint8
}{
	{"step_1", 240},
	{"step_2", 210},
	{"step_3", 180},
	{"step_4", 150},
	{"step_5", 120},
	{"step_6", 90},
	{"step_7", 60},
	{"step_8", 35},
	{"step_9", 15},
}

// Builtin returns the registry of charts this tool recognizes out of the
// box: the 24-patch checker and a 9-step grey wedge.
func Builtin() *Registry {
	return NewRegistry(newColorChecker24(), newGreyRamp9())
}

func newColorChecker24() *Signature {
	sig := &Signature{
		Key:   "colorchecker24",
		Query: "color calibration chart",
		Kind:  Grid,
		Cols:  6,
		Rows:  4,
		// Bottom row: white through black, darkest last.
		NeutralIndices: []int{18, 19, 20, 21, 22, 23},
	}
	for _, p := range colorChecker24 {
		sig.Names = append(sig.Names, p.name)
		sig.Targets = append(sig.Targets, linearize(p.r, p.g, p.b))
	}
	return sig
}

func newGreyRamp9() *Signature {
	sig := &Signature{
		Key:   "greyramp9",
		Query: "grey scale chart",
		Kind:  Anchored,
	}
	step := 1.0 / float64(len(greyRamp9))
	for i, p := range greyRamp9 {
		sig.Anchors = append(sig.Anchors, Anchor{
			Name: p.name,
			X:    (float64(i) + 0.5) * step,
			Y:    0.5,
		})
		sig.Names = append(sig.Names, p.name)
		sig.NeutralNames = append(sig.NeutralNames, p.name)
		sig.Targets = append(sig.Targets, linearize(p.v, p.v, p.v))
	}
	return sig
}

func linearize(r, g, b uint8) [3]float32 {
	c := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
	lr, lg, lb := c.LinearRgb()
	return [3]float32{float32(lr), float32(lg), float32(lb)}
}
