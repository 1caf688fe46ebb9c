package pipeline

import "github.com/cinelab/chart-audit/internal/geometry"

// Config carries every pipeline tunable. A Config is set once and passed
// by value; nothing mutates it after construction.
type Config struct {
	// RectWidth, RectHeight fix the canonical rectified frame. Every
	// source rectifies to this size regardless of its own resolution.
	RectWidth  int
	RectHeight int

	// SampleSize is the square averaging window, in rectified pixels.
	SampleSize int

	// Tolerance is the mean Delta E pass threshold.
	Tolerance float64

	// Corner refinement tuning, forwarded to the geometry resolver.
	CannyLow   int
	CannyHigh  int
	MaskDilate int
	MinSegment int
	BlurRadius float64

	// TemplateKey pins the chart signature. Empty means retro-match by
	// patch count at audit time, sampling on the default grid layout.
	TemplateKey string

	// Query is the open-vocabulary prompt sent to the detection oracle.
	Query string

	// OutputDir receives QC artifacts. Empty disables artifact writing.
	OutputDir string
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		RectWidth:  960,
		RectHeight: 640,
		SampleSize: 32,
		Tolerance:  2.0,
		CannyLow:   50,
		CannyHigh:  150,
		MaskDilate: 12,
		MinSegment: 40,
		BlurRadius: 2.0,
		Query:      "color calibration chart",
	}
}

func (c Config) geometryOptions() geometry.Options {
	return geometry.Options{
		CannyLow:   c.CannyLow,
		CannyHigh:  c.CannyHigh,
		MaskDilate: c.MaskDilate,
		MinSegment: c.MinSegment,
		BlurRadius: c.BlurRadius,
	}
}
