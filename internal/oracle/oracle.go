// Package oracle adapts an external chart-detection capability into the one
// ROI representation the rest of the pipeline consumes.
//
// The detection model itself (a vision-language network answering a text
// query with an approximate image region) lives outside this repository,
// typically as an inference sidecar. This package only speaks to it and
// normalizes whatever shape it answers with: pixel polygons, normalized
// polygons, bounding boxes, or raw location-token strings.
package oracle

import (
	"context"

	"github.com/cinelab/chart-audit/internal/buffer"
)

// ROI is the raw output of a detection call. None of its fields are
// guaranteed well-formed or even present; NormalizeToPoints is the only
// sanctioned way to read it.
type ROI struct {
	// Label echoes the query phrase the detector matched, if any.
	Label string `json:"label,omitempty"`

	// Points is a polygon outline as (x, y) pairs, in pixel or
	// normalized units.
	Points [][2]float64 `json:"points,omitempty"`

	// Boxes holds axis-aligned boxes as (x1, y1, x2, y2), in pixel or
	// normalized units. Only the first box is consulted.
	Boxes [][4]float64 `json:"boxes,omitempty"`

	// Raw is an undecoded detector transcript. Some models emit their
	// region as <loc_N> tokens on a 0-1000 grid instead of structured
	// coordinates.
	Raw string `json:"raw,omitempty"`
}

// Detector is the injected detection capability.
//
// Detect proposes an approximate region for query in img. It is a blocking,
// non-cancelable call from the pipeline's viewpoint beyond ctx; one Detector
// session must not be shared across concurrently processed images.
//
// A detector that finds nothing returns an empty ROI and a nil error;
// errors are reserved for transport and inference failures.
type Detector interface {
	Detect(ctx context.Context, img *buffer.Buffer, query string) (ROI, error)
}

// Static is a deterministic Detector double returning a fixed ROI. It lets
// geometry, topology, sampling, and audit logic run without any model.
type Static struct {
	ROI ROI
	Err error
}

// Detect returns the configured ROI regardless of input.
func (s Static) Detect(ctx context.Context, img *buffer.Buffer, query string) (ROI, error) {
	return s.ROI, s.Err
}
