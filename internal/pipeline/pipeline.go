// Package pipeline chains detection, geometry, rectification, sampling and
// audit into the three exposed operations: Locate, SampleAll and
// PerformAudit. Run drives the whole chain for one image file and writes
// the QC artifacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/cinelab/chart-audit/internal/audit"
	"github.com/cinelab/chart-audit/internal/buffer"
	"github.com/cinelab/chart-audit/internal/geometry"
	"github.com/cinelab/chart-audit/internal/oracle"
	"github.com/cinelab/chart-audit/internal/rectify"
	"github.com/cinelab/chart-audit/internal/sample"
	"github.com/cinelab/chart-audit/internal/signature"
	"github.com/cinelab/chart-audit/internal/topology"
)

// ErrChartNotFound reports that the oracle saw no chart in the image.
// It is an outcome, not a fault: callers decide whether it fails a batch.
var ErrChartNotFound = errors.New("chart not found")

// defaultTemplate is the grid layout used for sampling when no template
// key is configured.
const defaultTemplate = "colorchecker24"

// Pipeline runs the audit chain with a fixed Config. Instances hold no
// per-image state and may be shared across goroutines as long as each
// goroutine brings its own detector session.
type Pipeline struct {
	cfg      Config
	detector oracle.Detector
	registry *signature.Registry
	cache    *buffer.Cache
	logger   *log.Logger
}

// New builds a Pipeline. detector may be nil when every call supplies
// manual corners. logger nil means stderr.
func New(cfg Config, detector oracle.Detector, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
	}
	return &Pipeline{
		cfg:      cfg,
		detector: detector,
		registry: signature.Builtin(),
		cache:    buffer.NewCache(),
		logger:   logger,
	}
}

// Locate finds the chart corners in buf.
//
// Manual corners short-circuit detection entirely and are honored
// verbatim (ordered, never refined). Otherwise the oracle proposes a
// region, the adapter normalizes it to pixel points, and the geometry
// resolver refines those into virtual corners; when refinement is
// unreliable the unrefined polygon's ordering stands.
//
// A (nil, nil, nil) return means the oracle found no chart.
func (p *Pipeline) Locate(ctx context.Context, buf *buffer.Buffer, manual [][2]float64) (*geometry.CornerSet, [][2]float64, error) {
	if len(manual) > 0 {
		corners := geometry.FromPoints(manual)
		if corners == nil {
			return nil, nil, fmt.Errorf("manual corners: cannot order %d point(s) into a quad", len(manual))
		}
		return corners, manual, nil
	}

	if p.detector == nil {
		return nil, nil, errors.New("locate: no manual corners and no detector configured")
	}

	query := p.cfg.Query
	if p.cfg.TemplateKey != "" {
		// A pinned template knows its own detection phrase.
		if sig := p.registry.ByKey(p.cfg.TemplateKey); sig != nil && sig.Query != "" {
			query = sig.Query
		}
	}
	roi, err := p.detector.Detect(ctx, buf, query)
	if err != nil {
		return nil, nil, fmt.Errorf("chart detection: %w", err)
	}
	points := oracle.NormalizeToPoints(roi, buf.Width, buf.Height)
	if len(points) == 0 {
		return nil, nil, nil
	}

	if refined := geometry.Resolve(buf, points, p.cfg.geometryOptions()); refined != nil {
		return refined, points, nil
	}
	return geometry.FromPoints(points), points, nil
}

// SampleAll locates the chart, rectifies it into the canonical frame and
// measures every patch. Targets from the sampling signature are attached
// to the returned patches.
//
// Chart not found propagates as all-nil returns with a nil error.
func (p *Pipeline) SampleAll(ctx context.Context, buf *buffer.Buffer, sourceID string, manual [][2]float64) ([]sample.Patch, *buffer.Buffer, *geometry.CornerSet, error) {
	corners, _, err := p.Locate(ctx, buf, manual)
	if err != nil {
		return nil, nil, nil, err
	}
	if corners == nil {
		return nil, nil, nil, nil
	}

	rectified, err := rectify.Warp(buf, *corners, p.cfg.RectWidth, p.cfg.RectHeight)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("rectify %s: %w", sourceID, err)
	}

	sig, err := p.samplingSignature()
	if err != nil {
		return nil, nil, nil, err
	}
	centers := topology.Resolve(sig, p.cfg.RectWidth, p.cfg.RectHeight)
	if len(centers) == 0 {
		return nil, nil, nil, fmt.Errorf("template %q resolves to no patch centers", sig.Key)
	}

	patches := sample.Mean(rectified, centers, p.cfg.SampleSize)
	patches = sample.AttachTargets(patches, sig.Targets)
	return patches, rectified, corners, nil
}

// PerformAudit scores sampled patches. The signature comes from the
// configured template key, or retroactively from the patch count; an
// unmatched count runs the heuristic audit and flags the result.
func (p *Pipeline) PerformAudit(sourceID string, patches []sample.Patch) audit.Result {
	var sig *signature.Signature
	if p.cfg.TemplateKey != "" {
		sig = p.registry.ByKey(p.cfg.TemplateKey)
	} else {
		sig = p.registry.ByPatchCount(len(patches))
	}
	return audit.Perform(sourceID, patches, sig, p.cfg.Tolerance)
}

// Run audits one image file end to end and writes QC artifacts when an
// output directory is configured. ErrChartNotFound reports an image the
// oracle could not find a chart in.
func (p *Pipeline) Run(ctx context.Context, path string, manual [][2]float64) (audit.Result, error) {
	buf, meta, err := p.cache.Load(path)
	if err != nil {
		return audit.Result{}, fmt.Errorf("load %s: %w", path, err)
	}
	// Concurrent Runs on the same plate share one decode; the entry is
	// dropped once this file's verdict is settled.
	defer p.cache.Evict(path)
	if meta.HDR {
		p.logger.Printf("%s: values above 1.0 (max %.3f), auditing in linear light", path, meta.MaxValue)
	}
	if meta.LowSignal {
		p.logger.Printf("%s: near-black frame (max %.5f), audit may be meaningless", path, meta.MaxValue)
	}

	sourceID := stem(path)
	corners, points, err := p.Locate(ctx, buf, manual)
	if err != nil {
		return audit.Result{}, err
	}
	if corners == nil {
		return audit.Result{}, fmt.Errorf("%s: %w", path, ErrChartNotFound)
	}

	rectified, err := rectify.Warp(buf, *corners, p.cfg.RectWidth, p.cfg.RectHeight)
	if err != nil {
		return audit.Result{}, fmt.Errorf("rectify %s: %w", path, err)
	}
	sig, err := p.samplingSignature()
	if err != nil {
		return audit.Result{}, err
	}
	centers := topology.Resolve(sig, p.cfg.RectWidth, p.cfg.RectHeight)
	patches := sample.AttachTargets(sample.Mean(rectified, centers, p.cfg.SampleSize), sig.Targets)

	res := p.PerformAudit(sourceID, patches)
	res.Corners = corners[:]

	if p.cfg.OutputDir != "" {
		alignPath := filepath.Join(p.cfg.OutputDir, sourceID+"_QC_ALIGNMENT.png")
		if err := writeAlignmentOverlay(rectified, patches, p.cfg.SampleSize, alignPath); err != nil {
			p.logger.Printf("%s: alignment artifact: %v", path, err)
		} else {
			res.RectifiedRef = alignPath
		}
		if len(manual) == 0 {
			checkPath := filepath.Join(p.cfg.OutputDir, sourceID+"_AI_DETECTION_CHECK.png")
			if err := writeDetectionOverlay(buf, points, *corners, checkPath); err != nil {
				p.logger.Printf("%s: detection artifact: %v", path, err)
			}
		}
	}
	return res, nil
}

// samplingSignature resolves the layout patches are measured on.
func (p *Pipeline) samplingSignature() (*signature.Signature, error) {
	key := p.cfg.TemplateKey
	if key == "" {
		key = defaultTemplate
	}
	sig := p.registry.ByKey(key)
	if sig == nil {
		return nil, fmt.Errorf("unknown chart template %q", key)
	}
	return sig, nil
}

// stem is the file name without directory or extension, used as the
// source ID and artifact prefix.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
