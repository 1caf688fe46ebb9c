// Package signature catalogs known chart geometries and their reference
// colors.
//
// A Signature fully describes one physical chart: how its patches are laid
// out (a uniform grid or a set of named anchor positions), which patches are
// achromatic, what each patch should measure in linear RGB, and the text
// query that locates this chart in a photograph. The registry is populated
// once and is read-only afterwards, so it is safe to share across
// concurrent audits.
package signature

// Kind selects the patch layout model of a chart.
type Kind int

const (
	// Grid charts tile the canonical frame with Cols×Rows uniform cells;
	// patches are enumerated row-major and selected by ordinal index.
	Grid Kind = iota

	// Anchored charts place patches at explicit normalized positions;
	// patches are selected by name.
	Anchored
)

// Anchor is a named normalized (0..1) patch position on an anchored chart.
type Anchor struct {
	Name string
	X, Y float64
}

// Signature describes one chart model. All fields are fixed at
// construction; nothing mutates a Signature after registration.
type Signature struct {
	// Key identifies the signature for explicit template selection.
	Key string

	// Query is the detection phrase handed to the oracle when this
	// signature is pre-selected.
	Query string

	Kind Kind

	// Cols, Rows describe a Grid layout; zero for Anchored charts.
	Cols, Rows int

	// Anchors describe an Anchored layout; empty for Grid charts.
	Anchors []Anchor

	// Names gives a display name per patch in layout order. May be nil,
	// in which case callers synthesize ordinal names.
	Names []string

	// NeutralIndices selects the achromatic patches of a Grid chart by
	// row-major ordinal, darkest last: the offset derivation anchors on
	// the final entry.
	NeutralIndices []int

	// NeutralNames selects the achromatic patches of an Anchored chart.
	NeutralNames []string

	// Targets holds the linear-RGB reference value per patch, in layout
	// order.
	Targets [][3]float32
}

// PatchCount returns the number of patches this chart carries.
func (s *Signature) PatchCount() int {
	if s.Kind == Grid {
		return s.Cols * s.Rows
	}
	return len(s.Anchors)
}

// Registry maps template keys and patch counts to signatures.
type Registry struct {
	byKey   map[string]*Signature
	byCount map[int]*Signature
}

// NewRegistry builds a registry over the given signatures. Later signatures
// win patch-count collisions; keys must be unique.
func NewRegistry(sigs ...*Signature) *Registry {
	r := &Registry{
		byKey:   make(map[string]*Signature, len(sigs)),
		byCount: make(map[int]*Signature, len(sigs)),
	}
	for _, s := range sigs {
		r.byKey[s.Key] = s
		r.byCount[s.PatchCount()] = s
	}
	return r
}

// ByKey returns the signature registered under key, or nil. Used on the
// pre-selection path, where the template drives the oracle query and the
// topology up front.
func (r *Registry) ByKey(key string) *Signature {
	return r.byKey[key]
}

// ByPatchCount retroactively matches a discovered patch count to a
// signature. A nil result is not an abort condition: the auditor falls back
// to heuristic neutral selection and flags the result unrecognized.
func (r *Registry) ByPatchCount(n int) *Signature {
	return r.byCount[n]
}
