// Package cfn: the CostFunction contract and its embeddable base.
//
// A CostFunction is one pluggable unit of penalty computation: given a full
// candidate solution it returns a weighted scalar score, and given a pair of
// candidates it returns the weighted score difference. The difference form
// exists purely for speed; the binding contract is
//
//	ScoreChange(a, b, s) == Score(b, s) - Score(a, s)
//
// for every correct implementation and every pair of valid candidates. Move-
// based optimizers (annealers, Monte Carlo samplers) rely on this equality
// for incremental re-scoring, so implementations MUST preserve it.
//
// BaseCostFunction supplies the weight and one-way finalize plumbing so that
// concrete cost functions only implement the scoring semantics.

package cfn

import (
	"math"
	"sync"
	"sync/atomic"
)

// CostFunction is the abstract unit of penalty computation owned by a
// problem. Implementations embed BaseCostFunction and shadow the scoring
// methods (and, when caching helps, the scratch-space methods).
//
// Lifecycle: configure (SetWeight, implementation-specific setters) →
// Finalize(variableNodeIndices) exactly once → read-only scoring. Scoring
// methods are only meaningful after finalize; the owning problem enforces
// the gate, so they do not re-check it on the hot path.
type CostFunction interface {
	// Weight returns the multiplier applied to the raw score.
	Weight() float64

	// SetWeight replaces the multiplier. Errors: ErrFinalized after
	// finalize, ErrNaNInf for non-finite weights.
	SetWeight(w float64) error

	// Finalize performs one-way setup. variableNodeIndices[i] is the
	// absolute node index of candidate-solution position i, sorted
	// ascending. A second call fails with ErrFinalized.
	Finalize(variableNodeIndices []int) error

	// Finalized reports whether the one-way transition has happened.
	Finalized() bool

	// Score returns the weighted score of sol. scratch is either nil or a
	// value produced by NewScratchSpace of the same CostFunction.
	Score(sol CandidateSolution, scratch CostFunctionScratchSpace) float64

	// ScoreChange returns the weighted score delta of newSol relative to
	// oldSol. MUST equal Score(newSol, scratch) - Score(oldSol, scratch).
	ScoreChange(oldSol, newSol CandidateSolution, scratch CostFunctionScratchSpace) float64

	// UsesScratchSpace reports whether the implementation benefits from a
	// scratch space. When true, callers that want the fast path must pass
	// the value produced by NewScratchSpace; nil always stays correct but
	// may recompute from scratch.
	UsesScratchSpace() bool

	// NewScratchSpace returns a fresh, exclusively-owned scratch space, or
	// nil when the implementation keeps no per-context cache.
	NewScratchSpace() CostFunctionScratchSpace

	// Clone returns a deep, independent copy (pre- or post-finalize).
	Clone() CostFunction

	// Categories reports the hierarchical category paths under which the
	// cost function registers in a Catalog.
	Categories() [][]string

	// Keywords reports the flat discovery keywords for Catalog lookups.
	Keywords() []string
}

// BaseCostFunction implements the weight and finalize plumbing shared by all
// cost functions. The zero value is ready to use with the default weight;
// embed it by value and shadow the scoring methods; its own Score and
// ScoreChange return 0 so a bare base contributes nothing.
//
// Concurrency mirrors the problem types: mutation is mutex-guarded, the
// finalized flag is atomic, and post-finalize reads skip the lock (the value
// is immutable from then on).
type BaseCostFunction struct {
	mu        sync.Mutex
	finalized atomic.Bool

	// weightSet distinguishes an explicit weight of 0 from the zero value;
	// varNodes holds the absolute node index per candidate position, set
	// at finalize.
	weight    float64
	weightSet bool
	varNodes  []int
}

// Weight returns the score multiplier (DefaultCostFunctionWeight until
// SetWeight is called).
// Complexity: O(1); lock-free after finalize.
func (b *BaseCostFunction) Weight() float64 {
	if b.finalized.Load() {
		return b.weightLocked()
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.weightLocked()
}

// weightLocked resolves the default without mutating state.
func (b *BaseCostFunction) weightLocked() float64 {
	if !b.weightSet {
		return DefaultCostFunctionWeight
	}

	return b.weight
}

// SetWeight replaces the score multiplier.
// Errors: ErrNaNInf for non-finite w, ErrFinalized after finalize.
func (b *BaseCostFunction) SetWeight(w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return ErrNaNInf
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finalized.Load() {
		return ErrFinalized
	}
	b.weight = w
	b.weightSet = true

	return nil
}

// Finalize records the variable-node layout and freezes the cost function.
// Errors: ErrFinalized on the second call, ErrNegativeIndex for a negative
// absolute node index.
func (b *BaseCostFunction) Finalize(variableNodeIndices []int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finalized.Load() {
		return ErrFinalized
	}

	return b.finalizeBaseLocked(variableNodeIndices)
}

// finalizeBaseLocked records the layout and flips the flag. Caller holds
// b.mu and has checked the flag; shared with embedders that finalize extra
// state under the same lock.
func (b *BaseCostFunction) finalizeBaseLocked(variableNodeIndices []int) error {
	for _, n := range variableNodeIndices {
		if n < 0 {
			return ErrNegativeIndex
		}
	}
	b.varNodes = make([]int, len(variableNodeIndices))
	copy(b.varNodes, variableNodeIndices)
	b.finalized.Store(true)

	return nil
}

// Finalized reports whether Finalize has run.
func (b *BaseCostFunction) Finalized() bool { return b.finalized.Load() }

// VariableNodeIndices returns the absolute node index per candidate
// position. Errors: ErrNotFinalized before finalize.
func (b *BaseCostFunction) VariableNodeIndices() ([]int, error) {
	if !b.finalized.Load() {
		return nil, ErrNotFinalized
	}
	out := make([]int, len(b.varNodes))
	copy(out, b.varNodes)

	return out, nil
}

// Score of the bare base is 0; concrete cost functions shadow it.
func (b *BaseCostFunction) Score(_ CandidateSolution, _ CostFunctionScratchSpace) float64 {
	return 0
}

// ScoreChange of the bare base is 0, consistent with its Score.
func (b *BaseCostFunction) ScoreChange(_, _ CandidateSolution, _ CostFunctionScratchSpace) float64 {
	return 0
}

// UsesScratchSpace is false for the bare base.
func (b *BaseCostFunction) UsesScratchSpace() bool { return false }

// NewScratchSpace is nil for the bare base (no per-context cache).
func (b *BaseCostFunction) NewScratchSpace() CostFunctionScratchSpace { return nil }

// Clone returns a deep copy of the bare base as a CostFunction. Embedders
// shadow Clone and use cloneBaseIntoLocked for the shared fields.
func (b *BaseCostFunction) Clone() CostFunction {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := &BaseCostFunction{}
	b.cloneBaseIntoLocked(out)

	return out
}

// cloneBaseIntoLocked deep-copies the shared fields into dst. Caller holds
// b.mu; dst is fresh and unshared.
func (b *BaseCostFunction) cloneBaseIntoLocked(dst *BaseCostFunction) {
	dst.weight = b.weight
	dst.weightSet = b.weightSet
	if b.varNodes != nil {
		dst.varNodes = make([]int, len(b.varNodes))
		copy(dst.varNodes, b.varNodes)
	}
	dst.finalized.Store(b.finalized.Load())
}

// Categories of the bare base: the generic cost-function path.
func (b *BaseCostFunction) Categories() [][]string {
	return [][]string{{"CostFunction"}}
}

// Keywords of the bare base.
func (b *BaseCostFunction) Keywords() []string {
	return []string{"optimization", "cost_function", "numeric"}
}
