// Package cfn: the pairwise-precomputed problem specialization.
//
// PairwiseProblem stores explicit one-body and two-body penalty tables and
// scores candidates directly from them, bypassing per-CostFunction dispatch
// for the additive pairwise part. This is THE performance-critical path of
// the package: the finalize pass folds every interaction of fixed
// (single-choice) nodes into constant offsets and one-body terms so that
// evaluation touches variable nodes only.
//
// Storage is sparse both ways: one-body is node → choice → penalty, two-body
// is (lo,hi) node pair → (choice@lo, choice@hi) → penalty, with lo < hi
// enforced on every write. Absent entries contribute exactly 0.

package cfn

import (
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// PairwiseProblem is the pairwise-precomputed CFN problem. Construct via
// NewPairwiseProblem; the zero value is not usable.
type PairwiseProblem struct {
	Problem

	// background is the user-supplied additive constant; mutable until
	// finalize, then folded into every score.
	background float64

	// oneChoiceOffset is derived at finalize: the summed penalties of all
	// fixed-node selections (one-body at their single choice, two-body
	// between pairs of fixed nodes).
	oneChoiceOffset float64

	onebody map[int]map[int]float64
	twobody map[NodePair]map[ChoicePair]float64
}

// NewPairwiseProblem returns an empty pairwise problem in its configuring
// phase. Accepts WithBackgroundOffset and WithNodeCapacityHint.
func NewPairwiseProblem(opts ...Option) *PairwiseProblem {
	o := gatherOptions(opts...)
	p := &PairwiseProblem{}
	p.init(o)
	p.background = o.backgroundOffset
	p.onebody = make(map[int]map[int]float64, o.nodeCapacityHint)
	p.twobody = make(map[NodePair]map[ChoicePair]float64)

	return p
}

// Kind reports the concrete problem tag.
func (p *PairwiseProblem) Kind() ProblemKind { return KindPairwise }

// Reset wipes all configuration (node bookkeeping, cost functions, both
// penalty tables, and the background offset), returning the problem to its
// empty state. Only legal in the configuring phase.
// Errors: ErrFinalized.
func (p *PairwiseProblem) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized.Load() {
		return ErrFinalized
	}
	p.resetPairwiseLocked()

	return nil
}

// resetPairwiseLocked wipes the pairwise state on top of the base reset.
// Caller holds p.mu and has checked the phase.
func (p *PairwiseProblem) resetPairwiseLocked() {
	p.resetLocked()
	p.onebody = make(map[int]map[int]float64)
	p.twobody = make(map[NodePair]map[ChoicePair]float64)
	p.background = DefaultBackgroundOffset
	p.oneChoiceOffset = 0
}

// SetOnebodyPenalty stores (overwrites, never accumulates) the one-body
// penalty of (node, choice) and grows the node's choice count to at least
// choice+1.
// Errors: ErrNegativeIndex, ErrOutOfRange, ErrNaNInf, ErrFinalized.
// Complexity: O(1) amortized.
func (p *PairwiseProblem) SetOnebodyPenalty(node, choice int, penalty float64) error {
	if node < 0 || choice < 0 {
		return ErrNegativeIndex
	}
	if node > maxNodeIndex {
		return ErrOutOfRange
	}
	if math.IsNaN(penalty) || math.IsInf(penalty, 0) {
		return ErrNaNInf
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized.Load() {
		return ErrFinalized
	}
	p.touchNodeLocked(node, choice+1)
	p.setOnebodyLocked(node, choice, penalty, false)

	return nil
}

// setOnebodyLocked writes a one-body entry; additive=true merges with any
// existing value (used by the fold-down pass). Caller holds p.mu.
func (p *PairwiseProblem) setOnebodyLocked(node, choice int, penalty float64, additive bool) {
	m, ok := p.onebody[node]
	if !ok {
		m = make(map[int]float64)
		p.onebody[node] = m
	}
	if additive {
		m[choice] += penalty
	} else {
		m[choice] = penalty
	}
}

// SetTwobodyPenalty stores (overwrites) the two-body penalty of the ordered
// node pair at the given choice pair, and grows both nodes' choice counts.
// The key MUST satisfy nodes.Lo < nodes.Hi: the canonical ordering is what
// lets scoring look pairs up lower-node-first without a second probe.
// Errors: ErrNegativeIndex, ErrOutOfRange, ErrNodeOrder, ErrNaNInf,
// ErrFinalized.
// Complexity: O(1) amortized.
func (p *PairwiseProblem) SetTwobodyPenalty(nodes NodePair, choices ChoicePair, penalty float64) error {
	if nodes.Lo < 0 || nodes.Hi < 0 || choices.Lo < 0 || choices.Hi < 0 {
		return ErrNegativeIndex
	}
	if nodes.Hi > maxNodeIndex {
		return ErrOutOfRange
	}
	if nodes.Hi <= nodes.Lo {
		return ErrNodeOrder
	}
	if math.IsNaN(penalty) || math.IsInf(penalty, 0) {
		return ErrNaNInf
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized.Load() {
		return ErrFinalized
	}
	p.touchNodeLocked(nodes.Lo, choices.Lo+1)
	p.touchNodeLocked(nodes.Hi, choices.Hi+1)
	m, ok := p.twobody[nodes]
	if !ok {
		m = make(map[ChoicePair]float64)
		p.twobody[nodes] = m
	}
	m[choices] = penalty

	return nil
}

// SetBackgroundOffset replaces the user-supplied additive constant.
// Errors: ErrNaNInf, ErrFinalized.
func (p *PairwiseProblem) SetBackgroundOffset(offset float64) error {
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		return ErrNaNInf
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized.Load() {
		return ErrFinalized
	}
	p.background = offset

	return nil
}

// BackgroundOffset returns the user-supplied additive constant.
func (p *PairwiseProblem) BackgroundOffset() float64 {
	if p.finalized.Load() {
		return p.background
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.background
}

// OneChoiceNodeOffset returns the finalize-derived constant: the summed
// penalties of all fixed-node selections.
// Errors: ErrNotFinalized.
func (p *PairwiseProblem) OneChoiceNodeOffset() (float64, error) {
	if !p.finalized.Load() {
		return 0, ErrNotFinalized
	}

	return p.oneChoiceOffset, nil
}

// TotalConstantOffset returns background + one-choice-node offset.
// Errors: ErrNotFinalized.
func (p *PairwiseProblem) TotalConstantOffset() (float64, error) {
	if !p.finalized.Load() {
		return 0, ErrNotFinalized
	}

	return p.background + p.oneChoiceOffset, nil
}

// OnebodyPenalty returns the currently stored one-body penalty of
// (node, choice), 0 when absent. Pre-finalize it reads the raw table (under
// the lock); post-finalize it reflects the fold-down result.
func (p *PairwiseProblem) OnebodyPenalty(node, choice int) float64 {
	if p.finalized.Load() {
		return p.onebody[node][choice]
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.onebody[node][choice]
}

// TwobodyPenalty returns the currently stored two-body penalty of the
// ordered pair, 0 when absent. Misordered keys are never stored, so they
// read 0.
func (p *PairwiseProblem) TwobodyPenalty(nodes NodePair, choices ChoicePair) float64 {
	if p.finalized.Load() {
		return p.twobody[nodes][choices]
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.twobody[nodes][choices]
}

// HasNonPairwiseScores reports whether any score term falls outside the
// precomputed pairwise decomposition. Always false: on-the-fly non-pairwise
// terms are a reserved extension point, and registered generic cost
// functions deliberately do NOT enter the pairwise fast path.
func (p *PairwiseProblem) HasNonPairwiseScores() bool { return false }

// Finalize runs the pairwise finalize stages exactly once:
//  1. Fold-down: every two-body entry with exactly one fixed (single-choice)
//     endpoint is transferred into the variable endpoint's one-body table
//     (additively merged) and removed from the two-body table.
//  2. Constant offset: one-body penalties of fixed nodes at their single
//     choice, plus two-body penalties between pairs of fixed nodes, are
//     summed into the one-choice-node offset.
//  3. Base finalize: the variable-node layout is frozen and the phase flips.
//
// A second call fails with ErrFinalized.
// Complexity: O(P log P + E) over P stored node pairs and E table entries.
func (p *PairwiseProblem) Finalize() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized.Load() {
		return ErrFinalized
	}

	return p.finalizePairwiseLocked()
}

// finalizePairwiseLocked runs the fold-down, offset, and base stages.
// Caller holds p.mu and has checked the phase.
func (p *PairwiseProblem) finalizePairwiseLocked() error {
	// Stage 1: collect the fixed-node set S (exactly one choice).
	fixed := roaring.New()
	for node, count := range p.choiceCounts {
		if count == 1 {
			fixed.Add(uint32(node))
		}
	}

	// Stage 2: fold-down over sorted pair keys (sorted for deterministic
	// floating-point accumulation when entries merge).
	pairs := p.sortedPairKeysLocked()
	var loFixed, hiFixed bool
	for _, np := range pairs {
		loFixed = fixed.Contains(uint32(np.Lo))
		hiFixed = fixed.Contains(uint32(np.Hi))
		switch {
		case loFixed && !hiFixed:
			// A fixed node sits at one choice only, so every entry of this
			// pair pins Lo and varies Hi: transfer to Hi's one-body table.
			for cp, penalty := range p.twobody[np] {
				p.setOnebodyLocked(np.Hi, cp.Hi, penalty, true)
			}
			delete(p.twobody, np)
		case hiFixed && !loFixed:
			for cp, penalty := range p.twobody[np] {
				p.setOnebodyLocked(np.Lo, cp.Lo, penalty, true)
			}
			delete(p.twobody, np)
		default:
			// Both fixed: folded into the constant offset below.
			// Neither fixed: a genuine pairwise term, left untouched.
		}
	}

	// Stage 3: one-choice-node constant offset. A fixed node's single choice
	// is index 0; any stored penalty at a higher choice would have grown
	// the count past 1 and pulled the node out of S.
	var offset float64
	it := fixed.Iterator()
	for it.HasNext() {
		if m := p.onebody[int(it.Next())]; m != nil {
			offset += m[0]
		}
	}
	for _, np := range pairs {
		m, ok := p.twobody[np]
		if !ok {
			continue // folded away in stage 2
		}
		if fixed.Contains(uint32(np.Lo)) && fixed.Contains(uint32(np.Hi)) {
			offset += m[ChoicePair{Lo: 0, Hi: 0}]
		}
	}
	p.oneChoiceOffset = offset

	// Stage 4: base finalize freezes the layout and flips the phase.
	return p.finalizeLocked()
}

// sortedPairKeysLocked returns the two-body keys sorted (Lo, Hi) ascending.
// Caller holds p.mu.
func (p *PairwiseProblem) sortedPairKeysLocked() []NodePair {
	pairs := make([]NodePair, 0, len(p.twobody))
	for np := range p.twobody {
		pairs = append(pairs, np)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Lo != pairs[j].Lo {
			return pairs[i].Lo < pairs[j].Lo
		}

		return pairs[i].Hi < pairs[j].Hi
	})

	return pairs
}

// NonApproximateAbsoluteScore evaluates sol directly from the folded tables:
//
//	totalConstantOffset + Σ_i onebody(nᵢ, sᵢ) + Σ_{j<i} twobody((nⱼ,nᵢ),(sⱼ,sᵢ))
//
// The inner loop keeps j < i so the lower-index node is always looked up
// first, matching the storage canonicalization; one probe per pair, never
// two. The scratch container is accepted for interface symmetry and unused:
// table lookups need no cache.
// Errors: ErrNotFinalized, ErrDimensionMismatch, ErrNegativeIndex,
// ErrChoiceOutOfRange.
// Complexity: O(k²), k = variable nodes. Lock-free.
func (p *PairwiseProblem) NonApproximateAbsoluteScore(sol CandidateSolution, _ *ProblemScratchSpace) (float64, error) {
	if !p.finalized.Load() {
		return 0, ErrNotFinalized
	}
	if err := p.checkSolutionDims(sol); err != nil {
		return 0, err
	}

	score := p.background + p.oneChoiceOffset
	var (
		i, j, node int
	)
	for i = 0; i < p.totalVariable; i++ {
		node = p.varIndices[i]
		if m := p.onebody[node]; m != nil {
			score += m[sol[i]]
		}
		for j = 0; j < i; j++ {
			if m := p.twobody[NodePair{Lo: p.varIndices[j], Hi: node}]; m != nil {
				score += m[ChoicePair{Lo: sol[j], Hi: sol[i]}]
			}
		}
	}

	return score, nil
}

// AbsoluteScore is the pairwise fast path; the tables are exact, so it is
// identical to NonApproximateAbsoluteScore.
func (p *PairwiseProblem) AbsoluteScore(sol CandidateSolution, scratch *ProblemScratchSpace) (float64, error) {
	return p.NonApproximateAbsoluteScore(sol, scratch)
}

// ScoreChange returns the score delta of newSol relative to oldSol from the
// tables alone: one-body deltas at changed positions, two-body deltas for
// every pair with at least one changed endpoint. Numerically equal (within
// floating-point tolerance) to AbsoluteScore(newSol) - AbsoluteScore(oldSol),
// the contract move-based samplers rely on for incremental re-scoring.
// Errors: ErrNotFinalized, ErrDimensionMismatch, ErrNegativeIndex,
// ErrChoiceOutOfRange.
// Complexity: O(k²) pair scans, table probes only for touched pairs.
// Lock-free.
func (p *PairwiseProblem) ScoreChange(oldSol, newSol CandidateSolution, _ *ProblemScratchSpace) (float64, error) {
	if !p.finalized.Load() {
		return 0, ErrNotFinalized
	}
	if err := p.checkSolutionDims(oldSol); err != nil {
		return 0, err
	}
	if err := p.checkSolutionDims(newSol); err != nil {
		return 0, err
	}

	var (
		delta      float64
		i, j, node int
		iChanged   bool
	)
	for i = 0; i < p.totalVariable; i++ {
		node = p.varIndices[i]
		iChanged = oldSol[i] != newSol[i]
		if iChanged {
			if m := p.onebody[node]; m != nil {
				delta += m[newSol[i]] - m[oldSol[i]]
			}
		}
		for j = 0; j < i; j++ {
			if !iChanged && oldSol[j] == newSol[j] {
				continue // both endpoints unchanged: terms cancel exactly
			}
			if m := p.twobody[NodePair{Lo: p.varIndices[j], Hi: node}]; m != nil {
				delta += m[ChoicePair{Lo: newSol[j], Hi: newSol[i]}] - m[ChoicePair{Lo: oldSol[j], Hi: oldSol[i]}]
			}
		}
	}

	return delta, nil
}

// Clone returns a deep, independent copy of the pairwise problem.
func (p *PairwiseProblem) Clone() *PairwiseProblem {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := &PairwiseProblem{}
	p.cloneIntoPairwiseLocked(out)

	return out
}

// cloneIntoPairwiseLocked copies the pairwise state into dst. Caller holds
// p.mu.
func (p *PairwiseProblem) cloneIntoPairwiseLocked(dst *PairwiseProblem) {
	p.cloneIntoLocked(&dst.Problem)
	dst.background = p.background
	dst.oneChoiceOffset = p.oneChoiceOffset
	dst.onebody = make(map[int]map[int]float64, len(p.onebody))
	for node, m := range p.onebody {
		inner := make(map[int]float64, len(m))
		for choice, penalty := range m {
			inner[choice] = penalty
		}
		dst.onebody[node] = inner
	}
	dst.twobody = make(map[NodePair]map[ChoicePair]float64, len(p.twobody))
	for np, m := range p.twobody {
		inner := make(map[ChoicePair]float64, len(m))
		for cp, penalty := range m {
			inner[cp] = penalty
		}
		dst.twobody[np] = inner
	}
}

// Assign replaces the receiver's state with a deep copy of other. A
// finalized receiver rejects assignment like every other mutator.
// Errors: ErrTypeMismatch unless other is exactly *PairwiseProblem;
// ErrFinalized.
func (p *PairwiseProblem) Assign(other any) error {
	src, ok := other.(*PairwiseProblem)
	if !ok {
		return ErrTypeMismatch
	}
	src.mu.Lock()
	tmp := &PairwiseProblem{}
	src.cloneIntoPairwiseLocked(tmp)
	src.mu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized.Load() {
		return ErrFinalized
	}
	p.adoptLocked(&tmp.Problem)
	p.background = tmp.background
	p.oneChoiceOffset = tmp.oneChoiceOffset
	p.onebody = tmp.onebody
	p.twobody = tmp.twobody

	return nil
}

// Categories reports the hierarchical catalog paths of the pairwise problem.
func (p *PairwiseProblem) Categories() [][]string {
	return [][]string{
		{"OptimizationProblem"},
		{"OptimizationProblem", "CostFunctionNetworkOptimizationProblem"},
		{"OptimizationProblem", "CostFunctionNetworkOptimizationProblem",
			"PairwisePrecomputedCostFunctionNetworkOptimizationProblem"},
	}
}

// Keywords reports the flat catalog keywords of the pairwise problem.
func (p *PairwiseProblem) Keywords() []string {
	return []string{"optimization", "cost_function_network", "pairwise_decomposable", "precomputed", "numeric"}
}
