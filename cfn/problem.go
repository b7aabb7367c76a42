// Package cfn: the generic cost-function-network optimization problem.
//
// Problem tracks node cardinalities, owns a set of CostFunctions, and
// dispatches scoring by summing over them. It carries the two-phase
// lifecycle every problem type shares:
//
//	Configuring: every mutator and pre-finalize getter serializes on the
//	problem mutex. Scoring fails with ErrNotFinalized.
//	Finalized:   one-way transition via Finalize. Derived caches (variable
//	node layout, totals) are computed once; from then on the object is
//	deeply immutable and scoring reads take NO lock. Correctness of the
//	lock-free phase rests entirely on every mutator checking the finalized
//	flag and failing with ErrFinalized; that check IS the synchronization
//	contract, callers establish the finalize→read happens-before edge
//	themselves (finalize before spawning workers).
//
// Node bookkeeping rides on a roaring bitmap of referenced indices: the node
// index space is unbounded and sparsely populated, and the bitmap gives
// O(1)-ish membership plus a cheap Maximum() for TotalNodes.

package cfn

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring"
)

// maxNodeIndex bounds absolute node indices to the roaring key space.
const maxNodeIndex = math.MaxUint32

// Problem is the generic CFN problem container. Zero value is not usable;
// construct via NewProblem (or the constructors of the specializations,
// which embed Problem).
type Problem struct {
	mu        sync.Mutex
	finalized atomic.Bool

	// referenced holds every node index mentioned by any setter, fixed or
	// variable. TotalNodes = Maximum()+1 over this set.
	referenced *roaring.Bitmap

	// choiceCounts maps node index → declared choice count. Absent nodes are
	// absent, not zero-choice.
	choiceCounts map[int]int

	costFunctions []CostFunction

	// Finalize-time caches, immutable after the phase transition.
	totalNodesCache int
	totalVariable   int
	varChoices      []NodeChoiceCount
	// varIndices holds the absolute node index per candidate position.
	varIndices []int
}

// NewProblem returns an empty generic problem in its configuring phase.
// WithNodeCapacityHint pre-sizes the node tables; WithBackgroundOffset is a
// pairwise-only knob and is ignored here.
func NewProblem(opts ...Option) *Problem {
	o := gatherOptions(opts...)
	p := &Problem{}
	p.init(o)

	return p
}

// init wires the owned containers; shared with the embedding constructors.
func (p *Problem) init(o options) {
	p.referenced = roaring.New()
	p.choiceCounts = make(map[int]int, o.nodeCapacityHint)
	p.costFunctions = nil
}

// Kind reports the concrete problem tag.
func (p *Problem) Kind() ProblemKind { return KindProblem }

// Finalized reports whether the one-way phase transition has happened.
// Complexity: O(1), lock-free.
func (p *Problem) Finalized() bool { return p.finalized.Load() }

// Empty reports whether the problem references no nodes and owns no cost
// functions.
func (p *Problem) Empty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.referenced.IsEmpty() && len(p.costFunctions) == 0
}

// Reset wipes all configuration and returns the problem to its empty state.
// Only legal in the configuring phase: ErrFinalized afterwards; a finalized
// problem is frozen for good, callers build a fresh one instead.
func (p *Problem) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized.Load() {
		return ErrFinalized
	}
	p.resetLocked()

	return nil
}

// resetLocked wipes the base configuration. Caller holds p.mu and has
// checked the phase; specializations call it from their own Reset.
func (p *Problem) resetLocked() {
	p.referenced.Clear()
	p.choiceCounts = make(map[int]int)
	p.costFunctions = nil
}

// SetMinimumChoiceCount raises the stored choice count of node to at least
// minCount, creating the node entry if absent. Counts never decrease, and no
// upper bound is enforced here.
// Errors: ErrNegativeIndex, ErrOutOfRange (node beyond the index space),
// ErrFinalized.
// Complexity: O(1) amortized.
func (p *Problem) SetMinimumChoiceCount(node, minCount int) error {
	if node < 0 || minCount < 0 {
		return ErrNegativeIndex
	}
	if node > maxNodeIndex {
		return ErrOutOfRange
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized.Load() {
		return ErrFinalized
	}
	p.touchNodeLocked(node, minCount)

	return nil
}

// touchNodeLocked marks node as referenced and grows its choice count to at
// least minChoices. Caller holds p.mu and has validated the indices.
func (p *Problem) touchNodeLocked(node, minChoices int) {
	p.referenced.Add(uint32(node))
	if existing, ok := p.choiceCounts[node]; !ok || minChoices > existing {
		p.choiceCounts[node] = minChoices
	}
}

// AddCostFunction registers cf, stored by reference (no copy). The problem
// finalizes cf during its own Finalize, handing it the variable-node layout.
// Errors: ErrNilCostFunction, ErrFinalized (problem frozen or cf already
// finalized elsewhere).
func (p *Problem) AddCostFunction(cf CostFunction) error {
	if cf == nil {
		return ErrNilCostFunction
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized.Load() {
		return ErrFinalized
	}
	if cf.Finalized() {
		return ErrFinalized
	}
	p.costFunctions = append(p.costFunctions, cf)

	return nil
}

// CostFunctionCount returns the number of registered cost functions.
func (p *Problem) CostFunctionCount() int {
	if p.finalized.Load() {
		return len(p.costFunctions)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.costFunctions)
}

// TotalNodes returns the highest referenced node index + 1, or 0 when no
// node has been referenced. NOT the count of variable nodes: sparse index
// spaces leave gaps, and gaps still widen the range.
// Complexity: O(1).
func (p *Problem) TotalNodes() int {
	if p.finalized.Load() {
		return p.totalNodesCache
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.totalNodesLocked()
}

// totalNodesLocked computes the node range from the referenced bitmap.
func (p *Problem) totalNodesLocked() int {
	if p.referenced.IsEmpty() {
		return 0
	}

	return int(p.referenced.Maximum()) + 1
}

// TotalVariableNodes returns the count of nodes with ≥2 choices.
// Errors: ErrNotFinalized; the value is a finalize-time cache.
// Complexity: O(1) after finalize.
func (p *Problem) TotalVariableNodes() (int, error) {
	if !p.finalized.Load() {
		return 0, ErrNotFinalized
	}

	return p.totalVariable, nil
}

// VariableNodeChoices returns (node, choice count) for every variable node,
// sorted ascending by node index. The slice is a copy; callers may keep it.
// Errors: ErrNotFinalized.
// Complexity: O(k) for the copy.
func (p *Problem) VariableNodeChoices() ([]NodeChoiceCount, error) {
	if !p.finalized.Load() {
		return nil, ErrNotFinalized
	}
	out := make([]NodeChoiceCount, len(p.varChoices))
	copy(out, p.varChoices)

	return out, nil
}

// TotalCombinatorialSolutions returns the product of choice counts over the
// variable nodes as a float64; the product overflows integer range long
// before it overflows float64. Fixed nodes contribute a factor of 1.
// Errors: ErrNotFinalized.
// Complexity: O(k).
func (p *Problem) TotalCombinatorialSolutions() (float64, error) {
	if !p.finalized.Load() {
		return 0, ErrNotFinalized
	}
	product := 1.0
	for _, vc := range p.varChoices {
		product *= float64(vc.Choices)
	}

	return product, nil
}

// variableChoicesLocked derives the sorted variable-node layout from the
// current tables. Caller holds p.mu.
func (p *Problem) variableChoicesLocked() []NodeChoiceCount {
	var out []NodeChoiceCount
	for node, count := range p.choiceCounts {
		if count >= 2 {
			out = append(out, NodeChoiceCount{Node: node, Choices: count})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Node < out[j].Node })

	return out
}

// Finalize freezes the problem: it snapshots the variable-node layout,
// finalizes every registered cost function with that layout, and flips the
// phase. Exactly-once: a second call fails with ErrFinalized.
//
// On a cost-function finalize failure the problem stays unfinalized but
// earlier cost functions in registration order are already frozen; treat the
// error as fatal and discard the problem.
// Complexity: O(n log n) over declared nodes.
func (p *Problem) Finalize() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized.Load() {
		return ErrFinalized
	}

	return p.finalizeLocked()
}

// finalizeLocked runs the base finalize stages. Caller holds p.mu and has
// checked the phase.
func (p *Problem) finalizeLocked() error {
	// Stage 1: snapshot the variable-node layout.
	p.varChoices = p.variableChoicesLocked()
	p.totalVariable = len(p.varChoices)
	p.varIndices = make([]int, p.totalVariable)
	for i, vc := range p.varChoices {
		p.varIndices[i] = vc.Node
	}
	p.totalNodesCache = p.totalNodesLocked()

	// Stage 2: hand every cost function the layout, registration order.
	for _, cf := range p.costFunctions {
		if err := cf.Finalize(p.varIndices); err != nil {
			return err
		}
	}

	// Stage 3: flip the phase; from here on reads are lock-free.
	p.finalized.Store(true)

	return nil
}

// checkSolutionDims validates a candidate vector against the frozen layout.
func (p *Problem) checkSolutionDims(sol CandidateSolution) error {
	if len(sol) != p.totalVariable {
		return ErrDimensionMismatch
	}
	for i, choice := range sol {
		if choice < 0 {
			return ErrNegativeIndex
		}
		if choice >= p.varChoices[i].Choices {
			return ErrChoiceOutOfRange
		}
	}

	return nil
}

// NonApproximateAbsoluteScore sums the exact contribution of every
// registered cost function for sol. scratch may be nil or a container built
// by NewScratchSpace of this problem; slots are matched by registration
// order.
// Errors: ErrNotFinalized, ErrDimensionMismatch, ErrNegativeIndex,
// ErrChoiceOutOfRange.
// Complexity: Σ over cost functions of their Score cost.
func (p *Problem) NonApproximateAbsoluteScore(sol CandidateSolution, scratch *ProblemScratchSpace) (float64, error) {
	if !p.finalized.Load() {
		return 0, ErrNotFinalized
	}
	if err := p.checkSolutionDims(sol); err != nil {
		return 0, err
	}
	var total float64
	for i, cf := range p.costFunctions {
		total += cf.Score(sol, scratch.slotOrNil(i))
	}

	return total, nil
}

// AbsoluteScore returns the (possibly approximate) score of sol. The generic
// problem has no approximation and delegates to NonApproximateAbsoluteScore;
// specializations shadow this with their fast path.
func (p *Problem) AbsoluteScore(sol CandidateSolution, scratch *ProblemScratchSpace) (float64, error) {
	return p.NonApproximateAbsoluteScore(sol, scratch)
}

// ScoreChange returns the score delta of newSol relative to oldSol by
// summing per-cost-function deltas. Numerically equal (within tolerance) to
// AbsoluteScore(newSol) - AbsoluteScore(oldSol) by the CostFunction
// contract.
// Errors: ErrNotFinalized, ErrDimensionMismatch, ErrNegativeIndex,
// ErrChoiceOutOfRange.
func (p *Problem) ScoreChange(oldSol, newSol CandidateSolution, scratch *ProblemScratchSpace) (float64, error) {
	if !p.finalized.Load() {
		return 0, ErrNotFinalized
	}
	if err := p.checkSolutionDims(oldSol); err != nil {
		return 0, err
	}
	if err := p.checkSolutionDims(newSol); err != nil {
		return 0, err
	}
	var delta float64
	for i, cf := range p.costFunctions {
		delta += cf.ScoreChange(oldSol, newSol, scratch.slotOrNil(i))
	}

	return delta, nil
}

// NewScratchSpace builds one scratch slot per registered cost function in
// registration order and returns the finalized container. Each call yields
// an independent container: one per worker thread or search trajectory.
// Errors: ErrNotFinalized; the slot layout mirrors the frozen registration
// list.
func (p *Problem) NewScratchSpace() (*ProblemScratchSpace, error) {
	if !p.finalized.Load() {
		return nil, ErrNotFinalized
	}

	return newProblemScratchSpace(p.costFunctions), nil
}

// CreateSolutionsContainer returns a fresh, empty ordered container for
// scored candidate solutions of this problem.
func (p *Problem) CreateSolutionsContainer() *Solutions {
	return NewSolutions()
}

// Clone returns a deep, independent copy: tables, bitmap, caches, and
// deep-cloned cost functions. The clone shares no mutable state with the
// original; the make-independent contract.
func (p *Problem) Clone() *Problem {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := &Problem{}
	p.cloneIntoLocked(out)

	return out
}

// cloneIntoLocked copies the base state into dst. Caller holds p.mu.
func (p *Problem) cloneIntoLocked(dst *Problem) {
	dst.referenced = p.referenced.Clone()
	dst.choiceCounts = make(map[int]int, len(p.choiceCounts))
	for node, count := range p.choiceCounts {
		dst.choiceCounts[node] = count
	}
	dst.costFunctions = make([]CostFunction, len(p.costFunctions))
	for i, cf := range p.costFunctions {
		dst.costFunctions[i] = cf.Clone()
	}
	dst.totalNodesCache = p.totalNodesCache
	dst.totalVariable = p.totalVariable
	if p.varChoices != nil {
		dst.varChoices = make([]NodeChoiceCount, len(p.varChoices))
		copy(dst.varChoices, p.varChoices)
	}
	if p.varIndices != nil {
		dst.varIndices = make([]int, len(p.varIndices))
		copy(dst.varIndices, p.varIndices)
	}
	dst.finalized.Store(p.finalized.Load())
}

// Assign replaces the receiver's state with a deep copy of other. The
// concrete types must match exactly: assigning a specialization into a
// generic Problem (or vice versa) fails. Assignment is a configuring-phase
// mutation: a finalized receiver rejects it like every other mutator.
// Errors: ErrTypeMismatch, ErrFinalized.
func (p *Problem) Assign(other any) error {
	src, ok := other.(*Problem)
	if !ok {
		return ErrTypeMismatch
	}
	src.mu.Lock()
	tmp := &Problem{}
	src.cloneIntoLocked(tmp)
	src.mu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized.Load() {
		return ErrFinalized
	}
	p.adoptLocked(tmp)

	return nil
}

// adoptLocked moves tmp's freshly cloned state into the receiver. Caller
// holds p.mu; tmp is function-local and never escapes.
func (p *Problem) adoptLocked(tmp *Problem) {
	p.referenced = tmp.referenced
	p.choiceCounts = tmp.choiceCounts
	p.costFunctions = tmp.costFunctions
	p.totalNodesCache = tmp.totalNodesCache
	p.totalVariable = tmp.totalVariable
	p.varChoices = tmp.varChoices
	p.varIndices = tmp.varIndices
	p.finalized.Store(tmp.finalized.Load())
}

// Categories reports the hierarchical catalog paths of the generic problem.
func (p *Problem) Categories() [][]string {
	return [][]string{
		{"OptimizationProblem"},
		{"OptimizationProblem", "CostFunctionNetworkOptimizationProblem"},
	}
}

// Keywords reports the flat catalog keywords of the generic problem.
func (p *Problem) Keywords() []string {
	return []string{"optimization", "cost_function_network", "numeric"}
}
