// Package cfn: the refinement problem, a pairwise problem plus candidate
// starting solutions used to seed local-search optimizers.
//
// The candidates are plain CandidateSolution vectors. They are accepted
// loosely while configuring (the variable-node layout is not known yet) and
// validated strictly at finalize: every candidate must have exactly one
// entry per variable node and every entry must lie within its node's
// declared choice count. A malformed candidate fails the finalize; this is
// a validation gate, never a silent fix-up.

package cfn

// RefinementProblem extends PairwiseProblem with validated starting seeds.
// Construct via NewRefinementProblem; the zero value is not usable.
type RefinementProblem struct {
	PairwiseProblem

	candidates []CandidateSolution
}

// NewRefinementProblem returns an empty refinement problem in its
// configuring phase. Accepts the same options as NewPairwiseProblem.
func NewRefinementProblem(opts ...Option) *RefinementProblem {
	o := gatherOptions(opts...)
	p := &RefinementProblem{}
	p.init(o)
	p.background = o.backgroundOffset
	p.onebody = make(map[int]map[int]float64, o.nodeCapacityHint)
	p.twobody = make(map[NodePair]map[ChoicePair]float64)

	return p
}

// Kind reports the concrete problem tag.
func (p *RefinementProblem) Kind() ProblemKind { return KindRefinement }

// AddCandidateSolution stores an independent copy of sol as a starting
// seed. Length and choice bounds are checked at finalize, once the
// variable-node layout is known; only negative entries are rejected here.
// Errors: ErrNegativeIndex, ErrFinalized.
func (p *RefinementProblem) AddCandidateSolution(sol CandidateSolution) error {
	for _, choice := range sol {
		if choice < 0 {
			return ErrNegativeIndex
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized.Load() {
		return ErrFinalized
	}
	p.candidates = append(p.candidates, sol.Clone())

	return nil
}

// ClearCandidateSolutions drops every stored starting seed.
// Errors: ErrFinalized.
func (p *RefinementProblem) ClearCandidateSolutions() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized.Load() {
		return ErrFinalized
	}
	p.candidates = nil

	return nil
}

// CandidateSolutionCount returns the number of stored starting seeds.
func (p *RefinementProblem) CandidateSolutionCount() int {
	if p.finalized.Load() {
		return len(p.candidates)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.candidates)
}

// CandidateSolutions returns independent copies of the validated starting
// seeds, in insertion order.
// Errors: ErrNotFinalized; before finalize the seeds are unvalidated.
func (p *RefinementProblem) CandidateSolutions() ([]CandidateSolution, error) {
	if !p.finalized.Load() {
		return nil, ErrNotFinalized
	}
	out := make([]CandidateSolution, len(p.candidates))
	for i, sol := range p.candidates {
		out[i] = sol.Clone()
	}

	return out, nil
}

// Finalize validates every stored candidate against the variable-node
// layout, then runs the pairwise finalize stages (fold-down, constant
// offset, base freeze). Validation failures leave the problem unfinalized
// and still configurable; callers may fix or clear the seeds and retry.
// Errors: ErrFinalized on the second call, ErrDimensionMismatch for a seed
// of the wrong length, ErrChoiceOutOfRange for an entry ≥ its node's choice
// count.
// Complexity: O(c·k) validation over c candidates, plus the pairwise
// finalize cost.
func (p *RefinementProblem) Finalize() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized.Load() {
		return ErrFinalized
	}

	// Stage 1: derive the would-be variable layout from the current tables.
	layout := p.variableChoicesLocked()

	// Stage 2: gate every candidate before any state is frozen.
	for _, sol := range p.candidates {
		if len(sol) != len(layout) {
			return ErrDimensionMismatch
		}
		for i, choice := range sol {
			if choice >= layout[i].Choices {
				return ErrChoiceOutOfRange
			}
		}
	}

	// Stage 3: fold-down, offsets, base freeze.
	return p.finalizePairwiseLocked()
}

// Reset wipes the pairwise state and all stored candidates.
// Errors: ErrFinalized.
func (p *RefinementProblem) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized.Load() {
		return ErrFinalized
	}
	p.resetPairwiseLocked()
	p.candidates = nil

	return nil
}

// Clone returns a deep, independent copy of the refinement problem.
func (p *RefinementProblem) Clone() *RefinementProblem {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := &RefinementProblem{}
	p.cloneIntoPairwiseLocked(&out.PairwiseProblem)
	out.candidates = make([]CandidateSolution, len(p.candidates))
	for i, sol := range p.candidates {
		out.candidates[i] = sol.Clone()
	}

	return out
}

// Assign replaces the receiver's state with a deep copy of other. A
// finalized receiver rejects assignment like every other mutator.
// Errors: ErrTypeMismatch unless other is exactly *RefinementProblem;
// ErrFinalized.
func (p *RefinementProblem) Assign(other any) error {
	src, ok := other.(*RefinementProblem)
	if !ok {
		return ErrTypeMismatch
	}
	clone := src.Clone()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized.Load() {
		return ErrFinalized
	}
	p.adoptLocked(&clone.Problem)
	p.background = clone.background
	p.oneChoiceOffset = clone.oneChoiceOffset
	p.onebody = clone.onebody
	p.twobody = clone.twobody
	p.candidates = clone.candidates

	return nil
}

// Categories reports the hierarchical catalog paths of the refinement
// problem.
func (p *RefinementProblem) Categories() [][]string {
	return [][]string{
		{"OptimizationProblem"},
		{"OptimizationProblem", "CostFunctionNetworkOptimizationProblem"},
		{"OptimizationProblem", "CostFunctionNetworkOptimizationProblem",
			"CostFunctionNetworkRefinementProblem"},
	}
}

// Keywords reports the flat catalog keywords of the refinement problem.
func (p *RefinementProblem) Keywords() []string {
	return []string{"optimization", "cost_function_network", "refinement", "starting_points", "numeric"}
}
