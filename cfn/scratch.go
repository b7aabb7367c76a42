// Package cfn: scratch spaces, the per-evaluation-context caches.
//
// A scratch space lets a cost function (or a whole problem) reuse work across
// repeated evaluations of related candidate solutions: a move-based search
// evaluates a trial move, then either accepts it (the trial becomes the new
// baseline) or rejects it (the baseline stands). Scratch spaces are caches,
// never semantic state: any sequence of Score/ScoreChange calls must return
// the same values with or without one.
//
// Ownership is strict: one scratch space per evaluation context (one worker
// thread, one search trajectory). Nothing here locks; sharing a scratch
// space across goroutines is a caller bug.

package cfn

// CostFunctionScratchSpace is the opaque per-context cache of one cost
// function. Implementations double-buffer: ScoreChange writes a trial state,
// Accept commits it as the new baseline, Reject discards it.
type CostFunctionScratchSpace interface {
	// Accept commits the most recent trial evaluation as the new baseline.
	Accept()

	// Reject discards the most recent trial evaluation.
	Reject()
}

// ProblemScratchSpace bundles one scratch slot per cost function registered
// on a problem, in registration order. Slots may be nil; a cost function
// that keeps no per-context cache declines by returning nil from
// NewScratchSpace, and the slot stays empty on purpose.
//
// Built by Problem.NewScratchSpace; the container is finalized on
// construction and its layout never changes afterwards.
type ProblemScratchSpace struct {
	slots     []CostFunctionScratchSpace
	finalized bool
}

// newProblemScratchSpace builds one slot per cost function in registration
// order and finalizes the container.
func newProblemScratchSpace(costFunctions []CostFunction) *ProblemScratchSpace {
	s := &ProblemScratchSpace{
		slots: make([]CostFunctionScratchSpace, len(costFunctions)),
	}
	for i, cf := range costFunctions {
		s.slots[i] = cf.NewScratchSpace()
	}
	s.finalized = true

	return s
}

// NSlots returns the number of scratch slots (== registered cost functions).
func (s *ProblemScratchSpace) NSlots() int { return len(s.slots) }

// Finalized reports whether the slot layout is frozen. Always true for
// containers built by Problem.NewScratchSpace.
func (s *ProblemScratchSpace) Finalized() bool { return s.finalized }

// Slot returns the scratch space of the i-th registered cost function. The
// returned value may be nil when that cost function keeps no cache.
// Errors: ErrOutOfRange for i outside [0, NSlots).
func (s *ProblemScratchSpace) Slot(i int) (CostFunctionScratchSpace, error) {
	if i < 0 || i >= len(s.slots) {
		return nil, ErrOutOfRange
	}

	return s.slots[i], nil
}

// slotOrNil is the unchecked hot-path accessor used by problem scoring. A
// nil receiver or missing slot yields nil, which every cost function must
// tolerate (full recomputation path).
func (s *ProblemScratchSpace) slotOrNil(i int) CostFunctionScratchSpace {
	if s == nil || i < 0 || i >= len(s.slots) {
		return nil
	}

	return s.slots[i]
}

// Accept commits the most recent trial evaluation in every non-nil slot.
func (s *ProblemScratchSpace) Accept() {
	for _, slot := range s.slots {
		if slot != nil {
			slot.Accept()
		}
	}
}

// Reject discards the most recent trial evaluation in every non-nil slot.
func (s *ProblemScratchSpace) Reject() {
	for _, slot := range s.slots {
		if slot != nil {
			slot.Reject()
		}
	}
}
