// Package cfn: shared value types and the problem-kind tag.
// This file declares the small, copyable types every component speaks:
// CandidateSolution, the canonical two-body keys, the (node, choice count)
// pair returned by VariableNodeChoices, and the ProblemKind tag used by
// Assign instead of reflection-based downcasts.

package cfn

// CandidateSolution is one choice index per variable node, ordered by
// ascending node index. Fixed nodes (choice count ≤ 1) are excluded; they
// contribute only through constant offsets computed at finalize time.
//
// The zero value (nil) is a valid candidate for a problem with no variable
// nodes.
type CandidateSolution []int

// Clone returns an independent copy of the candidate solution.
// Complexity: O(k), k = number of variable nodes.
func (s CandidateSolution) Clone() CandidateSolution {
	if s == nil {
		return nil
	}
	out := make(CandidateSolution, len(s))
	copy(out, s)

	return out
}

// NodePair is the canonical key for a two-body interaction: Lo and Hi are
// absolute node indices with Lo < Hi. The strict ordering is load-bearing;
// it removes any ambiguity about which choice index belongs to which node
// and is validated on every mutation (ErrNodeOrder otherwise).
type NodePair struct {
	// Lo is the smaller node index of the interacting pair.
	Lo int

	// Hi is the larger node index of the interacting pair.
	Hi int
}

// ChoicePair selects one choice at each node of a NodePair: Lo is the choice
// at NodePair.Lo, Hi the choice at NodePair.Hi.
type ChoicePair struct {
	// Lo is the choice index at the pair's lower node.
	Lo int

	// Hi is the choice index at the pair's higher node.
	Hi int
}

// NodeChoiceCount pairs an absolute node index with its declared choice
// count. VariableNodeChoices returns these sorted ascending by Node.
type NodeChoiceCount struct {
	// Node is the absolute node index.
	Node int

	// Choices is the declared number of choices at Node (≥ 2 for entries
	// reported by VariableNodeChoices).
	Choices int
}

// ProblemKind tags the concrete problem type so callers holding an abstract
// handle can branch without reflection. Assign and the As* accessors
// likewise fail with ErrTypeMismatch on a cross-type value instead of
// panicking or silently slicing.
type ProblemKind uint8

const (
	// KindProblem tags the generic cost-function-network problem.
	KindProblem ProblemKind = iota

	// KindPairwise tags the pairwise-precomputed specialization.
	KindPairwise

	// KindRefinement tags the refinement problem with candidate seeds.
	KindRefinement
)

// String returns the human-readable kind name (used in test diagnostics).
func (k ProblemKind) String() string {
	switch k {
	case KindProblem:
		return "Problem"
	case KindPairwise:
		return "PairwiseProblem"
	case KindRefinement:
		return "RefinementProblem"
	default:
		return "UnknownKind"
	}
}

// AsPairwise is the safe downcast accessor: it returns the value as a
// *PairwiseProblem or ErrTypeMismatch, never panicking.
func AsPairwise(v any) (*PairwiseProblem, error) {
	p, ok := v.(*PairwiseProblem)
	if !ok {
		return nil, ErrTypeMismatch
	}

	return p, nil
}

// AsRefinement is the safe downcast accessor for *RefinementProblem.
func AsRefinement(v any) (*RefinementProblem, error) {
	p, ok := v.(*RefinementProblem)
	if !ok {
		return nil, ErrTypeMismatch
	}

	return p, nil
}
