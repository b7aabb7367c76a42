// Package cfn models Cost Function Network (CFN) optimization problems and
// scores candidate assignments against them.
//
// A CFN is a set of discrete-choice nodes connected by penalty terms. Each
// node has an integer index (0-based, sparse; unused indices are simply
// absent) and a choice count: ≤1 choice makes the node fixed, ≥2 makes it
// variable. A candidate solution is one choice index per VARIABLE node,
// ordered by ascending node index; fixed nodes never appear in the vector;
// their penalties are folded into constant offsets when the problem is
// finalized.
//
// # Problem types
//
//   - Problem: the generic container, node cardinalities plus a set of
//     CostFunction values; scoring sums over the cost functions.
//   - PairwiseProblem: the precomputed specialization, explicit sparse
//     one-body (node→choice→penalty) and two-body ((lo,hi)→(choice,choice)→
//     penalty) tables, scored directly in O(k²) over k variable nodes with
//     a numerically consistent O(k²) delta path for move-based search.
//   - RefinementProblem: a pairwise problem plus candidate starting
//     solutions, validated at finalize, for seeding local search.
//
// # Lifecycle
//
// Every problem walks a one-way, two-phase state machine:
//
//	Configuring ──Finalize()──▶ Finalized
//
// While configuring, all mutators and getters serialize on the problem
// mutex; scoring fails with ErrNotFinalized. Finalize validates, folds
// fixed-node interactions into offsets, freezes the variable-node layout,
// and flips an atomic flag. From then on the object is deeply immutable:
// scoring takes NO lock and may run from arbitrarily many goroutines at
// once. That lock-free phase is safe precisely because every mutator checks
// the flag and fails with ErrFinalized; there is no way back (Reset only
// works before finalize). Callers establish the finalize→read
// happens-before edge themselves, e.g. by finalizing before spawning
// workers.
//
// # The delta-scoring contract
//
// For any finalized problem and any pair of valid candidates A, B:
//
//	ScoreChange(A, B) == AbsoluteScore(B) - AbsoluteScore(A)
//
// within floating-point tolerance. Samplers rely on this equality to
// re-score moves incrementally instead of recomputing full candidates; the
// same contract binds every CostFunction implementation.
//
// # Scratch spaces
//
// ProblemScratchSpace bundles one CostFunctionScratchSpace per registered
// cost function (nil for cost functions that keep no cache). Scratch spaces
// are pure caches with accept/reject semantics for trial moves, owned by
// exactly one evaluation context; typically one per worker goroutine. They
// never change scoring results, only speed.
//
// # Errors
//
// Strict sentinels only, matched via errors.Is:
//
//	ErrNotFinalized      - finalize-gated call while still configuring.
//	ErrFinalized         - mutator, Reset, or second Finalize after the freeze.
//	ErrNodeOrder         - two-body key with hi ≤ lo.
//	ErrNegativeIndex     - negative node or choice index.
//	ErrDimensionMismatch - candidate length ≠ variable-node count.
//	ErrChoiceOutOfRange  - choice ≥ its node's declared count.
//	ErrTypeMismatch      - Assign across concrete problem types.
//	ErrNaNInf            - non-finite penalty, weight, or offset.
//
// All of these are caller errors surfaced fail-fast; none is transient and
// none is retried internally.
package cfn
