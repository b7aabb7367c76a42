// Package cfn: sentinel error set (unified, consistent).
// This file defines ONLY package-level sentinel errors used across the cfn
// package. All operations MUST return these sentinels and tests MUST check
// them via errors.Is. No operation panics on user-triggered error conditions.
// Panics are reserved for programmer errors in option constructors.

package cfn

import "errors"

// NOTE ON NAMING & PREFIXING
// --------------------------
// Every message is prefixed with "cfn: ..." for consistency and to allow easy
// grepping across logs. DO NOT %w wrap these sentinels when returning
// directly; if context is essential, wrap with fmt.Errorf("ctx: %w", ErrX)
// at the outer boundary; callers will still use errors.Is to match.
//
// ERROR PRIORITY (documented, enforced in tests):
// nil/negative argument -> lifecycle gate (finalized/not-finalized)
// -> structural violations (ordering, dimension, range) -> type mismatch.

var (
	// ErrNotFinalized is returned when a finalize-gated getter or scorer is
	// invoked on a problem (or scratch space) still in its configuring phase.
	ErrNotFinalized = errors.New("cfn: problem not finalized")

	// ErrFinalized is returned when a mutator, Reset, or a second Finalize is
	// invoked after the one-way transition to the finalized phase.
	ErrFinalized = errors.New("cfn: problem already finalized")

	// ErrNodeOrder indicates a two-body penalty keyed with hi ≤ lo. The
	// canonical key orders node indices strictly ascending; callers must
	// pre-sort, the table never re-sorts on their behalf.
	ErrNodeOrder = errors.New("cfn: two-body node pair not strictly ascending")

	// ErrNegativeIndex indicates a negative node or choice index. Indices are
	// 0-based and unbounded above, never below.
	ErrNegativeIndex = errors.New("cfn: negative node or choice index")

	// ErrDimensionMismatch indicates a candidate-solution vector whose length
	// differs from the number of variable nodes of the finalized problem.
	ErrDimensionMismatch = errors.New("cfn: candidate solution dimension mismatch")

	// ErrChoiceOutOfRange indicates a choice index ≥ the declared choice count
	// of its node (candidate validation and scoring bounds checks).
	ErrChoiceOutOfRange = errors.New("cfn: choice index out of range for node")

	// ErrTypeMismatch is returned by Assign when the source value is not the
	// same concrete problem type as the destination.
	ErrTypeMismatch = errors.New("cfn: incompatible concrete problem type")

	// ErrNilCostFunction indicates a nil CostFunction passed to AddCostFunction.
	ErrNilCostFunction = errors.New("cfn: nil cost function")

	// ErrNaNInf signals a NaN or ±Inf value where finite values are required
	// (penalties, weights, background offsets).
	ErrNaNInf = errors.New("cfn: NaN or Inf encountered")

	// ErrOutOfRange indicates an index outside valid bounds on a container
	// surface (Solutions.At, ProblemScratchSpace.Slot).
	ErrOutOfRange = errors.New("cfn: index out of range")

	// ErrNoSolutions is returned by Solutions.Best on an empty container.
	ErrNoSolutions = errors.New("cfn: no solutions stored")

	// ErrDuplicateRegistration indicates a Catalog registration whose name is
	// already taken.
	ErrDuplicateRegistration = errors.New("cfn: duplicate catalog registration")

	// ErrBadRegistration indicates a Catalog registration with an empty name,
	// no categories, or a nil factory.
	ErrBadRegistration = errors.New("cfn: invalid catalog registration")

	// ErrUnknownFeature indicates a choice contribution referencing a feature
	// that was never declared via AddFeature (caught at finalize).
	ErrUnknownFeature = errors.New("cfn: contribution references undeclared feature")

	// ErrBadWindow indicates a feature connection window with negative bounds
	// or min > max.
	ErrBadWindow = errors.New("cfn: invalid feature connection window")
)
