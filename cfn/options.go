// Package cfn: functional configuration for problem constructors.
// This file defines:
//   - Option / options (functional options with internal state),
//   - documented defaults (constants),
//   - WithX constructors with strong validation (panic on nonsensical values).
//
// Design goals:
//   - Deterministic behavior: no global state, no implicit randomness.
//   - No dead switches: each knob impacts behavior and is covered by tests.
//   - Safe by construction: panic only on invalid parameters (programmer error).
//
// Notes:
//   - WithBackgroundOffset applies to the pairwise-precomputed problem (and
//     its refinement subtype); the generic Problem has no additive constant
//     of its own and ignores it.
//   - Capacity hints are pure pre-allocation advice. They never bound the
//     index space: node and choice indices stay unbounded above regardless.

package cfn

import "math"

// DEFAULTS - single source of truth for zero-value behavior.
const (
	// DefaultBackgroundOffset is the user-supplied additive constant applied
	// to every pairwise score before table contributions.
	DefaultBackgroundOffset = 0.0

	// DefaultNodeCapacityHint pre-sizes node-keyed tables (0 ⇒ Go defaults).
	DefaultNodeCapacityHint = 0

	// DefaultCostFunctionWeight is the multiplier a fresh cost function
	// applies to its raw score.
	DefaultCostFunctionWeight = 1.0
)

// scoreTol is the numeric tolerance used by internal consistency checks and
// mirrored by the package tests (delta scoring vs. absolute-score difference).
// It is a structural tolerance, unrelated to any caller-side acceptance eps.
const scoreTol = 1e-9

// Internal panic messages (no magic strings).
const (
	panicBackgroundOffsetInvalid = "cfn: WithBackgroundOffset: offset must be finite"
	panicNodeCapacityInvalid     = "cfn: WithNodeCapacityHint: hint must be non-negative"
)

// Option mutates constructor options. Safe to apply repeatedly (idempotent).
// Constructors MUST panic only on nonsensical values (programmer error).
type Option func(*options)

// options carries resolved constructor configuration. Fields are unexported;
// public APIs consume ...Option only.
type options struct {
	backgroundOffset float64
	nodeCapacityHint int
}

// defaultOptions returns the documented zero-value configuration.
func defaultOptions() options {
	return options{
		backgroundOffset: DefaultBackgroundOffset,
		nodeCapacityHint: DefaultNodeCapacityHint,
	}
}

// gatherOptions folds opts over the defaults.
func gatherOptions(opts ...Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithBackgroundOffset sets the user-supplied additive constant of a
// pairwise problem. Panics if the offset is NaN or ±Inf.
func WithBackgroundOffset(offset float64) Option {
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		panic(panicBackgroundOffsetInvalid)
	}

	return func(o *options) { o.backgroundOffset = offset }
}

// WithNodeCapacityHint pre-sizes node-keyed tables for problems whose
// approximate node count is known up front. Panics if hint < 0.
func WithNodeCapacityHint(hint int) Option {
	if hint < 0 {
		panic(panicNodeCapacityInvalid)
	}

	return func(o *options) { o.nodeCapacityHint = hint }
}
