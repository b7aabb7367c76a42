// Package cfnet is an in-memory toolkit for modelling and scoring
// Cost Function Networks: combinatorial optimization problems built
// from discrete-choice nodes connected by one-body and two-body
// penalty terms, plus arbitrary user-defined cost functions.
//
// 🚀 What is cfnet?
//
//	A deterministic, lock-disciplined library that brings together:
//		• Problem modelling: declare nodes, choice counts and penalties safely under locks
//		• Pairwise precomputation: explicit one-/two-body tables with a finalize-time
//		  fold-down of fixed-node interactions into constant offsets
//		• Incremental scoring: full O(k²) evaluation and numerically consistent
//		  delta scoring for move-based search (annealers, Monte Carlo samplers)
//		• Cost functions: pluggable penalty units with per-context scratch caches
//		• Refinement seeds: validated candidate starting solutions for local search
//
// ✨ Why choose cfnet?
//
//   - Strict sentinels – every misuse surfaces as a typed error, never a silent default
//   - Two-phase lifecycle – mutable configuration, then a frozen, lock-free read phase
//   - Deterministic – sorted iteration, no global state, no hidden randomness
//   - Extensible – implement CostFunction once, reuse scratch-space plumbing for free
//
// Everything lives under a single subpackage:
//
//	cfn/: problems, cost functions, scratch spaces, result containers, catalog
//
// A problem is configured, finalized exactly once, and then scored from as
// many goroutines as you like:
//
//	p := cfn.NewPairwiseProblem(cfn.WithBackgroundOffset(10))
//	_ = p.SetOnebodyPenalty(1, 0, 2.0)
//	_ = p.SetTwobodyPenalty(cfn.NodePair{Lo: 1, Hi: 2}, cfn.ChoicePair{Lo: 0, Hi: 0}, 0.5)
//	_ = p.Finalize()
//	score, _ := p.AbsoluteScore(cfn.CandidateSolution{0, 0}, nil)
//
// Dive into cfn/doc.go for the full contract, error taxonomy, and the
// concurrency model.
//
//	go get github.com/katalvlaran/cfnet
package cfnet
