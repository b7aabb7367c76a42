// Package cfn_test: shared fixtures and the naive reference scorer.
//
// The mirror keeps the raw configuration of a pairwise problem exactly as
// the test declared it, so scores computed after the fold-down pass can be
// cross-checked against a brutally literal summation over ALL nodes and ALL
// pairs; fixed nodes included, no offsets, no folding.
package cfn_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/cfnet/cfn"
)

const (
	// seedDet keeps every randomized test reproducible.
	seedDet = int64(1337)

	// tol bounds acceptable floating-point drift between the folded and the
	// naive score, and between delta and absolute-score difference.
	tol = 1e-9
)

// rawMirror records raw pairwise configuration, independent of the
// implementation under test.
type rawMirror struct {
	background float64
	counts     map[int]int
	onebody    map[[2]int]float64 // (node, choice) → penalty
	twobody    map[[4]int]float64 // (lo, hi, choiceLo, choiceHi) → penalty
}

func newRawMirror(background float64) *rawMirror {
	return &rawMirror{
		background: background,
		counts:     make(map[int]int),
		onebody:    make(map[[2]int]float64),
		twobody:    make(map[[4]int]float64),
	}
}

func (m *rawMirror) grow(node, minCount int) {
	if existing, ok := m.counts[node]; !ok || minCount > existing {
		m.counts[node] = minCount
	}
}

// variableLayout returns (node, count) for count ≥ 2, ascending by node.
func (m *rawMirror) variableLayout() []cfn.NodeChoiceCount {
	var out []cfn.NodeChoiceCount
	for node, count := range m.counts {
		if count >= 2 {
			out = append(out, cfn.NodeChoiceCount{Node: node, Choices: count})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Node < out[j].Node })

	return out
}

// naiveScore sums the raw tables over every node and every node pair: the
// selected choice is sol[position] for variable nodes and 0 for fixed ones.
func (m *rawMirror) naiveScore(sol cfn.CandidateSolution) float64 {
	layout := m.variableLayout()
	chosen := make(map[int]int, len(m.counts))
	for node, count := range m.counts {
		if count >= 1 {
			chosen[node] = 0
		}
	}
	for i, vc := range layout {
		chosen[vc.Node] = sol[i]
	}

	score := m.background
	for key, penalty := range m.onebody {
		if choice, ok := chosen[key[0]]; ok && choice == key[1] {
			score += penalty
		}
	}
	for key, penalty := range m.twobody {
		cLo, okLo := chosen[key[0]]
		cHi, okHi := chosen[key[1]]
		if okLo && okHi && cLo == key[2] && cHi == key[3] {
			score += penalty
		}
	}

	return score
}

// pairwiseBuilder applies every mutation to the problem under test and the
// mirror at once.
type pairwiseBuilder struct {
	t *testing.T
	p *cfn.PairwiseProblem
	m *rawMirror
}

func newPairwiseBuilder(t *testing.T, background float64) *pairwiseBuilder {
	t.Helper()

	return &pairwiseBuilder{
		t: t,
		p: cfn.NewPairwiseProblem(cfn.WithBackgroundOffset(background)),
		m: newRawMirror(background),
	}
}

func (b *pairwiseBuilder) minChoices(node, count int) {
	b.t.Helper()
	require.NoError(b.t, b.p.SetMinimumChoiceCount(node, count))
	b.m.grow(node, count)
}

func (b *pairwiseBuilder) onebody(node, choice int, penalty float64) {
	b.t.Helper()
	require.NoError(b.t, b.p.SetOnebodyPenalty(node, choice, penalty))
	b.m.grow(node, choice+1)
	b.m.onebody[[2]int{node, choice}] = penalty
}

func (b *pairwiseBuilder) twobody(lo, hi, choiceLo, choiceHi int, penalty float64) {
	b.t.Helper()
	require.NoError(b.t, b.p.SetTwobodyPenalty(
		cfn.NodePair{Lo: lo, Hi: hi},
		cfn.ChoicePair{Lo: choiceLo, Hi: choiceHi},
		penalty,
	))
	b.m.grow(lo, choiceLo+1)
	b.m.grow(hi, choiceHi+1)
	b.m.twobody[[4]int{lo, hi, choiceLo, choiceHi}] = penalty
}

// buildExampleProblem declares the worked scenario used across tests:
// nodes {0: 1 choice, 1: 3 choices, 2: 2 choices}, onebody (1,0)=2.0,
// (1,1)=5.0, (2,0)=1.0, twobody ((1,2),(0,0))=0.5, background 10.0.
func buildExampleProblem(t *testing.T) *pairwiseBuilder {
	t.Helper()
	b := newPairwiseBuilder(t, 10.0)
	b.minChoices(0, 1)
	b.minChoices(1, 3)
	b.minChoices(2, 2)
	b.onebody(1, 0, 2.0)
	b.onebody(1, 1, 5.0)
	b.onebody(2, 0, 1.0)
	b.twobody(1, 2, 0, 0, 0.5)

	return b
}

// buildRandomPairwise declares a random sparse problem with a mix of fixed,
// variable, and count-zero nodes.
func buildRandomPairwise(t *testing.T, rng *rand.Rand) *pairwiseBuilder {
	t.Helper()
	b := newPairwiseBuilder(t, rng.NormFloat64()*5)

	const nodeSpan = 12
	for node := 0; node < nodeSpan; node++ {
		switch rng.Intn(4) {
		case 0:
			// Unreferenced node: gap in the index space.
		case 1:
			b.minChoices(node, 1) // fixed
		default:
			b.minChoices(node, 2+rng.Intn(3)) // variable, 2..4 choices
		}
	}
	// Sparse onebody fill, fixed nodes included.
	for node, count := range b.m.counts {
		if count == 0 {
			continue
		}
		for choice := 0; choice < count; choice++ {
			if rng.Float64() < 0.6 {
				b.onebody(node, choice, rng.NormFloat64())
			}
		}
	}
	// Sparse twobody fill across every ordered node pair.
	nodes := make([]int, 0, len(b.m.counts))
	for node, count := range b.m.counts {
		if count >= 1 {
			nodes = append(nodes, node)
		}
	}
	sort.Ints(nodes)
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			lo, hi := nodes[i], nodes[j]
			for cLo := 0; cLo < b.m.counts[lo]; cLo++ {
				for cHi := 0; cHi < b.m.counts[hi]; cHi++ {
					if rng.Float64() < 0.3 {
						b.twobody(lo, hi, cLo, cHi, rng.NormFloat64()*2)
					}
				}
			}
		}
	}

	return b
}

// randomSolution draws a uniform candidate for the layout.
func randomSolution(rng *rand.Rand, layout []cfn.NodeChoiceCount) cfn.CandidateSolution {
	sol := make(cfn.CandidateSolution, len(layout))
	for i, vc := range layout {
		sol[i] = rng.Intn(vc.Choices)
	}

	return sol
}

// enumerateSolutions yields the full cartesian product of the layout; only
// used on small instances.
func enumerateSolutions(layout []cfn.NodeChoiceCount) []cfn.CandidateSolution {
	out := []cfn.CandidateSolution{make(cfn.CandidateSolution, len(layout))}
	for pos := len(layout) - 1; pos >= 0; pos-- {
		var next []cfn.CandidateSolution
		for choice := 0; choice < layout[pos].Choices; choice++ {
			for _, partial := range out {
				sol := partial.Clone()
				sol[pos] = choice
				next = append(next, sol)
			}
		}
		out = next
	}

	return out
}
