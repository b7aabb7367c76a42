// Package cfn_test exercises the feature-window cost function: window
// semantics, fixed-node baselines, finalize validation, and the primed
// scratch path with accept/reject coherence.
package cfn_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/cfnet/cfn"
)

// newFeatureFixture builds a counter over variable nodes {1, 3} with two
// features:
//
//	feature 0, window [1,2]: node1/c0→1, node1/c1→2, node3/c1→1, fixed node 2 (choice 0)→1
//	feature 5, window [2,2]: node3/c0→2, node3/c1→1
func newFeatureFixture(t *testing.T) *cfn.FeatureWindowCostFunction {
	t.Helper()
	f := cfn.NewFeatureWindowCostFunction()
	require.NoError(t, f.AddFeature(0, 1, 2))
	require.NoError(t, f.AddFeature(5, 2, 2))
	require.NoError(t, f.AddChoiceContribution(1, 0, 0, 1))
	require.NoError(t, f.AddChoiceContribution(1, 1, 0, 2))
	require.NoError(t, f.AddChoiceContribution(3, 1, 0, 1))
	require.NoError(t, f.AddChoiceContribution(2, 0, 0, 1)) // fixed node → baseline
	require.NoError(t, f.AddChoiceContribution(3, 0, 5, 2))
	require.NoError(t, f.AddChoiceContribution(3, 1, 5, 1))
	require.NoError(t, f.Finalize([]int{1, 3}))

	return f
}

func TestFeatureWindow_ScoreByHand(t *testing.T) {
	f := newFeatureFixture(t)

	// [c1=0, c3=0]: feature0 = 1(baseline) + 1 = 2 ∈ [1,2]; feature5 = 2 ∈ [2,2].
	require.Zero(t, f.Score(cfn.CandidateSolution{0, 0}, nil))

	// [c1=1, c3=1]: feature0 = 1 + 2 + 1 = 4 ∉ [1,2]; feature5 = 1 ∉ [2,2].
	require.InDelta(t, 2.0, f.Score(cfn.CandidateSolution{1, 1}, nil), tol)

	// [c1=0, c3=1]: feature0 = 1 + 1 + 1 = 3 ∉; feature5 = 1 ∉.
	require.InDelta(t, 2.0, f.Score(cfn.CandidateSolution{0, 1}, nil), tol)
}

func TestFeatureWindow_WeightScalesScore(t *testing.T) {
	f := cfn.NewFeatureWindowCostFunction()
	require.NoError(t, f.AddFeature(0, 1, 1))
	require.NoError(t, f.AddChoiceContribution(0, 1, 0, 1))
	require.NoError(t, f.SetWeight(3.5))
	require.NoError(t, f.Finalize([]int{0}))

	// Choice 0 leaves feature 0 at zero connections: unsatisfied.
	require.InDelta(t, 3.5, f.Score(cfn.CandidateSolution{0}, nil), tol)
	require.Zero(t, f.Score(cfn.CandidateSolution{1}, nil))
}

func TestFeatureWindow_SetterValidation(t *testing.T) {
	f := cfn.NewFeatureWindowCostFunction()
	require.ErrorIs(t, f.AddFeature(-1, 0, 1), cfn.ErrNegativeIndex)
	require.ErrorIs(t, f.AddFeature(0, -1, 1), cfn.ErrBadWindow)
	require.ErrorIs(t, f.AddFeature(0, 3, 1), cfn.ErrBadWindow)
	require.ErrorIs(t, f.AddChoiceContribution(-1, 0, 0, 1), cfn.ErrNegativeIndex)
	require.ErrorIs(t, f.AddChoiceContribution(0, 0, 0, -2), cfn.ErrNegativeIndex)

	require.NoError(t, f.AddFeature(0, 0, 1))
	require.NoError(t, f.Finalize(nil))
	require.ErrorIs(t, f.AddFeature(1, 0, 1), cfn.ErrFinalized)
	require.ErrorIs(t, f.AddChoiceContribution(0, 0, 0, 1), cfn.ErrFinalized)
	require.ErrorIs(t, f.Finalize(nil), cfn.ErrFinalized)
}

func TestFeatureWindow_FinalizeRejectsUndeclaredFeature(t *testing.T) {
	f := cfn.NewFeatureWindowCostFunction()
	require.NoError(t, f.AddFeature(0, 0, 1))
	require.NoError(t, f.AddChoiceContribution(0, 0, 7, 1)) // feature 7 never declared
	require.ErrorIs(t, f.Finalize([]int{0}), cfn.ErrUnknownFeature)
	require.False(t, f.Finalized())
}

func TestFeatureWindow_DeltaMatchesScoreDifference(t *testing.T) {
	f := newFeatureFixture(t)
	layout := []cfn.NodeChoiceCount{{Node: 1, Choices: 2}, {Node: 3, Choices: 2}}
	rng := rand.New(rand.NewSource(seedDet + 2))

	for draw := 0; draw < 128; draw++ {
		solA := randomSolution(rng, layout)
		solB := randomSolution(rng, layout)
		diff := f.Score(solB, nil) - f.Score(solA, nil)
		require.InDelta(t, diff, f.ScoreChange(solA, solB, nil), tol,
			"A=%v B=%v", solA, solB)
	}
}

func TestFeatureWindow_PrimedScratchWalk(t *testing.T) {
	f := newFeatureFixture(t)
	layout := []cfn.NodeChoiceCount{{Node: 1, Choices: 2}, {Node: 3, Choices: 2}}
	rng := rand.New(rand.NewSource(seedDet + 3))

	scratch := f.NewScratchSpace()
	require.NotNil(t, scratch)
	require.True(t, f.UsesScratchSpace())
	fws, ok := scratch.(*cfn.FeatureWindowScratch)
	require.True(t, ok)
	require.False(t, fws.Primed())

	// Prime on a baseline, then walk random moves, accepting about half.
	current := cfn.CandidateSolution{0, 0}
	score := f.Score(current, scratch)
	require.True(t, fws.Primed())

	for step := 0; step < 200; step++ {
		trial := current.Clone()
		pos := rng.Intn(len(trial))
		trial[pos] = rng.Intn(layout[pos].Choices)

		delta := f.ScoreChange(current, trial, scratch)
		require.InDelta(t, f.Score(trial, nil)-f.Score(current, nil), delta, tol,
			"step %d: current=%v trial=%v", step, current, trial)

		if rng.Float64() < 0.5 {
			scratch.Accept()
			current = trial
			score += delta
		} else {
			scratch.Reject()
		}
		// The cached baseline stays coherent with the running score.
		require.InDelta(t, f.Score(current, nil), score, tol, "step %d", step)
	}
}

func TestFeatureWindow_CloneIsIndependent(t *testing.T) {
	f := cfn.NewFeatureWindowCostFunction()
	require.NoError(t, f.AddFeature(0, 1, 1))
	require.NoError(t, f.AddChoiceContribution(0, 1, 0, 1))

	clone, err := asFeatureWindow(f.Clone())
	require.NoError(t, err)
	require.NoError(t, clone.AddFeature(1, 1, 1))
	require.NoError(t, clone.AddChoiceContribution(0, 0, 1, 1))

	require.NoError(t, f.Finalize([]int{0}))
	require.NoError(t, clone.Finalize([]int{0}))

	// The original never saw feature 1.
	require.Zero(t, f.Score(cfn.CandidateSolution{1}, nil))
	require.InDelta(t, 1.0, clone.Score(cfn.CandidateSolution{1}, nil), tol)
}

// asFeatureWindow narrows a CostFunction to the concrete counter.
func asFeatureWindow(cf cfn.CostFunction) (*cfn.FeatureWindowCostFunction, error) {
	f, ok := cf.(*cfn.FeatureWindowCostFunction)
	if !ok {
		return nil, cfn.ErrTypeMismatch
	}

	return f, nil
}

func TestFeatureWindow_CatalogSurface(t *testing.T) {
	f := cfn.NewFeatureWindowCostFunction()
	require.Contains(t, f.Categories(), []string{"CostFunction", "FeatureWindowCostFunction"})
	require.Contains(t, f.Keywords(), "feature_window")
}
