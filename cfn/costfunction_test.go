// Package cfn_test exercises the BaseCostFunction plumbing: weight
// defaults, the one-way finalize gate, layout reporting, and cloning.
package cfn_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/cfnet/cfn"
)

func TestBaseCostFunction_WeightDefaultsAndGate(t *testing.T) {
	var base cfn.BaseCostFunction
	require.Equal(t, cfn.DefaultCostFunctionWeight, base.Weight())

	require.NoError(t, base.SetWeight(2.5))
	require.Equal(t, 2.5, base.Weight())

	// An explicit zero weight sticks; it is not confused with "unset".
	require.NoError(t, base.SetWeight(0))
	require.Zero(t, base.Weight())

	require.ErrorIs(t, base.SetWeight(math.NaN()), cfn.ErrNaNInf)
	require.ErrorIs(t, base.SetWeight(math.Inf(1)), cfn.ErrNaNInf)

	require.NoError(t, base.Finalize([]int{1, 4, 9}))
	require.ErrorIs(t, base.SetWeight(3.0), cfn.ErrFinalized)
	require.Zero(t, base.Weight(), "weight frozen at finalize")
}

func TestBaseCostFunction_FinalizeExactlyOnce(t *testing.T) {
	var base cfn.BaseCostFunction
	require.False(t, base.Finalized())

	_, err := base.VariableNodeIndices()
	require.ErrorIs(t, err, cfn.ErrNotFinalized)

	require.ErrorIs(t, base.Finalize([]int{0, -2}), cfn.ErrNegativeIndex)
	require.False(t, base.Finalized(), "failed finalize must not half-freeze")

	require.NoError(t, base.Finalize([]int{0, 2}))
	require.True(t, base.Finalized())
	require.ErrorIs(t, base.Finalize([]int{0, 2}), cfn.ErrFinalized)

	idx, err := base.VariableNodeIndices()
	require.NoError(t, err)
	require.Equal(t, []int{0, 2}, idx)

	// The returned layout is a copy.
	idx[0] = 99
	again, err := base.VariableNodeIndices()
	require.NoError(t, err)
	require.Equal(t, []int{0, 2}, again)
}

func TestBaseCostFunction_NeutralScoring(t *testing.T) {
	var base cfn.BaseCostFunction
	require.Zero(t, base.Score(cfn.CandidateSolution{1, 2}, nil))
	require.Zero(t, base.ScoreChange(cfn.CandidateSolution{0, 0}, cfn.CandidateSolution{1, 2}, nil))
	require.False(t, base.UsesScratchSpace())
	require.Nil(t, base.NewScratchSpace())
}

func TestBaseCostFunction_Clone(t *testing.T) {
	var base cfn.BaseCostFunction
	require.NoError(t, base.SetWeight(4.0))
	require.NoError(t, base.Finalize([]int{3, 7}))

	clone := base.Clone()
	require.Equal(t, 4.0, clone.Weight())
	require.True(t, clone.Finalized())
	require.ErrorIs(t, clone.SetWeight(1.0), cfn.ErrFinalized)
}

func TestCostFunction_DeltaContractForImplementations(t *testing.T) {
	// Every implementation must keep ScoreChange == Score(b) - Score(a);
	// spot-check the shipped concrete cost function through the interface.
	feature := cfn.NewFeatureWindowCostFunction()
	require.NoError(t, feature.AddFeature(0, 1, 2))
	require.NoError(t, feature.AddChoiceContribution(0, 0, 0, 1))
	require.NoError(t, feature.AddChoiceContribution(0, 1, 0, 3))
	require.NoError(t, feature.AddChoiceContribution(2, 1, 0, 1))

	var cf cfn.CostFunction = feature
	require.NoError(t, cf.Finalize([]int{0, 2}))

	solA := cfn.CandidateSolution{0, 0}
	solB := cfn.CandidateSolution{1, 1}
	diff := cf.Score(solB, nil) - cf.Score(solA, nil)
	require.InDelta(t, diff, cf.ScoreChange(solA, solB, nil), tol)
}
