// Package cfn_test exercises the ordered solutions container.
package cfn_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/cfnet/cfn"
)

func TestSolutions_AppendStoresCopies(t *testing.T) {
	sols := cfn.NewSolutions()
	assignment := cfn.CandidateSolution{1, 2}
	sols.Append(assignment, 3.5)

	// Caller mutation after Append must not reach the stored copy.
	assignment[0] = 9

	stored, err := sols.At(0)
	require.NoError(t, err)
	require.Equal(t, cfn.CandidateSolution{1, 2}, stored.Assignment)
	require.Equal(t, 3.5, stored.Score)
}

func TestSolutions_AtBounds(t *testing.T) {
	sols := cfn.NewSolutions()
	sols.Append(cfn.CandidateSolution{0}, 1.0)

	_, err := sols.At(-1)
	require.ErrorIs(t, err, cfn.ErrOutOfRange)
	_, err = sols.At(1)
	require.ErrorIs(t, err, cfn.ErrOutOfRange)
}

func TestSolutions_BestPrefersEarliestOnTies(t *testing.T) {
	sols := cfn.NewSolutions()
	_, err := sols.Best()
	require.ErrorIs(t, err, cfn.ErrNoSolutions)

	sols.Append(cfn.CandidateSolution{0}, 2.0)
	sols.Append(cfn.CandidateSolution{1}, 1.0)
	sols.Append(cfn.CandidateSolution{2}, 1.0) // tie, inserted later

	best, err := sols.Best()
	require.NoError(t, err)
	require.Equal(t, cfn.CandidateSolution{1}, best.Assignment)
	require.Equal(t, 1.0, best.Score)
}

func TestSolutions_SortByScoreIsStable(t *testing.T) {
	sols := cfn.NewSolutions()
	sols.Append(cfn.CandidateSolution{0}, 5.0)
	sols.Append(cfn.CandidateSolution{1}, 1.0)
	sols.Append(cfn.CandidateSolution{2}, 5.0)
	sols.Append(cfn.CandidateSolution{3}, 1.0)

	sols.SortByScore()
	want := []cfn.CandidateSolution{{1}, {3}, {0}, {2}}
	for i, assignment := range want {
		got, err := sols.At(i)
		require.NoError(t, err)
		require.Equal(t, assignment, got.Assignment, "index %d", i)
	}
}
