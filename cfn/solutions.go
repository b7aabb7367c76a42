// Package cfn: the ordered container for scored candidate solutions.
//
// Optimizers that consume a problem produce (assignment, score) pairs;
// Solutions keeps them in insertion order and offers deterministic
// best-first access. The container is a plain value store; it never
// re-scores, never deduplicates, and holds independent copies of every
// assignment.

package cfn

import "sort"

// Solution is one scored candidate assignment.
type Solution struct {
	// Assignment is the candidate-solution vector (one choice per variable
	// node, ascending node order).
	Assignment CandidateSolution

	// Score is the penalty the producing problem computed for Assignment.
	// Lower is better.
	Score float64
}

// Solutions is an ordered collection of scored candidates. Not safe for
// concurrent mutation; each producing context owns its container.
type Solutions struct {
	items []Solution
}

// NewSolutions returns an empty container.
func NewSolutions() *Solutions {
	return &Solutions{}
}

// Append stores an independent copy of the assignment with its score.
// Complexity: O(k) for the copy.
func (s *Solutions) Append(assignment CandidateSolution, score float64) {
	s.items = append(s.items, Solution{
		Assignment: assignment.Clone(),
		Score:      score,
	})
}

// Len returns the number of stored solutions.
func (s *Solutions) Len() int { return len(s.items) }

// At returns the i-th stored solution in insertion (or, after SortByScore,
// sorted) order.
// Errors: ErrOutOfRange.
func (s *Solutions) At(i int) (Solution, error) {
	if i < 0 || i >= len(s.items) {
		return Solution{}, ErrOutOfRange
	}

	return s.items[i], nil
}

// Best returns the lowest-scoring solution; ties resolve to the earliest
// inserted (deterministic).
// Errors: ErrNoSolutions on an empty container.
// Complexity: O(n).
func (s *Solutions) Best() (Solution, error) {
	if len(s.items) == 0 {
		return Solution{}, ErrNoSolutions
	}
	best := s.items[0]
	for _, sol := range s.items[1:] {
		if sol.Score < best.Score {
			best = sol
		}
	}

	return best, nil
}

// SortByScore reorders the container ascending by score, stable so equal
// scores keep insertion order.
// Complexity: O(n log n).
func (s *Solutions) SortByScore() {
	sort.SliceStable(s.items, func(i, j int) bool {
		return s.items[i].Score < s.items[j].Score
	})
}
