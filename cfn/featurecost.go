// Package cfn: a concrete cost function counting unsatisfied choice
// features.
//
// The model: choices expose "features" (think hydrogen-bond donors, ports,
// sockets; any countable hook), and selecting a choice contributes a number
// of connections to each feature it touches. Every feature declares a
// [min, max] connection window; a candidate satisfies the feature when its
// summed connections land inside the window. The score is
//
//	weight × (number of features whose connection total falls outside
//	          its window)
//
// Contributions registered on nodes outside the variable layout count as
// constants: a fixed node always sits at choice 0, so its choice-0
// contributions enter the baseline and contributions at its other choices
// are unreachable and dropped at finalize.
//
// The scratch space double-buffers per-feature totals so a move-based
// search pays only for the features its move touches: Score primes the
// baseline, ScoreChange writes a trial, Accept/Reject commit or discard it.

package cfn

import "sort"

// connectionWindow is the inclusive [min, max] satisfaction band of one
// feature.
type connectionWindow struct {
	min, max int
}

// choiceKey addresses the contribution list of one (node, choice).
type choiceKey struct {
	node, choice int
}

// contribution is one feature hook of a choice: selecting the choice adds
// connections to feature.
type contribution struct {
	feature     int
	connections int
}

// denseContribution is a contribution re-keyed to the dense feature index
// built at finalize.
type denseContribution struct {
	feat        int // dense index into the totals slice
	connections int
}

// FeatureWindowCostFunction scores candidates by counting features whose
// connection totals fall outside their declared windows. Construct via
// NewFeatureWindowCostFunction; the zero value is not usable.
type FeatureWindowCostFunction struct {
	BaseCostFunction

	windows  map[int]connectionWindow
	contribs map[choiceKey][]contribution

	// Finalize-time caches, immutable afterwards: the sorted declared
	// feature ids, the constant totals contributed by fixed nodes, the
	// dense contributions of variable-position keys, and the two touch
	// lists (position → dense features, dense feature → positions).
	features   []int
	baseline   []int
	perChoice  map[choiceKey][]denseContribution
	posTouched [][]int
	featPos    [][]int
}

// NewFeatureWindowCostFunction returns an empty feature counter with the
// default weight.
func NewFeatureWindowCostFunction() *FeatureWindowCostFunction {
	return &FeatureWindowCostFunction{
		windows:  make(map[int]connectionWindow),
		contribs: make(map[choiceKey][]contribution),
	}
}

// AddFeature declares (or re-declares, overwriting) a feature with an
// inclusive [minConnections, maxConnections] satisfaction window.
// Errors: ErrNegativeIndex, ErrBadWindow (negative bounds or min > max),
// ErrFinalized.
func (f *FeatureWindowCostFunction) AddFeature(feature, minConnections, maxConnections int) error {
	if feature < 0 {
		return ErrNegativeIndex
	}
	if minConnections < 0 || maxConnections < minConnections {
		return ErrBadWindow
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finalized.Load() {
		return ErrFinalized
	}
	f.windows[feature] = connectionWindow{min: minConnections, max: maxConnections}

	return nil
}

// AddChoiceContribution records that selecting choice at node adds
// connections to feature. Repeated calls for the same triple accumulate.
// The feature itself must be declared (before or after this call, but
// before finalize).
// Errors: ErrNegativeIndex (any negative argument), ErrFinalized.
func (f *FeatureWindowCostFunction) AddChoiceContribution(node, choice, feature, connections int) error {
	if node < 0 || choice < 0 || feature < 0 || connections < 0 {
		return ErrNegativeIndex
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finalized.Load() {
		return ErrFinalized
	}
	key := choiceKey{node: node, choice: choice}
	f.contribs[key] = append(f.contribs[key], contribution{feature: feature, connections: connections})

	return nil
}

// Finalize validates every contribution against the declared features,
// splits contributions into variable-position terms and fixed-node baseline
// constants, and builds the dense lookup caches.
// Errors: ErrFinalized on the second call, ErrUnknownFeature for a
// contribution referencing an undeclared feature, ErrNegativeIndex from the
// base layout check.
// Complexity: O(C log C) over stored contributions.
func (f *FeatureWindowCostFunction) Finalize(variableNodeIndices []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finalized.Load() {
		return ErrFinalized
	}

	// Stage 1: dense feature index, sorted for determinism.
	f.features = make([]int, 0, len(f.windows))
	for feature := range f.windows {
		f.features = append(f.features, feature)
	}
	sort.Ints(f.features)
	featIdx := make(map[int]int, len(f.features))
	for i, feature := range f.features {
		featIdx[feature] = i
	}

	// Stage 2: position of each variable node in the candidate vector.
	varPos := make(map[int]int, len(variableNodeIndices))
	for pos, node := range variableNodeIndices {
		varPos[node] = pos
	}

	// Stage 3: split contributions into baseline vs. per-position terms.
	f.baseline = make([]int, len(f.features))
	f.perChoice = make(map[choiceKey][]denseContribution)
	touched := make([]map[int]struct{}, len(variableNodeIndices))
	for key, list := range f.contribs {
		pos, isVariable := varPos[key.node]
		for _, c := range list {
			dense, declared := featIdx[c.feature]
			if !declared {
				return ErrUnknownFeature
			}
			switch {
			case isVariable:
				f.perChoice[key] = append(f.perChoice[key], denseContribution{feat: dense, connections: c.connections})
				if touched[pos] == nil {
					touched[pos] = make(map[int]struct{})
				}
				touched[pos][dense] = struct{}{}
			case key.choice == 0:
				// Fixed node at its single choice: a constant.
				f.baseline[dense] += c.connections
			default:
				// Fixed node, unreachable choice: dropped.
			}
		}
	}

	// Stage 4: dense touch lists, sorted for deterministic iteration.
	f.posTouched = make([][]int, len(variableNodeIndices))
	f.featPos = make([][]int, len(f.features))
	for pos, set := range touched {
		for dense := range set {
			f.posTouched[pos] = append(f.posTouched[pos], dense)
		}
		sort.Ints(f.posTouched[pos])
		for _, dense := range f.posTouched[pos] {
			f.featPos[dense] = append(f.featPos[dense], pos)
		}
	}

	// Stage 5: base finalize freezes the layout and flips the flag.
	return f.finalizeBaseLocked(variableNodeIndices)
}

// outside reports whether a connection total misses the window of the dense
// feature.
func (f *FeatureWindowCostFunction) outside(dense, total int) bool {
	w := f.windows[f.features[dense]]

	return total < w.min || total > w.max
}

// totalsFor fills dst with the per-feature connection totals of sol.
func (f *FeatureWindowCostFunction) totalsFor(sol CandidateSolution, dst []int) {
	copy(dst, f.baseline)
	for pos, choice := range sol {
		for _, dc := range f.perChoice[choiceKey{node: f.varNodes[pos], choice: choice}] {
			dst[dc.feat] += dc.connections
		}
	}
}

// Score counts the features whose totals fall outside their windows and
// applies the weight. A non-nil *FeatureWindowScratch is primed with the
// per-feature totals of sol, making it the baseline for subsequent
// ScoreChange calls.
// Complexity: O(F + k·c̄) over F features and the mean contributions per
// selected choice.
func (f *FeatureWindowCostFunction) Score(sol CandidateSolution, scratch CostFunctionScratchSpace) float64 {
	totals := make([]int, len(f.features))
	if fs, ok := scratch.(*FeatureWindowScratch); ok && fs != nil {
		fs.ensure(len(f.features))
		totals = fs.totals
	}
	f.totalsFor(sol, totals)

	var unsatisfied int
	for dense, total := range totals {
		if f.outside(dense, total) {
			unsatisfied++
		}
	}
	if fs, ok := scratch.(*FeatureWindowScratch); ok && fs != nil {
		fs.primed = true
		fs.trial = fs.trial[:0]
	}

	return f.Weight() * float64(unsatisfied)
}

// ScoreChange returns the weighted delta of newSol relative to oldSol by
// re-examining only the features touched by changed positions. With a
// scratch primed on oldSol the old totals come from the cache and the trial
// totals are buffered for Accept/Reject; without one, old totals are
// recomputed per affected feature from the touch lists. Either way the
// result equals Score(newSol) - Score(oldSol).
// Complexity: O(changed positions · touched features) with a primed
// scratch; O(affected features · positions per feature) without.
func (f *FeatureWindowCostFunction) ScoreChange(oldSol, newSol CandidateSolution, scratch CostFunctionScratchSpace) float64 {
	// Collect the dense features affected by any changed position,
	// deduplicated via a visit mark.
	affected := make([]int, 0, 8)
	seen := make(map[int]struct{}, 8)
	for pos := range newSol {
		if oldSol[pos] == newSol[pos] {
			continue
		}
		for _, dense := range f.posTouched[pos] {
			if _, dup := seen[dense]; !dup {
				seen[dense] = struct{}{}
				affected = append(affected, dense)
			}
		}
	}
	if len(affected) == 0 {
		return 0
	}
	sort.Ints(affected)

	fs, _ := scratch.(*FeatureWindowScratch)
	if fs != nil && fs.primed {
		return f.scoreChangePrimed(oldSol, newSol, affected, fs)
	}

	// Fallback: recompute the old and new totals of each affected feature
	// from its touch list.
	var delta int
	for _, dense := range affected {
		oldTotal, newTotal := f.baseline[dense], f.baseline[dense]
		for _, pos := range f.featPos[dense] {
			oldTotal += f.connAt(pos, oldSol[pos], dense)
			newTotal += f.connAt(pos, newSol[pos], dense)
		}
		delta += boolToInt(f.outside(dense, newTotal)) - boolToInt(f.outside(dense, oldTotal))
	}

	return f.Weight() * float64(delta)
}

// scoreChangePrimed computes the delta against the cached totals and
// buffers the trial totals for Accept/Reject.
func (f *FeatureWindowCostFunction) scoreChangePrimed(oldSol, newSol CandidateSolution, affected []int, fs *FeatureWindowScratch) float64 {
	fs.trial = fs.trial[:0]
	var delta int
	for _, dense := range affected {
		oldTotal := fs.totals[dense]
		newTotal := oldTotal
		for _, pos := range f.featPos[dense] {
			if oldSol[pos] == newSol[pos] {
				continue
			}
			newTotal += f.connAt(pos, newSol[pos], dense) - f.connAt(pos, oldSol[pos], dense)
		}
		fs.trial = append(fs.trial, trialTotal{feat: dense, total: newTotal})
		delta += boolToInt(f.outside(dense, newTotal)) - boolToInt(f.outside(dense, oldTotal))
	}

	return f.Weight() * float64(delta)
}

// connAt returns the connections (pos, choice) contributes to the dense
// feature.
func (f *FeatureWindowCostFunction) connAt(pos, choice, dense int) int {
	var total int
	for _, dc := range f.perChoice[choiceKey{node: f.varNodes[pos], choice: choice}] {
		if dc.feat == dense {
			total += dc.connections
		}
	}

	return total
}

// UsesScratchSpace is true: the primed-totals path is the intended mode.
func (f *FeatureWindowCostFunction) UsesScratchSpace() bool { return true }

// NewScratchSpace returns a fresh, exclusively-owned totals cache.
func (f *FeatureWindowCostFunction) NewScratchSpace() CostFunctionScratchSpace {
	return &FeatureWindowScratch{}
}

// Clone returns a deep, independent copy (pre- or post-finalize).
func (f *FeatureWindowCostFunction) Clone() CostFunction {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := &FeatureWindowCostFunction{
		windows:  make(map[int]connectionWindow, len(f.windows)),
		contribs: make(map[choiceKey][]contribution, len(f.contribs)),
	}
	for feature, w := range f.windows {
		out.windows[feature] = w
	}
	for key, list := range f.contribs {
		cp := make([]contribution, len(list))
		copy(cp, list)
		out.contribs[key] = cp
	}
	if f.features != nil {
		out.features = append([]int(nil), f.features...)
		out.baseline = append([]int(nil), f.baseline...)
		out.perChoice = make(map[choiceKey][]denseContribution, len(f.perChoice))
		for key, list := range f.perChoice {
			cp := make([]denseContribution, len(list))
			copy(cp, list)
			out.perChoice[key] = cp
		}
		out.posTouched = make([][]int, len(f.posTouched))
		for i, list := range f.posTouched {
			out.posTouched[i] = append([]int(nil), list...)
		}
		out.featPos = make([][]int, len(f.featPos))
		for i, list := range f.featPos {
			out.featPos[i] = append([]int(nil), list...)
		}
	}
	f.cloneBaseIntoLocked(&out.BaseCostFunction)

	return out
}

// Categories reports the hierarchical catalog paths of the feature counter.
func (f *FeatureWindowCostFunction) Categories() [][]string {
	return [][]string{
		{"CostFunction"},
		{"CostFunction", "FeatureWindowCostFunction"},
	}
}

// Keywords reports the flat catalog keywords of the feature counter.
func (f *FeatureWindowCostFunction) Keywords() []string {
	return []string{"optimization", "cost_function", "feature_window", "connection_counting", "numeric"}
}

// boolToInt maps false→0, true→1 for satisfaction deltas.
func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

// trialTotal is one buffered (feature, total) pair of a trial move.
type trialTotal struct {
	feat  int
	total int
}

// FeatureWindowScratch is the per-context cache of a
// FeatureWindowCostFunction: baseline per-feature totals plus the buffered
// totals of the latest trial move. Exclusively owned by one evaluation
// context; no internal locking.
type FeatureWindowScratch struct {
	totals []int
	trial  []trialTotal
	primed bool
}

// ensure sizes the totals buffer for n features, invalidating stale state.
func (s *FeatureWindowScratch) ensure(n int) {
	if len(s.totals) != n {
		s.totals = make([]int, n)
		s.trial = s.trial[:0]
		s.primed = false
	}
}

// Primed reports whether the cache holds the totals of a baseline solution.
func (s *FeatureWindowScratch) Primed() bool { return s.primed }

// Accept commits the buffered trial totals as the new baseline.
func (s *FeatureWindowScratch) Accept() {
	if !s.primed {
		return
	}
	for _, t := range s.trial {
		s.totals[t.feat] = t.total
	}
	s.trial = s.trial[:0]
}

// Reject discards the buffered trial totals; the baseline stands.
func (s *FeatureWindowScratch) Reject() {
	s.trial = s.trial[:0]
}
