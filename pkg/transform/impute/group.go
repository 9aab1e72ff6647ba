package impute

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	j "github.com/wdm0006/appraiser/pkg/table"
)

// groupState is the learned state of a GroupRule.
type groupState struct {
	Column   string   `json:"column"`
	By       string   `json:"by"`
	Strategy Strategy `json:"strategy"`
	Other    string   `json:"other"`
	// Grouped is false when By was absent at fit; only the global
	// statistic is then available.
	Grouped   bool               `json:"grouped"`
	Kept      []string           `json:"kept"`
	Stats     map[string]float64 `json:"stats"`
	Global    float64            `json:"global"`
	HasGlobal bool               `json:"has_global"`
}

func statistic(s Strategy, vals []float64) float64 {
	if s == StrategyMean {
		return stat.Mean(vals, nil)
	}
	return j.Median(vals)
}

// learnGroup computes per-category statistics of rule.Column after
// collapsing categories rarer than rule.RareThreshold into rule.Other.
// Rows with a missing category count toward Other.
func learnGroup(t *j.Table, rule GroupRule, grouped bool) *groupState {
	gs := &groupState{
		Column:   rule.Column,
		By:       rule.By,
		Strategy: rule.Strategy,
		Other:    rule.Other,
		Grouped:  grouped,
		Stats:    map[string]float64{},
	}
	target, ok := t.Numeric(rule.Column)
	if !ok {
		return gs
	}
	all := j.Floats(target)
	if len(all) > 0 {
		gs.Global = statistic(rule.Strategy, all)
		gs.HasGlobal = true
	}
	if !grouped {
		return gs
	}
	keys, _ := t.Strings(rule.By)
	counts := j.Counts(keys)
	n := float64(t.Rows())
	for k, c := range counts {
		if n > 0 && float64(c)/n >= rule.RareThreshold {
			gs.Kept = append(gs.Kept, k)
		}
	}
	sort.Strings(gs.Kept)

	members := map[string][]float64{}
	for i := 0; i < t.Rows(); i++ {
		v, ok := target.Float(i)
		if !ok {
			continue
		}
		g := gs.assign(keys, i)
		members[g] = append(members[g], v)
	}
	for g, vals := range members {
		gs.Stats[g] = statistic(rule.Strategy, vals)
	}
	return gs
}

// assign maps row i to a kept category or Other.
func (gs *groupState) assign(keys *j.StringColumn, i int) string {
	v, ok := keys.Get(i)
	if !ok {
		return gs.Other
	}
	k := sort.SearchStrings(gs.Kept, v)
	if k < len(gs.Kept) && gs.Kept[k] == v {
		return v
	}
	return gs.Other
}

// lookup returns the statistic for a group, falling back to the global one.
func (gs *groupState) lookup(g string) (float64, bool) {
	if v, ok := gs.Stats[g]; ok {
		return v, true
	}
	return gs.Global, gs.HasGlobal
}
