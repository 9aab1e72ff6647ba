package profile

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	j "github.com/wdm0006/appraiser/pkg/table"
)

// DefaultBins is the histogram resolution used at training time.
const DefaultBins = 20

type Overview struct {
	Count  int     `json:"total_properties"`
	Mean   float64 `json:"avg_price"`
	Median float64 `json:"median_price"`
	Min    float64 `json:"min_price"`
	Max    float64 `json:"max_price"`
	Std    float64 `json:"price_std"`
}

type GroupStats struct {
	Group  string  `json:"group"`
	Mean   float64 `json:"avg_price"`
	Median float64 `json:"median_price"`
	Count  int     `json:"property_count"`
	Min    float64 `json:"min_price"`
	Max    float64 `json:"max_price"`
}

type Distribution struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// Summary holds the target statistics shown next to predictions.
type Summary struct {
	Target       string       `json:"target"`
	GroupBy      string       `json:"group_by,omitempty"`
	Overview     Overview     `json:"overview"`
	Groups       []GroupStats `json:"groups"`
	Distribution Distribution `json:"distribution"`
}

// Group returns the aggregate for one group.
func (s *Summary) Group(name string) (GroupStats, bool) {
	for _, g := range s.Groups {
		if g.Group == name {
			return g, true
		}
	}
	return GroupStats{}, false
}

// Summarize computes overview statistics of target, per-group aggregates
// when groupBy is a text column, and an equal-width histogram. Rows with a
// missing target are ignored.
func Summarize(t *j.Table, target, groupBy string, bins int) (*Summary, error) {
	c, ok := t.Numeric(target)
	if !ok {
		return nil, fmt.Errorf("summary: target column %q is not numeric or absent", target)
	}
	vals := j.Floats(c)
	if len(vals) == 0 {
		return nil, fmt.Errorf("summary: target column %q has no values", target)
	}
	if bins <= 0 {
		bins = DefaultBins
	}
	s := &Summary{Target: target, Overview: overview(vals), Distribution: histogram(vals, bins)}

	keys, ok := t.Strings(groupBy)
	if !ok {
		return s, nil
	}
	s.GroupBy = groupBy
	members := map[string][]float64{}
	for i := 0; i < t.Rows(); i++ {
		v, ok := c.Float(i)
		if !ok {
			continue
		}
		g, ok := keys.Get(i)
		if !ok {
			continue
		}
		members[g] = append(members[g], v)
	}
	for g, gv := range members {
		o := overview(gv)
		s.Groups = append(s.Groups, GroupStats{Group: g, Mean: o.Mean, Median: o.Median, Count: o.Count, Min: o.Min, Max: o.Max})
	}
	sort.Slice(s.Groups, func(a, b int) bool { return s.Groups[a].Group < s.Groups[b].Group })
	return s, nil
}

func overview(vals []float64) Overview {
	o := Overview{
		Count:  len(vals),
		Mean:   stat.Mean(vals, nil),
		Median: j.Median(vals),
		Min:    floats.Min(vals),
		Max:    floats.Max(vals),
	}
	if len(vals) > 1 {
		o.Std = stat.StdDev(vals, nil)
	}
	return o
}

// histogram uses bins equal-width bins over [min, max], the last one closed.
func histogram(vals []float64, bins int) Distribution {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		bins = 1
	}
	edges := make([]float64, bins+1)
	if bins == 1 {
		edges[0], edges[1] = lo, hi
	} else {
		floats.Span(edges, lo, hi)
	}
	dividers := append([]float64(nil), edges...)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	d := Distribution{Labels: make([]string, bins), Values: make([]int, bins)}
	for i := 0; i < bins; i++ {
		d.Labels[i] = fmt.Sprintf("%dk-%dk", int(edges[i]/1000), int(edges[i+1]/1000))
		d.Values[i] = int(counts[i])
	}
	return d
}
