package anomaly

import (
	j "github.com/wdm0006/appraiser/pkg/table"
)

// Cap clamps a numeric column to a fixed range. Nil bounds are open.
type Cap struct {
	Column string   `json:"column" yaml:"column" toml:"column"`
	Min    *float64 `json:"min,omitempty" yaml:"min,omitempty" toml:"min,omitempty"`
	Max    *float64 `json:"max,omitempty" yaml:"max,omitempty" toml:"max,omitempty"`
}

func (r Cap) Rule() j.Rule {
	return j.Rule{
		Name:     "cap_range:" + r.Column,
		Requires: []string{r.Column},
		Apply: func(t *j.Table) error {
			c, ok := t.Numeric(r.Column)
			if !ok {
				return nil
			}
			for i := 0; i < c.Len(); i++ {
				v, ok := c.Float(i)
				if !ok {
					continue
				}
				if r.Min != nil && v < *r.Min {
					c.SetFloat(i, *r.Min)
				}
				if r.Max != nil && v > *r.Max {
					c.SetFloat(i, *r.Max)
				}
			}
			return nil
		},
	}
}

// ReferenceCap clamps Column so it never exceeds Reference in the same row,
// e.g. a garage cannot be built after the house.
type ReferenceCap struct {
	Column    string `json:"column" yaml:"column" toml:"column"`
	Reference string `json:"reference" yaml:"reference" toml:"reference"`
}

func (r ReferenceCap) Rule() j.Rule {
	return j.Rule{
		Name:     "reference_cap:" + r.Column,
		Requires: []string{r.Column, r.Reference},
		Apply: func(t *j.Table) error {
			c, ok := t.Numeric(r.Column)
			if !ok {
				return nil
			}
			ref, ok := t.Numeric(r.Reference)
			if !ok {
				return nil
			}
			for i := 0; i < c.Len(); i++ {
				v, ok := c.Float(i)
				if !ok {
					continue
				}
				if limit, ok := ref.Float(i); ok && v > limit {
					c.SetFloat(i, limit)
				}
			}
			return nil
		},
	}
}
