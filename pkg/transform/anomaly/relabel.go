package anomaly

import (
	"strings"

	j "github.com/wdm0006/appraiser/pkg/table"
)

// Relabel rewrites known mislabelled categories to their canonical spelling.
// Values are compared after trimming surrounding whitespace.
type Relabel struct {
	Column string            `json:"column" yaml:"column" toml:"column"`
	Map    map[string]string `json:"map" yaml:"map" toml:"map"`
}

func (r Relabel) Rule() j.Rule {
	return j.Rule{
		Name:     "relabel:" + r.Column,
		Requires: []string{r.Column},
		Apply: func(t *j.Table) error {
			c, ok := t.Strings(r.Column)
			if !ok {
				return nil
			}
			for i := 0; i < c.Len(); i++ {
				v, ok := c.Get(i)
				if !ok {
					continue
				}
				v = strings.TrimSpace(v)
				if nv, ok := r.Map[v]; ok {
					v = nv
				}
				c.Set(i, v)
			}
			return nil
		},
	}
}
