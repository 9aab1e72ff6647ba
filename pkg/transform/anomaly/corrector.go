// Package anomaly repairs values that are inconsistent with the rest of
// their row or with known label spellings. It learns nothing at fit.
package anomaly

import (
	"context"

	"go.uber.org/zap"

	j "github.com/wdm0006/appraiser/pkg/table"
)

type Config struct {
	ReferenceCaps []ReferenceCap `json:"reference_caps" yaml:"reference_caps" toml:"reference_caps"`
	Caps          []Cap          `json:"caps" yaml:"caps" toml:"caps"`
	Relabels      []Relabel      `json:"relabels" yaml:"relabels" toml:"relabels"`
}

func DefaultConfig() Config {
	return Config{
		ReferenceCaps: []ReferenceCap{{Column: "GarageYrBlt", Reference: "YearBuilt"}},
		Relabels: []Relabel{{Column: "Exterior2nd", Map: map[string]string{
			"Wd Shng": "Wd Sdng",
			"CmentBd": "CemntBd",
			"Brk Cmn": "BrkComm",
		}}},
	}
}

// Corrector runs its rules in order: reference caps, fixed caps, relabels.
type Corrector struct {
	Rules []j.Rule
	log   *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Corrector {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Corrector{log: log}
	for _, r := range cfg.ReferenceCaps {
		c.Rules = append(c.Rules, r.Rule())
	}
	for _, r := range cfg.Caps {
		c.Rules = append(c.Rules, r.Rule())
	}
	for _, r := range cfg.Relabels {
		c.Rules = append(c.Rules, r.Rule())
	}
	return c
}

func (c *Corrector) Name() string { return "anomaly" }

func (c *Corrector) Apply(ctx context.Context, t *j.Table) (*j.Table, error) {
	if _, err := j.ApplyRules(t, c.Rules, c.log); err != nil {
		return nil, err
	}
	return t, nil
}
