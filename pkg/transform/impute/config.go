package impute

// Strategy selects the per-group statistic for group imputation.
type Strategy string

const (
	StrategyMedian Strategy = "median"
	StrategyMean   Strategy = "mean"
)

// GroupRule fills Column from a statistic of Column within each category of By.
// Categories seen in fewer than RareThreshold of the fitting rows collapse
// into Other.
type GroupRule struct {
	Column        string   `json:"column" yaml:"column" toml:"column"`
	By            string   `json:"by" yaml:"by" toml:"by"`
	Strategy      Strategy `json:"strategy" yaml:"strategy" toml:"strategy"`
	RareThreshold float64  `json:"rare_threshold" yaml:"rare_threshold" toml:"rare_threshold"`
	Other         string   `json:"other" yaml:"other" toml:"other"`
}

// Config declares which columns get which fill strategy.
type Config struct {
	// NoneColumns are categorical columns where missing means "feature absent".
	NoneColumns []string `json:"none_columns" yaml:"none_columns" toml:"none_columns"`
	// ZeroColumns are numeric columns where missing means zero quantity.
	ZeroColumns []string   `json:"zero_columns" yaml:"zero_columns" toml:"zero_columns"`
	ModeColumns []string   `json:"mode_columns" yaml:"mode_columns" toml:"mode_columns"`
	Group       *GroupRule `json:"group,omitempty" yaml:"group,omitempty" toml:"group,omitempty"`
	NoneValue   string     `json:"none_value" yaml:"none_value" toml:"none_value"`
}

// DefaultConfig returns the fill rules for the Ames housing schema.
func DefaultConfig() Config {
	return Config{
		NoneColumns: []string{
			"Alley", "BsmtQual", "BsmtCond", "BsmtExposure", "BsmtFinType1", "BsmtFinType2",
			"FireplaceQu", "GarageType", "GarageFinish", "GarageQual", "GarageCond",
			"PoolQC", "Fence", "MiscFeature", "MasVnrType",
		},
		ZeroColumns: []string{
			"MasVnrArea", "BsmtFinSF1", "BsmtFinSF2", "BsmtUnfSF", "TotalBsmtSF",
			"BsmtFullBath", "BsmtHalfBath", "GarageArea", "GarageCars", "GarageYrBlt",
		},
		ModeColumns: []string{
			"MSZoning", "Electrical", "KitchenQual", "Exterior1st", "Exterior2nd",
			"SaleType", "Functional", "Utilities",
		},
		Group: &GroupRule{
			Column:        "LotFrontage",
			By:            "Neighborhood",
			Strategy:      StrategyMedian,
			RareThreshold: 0.02,
			Other:         "Other",
		},
		NoneValue: "None",
	}
}

func (c Config) withDefaults() Config {
	if c.NoneValue == "" {
		c.NoneValue = "None"
	}
	if c.Group != nil {
		g := *c.Group
		if g.Strategy == "" {
			g.Strategy = StrategyMedian
		}
		if g.Other == "" {
			g.Other = "Other"
		}
		c.Group = &g
	}
	return c
}
