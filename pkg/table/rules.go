package table

import "go.uber.org/zap"

// Rule is a single declarative row-wise or column-wise repair or derivation.
// Apply runs only when every Requires column is present.
type Rule struct {
	Name     string
	Requires []string
	Apply    func(t *Table) error
}

// ApplyRules runs each available rule in order and returns the names of the
// rules that ran. Rules with missing inputs are skipped and logged at debug.
func ApplyRules(t *Table, rules []Rule, log *zap.Logger) ([]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var ran []string
	for _, r := range rules {
		if missing := firstMissing(t, r.Requires); missing != "" {
			log.Debug("rule skipped", zap.String("rule", r.Name), zap.String("missing", missing))
			continue
		}
		if err := r.Apply(t); err != nil {
			return ran, err
		}
		ran = append(ran, r.Name)
	}
	return ran, nil
}

func firstMissing(t *Table, names []string) string {
	for _, n := range names {
		if !t.Has(n) {
			return n
		}
	}
	return ""
}
