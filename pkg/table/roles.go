package table

// DefaultExclude names the target and identifier columns that never take a
// feature role.
var DefaultExclude = []string{"SalePrice", "Id"}

// Roles partitions feature columns by how downstream stages treat them.
type Roles struct {
	Numeric     []string
	Categorical []string
	Date        []string
}

// Classify derives feature roles from column kinds, in table column order.
// With no exclude names given, DefaultExclude applies.
func Classify(t *Table, exclude ...string) Roles {
	if len(exclude) == 0 {
		exclude = DefaultExclude
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, n := range exclude {
		skip[n] = struct{}{}
	}
	var r Roles
	for _, c := range t.Columns() {
		if _, ok := skip[c.Name()]; ok {
			continue
		}
		switch c.Kind() {
		case KindInt, KindFloat:
			r.Numeric = append(r.Numeric, c.Name())
		case KindString:
			r.Categorical = append(r.Categorical, c.Name())
		case KindTime:
			r.Date = append(r.Date, c.Name())
		}
	}
	return r
}
