package gold

// Change is the difference between two per-gram prices.
// Percent is nil when the previous price is zero and no percentage exists.
type Change struct {
	Delta   float64  `json:"delta"`
	Percent *float64 `json:"deltaPercent"`
}

// PercentOr returns the percent change, or fallback when it is undefined.
func (c Change) PercentOr(fallback float64) float64 {
	if c.Percent == nil {
		return fallback
	}
	return *c.Percent
}

// CalculateChange compares current with previous. A nil previous means there
// is no prior data and yields a zero change. Values are not rounded.
func CalculateChange(current float64, previous *float64) Change {
	if previous == nil {
		zero := 0.0
		return Change{Delta: 0, Percent: &zero}
	}
	delta := current - *previous
	if *previous == 0 {
		return Change{Delta: delta}
	}
	pct := (current - *previous) / *previous * 100
	return Change{Delta: delta, Percent: &pct}
}
