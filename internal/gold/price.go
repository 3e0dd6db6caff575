package gold

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// TroyOunceGrams is the mass of one troy ounce in grams.
const TroyOunceGrams = 31.1035

var troyOunce = decimal.RequireFromString("31.1035")

// Kind tags where a SpotPrice came from.
type Kind string

const (
	KindLive      Kind = "live"      // quoted by the upstream source
	KindEstimated Kind = "estimated" // derived from a live current price
	KindSynthetic Kind = "synthetic" // fabricated, or derived from a fabricated current price
)

// SpotPrice is a single quoted (or fabricated) gold price observation.
type SpotPrice struct {
	PricePerGram  float64   `json:"price"`
	PricePerOunce float64   `json:"pricePerOunce"`
	Currency      string    `json:"currency"`
	ObservedAt    time.Time `json:"timestamp"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Kind          Kind      `json:"kind"`
}

// Live reports whether the price was quoted by the upstream source.
func (p SpotPrice) Live() bool { return p.Kind == KindLive }

func (p SpotPrice) usable() bool {
	return p.PricePerOunce > 0 && !math.IsNaN(p.PricePerOunce) && !math.IsInf(p.PricePerOunce, 0)
}

// Horizon is a fixed lookback interval used for price comparison.
type Horizon struct {
	Name string `json:"name"`
	Days int    `json:"days"`
}

var horizons = []Horizon{
	{Name: "yesterday", Days: 1},
	{Name: "weekAgo", Days: 7},
	{Name: "monthAgo", Days: 30},
	{Name: "yearAgo", Days: 365},
}

// Horizons returns the comparison horizons in ascending order.
func Horizons() []Horizon {
	out := make([]Horizon, len(horizons))
	copy(out, horizons)
	return out
}

// PriceHistory bundles the current price with one optional estimate per horizon.
type PriceHistory struct {
	Today     SpotPrice  `json:"today"`
	Yesterday *SpotPrice `json:"yesterday"`
	WeekAgo   *SpotPrice `json:"weekAgo"`
	MonthAgo  *SpotPrice `json:"monthAgo"`
	YearAgo   *SpotPrice `json:"yearAgo"`
}

// Slot returns the historical price stored for the named horizon.
func (h *PriceHistory) Slot(name string) *SpotPrice {
	switch name {
	case "yesterday":
		return h.Yesterday
	case "weekAgo":
		return h.WeekAgo
	case "monthAgo":
		return h.MonthAgo
	case "yearAgo":
		return h.YearAgo
	}
	return nil
}

func (h *PriceHistory) slotRef(name string) **SpotPrice {
	switch name {
	case "yesterday":
		return &h.Yesterday
	case "weekAgo":
		return &h.WeekAgo
	case "monthAgo":
		return &h.MonthAgo
	case "yearAgo":
		return &h.YearAgo
	}
	return nil
}

// Comparison is today's per-gram price measured against one horizon.
type Comparison struct {
	Horizon Horizon    `json:"horizon"`
	Price   *SpotPrice `json:"price"`
	Change  Change     `json:"change"`
}

// Compare returns one Comparison per horizon. Empty slots compare as "no prior data".
func (h *PriceHistory) Compare() []Comparison {
	out := make([]Comparison, 0, len(horizons))
	for _, hz := range horizons {
		slot := h.Slot(hz.Name)
		var prev *float64
		if slot != nil {
			v := slot.PricePerGram
			prev = &v
		}
		out = append(out, Comparison{
			Horizon: hz,
			Price:   slot,
			Change:  CalculateChange(h.Today.PricePerGram, prev),
		})
	}
	return out
}

// OunceToGram converts a per-troy-ounce price to a per-gram price.
func OunceToGram(perOunce float64) float64 {
	if !finite(perOunce) {
		return perOunce / TroyOunceGrams
	}
	v, _ := decimal.NewFromFloat(perOunce).Div(troyOunce).Float64()
	return v
}

// GramToOunce converts a per-gram price back to a per-troy-ounce price.
func GramToOunce(perGram float64) float64 {
	if !finite(perGram) {
		return perGram * TroyOunceGrams
	}
	v, _ := decimal.NewFromFloat(perGram).Mul(troyOunce).Float64()
	return v
}

// roundWhole rounds half away from zero to the nearest currency unit.
func roundWhole(v float64) float64 {
	if !finite(v) {
		return v
	}
	r, _ := decimal.NewFromFloat(v).Round(0).Float64()
	return r
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
