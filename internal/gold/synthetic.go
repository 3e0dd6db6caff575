package gold

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// DefaultSyntheticBaseline is the per-ounce rupiah price the synthetic
// generator centres on (about Rp 2.337.000 per gram).
const DefaultSyntheticBaseline = 72_689_000.0

const (
	syntheticSpread    = 0.01   // ±1% around the baseline
	syntheticMaxChange = 20_000 // ± per gram
	historicalDrift    = 0.0005 // per day, backwards from the baseline
	historicalNoise    = 0.0075 // ±0.75%
)

// Float64Source yields pseudo-random numbers in [0, 1). Implementations must be
// safe for concurrent use.
type Float64Source interface {
	Float64() float64
}

// LockedRand is a Float64Source guarded by a mutex.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewLockedRand(seed uint64) *LockedRand {
	return &LockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func seededRand(a, b uint64) *rand.Rand {
	return rand.New(rand.NewPCG(a, b))
}

// symmetric maps a draw in [0, 1) onto [-1, 1).
func symmetric(u float64) float64 { return u*2 - 1 }

func (s *Service) syntheticCurrent() SpotPrice {
	ounce := s.baseline * (1 + symmetric(s.rng.Float64())*syntheticSpread)
	gram := roundWhole(OunceToGram(ounce))
	change := math.Round(symmetric(s.rng.Float64()) * syntheticMaxChange)

	pct := 0.0
	if prev := gram - change; prev != 0 {
		pct = change / prev * 100
	}

	return SpotPrice{
		PricePerGram:  gram,
		PricePerOunce: ounce,
		Currency:      s.currency,
		ObservedAt:    s.now().UTC(),
		Change:        change,
		ChangePercent: pct,
		Kind:          KindSynthetic,
	}
}

// syntheticHistorical fabricates a past price without any current quote.
// The noise is seeded by the day offset, so a given horizon is stable.
func (s *Service) syntheticHistorical(target time.Time, days int) SpotPrice {
	r := seededRand(uint64(days), 0x601d)
	drift := math.Min(1, historicalDrift*float64(days))
	ounce := s.baseline * (1 - drift) * (1 + symmetric(r.Float64())*historicalNoise)
	ounce = math.Max(0, ounce)

	return SpotPrice{
		PricePerGram:  roundWhole(OunceToGram(ounce)),
		PricePerOunce: ounce,
		Currency:      s.currency,
		ObservedAt:    target.UTC(),
		Kind:          KindSynthetic,
	}
}
