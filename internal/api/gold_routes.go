package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/MelvinDY/SGM/internal/gold"
)

type formattedJSON struct {
	Gram    string `json:"gram"`
	Ounce   string `json:"ounce"`
	Change  string `json:"change"`
	USDGram string `json:"usdGram,omitempty"`
}

type quoteJSON struct {
	gold.SpotPrice
	Formatted formattedJSON `json:"formatted"`
}

type comparisonJSON struct {
	gold.Comparison
	Formatted string `json:"formatted"`
}

type historyJSON struct {
	gold.PriceHistory
	Comparisons []comparisonJSON `json:"comparisons"`
}

func (s *Server) quote(p gold.SpotPrice) quoteJSON {
	f := formattedJSON{
		Gram:   gold.FormatMajor(p.PricePerGram),
		Ounce:  gold.FormatMajor(p.PricePerOunce),
		Change: gold.FormatMajor(p.Change),
	}
	if s.usdRate > 0 {
		f.USDGram = gold.FormatMinor(p.PricePerGram / s.usdRate)
	}
	return quoteJSON{SpotPrice: p, Formatted: f}
}

func (s *Server) handleGoldCurrent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.quote(s.gold.CurrentPrice(r.Context())))
}

func (s *Server) handleGoldHistory(w http.ResponseWriter, r *http.Request) {
	h := s.gold.PriceHistory(r.Context())

	cmp := h.Compare()
	out := historyJSON{PriceHistory: h, Comparisons: make([]comparisonJSON, len(cmp))}
	for i, c := range cmp {
		out.Comparisons[i] = comparisonJSON{Comparison: c, Formatted: gold.FormatMajor(c.Change.Delta)}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGoldChange compares ?current= against an optional ?previous=.
func (s *Server) handleGoldChange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	current, err := parseFinite(q.Get("current"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "current must be a number")
		return
	}

	var previous *float64
	if v := q.Get("previous"); v != "" {
		p, err := parseFinite(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "previous must be a number")
			return
		}
		previous = &p
	}

	c := gold.CalculateChange(current, previous)
	writeJSON(w, http.StatusOK, map[string]any{
		"delta":        c.Delta,
		"deltaPercent": c.Percent,
		"formatted":    gold.FormatMajor(c.Delta),
	})
}

func parseFinite(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrRange
	}
	return f, nil
}
