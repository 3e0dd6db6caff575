package api

import (
	"net/http"

	"github.com/MelvinDY/SGM/internal/models"
	"github.com/MelvinDY/SGM/internal/repository"
)

type priceJSON struct {
	T      int64   `json:"t"`
	P      float64 `json:"p"`
	Source string  `json:"source"`
}

func toPriceJSON(prices []models.PricePoint) []priceJSON {
	out := make([]priceJSON, len(prices))
	for i, p := range prices {
		out[i] = priceJSON{T: p.ObservedAt.UnixMilli(), P: p.PricePerGram, Source: p.Source}
	}
	return out
}

func (s *Server) handlePricesToday(w http.ResponseWriter, r *http.Request) {
	if s.prices == nil {
		writeUnavailable(w)
		return
	}
	today := repository.MarketDayNow()
	prices, err := s.prices.GetByDay(r.Context(), today)
	if err != nil {
		s.log.Error("fetch today's prices", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch prices")
		return
	}
	writeJSON(w, http.StatusOK, toPriceJSON(prices))
}

func (s *Server) handlePricesByDay(w http.ResponseWriter, r *http.Request) {
	if s.prices == nil {
		writeUnavailable(w)
		return
	}
	date := r.PathValue("date")
	if !validateDate(date) {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	prices, err := s.prices.GetByDay(r.Context(), date)
	if err != nil {
		s.log.Error("fetch prices by day", "date", date, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch prices")
		return
	}
	writeJSON(w, http.StatusOK, toPriceJSON(prices))
}

func (s *Server) handleAvailableDays(w http.ResponseWriter, r *http.Request) {
	if s.prices == nil {
		writeUnavailable(w)
		return
	}
	days, err := s.prices.GetAvailableDays(r.Context())
	if err != nil {
		s.log.Error("fetch available days", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch available days")
		return
	}
	if days == nil {
		days = []string{}
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleLatestPrice(w http.ResponseWriter, r *http.Request) {
	if s.prices == nil {
		writeUnavailable(w)
		return
	}
	price, err := s.prices.GetLatest(r.Context())
	if err != nil {
		s.log.Error("fetch latest price", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch latest price")
		return
	}
	if price == nil {
		writeError(w, http.StatusNotFound, "no price data available")
		return
	}
	writeJSON(w, http.StatusOK, price)
}
