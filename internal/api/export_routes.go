package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MelvinDY/SGM/internal/report"
	"github.com/MelvinDY/SGM/internal/repository"
)

const (
	defaultExportDays = 30
	maxExportDays     = 366
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// exportRange resolves ?from= and ?to= (inclusive market days) into [start, end).
// Missing bounds default to the last 30 days ending today.
func exportRange(r *http.Request, today string) (from, to string, start, end time.Time, err error) {
	q := r.URL.Query()
	to = q.Get("to")
	if to == "" {
		to = today
	}
	if !validateDate(to) {
		return "", "", time.Time{}, time.Time{}, errors.New("invalid to date, expected YYYY-MM-DD")
	}
	toStart, _ := repository.MarketDayStart(to)
	end = toStart.AddDate(0, 0, 1)

	from = q.Get("from")
	if from == "" {
		from = toStart.AddDate(0, 0, -(defaultExportDays - 1)).Format(time.DateOnly)
	}
	if !validateDate(from) {
		return "", "", time.Time{}, time.Time{}, errors.New("invalid from date, expected YYYY-MM-DD")
	}
	start, _ = repository.MarketDayStart(from)

	if !start.Before(end) {
		return "", "", time.Time{}, time.Time{}, errors.New("from must not be after to")
	}
	if end.Sub(start) > maxExportDays*24*time.Hour {
		return "", "", time.Time{}, time.Time{}, fmt.Errorf("range exceeds %d days", maxExportDays)
	}
	return from, to, start, end, nil
}

func (s *Server) handlePriceExport(w http.ResponseWriter, r *http.Request) {
	if s.prices == nil {
		writeUnavailable(w)
		return
	}
	from, to, start, end, err := exportRange(r, repository.MarketDayNow())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	points, err := s.prices.GetRange(r.Context(), start, end)
	if err != nil {
		s.log.Error("fetch price range", "from", from, "to", to, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch prices")
		return
	}

	var buf bytes.Buffer
	if err := report.WritePrices(&buf, points); err != nil {
		s.log.Error("render export", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to build export")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="harga-emas_%s_%s.xlsx"`, from, to))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
