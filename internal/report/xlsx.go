// Package report renders stored gold prices as spreadsheets for the shop owner.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/MelvinDY/SGM/internal/models"
)

const (
	PriceSheet   = "Harga Emas"
	SummarySheet = "Ringkasan"
)

var priceHeader = []string{"Waktu (WIB)", "Hari Pasar", "Harga/gram", "Harga/oz", "Perubahan", "Perubahan %", "Sumber"}

var wib = time.FixedZone("WIB", 7*60*60)

// WritePrices writes points (oldest first) as an xlsx workbook with a price
// sheet and a summary sheet.
func WritePrices(w io.Writer, points []models.PricePoint) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PriceSheet); err != nil {
		return err
	}
	if err := writePriceSheet(f, points); err != nil {
		return fmt.Errorf("price sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	if err := writeSummary(f, points); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}

	_, err := f.WriteTo(w)
	return err
}

func writePriceSheet(f *excelize.File, points []models.PricePoint) error {
	if err := f.SetSheetRow(PriceSheet, "A1", &priceHeader); err != nil {
		return err
	}

	// #,##0 and 0.00
	money, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		return err
	}
	pct, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}

	for i, p := range points {
		row := []any{
			p.ObservedAt.In(wib).Format("2006-01-02 15:04"),
			p.MarketDay,
			p.PricePerGram,
			p.PricePerOunce,
			p.Change,
			p.ChangePercent,
			p.Source,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(PriceSheet, cell, &row); err != nil {
			return err
		}
	}

	if len(points) > 0 {
		last := len(points) + 1
		if err := f.SetCellStyle(PriceSheet, "C2", fmt.Sprintf("E%d", last), money); err != nil {
			return err
		}
		if err := f.SetCellStyle(PriceSheet, "F2", fmt.Sprintf("F%d", last), pct); err != nil {
			return err
		}
	}
	return f.SetColWidth(PriceSheet, "A", "G", 16)
}

// Summary is the headline figures of an export.
type Summary struct {
	Count int
	Low   float64
	High  float64
	First float64
	Last  float64
}

// Summarize computes per-gram low, high, first and last over points.
func Summarize(points []models.PricePoint) Summary {
	var s Summary
	for i, p := range points {
		if i == 0 {
			s.Low, s.High, s.First = p.PricePerGram, p.PricePerGram, p.PricePerGram
		}
		s.Low = min(s.Low, p.PricePerGram)
		s.High = max(s.High, p.PricePerGram)
		s.Last = p.PricePerGram
		s.Count++
	}
	return s
}

func writeSummary(f *excelize.File, points []models.PricePoint) error {
	s := Summarize(points)
	rows := [][]any{
		{"Jumlah data", s.Count},
		{"Terendah/gram", s.Low},
		{"Tertinggi/gram", s.High},
		{"Awal/gram", s.First},
		{"Akhir/gram", s.Last},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &r); err != nil {
			return err
		}
	}
	return f.SetColWidth(SummarySheet, "A", "B", 18)
}
