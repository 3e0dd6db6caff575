package gold

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	majorSymbol = "Rp\u00a0"
	minorSymbol = "$"
)

// FormatMajor renders an amount in the display currency (Indonesian rupiah):
// id-ID digit grouping, no fraction digits, e.g. "Rp 2.337.000".
func FormatMajor(v float64) string {
	return formatMoney(language.Indonesian, majorSymbol, 0, v)
}

// FormatMinor renders an amount in the reference currency (US dollar):
// en-US digit grouping, two fraction digits, e.g. "$2,050.00".
func FormatMinor(v float64) string {
	return formatMoney(language.AmericanEnglish, minorSymbol, 2, v)
}

func formatMoney(tag language.Tag, symbol string, places int32, v float64) string {
	if math.IsNaN(v) {
		return symbol + "NaN"
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if math.IsInf(v, 0) {
		return sign + symbol + "∞"
	}

	// half away from zero, like the browser formatter
	v, _ = decimal.NewFromFloat(v).Round(places).Float64()

	p := message.NewPrinter(tag)
	if places == 0 {
		return sign + symbol + p.Sprintf("%.0f", v)
	}
	return sign + symbol + p.Sprintf("%.2f", v)
}
