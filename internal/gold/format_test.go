package gold

import (
	"math"
	"strings"
	"testing"
)

func TestFormatMajor(t *testing.T) {
	got := FormatMajor(2337000)
	if !strings.Contains(got, "2.337.000") {
		t.Fatalf("expected id-ID grouping, got %q", got)
	}
	if !strings.HasPrefix(got, "Rp") {
		t.Fatalf("expected rupiah symbol, got %q", got)
	}
	if strings.Contains(got, ",") {
		t.Fatalf("expected no fraction digits, got %q", got)
	}
	if again := FormatMajor(2337000); again != got {
		t.Fatalf("formatting is not idempotent: %q vs %q", got, again)
	}
}

func TestFormatMajor_RoundsHalfUp(t *testing.T) {
	if got := FormatMajor(2337003.5); !strings.Contains(got, "2.337.004") {
		t.Fatalf("expected rounding up, got %q", got)
	}
}

func TestFormatMajor_Negative(t *testing.T) {
	got := FormatMajor(-10000)
	if !strings.HasPrefix(got, "-Rp") || !strings.Contains(got, "10.000") {
		t.Fatalf("unexpected negative format %q", got)
	}
}

func TestFormatMinor(t *testing.T) {
	got := FormatMinor(2050)
	if got != "$2,050.00" {
		t.Fatalf("expected $2,050.00, got %q", got)
	}
	if got := FormatMinor(1234567.891); got != "$1,234,567.89" {
		t.Fatalf("expected $1,234,567.89, got %q", got)
	}
}

func TestFormat_NonFinite(t *testing.T) {
	if got := FormatMajor(math.NaN()); !strings.Contains(got, "NaN") {
		t.Fatalf("NaN should pass through, got %q", got)
	}
	if got := FormatMinor(math.Inf(1)); !strings.Contains(got, "∞") {
		t.Fatalf("Inf should pass through, got %q", got)
	}
}
