package models

import "testing"

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"Cincin":   CategoryRing,
		"kalung":   CategoryNecklace,
		" GELANG ": CategoryBracelet,
		"anting":   CategoryEarring,
	}
	for in, want := range cases {
		got, err := ParseCategory(in)
		if err != nil {
			t.Fatalf("ParseCategory(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseCategory(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseCategory("bros"); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestProductInsert_Validate(t *testing.T) {
	neg := -1.0
	cases := []struct {
		name string
		in   ProductInsert
		ok   bool
	}{
		{"valid", ProductInsert{Name: "Cincin Polos", Category: CategoryRing}, true},
		{"missing name", ProductInsert{Name: "  ", Category: CategoryRing}, false},
		{"bad category", ProductInsert{Name: "Bros", Category: "Bros"}, false},
		{"negative price", ProductInsert{Name: "Kalung", Category: CategoryNecklace, Price: &neg}, false},
	}
	for _, tc := range cases {
		err := tc.in.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestProductUpdate_Validate(t *testing.T) {
	empty := ""
	bad := Category("Bros")
	if err := (&ProductUpdate{}).Validate(); err != nil {
		t.Fatalf("empty update should be valid: %v", err)
	}
	if err := (&ProductUpdate{Name: &empty}).Validate(); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := (&ProductUpdate{Category: &bad}).Validate(); err == nil {
		t.Fatal("expected error for unknown category")
	}
}
