package domain

import (
	"errors"
	"testing"
)

func TestNormalizePrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"10", "10.00"},
		{"10.5", "10.50"},
		{"10.00", "10.00"},
		{" 7.25 ", "7.25"},
		{"0", "0.00"},
		{"0.005", "0.01"},
	}
	for _, tc := range cases {
		got, err := NormalizePrice(tc.in)
		if err != nil {
			t.Errorf("NormalizePrice(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizePrice(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParsePriceRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "-1.00", "10,00"} {
		if _, err := ParsePrice(in); !errors.Is(err, ErrPriceInvalid) {
			t.Errorf("ParsePrice(%q): expected ErrPriceInvalid, got %v", in, err)
		}
	}
}

func TestOrderItemsTotal(t *testing.T) {
	items := []OrderItem{
		{Quantity: 2, Price: "10.00"},
		{Quantity: 1, Price: "5.50"},
		{Quantity: 3, Price: "0.99"},
	}

	total, err := OrderItemsTotal(items)
	if err != nil {
		t.Fatalf("OrderItemsTotal: %v", err)
	}
	if total != "28.47" {
		t.Errorf("expected 28.47, got %s", total)
	}
}

func TestOrderItemsTotalNoFloatDrift(t *testing.T) {
	// 0.1 * 3 в двоичной плавающей точке дало бы 0.30000000000000004.
	items := []OrderItem{{Quantity: 3, Price: "0.10"}}

	total, err := OrderItemsTotal(items)
	if err != nil {
		t.Fatalf("OrderItemsTotal: %v", err)
	}
	if total != "0.30" {
		t.Errorf("expected 0.30, got %s", total)
	}
}
