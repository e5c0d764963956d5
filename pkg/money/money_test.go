package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundHalfAwayFromZero(t *testing.T) {
	cases := map[string]string{
		"1.005":  "1.01",
		"2.344":  "2.34",
		"856":    "856",
		"-1.005": "-1.01",
	}
	for in, want := range cases {
		got := Round(decimal.RequireFromString(in))
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("Round(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestParseRejectsNegativeAndGarbage(t *testing.T) {
	if _, err := Parse("-1"); err == nil {
		t.Fatal("expected negative amount to fail")
	}
	if _, err := Parse("abc"); err == nil {
		t.Fatal("expected garbage to fail")
	}
	d, err := Parse(" 12.50 ")
	if err != nil || !d.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected parse result %s err=%v", d, err)
	}
}

func TestFormatAndRate(t *testing.T) {
	if got := Format(decimal.NewFromInt(856)); got != "856.00" {
		t.Fatalf("unexpected format %q", got)
	}
	if !IsRate(decimal.RequireFromString("0.2")) || IsRate(decimal.RequireFromString("1.2")) {
		t.Fatal("IsRate bounds wrong")
	}
	if got := FromPercent(decimal.NewFromInt(20)); !got.Equal(decimal.RequireFromString("0.2")) {
		t.Fatalf("unexpected fraction %s", got)
	}
}
