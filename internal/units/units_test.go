package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	for _, unit := range ValidUnits {
		if !IsValid(unit) {
			t.Errorf("IsValid(%q) = false, want true", unit)
		}
	}
	for _, unit := range []string{"", "yd", "inches", "IN"} {
		if IsValid(unit) {
			t.Errorf("IsValid(%q) = true, want false", unit)
		}
	}
}

func TestConvertLength(t *testing.T) {
	cases := []struct {
		inches float64
		target string
		want   float64
	}{
		{12, FT, 1},
		{936, FT, 78},
		{1, CM, 2.54},
		{100, M, 2.54},
		{157, IN, 157},
		{157, "furlongs", 157}, // unknown unit falls back to inches
	}

	for _, c := range cases {
		got := ConvertLength(c.inches, c.target)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("ConvertLength(%v, %q) = %v, want %v", c.inches, c.target, got, c.want)
		}
	}
}
