/*
Copyright © 2024 the Hilal authors.
This file is part of Hilal.

Hilal is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Hilal is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Hilal.  If not, see <http://www.gnu.org/licenses/>.
*/

package hilal

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"testing"
)

func TestSignedLog(t *testing.T) {
	for _, e := range []float64{0.1, 0.5, 1, 3.7} {
		for _, x := range []float64{-250, -3, -0.2, 0, 1e-6, 0.2, 1, 42, 1e4} {
			y := SignedLog(x, e)
			if math.Signbit(y) != math.Signbit(x) && x != 0 {
				t.Errorf("SignedLog(%g, %g) = %g changes sign", x, e, y)
			}
			if got := InverseSignedLog(y, e); math.Abs(got-x) > 1e-9*math.Max(1, math.Abs(x)) {
				t.Errorf("InverseSignedLog(SignedLog(%g, %g)) = %g", x, e, got)
			}
		}
	}
	if SignedLog(2, 1) != -SignedLog(-2, 1) {
		t.Error("SignedLog is not odd")
	}
}

func TestEpsilon(t *testing.T) {
	for _, test := range []struct {
		v    []float64
		want float64
	}{
		{[]float64{1, -3, 2, math.NaN(), SentinelBeforeNewMoon}, 2},
		{[]float64{1, -2, 3, 4, SentinelBeforeSunset, math.Inf(1)}, 2.5},
		{[]float64{0.01, -0.02}, minEpsilon},
		{[]float64{-7}, 7},
	} {
		got, err := Epsilon(test.v)
		if err != nil {
			t.Fatal(err)
		}
		if got != test.want {
			t.Errorf("Epsilon(%v) = %g; want %g", test.v, got, test.want)
		}
	}
	if _, err := Epsilon([]float64{math.NaN(), SentinelBeforeSunset}); !errors.Is(err, ErrNoValidValues) {
		t.Errorf("error = %v; want ErrNoValidValues", err)
	}
}

func TestRawScale(t *testing.T) {
	s, err := NewRawScale([]float64{-2, 0, 5, SentinelBeforeNewMoon, math.NaN()})
	if err != nil {
		t.Fatal(err)
	}
	if s.Epsilon != 2 {
		t.Errorf("epsilon = %g; want 2", s.Epsilon)
	}
	if s.Min != SignedLog(-2, 2) || s.Max != SignedLog(5, 2) {
		t.Errorf("range [%g, %g]", s.Min, s.Max)
	}
	if c := s.Color(SentinelBeforeNewMoon); c != color.Color(beforeNewMoonColor) {
		t.Errorf("before new moon color %v", c)
	}
	if c := s.Color(SentinelBeforeSunset); c != color.Color(beforeSunsetColor) {
		t.Errorf("before sunset color %v", c)
	}
	if c := s.Color(math.NaN()); c != color.Transparent {
		t.Errorf("missing value color %v", c)
	}
	top, err := s.ColorMap().At(s.Max)
	if err != nil {
		t.Fatal(err)
	}
	if c := s.Color(500); c != top {
		t.Errorf("out of range values should be clamped: %v != %v", c, top)
	}
	if s.Color(-2) == s.Color(5) {
		t.Error("extremes share a color")
	}

	ticks := s.Ticks(s.Min, s.Max)
	if len(ticks) != numColorbarTicks {
		t.Fatalf("%d ticks", len(ticks))
	}
	if ticks[0].Label != "-2.00" || ticks[len(ticks)-1].Label != "5.00" {
		t.Errorf("tick labels %q ... %q; want -2.00 ... 5.00", ticks[0].Label, ticks[len(ticks)-1].Label)
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i].Value <= ticks[i-1].Value {
			t.Errorf("ticks not increasing: %v", ticks)
		}
	}
}

func TestRawScaleConstant(t *testing.T) {
	s, err := NewRawScale([]float64{3, 3, 3})
	if err != nil {
		t.Fatal(err)
	}
	if s.Max != s.Min+1 {
		t.Errorf("constant field range [%g, %g]", s.Min, s.Max)
	}
}

func TestRawScaleNoValues(t *testing.T) {
	_, err := NewRawScale([]float64{SentinelBeforeNewMoon, SentinelBeforeSunset, math.NaN()})
	if !errors.Is(err, ErrNoValidValues) {
		t.Errorf("error = %v; want ErrNoValidValues", err)
	}
}

func TestCategoryScale(t *testing.T) {
	table, err := BuildTable(Yallop)
	if err != nil {
		t.Fatal(err)
	}
	s := NewCategoryScale(table)
	for i, want := range []color.NRGBA{beforeNewMoonColor, beforeSunsetColor} {
		if c := s.Color(float64(i)); c != color.Color(want) {
			t.Errorf("code %d color %v; want %v", i, c, want)
		}
	}
	for _, v := range []float64{8, 255, -1, math.NaN()} {
		t.Run(fmt.Sprint(v), func(t *testing.T) {
			if c := s.Color(v); c != color.Transparent {
				t.Errorf("code %g color %v; want transparent", v, c)
			}
		})
	}
}
