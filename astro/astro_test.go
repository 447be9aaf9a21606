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

package astro

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/spatialmodel/hilal"
)

func TestNextNewMoon(t *testing.T) {
	tests := []struct {
		after time.Time
		want  time.Time
	}{
		{
			after: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			want:  time.Date(2024, 1, 11, 11, 57, 0, 0, time.UTC),
		},
		{
			after: time.Date(2024, 1, 11, 12, 30, 0, 0, time.UTC),
			want:  time.Date(2024, 2, 9, 22, 59, 0, 0, time.UTC),
		},
		{
			after: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
			want:  time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		},
	}
	for _, test := range tests {
		t.Run(test.after.Format(time.RFC3339), func(t *testing.T) {
			got := NextNewMoon(test.after)
			if d := got.Sub(test.want); d < -2*time.Minute || d > 2*time.Minute {
				t.Errorf("got %v, want %v", got, test.want)
			}
			if got.Nanosecond() != 0 {
				t.Errorf("conjunction %v not truncated to the second", got)
			}
		})
	}
}

func TestHijri(t *testing.T) {
	epoch, err := HijriToGregorian(1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(622, 7, 19, 0, 0, 0, 0, time.UTC); !epoch.Equal(want) {
		t.Errorf("epoch: got %v, want %v", epoch, want)
	}
	g, err := HijriToGregorian(1446, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC); !g.Equal(want) {
		t.Errorf("1446-01-01: got %v, want %v", g, want)
	}
	y, m, d, err := ToHijri(time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if y != 1446 || m != 9 || d != 1 {
		t.Errorf("2025-03-01: got %d-%d-%d, want 1446-9-1", y, m, d)
	}

	// Every day for two centuries converts back to itself.
	start := time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)
	for day := start; day.Year() < 2150; day = day.AddDate(0, 0, 1) {
		y, m, d, err := ToHijri(day)
		if err != nil {
			t.Fatal(err)
		}
		if d < 1 || d > 30 {
			t.Fatalf("%v: day %d out of range", day, d)
		}
		back, err := HijriToGregorian(y, m, d)
		if err != nil {
			t.Fatal(err)
		}
		if !back.Equal(day) {
			t.Fatalf("%v -> %d-%d-%d -> %v", day, y, m, d, back)
		}
	}

	if _, err := HijriMonthName(13); err == nil {
		t.Error("expected an error for month 13")
	}
	if name, _ := HijriMonthName(9); name != "Ramadan" {
		t.Errorf("month 9: got %q", name)
	}
}

func TestSunSolstice(t *testing.T) {
	jd := JulianDay(time.Date(2024, 6, 20, 20, 51, 0, 0, time.UTC))
	if dec := Sun(jd).Dec; math.Abs(dec-23.44) > 0.02 {
		t.Errorf("solstice declination %g", dec)
	}
}

func TestMoonAtConjunction(t *testing.T) {
	jd := JulianDay(time.Date(2024, 1, 11, 11, 57, 0, 0, time.UTC)) + deltaT(2024)/secondsDay
	s, m := Sun(jd), Moon(jd)
	// At conjunction the ecliptic longitudes match, so the bodies are
	// separated by at most the lunar latitude.
	sep := Separation(s.Dec, s.RA, m.Dec, m.RA)
	if sep > 5.5 {
		t.Errorf("Sun-Moon separation at conjunction %g°", sep)
	}
	if m.Parallax < 0.89 || m.Parallax > 1.03 {
		t.Errorf("lunar parallax %g out of range", m.Parallax)
	}
}

func testEphemeris(t *testing.T) (*Ephemeris, float64, float64) {
	conj := JulianDay(time.Date(2024, 1, 11, 11, 57, 22, 0, time.UTC))
	day0 := JulianDay(time.Date(2024, 1, 11, 12, 0, 0, 0, time.UTC))
	e, err := NewEphemeris(day0-2, day0+6, ephemerisStep)
	if err != nil {
		t.Fatal(err)
	}
	return e, conj, day0
}

func TestEvening(t *testing.T) {
	e, conj, day0 := testEphemeris(t)
	makkah := Observer{Lat: 21.4, Lon: 39.8, Temperature: 20, Pressure: 101.325}

	ev := e.Evening(makkah, day0-makkah.Lon/360, conj)
	if ev.Outcome == Visible {
		t.Errorf("day 0: crescent a few hours old should not be visible: %+v", ev)
	}

	ev = e.Evening(makkah, day0+1-makkah.Lon/360, conj)
	if ev.Outcome != Visible {
		t.Fatalf("day 1: got outcome %d", ev.Outcome)
	}
	if !(ev.Sunset < ev.Best && ev.Best < ev.Moonset) {
		t.Errorf("best time %g not between sunset %g and moonset %g", ev.Best, ev.Sunset, ev.Moonset)
	}
	if lag := (ev.Moonset - ev.Sunset) * 1440; lag < 45 || lag > 90 {
		t.Errorf("moonset lag %g minutes", lag)
	}
	if q := ev.YallopQ(); YallopClass(q) != "A" {
		t.Errorf("Yallop q = %g, class %s; want A", q, YallopClass(q))
	}
	if v := ev.OdehV(); OdehClass(v) != "A" {
		t.Errorf("Odeh V = %g, class %s; want A", v, OdehClass(v))
	}

	arctic := Observer{Lat: 80, Lon: 0, Temperature: 20, Pressure: 101.325}
	if ev := e.Evening(arctic, day0+1, conj); ev.Outcome != SetBeforeSunset {
		t.Errorf("polar night: got outcome %d, want SetBeforeSunset", ev.Outcome)
	}
}

func TestClasses(t *testing.T) {
	for q, want := range map[float64]string{
		0.5: "A", 0.216: "B", 0: "B", -0.014: "C", -0.2: "D", -0.25: "E", -0.293: "F", -1: "F",
	} {
		if got := YallopClass(q); got != want {
			t.Errorf("YallopClass(%g) = %s; want %s", q, got, want)
		}
	}
	for v, want := range map[float64]string{
		10: "A", 5.65: "A", 5.64: "B", 2: "B", 0: "C", -0.96: "C", -1: "D",
	} {
		if got := OdehClass(v); got != want {
			t.Errorf("OdehClass(%g) = %s; want %s", v, got, want)
		}
	}
}

func TestVisibilityBatch(t *testing.T) {
	var o Oracle
	conj, err := o.NextConjunction(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	req := &hilal.BatchRequest{
		Lats:        []float64{21.4, 0, 80},
		Lons:        []float64{39.8, 0, 0},
		Conjunction: conj,
		Days:        3,
		Criterion:   hilal.Yallop,
		Env:         hilal.DefaultEnvironment(),
		Mode:        hilal.CategoryMode,
	}
	res, err := o.VisibilityBatch(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Labels) != 9 {
		t.Fatalf("got %d labels, want 9", len(res.Labels))
	}
	table, err := hilal.BuildTable(hilal.Yallop)
	if err != nil {
		t.Fatal(err)
	}
	for i, l := range res.Labels {
		if _, err := table.Remap(l); err != nil {
			t.Errorf("label %d: %v", i, err)
		}
	}
	if res.Labels[1] != "A" {
		t.Errorf("Makkah day 1: got %s, want A", res.Labels[1])
	}
	if res.Labels[6] != hilal.MoonsetBeforeSunset {
		t.Errorf("polar night: got %s", res.Labels[6])
	}

	req.Mode = hilal.RawMode
	raw, err := o.VisibilityBatch(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if raw.Values[6] != hilal.SentinelBeforeSunset {
		t.Errorf("polar night raw value %g", raw.Values[6])
	}
	again, err := o.VisibilityBatch(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(raw, again) {
		t.Error("repeated batches differ")
	}
}
