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
	"math"
	"testing"
)

func TestBuildGrid(t *testing.T) {
	for _, test := range []struct {
		b          Bounds
		resolution int
	}{
		{Bounds{MinX: -179, MaxX: 180, MinY: -61, MaxY: 61}, 300},
		{Bounds{MinX: 43.5, MaxX: 63.5, MinY: 24.5, MaxY: 40}, 2},
		{Bounds{MinX: -15, MaxX: 50, MinY: 34, MaxY: 61}, 7},
		{Bounds{MinX: 0.1, MaxX: 0.3, MinY: 0.1, MaxY: 0.7}, 1000},
	} {
		lon, lat, err := BuildGrid(test.b, test.resolution)
		if err != nil {
			t.Fatal(err)
		}
		if len(lon) != test.resolution || len(lat) != test.resolution {
			t.Fatalf("axis lengths %d, %d; want %d", len(lon), len(lat), test.resolution)
		}
		if lon[0] != test.b.MinX || lon[len(lon)-1] != test.b.MaxX {
			t.Errorf("longitude endpoints %g, %g; want %g, %g", lon[0], lon[len(lon)-1], test.b.MinX, test.b.MaxX)
		}
		if lat[0] != test.b.MinY || lat[len(lat)-1] != test.b.MaxY {
			t.Errorf("latitude endpoints %g, %g; want %g, %g", lat[0], lat[len(lat)-1], test.b.MinY, test.b.MaxY)
		}
		step := lon.Step()
		for i := 1; i < len(lon); i++ {
			if d := lon[i] - lon[i-1]; math.Abs(d-step) > 1e-9 {
				t.Fatalf("uneven longitude spacing at %d: %g != %g", i, d, step)
			}
		}
	}
}

func TestBuildGridInvalid(t *testing.T) {
	good := Bounds{MinX: -10, MaxX: 10, MinY: -5, MaxY: 5}
	for name, test := range map[string]struct {
		b          Bounds
		resolution int
	}{
		"single point":          {good, 1},
		"zero":                  {good, 0},
		"inverted longitude":    {Bounds{MinX: 10, MaxX: -10, MinY: -5, MaxY: 5}, 10},
		"empty latitude":        {Bounds{MinX: -10, MaxX: 10, MinY: 5, MaxY: 5}, 10},
		"not finite":            {Bounds{MinX: math.Inf(-1), MaxX: 10, MinY: -5, MaxY: 5}, 10},
		"NaN":                   {Bounds{MinX: -10, MaxX: 10, MinY: math.NaN(), MaxY: 5}, 10},
		"latitude out of range": {Bounds{MinX: -10, MaxX: 10, MinY: -95, MaxY: 5}, 10},
	} {
		t.Run(name, func(t *testing.T) {
			if _, _, err := BuildGrid(test.b, test.resolution); err == nil {
				t.Errorf("no error for %+v at resolution %d", test.b, test.resolution)
			}
		})
	}
}
