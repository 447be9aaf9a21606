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

package hash

import (
	"math"
	"testing"
	"time"
)

type run struct {
	Region     string
	Resolution int
	Start      time.Time
}

func TestKey(t *testing.T) {
	start := time.Date(2024, 1, 11, 11, 57, 22, 0, time.UTC)
	a := Key(run{"WORLD", 300, start}, "Yallop")
	b := Key(run{"WORLD", 300, start}, "Yallop")
	if a != b {
		t.Errorf("equal inputs gave keys %s and %s", a, b)
	}
	if len(a) != 32 {
		t.Errorf("key %q has length %d; want 32", a, len(a))
	}
	for _, other := range []string{
		Key(run{"WORLD", 301, start}, "Yallop"),
		Key(run{"WORLD", 300, start.Add(time.Second)}, "Yallop"),
		Key(run{"WORLD", 300, start}, "Odeh"),
		Key(run{"IRAN", 300, start}, "Yallop"),
	} {
		if other == a {
			t.Errorf("different inputs share key %s", a)
		}
	}
}

func TestKeyFallback(t *testing.T) {
	m := map[float64]int{math.NaN(): 1}
	var p *run
	for _, parts := range [][]interface{}{{m, p}, {p}, {"Yallop", p}} {
		k1, k2 := Key(parts...), Key(parts...)
		if k1 == "" || len(k1) != 32 {
			t.Fatalf("invalid fallback key %q", k1)
		}
		if k1 != k2 {
			t.Errorf("fallback keys differ: %s, %s", k1, k2)
		}
	}
	if Key(p) == Key(&run{Region: "WORLD"}) {
		t.Error("nil and non-nil pointers share a key")
	}
}
