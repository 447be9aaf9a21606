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
	"image/color"
	"reflect"
	"testing"
)

func TestBuildTable(t *testing.T) {
	for _, test := range []struct {
		c    Criterion
		want []Category
	}{
		{Odeh, []Category{MoonsetBeforeNewMoon, MoonsetBeforeSunset, "D", "C", "B", "A"}},
		{Yallop, []Category{MoonsetBeforeNewMoon, MoonsetBeforeSunset, "F", "E", "D", "C", "B", "A"}},
	} {
		t.Run(test.c.Name(), func(t *testing.T) {
			table, err := BuildTable(test.c)
			if err != nil {
				t.Fatal(err)
			}
			if got := table.Categories(); !reflect.DeepEqual(got, test.want) {
				t.Errorf("categories %v; want %v", got, test.want)
			}
			for i, cat := range test.want {
				code, err := table.Remap(cat)
				if err != nil {
					t.Fatal(err)
				}
				if int(code) != i {
					t.Errorf("%s has code %d; want %d", cat, code, i)
				}
				info, err := table.Info(code)
				if err != nil {
					t.Fatal(err)
				}
				if info.ID != cat || info.Description == "" {
					t.Errorf("info for code %d: %+v", code, info)
				}
			}
			if _, err := table.Info(uint8(len(test.want))); err == nil {
				t.Error("out-of-range code was accepted")
			}

			rebuilt, err := NewCategoryTable(test.c, table.Categories())
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(rebuilt, table) {
				t.Error("rebuilt table differs")
			}
		})
	}
}

func TestRemapUnknown(t *testing.T) {
	table, err := BuildTable(Odeh)
	if err != nil {
		t.Fatal(err)
	}
	for _, label := range []Category{"F", "E", "", "a"} {
		if _, err := table.Remap(label); !errors.Is(err, ErrUnknownCategory) {
			t.Errorf("Remap(%q) error = %v; want ErrUnknownCategory", label, err)
		}
	}
	if _, err := NewCategoryTable(Odeh, []Category{"A", "F"}); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("table with a foreign category: error = %v", err)
	}
	if _, err := NewCategoryTable(Odeh, []Category{"A", "A"}); err == nil {
		t.Error("table with a duplicate category was accepted")
	}
	if _, err := BuildTable(Criterion(2)); err == nil {
		t.Error("table for an unknown criterion was built")
	}
}

func TestParseCriterion(t *testing.T) {
	for code, want := range map[int]string{0: "Odeh, 2006", 1: "Yallop, 1997"} {
		c, err := ParseCriterion(code)
		if err != nil {
			t.Fatal(err)
		}
		if c.String() != want {
			t.Errorf("criterion %d is %q; want %q", code, c, want)
		}
	}
	if _, err := ParseCriterion(-1); err == nil {
		t.Error("criterion -1 was accepted")
	}
}

func TestTranslucentCategory(t *testing.T) {
	for c, want := range map[Criterion]Category{Odeh: "D", Yallop: "F"} {
		table, err := BuildTable(c)
		if err != nil {
			t.Fatal(err)
		}
		info, err := table.Info(2)
		if err != nil {
			t.Fatal(err)
		}
		if info.ID != want {
			t.Errorf("%s: code 2 is %s; want %s", c.Name(), info.ID, want)
		}
		if info.Color != (color.NRGBA{A: 26}) {
			t.Errorf("%s: category %s has color %v; want translucent black", c.Name(), info.ID, info.Color)
		}
		for code := uint8(3); int(code) < table.Len(); code++ {
			if info, _ := table.Info(code); info.Color.A != 255 {
				t.Errorf("%s: category %s is not opaque", c.Name(), info.ID)
			}
		}
	}
}
