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
)

// Criterion selects the crescent visibility classification scheme.
type Criterion int

const (
	// Odeh is the Odeh (2006) criterion.
	Odeh Criterion = 0
	// Yallop is the Yallop (1997) criterion.
	Yallop Criterion = 1
)

// ParseCriterion returns the criterion with the given numeric code.
func ParseCriterion(code int) (Criterion, error) {
	switch Criterion(code) {
	case Odeh, Yallop:
		return Criterion(code), nil
	}
	return 0, fmt.Errorf("hilal: invalid visibility criterion %d; valid options are 0 (Odeh) and 1 (Yallop)", code)
}

// Name returns the short name of the criterion used in output file names.
func (c Criterion) Name() string {
	switch c {
	case Odeh:
		return "Odeh"
	case Yallop:
		return "Yallop"
	}
	return fmt.Sprintf("Criterion(%d)", int(c))
}

// String returns the citation form of the criterion, e.g. "Yallop, 1997".
func (c Criterion) String() string {
	switch c {
	case Odeh:
		return "Odeh, 2006"
	case Yallop:
		return "Yallop, 1997"
	}
	return c.Name()
}

// Category identifies one visibility class of a criterion.
type Category string

// Categories shared by all criteria.
const (
	MoonsetBeforeNewMoon Category = "moonset-before-new-moon"
	MoonsetBeforeSunset  Category = "moonset-before-sunset"
)

// Raw-mode sentinel values.
const (
	SentinelBeforeNewMoon = -999
	SentinelBeforeSunset  = -998
)

// IsSentinel reports whether v is one of the raw-mode sentinel values.
func IsSentinel(v float64) bool {
	return v == SentinelBeforeNewMoon || v == SentinelBeforeSunset
}

// CategoryInfo describes how a category is presented.
type CategoryInfo struct {
	ID          Category
	Description string
	Color       color.NRGBA
}

func hexColor(v uint32, alpha float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: uint8(math.Round(alpha * 255)),
	}
}

var (
	beforeNewMoonColor = hexColor(0x141414, 1)
	beforeSunsetColor  = hexColor(0x393a3c, 1)

	// translucentColor is used for the first non-sentinel category of
	// each criterion, so the base map shows through where the crescent
	// cannot be seen at all.
	translucentColor = hexColor(0x000000, 0.1)
)

// categoryInfo holds the ordered categories of each criterion.
var categoryInfo = map[Criterion][]CategoryInfo{
	Odeh: {
		{MoonsetBeforeNewMoon, "Moonset before the new moon.", beforeNewMoonColor},
		{MoonsetBeforeSunset, "Moonset before sunset.", beforeSunsetColor},
		{"D", "D: Crescent is not visible even by optical aid.", translucentColor},
		{"C", "C: Crescent is visible by optical aid only.", hexColor(0xb89d18, 1)},
		{"B", "B: Crescent is visible by optical aid, and it could be seen by naked eyes.", hexColor(0x74b818, 1)},
		{"A", "A: Crescent is visible by naked eyes.", hexColor(0x1bb818, 1)},
	},
	Yallop: {
		{MoonsetBeforeNewMoon, "Moonset before the new moon.", beforeNewMoonColor},
		{MoonsetBeforeSunset, "Moonset before sunset.", beforeSunsetColor},
		{"F", "F: Not visible; below the Danjon limit.", translucentColor},
		{"E", "E: Not visible with a [conventional] telescope.", hexColor(0xb81818, 1)},
		{"D", "D: Will need optical aid to find crescent.", hexColor(0xe3d61b, 1)},
		{"C", "C: May need optical aid to find crescent.", hexColor(0x89d518, 1)},
		{"B", "B: Visible under perfect conditions.", hexColor(0x54b818, 1)},
		{"A", "A: Easily visible.", hexColor(0x1bdf18, 1)},
	},
}

// ErrUnknownCategory is returned when a label is not a member of the
// active criterion's category set.
var ErrUnknownCategory = errors.New("unknown visibility category")

// CategoryTable maps the categories of one criterion to compact
// integer codes. A table is immutable once built.
type CategoryTable struct {
	order []Category
	codes map[Category]uint8
	info  map[Category]CategoryInfo
}

// BuildTable returns the code table for criterion c. Codes follow the
// fixed category order of the criterion, starting at zero.
func BuildTable(c Criterion) (*CategoryTable, error) {
	infos, ok := categoryInfo[c]
	if !ok {
		return nil, fmt.Errorf("hilal: no categories defined for criterion %d", int(c))
	}
	order := make([]Category, len(infos))
	for i, ci := range infos {
		order[i] = ci.ID
	}
	return newCategoryTable(c, order)
}

// NewCategoryTable rebuilds the code table for criterion c from an
// explicit category order, as carried between processes.
func NewCategoryTable(c Criterion, order []Category) (*CategoryTable, error) {
	return newCategoryTable(c, order)
}

func newCategoryTable(c Criterion, order []Category) (*CategoryTable, error) {
	if len(order) == 0 || len(order) > math.MaxUint8+1 {
		return nil, fmt.Errorf("hilal: invalid number of categories: %d", len(order))
	}
	known := make(map[Category]CategoryInfo)
	for _, ci := range categoryInfo[c] {
		known[ci.ID] = ci
	}
	t := &CategoryTable{
		order: make([]Category, len(order)),
		codes: make(map[Category]uint8, len(order)),
		info:  make(map[Category]CategoryInfo, len(order)),
	}
	for i, cat := range order {
		ci, ok := known[cat]
		if !ok {
			return nil, fmt.Errorf("hilal: building %s category table: %q: %w", c.Name(), cat, ErrUnknownCategory)
		}
		if _, dup := t.codes[cat]; dup {
			return nil, fmt.Errorf("hilal: building %s category table: duplicate category %q", c.Name(), cat)
		}
		t.order[i] = cat
		t.codes[cat] = uint8(i)
		t.info[cat] = ci
	}
	return t, nil
}

// Remap returns the integer code of label.
func (t *CategoryTable) Remap(label Category) (uint8, error) {
	code, ok := t.codes[label]
	if !ok {
		return 0, fmt.Errorf("hilal: %q: %w", label, ErrUnknownCategory)
	}
	return code, nil
}

// Categories returns the categories in code order.
func (t *CategoryTable) Categories() []Category {
	o := make([]Category, len(t.order))
	copy(o, t.order)
	return o
}

// Len returns the number of categories.
func (t *CategoryTable) Len() int { return len(t.order) }

// Info returns the presentation details of the category with the
// given code.
func (t *CategoryTable) Info(code uint8) (CategoryInfo, error) {
	if int(code) >= len(t.order) {
		return CategoryInfo{}, fmt.Errorf("hilal: category code %d out of range [0, %d)", code, len(t.order))
	}
	return t.info[t.order[code]], nil
}
