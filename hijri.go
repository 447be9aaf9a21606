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
	"fmt"
	"path/filepath"
	"strconv"
	"time"
)

// AverageLunarMonth is the mean synodic month.
const AverageLunarMonth = time.Duration(29.53059 * 24 * 60 * 60 * 1e9)

// rolloverDay is the first Hijri day on which a conjunction is taken
// to start the following month.
const rolloverDay = 7

// DisplayMonth returns the Hijri month and year a map made for a
// conjunction on Hijri date h is labeled with. A conjunction late in
// a month (day >= 7) starts the next month.
func DisplayMonth(h HijriDate) (year, month int) {
	year, month = h.Year, h.Month
	if h.Day >= rolloverDay {
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return year, month
}

// MonthReference returns the reference time of month i of a run
// starting at start.
func MonthReference(start time.Time, i int) time.Time {
	return start.Add(time.Duration(i) * AverageLunarMonth)
}

// OutputDir returns the directory maps of region r for Hijri year
// hijriYear are written to.
func OutputDir(root string, r Region, hijriYear int) string {
	return filepath.Join(root, r.Title(), strconv.Itoa(hijriYear))
}

// OutputFileName returns the file name of the map for the month
// starting with the conjunction at t.
func OutputFileName(t time.Time, monthName string, hijriYear int, c Criterion, m Mode) string {
	name := fmt.Sprintf("%s %s %d—%s", t.UTC().Format("2006-01-02"), monthName, hijriYear, c.Name())
	if m == RawMode {
		name += " Gradient"
	}
	return name + ".jpg"
}

// jpegQuality returns the output quality used for mode m.
func jpegQuality(m Mode) int {
	if m == RawMode {
		return 95
	}
	return 90
}
