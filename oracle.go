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
	"context"
	"fmt"
	"strings"
	"time"
)

// Mode selects whether maps show raw visibility values or categories.
type Mode string

const (
	// CategoryMode stores one category code per cell and day.
	CategoryMode Mode = "category"
	// RawMode stores the continuous visibility metric per cell and day.
	RawMode Mode = "raw"
)

// ParseMode returns the mode named by s.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case CategoryMode, RawMode:
		return m, nil
	}
	return "", fmt.Errorf("hilal: invalid map mode %q; valid options are %q and %q", s, CategoryMode, RawMode)
}

// Environment holds the observing conditions passed to the oracle.
type Environment struct {
	// UTCOffset is the offset of local time from UTC [hours].
	UTCOffset float64
	// Elevation is the observer height above sea level [m].
	Elevation float64
	// Temperature is the air temperature [°C].
	Temperature float64
	// Pressure is the air pressure [kPa].
	Pressure float64
}

// DefaultEnvironment returns standard observing conditions.
func DefaultEnvironment() Environment {
	return Environment{Temperature: 20, Pressure: 101.325}
}

// BatchRequest is a batch of grid cells for which visibility is
// requested over consecutive days starting at the conjunction.
type BatchRequest struct {
	// Lats and Lons hold one entry per cell.
	Lats, Lons  []float64
	Conjunction time.Time
	Days        int
	Criterion   Criterion
	Env         Environment
	Mode        Mode
}

// Cells returns the number of cells in the request.
func (r *BatchRequest) Cells() int { return len(r.Lats) }

// BatchResult holds one entry per cell and day, ordered cell-major:
// the entry for cell i and day d is at index i*Days+d.
// Values is set in RawMode and Labels in CategoryMode.
type BatchResult struct {
	Values []float64
	Labels []Category
}

// HijriDate is a date in the Islamic calendar.
type HijriDate struct {
	Year, Month, Day int
}

func (h HijriDate) String() string {
	return fmt.Sprintf("%d-%02d-%02d AH", h.Year, h.Month, h.Day)
}

// An Oracle performs the astronomical calculations the pipeline relies on.
type Oracle interface {
	// VisibilityBatch computes crescent visibility for every cell and
	// day in the request.
	VisibilityBatch(ctx context.Context, r *BatchRequest) (*BatchResult, error)

	// NextConjunction returns the first new moon strictly after t.
	NextConjunction(t time.Time) (time.Time, error)

	// ToHijri converts the calendar date of t to the Islamic calendar.
	ToHijri(t time.Time) (HijriDate, error)

	// HijriMonthName returns the name of Islamic month m (1-12).
	HijriMonthName(m int) (string, error)
}

// checkBatchResult verifies that res holds one entry per cell and day
// of r in the representation r.Mode asks for.
func checkBatchResult(r *BatchRequest, res *BatchResult) error {
	if res == nil {
		return fmt.Errorf("hilal: oracle returned no result")
	}
	want := r.Cells() * r.Days
	switch r.Mode {
	case RawMode:
		if len(res.Values) != want {
			return fmt.Errorf("hilal: oracle returned %d values; want %d", len(res.Values), want)
		}
	case CategoryMode:
		if len(res.Labels) != want {
			return fmt.Errorf("hilal: oracle returned %d labels; want %d", len(res.Labels), want)
		}
	default:
		return fmt.Errorf("hilal: invalid map mode %q", r.Mode)
	}
	return nil
}
