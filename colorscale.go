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
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// ErrNoValidValues is returned when a raw-mode grid holds no finite,
// non-sentinel values to build a color scale from.
var ErrNoValidValues = errors.New("no valid visibility values")

// minEpsilon is the smallest allowed signed-log scale factor.
const minEpsilon = 0.1

// numColorbarTicks is the number of labeled ticks on the raw color bar.
const numColorbarTicks = 7

// SignedLog compresses x symmetrically around zero:
// sign(x)·log(1+|x|/e).
func SignedLog(x, e float64) float64 {
	return math.Copysign(math.Log1p(math.Abs(x)/e), x)
}

// InverseSignedLog is the inverse of SignedLog.
func InverseSignedLog(y, e float64) float64 {
	return math.Copysign(math.Expm1(math.Abs(y))*e, y)
}

// validValues returns the finite, non-sentinel elements of v.
func validValues(v []float64) []float64 {
	o := make([]float64, 0, len(v))
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) || IsSentinel(x) {
			continue
		}
		o = append(o, x)
	}
	return o
}

// Epsilon returns the signed-log scale factor for v: the median
// magnitude of its valid values, but no less than 0.1.
func Epsilon(v []float64) (float64, error) {
	valid := validValues(v)
	if len(valid) == 0 {
		return 0, ErrNoValidValues
	}
	abs := make([]float64, len(valid))
	for i, x := range valid {
		abs[i] = math.Abs(x)
	}
	return math.Max(median(abs), minEpsilon), nil
}

// median returns the median of v, averaging the two middle elements
// when len(v) is even. v is sorted in place.
func median(v []float64) float64 {
	sort.Float64s(v)
	n := len(v)
	if n%2 == 1 {
		return v[n/2]
	}
	return (v[n/2-1] + v[n/2]) / 2
}

// viridis holds the anchor colors of the raw-mode color map, in order
// of increasing luminance.
var viridis = []color.Color{
	color.NRGBA{R: 0x44, G: 0x01, B: 0x54, A: 0xff},
	color.NRGBA{R: 0x3b, G: 0x52, B: 0x8b, A: 0xff},
	color.NRGBA{R: 0x21, G: 0x91, B: 0x8c, A: 0xff},
	color.NRGBA{R: 0x5e, G: 0xc9, B: 0x62, A: 0xff},
	color.NRGBA{R: 0xfd, G: 0xe7, B: 0x25, A: 0xff},
}

// RawScale maps raw visibility values to colors. Values are compressed
// with SignedLog before being normalized over the transformed range.
type RawScale struct {
	// Epsilon is the signed-log scale factor.
	Epsilon float64

	// Min and Max are the transformed extremes of the valid values.
	Min, Max float64

	cmap palette.ColorMap
}

// NewRawScale builds the color scale for a raw-mode grid.
func NewRawScale(values []float64) (*RawScale, error) {
	valid := validValues(values)
	if len(valid) == 0 {
		return nil, fmt.Errorf("hilal: building raw color scale: %w", ErrNoValidValues)
	}
	eps, err := Epsilon(valid)
	if err != nil {
		return nil, err
	}
	t := make([]float64, len(valid))
	for i, x := range valid {
		t[i] = SignedLog(x, eps)
	}
	s := &RawScale{Epsilon: eps, Min: floats.Min(t), Max: floats.Max(t)}
	if s.Max == s.Min {
		// A constant field still needs a non-empty range.
		s.Max = s.Min + 1
	}
	s.cmap, err = moreland.NewLuminance(viridis)
	if err != nil {
		return nil, fmt.Errorf("hilal: building raw color scale: %w", err)
	}
	s.cmap.SetMin(s.Min)
	s.cmap.SetMax(s.Max)
	return s, nil
}

// ColorMap returns the color map over the transformed value range.
func (s *RawScale) ColorMap() palette.ColorMap { return s.cmap }

// Color returns the color of raw value v. Sentinels get their fixed
// category colors and missing values are transparent.
func (s *RawScale) Color(v float64) color.Color {
	switch {
	case v == SentinelBeforeNewMoon:
		return beforeNewMoonColor
	case v == SentinelBeforeSunset:
		return beforeSunsetColor
	case math.IsNaN(v) || math.IsInf(v, 0):
		return color.Transparent
	}
	y := math.Max(s.Min, math.Min(s.Max, SignedLog(v, s.Epsilon)))
	c, err := s.cmap.At(y)
	if err != nil {
		return color.Transparent
	}
	return c
}

// Ticks implements plot.Ticker. Ticks are evenly spaced in the
// transformed space and labeled with the original values.
func (s *RawScale) Ticks(min, max float64) []plot.Tick {
	ticks := make([]plot.Tick, numColorbarTicks)
	for i := range ticks {
		y := min + (max-min)*float64(i)/float64(numColorbarTicks-1)
		ticks[i] = plot.Tick{
			Value: y,
			Label: fmt.Sprintf("%.2f", InverseSignedLog(y, s.Epsilon)),
		}
	}
	return ticks
}

// CategoryScale maps category codes to colors.
type CategoryScale struct {
	table *CategoryTable
}

// NewCategoryScale returns the color scale of a category table.
func NewCategoryScale(t *CategoryTable) *CategoryScale {
	return &CategoryScale{table: t}
}

// Color returns the color of category code v. Codes outside the table
// are transparent.
func (s *CategoryScale) Color(v float64) color.Color {
	if math.IsNaN(v) || v < 0 || v > math.MaxUint8 {
		return color.Transparent
	}
	info, err := s.table.Info(uint8(v))
	if err != nil {
		return color.Transparent
	}
	return info.Color
}
