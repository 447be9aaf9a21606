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
	"math"

	"gonum.org/v1/gonum/floats"
)

// Bounds is a rectangular geographic extent in decimal degrees.
type Bounds struct {
	MinX, MaxX float64 // longitude
	MinY, MaxY float64 // latitude
}

// Check returns an error if b is not a valid extent.
func (b Bounds) Check() error {
	for _, v := range []float64{b.MinX, b.MaxX, b.MinY, b.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("hilal: bounds %+v are not finite", b)
		}
	}
	if b.MinX >= b.MaxX {
		return fmt.Errorf("hilal: longitude bounds are inverted or empty: [%g, %g]", b.MinX, b.MaxX)
	}
	if b.MinY >= b.MaxY {
		return fmt.Errorf("hilal: latitude bounds are inverted or empty: [%g, %g]", b.MinY, b.MaxY)
	}
	if b.MinY < -90 || b.MaxY > 90 {
		return fmt.Errorf("hilal: latitude bounds [%g, %g] outside [-90, 90]", b.MinY, b.MaxY)
	}
	return nil
}

// GridAxis holds the evenly spaced sample coordinates along one
// dimension of the grid.
type GridAxis []float64

// Step returns the spacing between adjacent points.
func (a GridAxis) Step() float64 {
	if len(a) < 2 {
		return 0
	}
	return (a[len(a)-1] - a[0]) / float64(len(a)-1)
}

// BuildGrid returns the longitude and latitude axes covering b with
// resolution points each. Both axes include their bounds exactly.
func BuildGrid(b Bounds, resolution int) (lon, lat GridAxis, err error) {
	if resolution < 2 {
		return nil, nil, fmt.Errorf("hilal: grid resolution must be at least 2 to include both bounds; got %d", resolution)
	}
	if err := b.Check(); err != nil {
		return nil, nil, err
	}
	return span(b.MinX, b.MaxX, resolution), span(b.MinY, b.MaxY, resolution), nil
}

func span(min, max float64, n int) GridAxis {
	a := floats.Span(make([]float64, n), min, max)
	// Span computes the last point by accumulation.
	a[0], a[n-1] = min, max
	return GridAxis(a)
}
