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

// Package astro computes new moons, the arithmetical Islamic calendar
// and crescent visibility from low-precision solar and lunar theory.
package astro

import (
	"context"
	"fmt"
	"time"

	"github.com/spatialmodel/hilal"
)

// Oracle implements hilal.Oracle.
type Oracle struct{}

var _ hilal.Oracle = Oracle{}

// ephemerisStep is the sampling interval of the batch ephemeris [day].
const ephemerisStep = 1.0 / 48

// NextConjunction implements hilal.Oracle.
func (Oracle) NextConjunction(t time.Time) (time.Time, error) {
	y := t.UTC().Year()
	if y < 1000 || y > 3000 {
		return time.Time{}, fmt.Errorf("astro: year %d outside the supported range [1000, 3000]", y)
	}
	return NextNewMoon(t), nil
}

// ToHijri implements hilal.Oracle.
func (Oracle) ToHijri(t time.Time) (hilal.HijriDate, error) {
	y, m, d, err := ToHijri(t)
	if err != nil {
		return hilal.HijriDate{}, err
	}
	return hilal.HijriDate{Year: y, Month: m, Day: d}, nil
}

// HijriMonthName implements hilal.Oracle.
func (Oracle) HijriMonthName(m int) (string, error) { return HijriMonthName(m) }

// VisibilityBatch implements hilal.Oracle. Day d of a cell is the
// evening after local mean noon on the calendar day that falls d days
// after the conjunction in the request's time zone.
func (Oracle) VisibilityBatch(ctx context.Context, r *hilal.BatchRequest) (*hilal.BatchResult, error) {
	if len(r.Lats) != len(r.Lons) {
		return nil, fmt.Errorf("astro: %d latitudes but %d longitudes", len(r.Lats), len(r.Lons))
	}
	if r.Days < 1 {
		return nil, fmt.Errorf("astro: invalid number of days %d", r.Days)
	}
	if r.Criterion != hilal.Odeh && r.Criterion != hilal.Yallop {
		return nil, fmt.Errorf("astro: invalid criterion %d", int(r.Criterion))
	}
	local := r.Conjunction.UTC().Add(time.Duration(r.Env.UTCOffset * float64(time.Hour)))
	day0 := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, time.UTC)
	jdDay0 := JulianDay(day0)
	eph, err := NewEphemeris(jdDay0-2, jdDay0+float64(r.Days)+3, ephemerisStep)
	if err != nil {
		return nil, err
	}
	conj := JulianDay(r.Conjunction)

	res := new(hilal.BatchResult)
	n := r.Cells() * r.Days
	if r.Mode == hilal.RawMode {
		res.Values = make([]float64, n)
	} else {
		res.Labels = make([]hilal.Category, n)
	}
	for i := range r.Lats {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		o := Observer{
			Lat:         r.Lats[i],
			Lon:         r.Lons[i],
			Elevation:   r.Env.Elevation,
			Temperature: r.Env.Temperature,
			Pressure:    r.Env.Pressure,
		}
		for d := 0; d < r.Days; d++ {
			noon := jdDay0 + float64(d) - o.Lon/360
			ev := eph.Evening(o, noon, conj)
			k := i*r.Days + d
			if r.Mode == hilal.RawMode {
				res.Values[k] = rawValue(ev, r.Criterion)
			} else {
				res.Labels[k] = label(ev, r.Criterion)
			}
		}
	}
	return res, nil
}

func rawValue(ev Evening, c hilal.Criterion) float64 {
	switch ev.Outcome {
	case SetBeforeNewMoon:
		return hilal.SentinelBeforeNewMoon
	case SetBeforeSunset:
		return hilal.SentinelBeforeSunset
	}
	if c == hilal.Odeh {
		return ev.OdehV()
	}
	return ev.YallopQ()
}

func label(ev Evening, c hilal.Criterion) hilal.Category {
	switch ev.Outcome {
	case SetBeforeNewMoon:
		return hilal.MoonsetBeforeNewMoon
	case SetBeforeSunset:
		return hilal.MoonsetBeforeSunset
	}
	if c == hilal.Odeh {
		return hilal.Category(OdehClass(ev.OdehV()))
	}
	return hilal.Category(YallopClass(ev.YallopQ()))
}
