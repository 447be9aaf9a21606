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
	"math"
	"time"
)

const (
	j2000      = 2451545.0
	unixEpoch  = 2440587.5 // Julian day of 1970-01-01T00:00Z
	secondsDay = 86400.0
	deg        = math.Pi / 180
)

// JulianDay returns the Julian day of t (UT).
func JulianDay(t time.Time) float64 {
	return unixEpoch + float64(t.UnixNano())/1e9/secondsDay
}

// FromJulianDay returns the UTC time at Julian day jd.
func FromJulianDay(jd float64) time.Time {
	s := (jd - unixEpoch) * secondsDay
	sec := math.Floor(s)
	return time.Unix(int64(sec), int64((s-sec)*1e9)).UTC()
}

// centuries returns Julian centuries since J2000.
func centuries(jd float64) float64 { return (jd - j2000) / 36525 }

// decimalYear returns the year of t as a fraction.
func decimalYear(t time.Time) float64 {
	t = t.UTC()
	start := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	return float64(t.Year()) + float64(t.Sub(start))/float64(end.Sub(start))
}

// deltaT returns an estimate of TT - UT in seconds for decimal year y,
// from the Espenak and Meeus polynomials.
func deltaT(y float64) float64 {
	switch {
	case y >= 2005 && y < 2050:
		t := y - 2000
		return 62.92 + 0.32217*t + 0.005589*t*t
	case y >= 1986 && y < 2005:
		t := y - 2000
		return 63.86 + 0.3345*t - 0.060374*t*t + 0.0017275*t*t*t +
			0.000651814*t*t*t*t + 0.00002373599*t*t*t*t*t
	case y >= 2050 && y < 2150:
		u := (y - 1820) / 100
		return -20 + 32*u*u - 0.5628*(2150-y)
	default:
		u := (y - 1820) / 100
		return -20 + 32*u*u
	}
}

// norm360 reduces an angle in degrees to [0, 360).
func norm360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// norm180 reduces an angle in degrees to [-180, 180).
func norm180(a float64) float64 {
	a = norm360(a)
	if a >= 180 {
		a -= 360
	}
	return a
}

func sind(a float64) float64 { return math.Sin(a * deg) }
func cosd(a float64) float64 { return math.Cos(a * deg) }

// gmst returns the Greenwich mean sidereal time at Julian day jd [deg].
func gmst(jd float64) float64 {
	T := centuries(jd)
	return norm360(280.46061837 + 360.98564736629*(jd-j2000) +
		0.000387933*T*T - T*T*T/38710000)
}
