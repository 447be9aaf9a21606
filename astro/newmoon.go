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

// New moon periodic corrections [days]. Each row holds the
// coefficient, the power of E, and multiples of M, M', F and Ω.
var newMoonTerms = [][6]float64{
	{-0.40720, 0, 0, 1, 0, 0},
	{0.17241, 1, 1, 0, 0, 0},
	{0.01608, 0, 0, 2, 0, 0},
	{0.01039, 0, 0, 0, 2, 0},
	{0.00739, 1, -1, 1, 0, 0},
	{-0.00514, 1, 1, 1, 0, 0},
	{0.00208, 2, 2, 0, 0, 0},
	{-0.00111, 0, 0, 1, -2, 0},
	{-0.00057, 0, 0, 1, 2, 0},
	{0.00056, 1, 1, 2, 0, 0},
	{-0.00042, 0, 0, 3, 0, 0},
	{0.00042, 1, 1, 0, 2, 0},
	{0.00038, 1, 1, 0, -2, 0},
	{-0.00024, 1, -1, 2, 0, 0},
	{-0.00017, 0, 0, 0, 0, 1},
	{-0.00007, 0, 2, 1, 0, 0},
	{0.00004, 0, 0, 2, -2, 0},
	{0.00004, 0, 3, 0, 0, 0},
	{0.00003, 0, 1, 1, -2, 0},
	{0.00003, 0, 0, 2, 2, 0},
	{-0.00003, 0, 1, 1, 2, 0},
	{0.00003, 0, -1, 1, 2, 0},
	{-0.00002, 0, -1, 1, -2, 0},
	{-0.00002, 0, 1, 3, 0, 0},
	{0.00002, 0, 0, 4, 0, 0},
}

// Planetary arguments: constant, rate per lunation and coefficient.
var planetaryTerms = [][3]float64{
	{299.77, 0.107408, 0.000325},
	{251.88, 0.016321, 0.000165},
	{251.83, 26.651886, 0.000164},
	{349.42, 36.412478, 0.000126},
	{84.66, 18.206239, 0.000110},
	{141.74, 53.303771, 0.000062},
	{207.14, 2.453732, 0.000060},
	{154.84, 7.306860, 0.000056},
	{34.52, 27.261239, 0.000047},
	{207.19, 0.121824, 0.000042},
	{291.34, 1.844379, 0.000040},
	{161.72, 24.198154, 0.000037},
	{239.56, 25.513099, 0.000035},
	{331.55, 3.592518, 0.000023},
}

// newMoonJDE returns the Julian ephemeris day of new moon number k,
// counted from the new moon of 2000-01-06.
func newMoonJDE(k float64) float64 {
	T := k / 1236.85
	T2, T3, T4 := T*T, T*T*T, T*T*T*T
	jde := 2451550.09766 + 29.530588861*k + 0.00015437*T2 - 0.000000150*T3 + 0.00000000073*T4
	E := 1 - 0.002516*T - 0.0000074*T2
	M := 2.5534 + 29.10535670*k - 0.0000014*T2 - 0.00000011*T3
	Mp := 201.5643 + 385.81693528*k + 0.0107582*T2 + 0.00001238*T3 - 0.000000058*T4
	F := 160.7108 + 390.67050284*k - 0.0016118*T2 - 0.00000227*T3 + 0.000000011*T4
	O := 124.7746 - 1.56375588*k + 0.0020672*T2 + 0.00000215*T3
	for _, t := range newMoonTerms {
		jde += t[0] * math.Pow(E, t[1]) * sind(t[2]*M+t[3]*Mp+t[4]*F+t[5]*O)
	}
	for i, t := range planetaryTerms {
		a := t[0] + t[1]*k
		if i == 0 {
			a -= 0.009173 * T2
		}
		jde += t[2] * sind(a)
	}
	return jde
}

// newMoon returns the UT instant of new moon number k.
func newMoon(k float64) time.Time {
	jde := newMoonJDE(k)
	dt := deltaT(2000 + (jde-j2000)/365.25)
	return FromJulianDay(jde - dt/secondsDay)
}

// NextNewMoon returns the first new moon strictly after t, rounded
// down to the second.
func NextNewMoon(t time.Time) time.Time {
	k := math.Floor((decimalYear(t)-2000)*12.3685) - 2
	for {
		nm := newMoon(k)
		if nm.After(t) {
			return nm.Truncate(time.Second)
		}
		k++
	}
}
