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
	"fmt"
	"math"
)

// Equatorial holds apparent geocentric equatorial coordinates.
type Equatorial struct {
	RA, Dec float64 // [deg]

	// Parallax is the equatorial horizontal parallax [deg].
	Parallax float64
}

// obliquity returns the apparent obliquity of the ecliptic [deg] and
// the longitude of the Moon's ascending node [deg].
func obliquity(T float64) (eps, omega float64) {
	omega = 125.04452 - 1934.136261*T
	eps = 23.439291 - 0.0130042*T + 0.00256*cosd(omega)
	return eps, omega
}

func eclipticToEquatorial(lambda, beta, eps float64) (ra, dec float64) {
	ra = norm360(math.Atan2(sind(lambda)*cosd(eps)-math.Tan(beta*deg)*sind(eps), cosd(lambda)) / deg)
	dec = math.Asin(sind(beta)*cosd(eps)+cosd(beta)*sind(eps)*sind(lambda)) / deg
	return ra, dec
}

// Sun returns the apparent position of the Sun at Julian day jd (TT),
// accurate to about 0.01°.
func Sun(jd float64) Equatorial {
	T := centuries(jd)
	L0 := 280.46646 + 36000.76983*T + 0.0003032*T*T
	M := 357.52911 + 35999.05029*T - 0.0001537*T*T
	e := 0.016708634 - 0.000042037*T - 0.0000001267*T*T
	C := (1.914602-0.004817*T-0.000014*T*T)*sind(M) +
		(0.019993-0.000101*T)*sind(2*M) +
		0.000289*sind(3*M)
	nu := M + C
	R := 1.000001018 * (1 - e*e) / (1 + e*cosd(nu)) // [AU]
	eps, omega := obliquity(T)
	lambda := L0 + C - 0.00569 - 0.00478*sind(omega)
	ra, dec := eclipticToEquatorial(lambda, 0, eps)
	const earthRadiusAU = 6378.14 / 149597870.7
	return Equatorial{RA: ra, Dec: dec, Parallax: math.Asin(earthRadiusAU/R) / deg}
}

// Periodic terms of the lunar longitude and distance: multiples of
// D, M, M', F followed by the sine coefficient of longitude [1e-6 deg]
// and the cosine coefficient of distance [m].
var moonLR = [][6]float64{
	{0, 0, 1, 0, 6288774, -20905355},
	{2, 0, -1, 0, 1274027, -3699111},
	{2, 0, 0, 0, 658314, -2955968},
	{0, 0, 2, 0, 213618, -569925},
	{0, 1, 0, 0, -185116, 48888},
	{0, 0, 0, 2, -114332, -3149},
	{2, 0, -2, 0, 58793, 246158},
	{2, -1, -1, 0, 57066, -152138},
	{2, 0, 1, 0, 53322, -170733},
	{2, -1, 0, 0, 45758, -204586},
	{0, 1, -1, 0, -40923, -129620},
	{1, 0, 0, 0, -34720, 108743},
	{0, 1, 1, 0, -30383, 104755},
	{2, 0, 0, -2, 15327, 10321},
	{0, 0, 1, 2, -12528, 0},
	{0, 0, 1, -2, 10980, 79661},
	{4, 0, -1, 0, 10675, -34782},
	{0, 0, 3, 0, 10034, -23210},
	{4, 0, -2, 0, 8548, -21636},
	{2, 1, -1, 0, -7888, 24208},
	{2, 1, 0, 0, -6766, 30824},
	{1, 0, -1, 0, -5163, -8379},
	{1, 1, 0, 0, 4987, -16675},
	{2, -1, 1, 0, 4036, -12831},
	{2, 0, 2, 0, 3994, -10445},
	{4, 0, 0, 0, 3861, -11650},
	{2, 0, -3, 0, 3665, 14403},
	{0, 1, -2, 0, -2689, -7003},
	{2, 0, -1, 2, -2602, 0},
	{2, -1, -2, 0, 2390, 10056},
	{1, 0, 1, 0, -2348, 6322},
	{2, -2, 0, 0, 2236, -9884},
}

// Periodic terms of the lunar latitude: multiples of D, M, M', F and
// the sine coefficient [1e-6 deg].
var moonB = [][5]float64{
	{0, 0, 0, 1, 5128122},
	{0, 0, 1, 1, 280602},
	{0, 0, 1, -1, 277693},
	{2, 0, 0, -1, 173237},
	{2, 0, -1, 1, 55413},
	{2, 0, -1, -1, 46271},
	{2, 0, 0, 1, 32573},
	{0, 0, 2, 1, 17198},
	{2, 0, 1, -1, 9266},
	{0, 0, 2, -1, 8822},
	{2, -1, 0, -1, 8216},
	{2, 0, -2, -1, 4324},
	{2, 0, 1, 1, 4200},
	{2, 1, 0, -1, -3359},
	{2, -1, -1, 1, 2463},
	{2, -1, 0, 1, 2211},
	{2, -1, -1, -1, 2065},
}

// eccentricity scales terms involving the solar anomaly M.
func eccentricity(E, m float64) float64 {
	switch math.Abs(m) {
	case 1:
		return E
	case 2:
		return E * E
	}
	return 1
}

// Moon returns the apparent geocentric position of the Moon at Julian
// day jd (TT), from the principal terms of the ELP-2000/82 series.
func Moon(jd float64) Equatorial {
	T := centuries(jd)
	Lp := norm360(218.3164477 + 481267.88123421*T - 0.0015786*T*T)
	D := norm360(297.8501921 + 445267.1114034*T - 0.0018819*T*T)
	M := norm360(357.5291092 + 35999.0502909*T - 0.0001536*T*T)
	Mp := norm360(134.9633964 + 477198.8675055*T + 0.0087414*T*T)
	F := norm360(93.2720950 + 483202.0175233*T - 0.0036539*T*T)
	A1 := norm360(119.75 + 131.849*T)
	A2 := norm360(53.09 + 479264.290*T)
	A3 := norm360(313.45 + 481266.484*T)
	E := 1 - 0.002516*T - 0.0000074*T*T

	var sl, sr, sb float64
	for _, t := range moonLR {
		arg := t[0]*D + t[1]*M + t[2]*Mp + t[3]*F
		e := eccentricity(E, t[1])
		sl += t[4] * e * sind(arg)
		sr += t[5] * e * cosd(arg)
	}
	for _, t := range moonB {
		arg := t[0]*D + t[1]*M + t[2]*Mp + t[3]*F
		sb += t[4] * eccentricity(E, t[1]) * sind(arg)
	}
	sl += 3958*sind(A1) + 1962*sind(Lp-F) + 318*sind(A2)
	sb += -2235*sind(Lp) + 382*sind(A3) + 175*sind(A1-F) + 175*sind(A1+F) +
		127*sind(Lp-Mp) - 115*sind(Lp+Mp)

	eps, omega := obliquity(T)
	nutation := -17.20 / 3600 * sind(omega)
	lambda := Lp + sl/1e6 + nutation
	beta := sb / 1e6
	dist := 385000.56 + sr/1000 // [km]
	ra, dec := eclipticToEquatorial(lambda, beta, eps)
	return Equatorial{RA: ra, Dec: dec, Parallax: math.Asin(6378.14/dist) / deg}
}

// Ephemeris holds Sun and Moon positions sampled at a fixed interval,
// so that many observers can share one set of series evaluations.
type Ephemeris struct {
	start, step float64 // Julian day (UT)
	sun, moon   []Equatorial
}

// NewEphemeris samples positions from jd0 to jd1 (UT) every step days.
func NewEphemeris(jd0, jd1, step float64) (*Ephemeris, error) {
	if !(jd1 > jd0) || step <= 0 {
		return nil, fmt.Errorf("astro: invalid ephemeris range [%g, %g] step %g", jd0, jd1, step)
	}
	n := int(math.Ceil((jd1-jd0)/step)) + 2
	e := &Ephemeris{start: jd0, step: step, sun: make([]Equatorial, n), moon: make([]Equatorial, n)}
	dt := deltaT(2000+(jd0-j2000)/365.25) / secondsDay
	for i := 0; i < n; i++ {
		jde := jd0 + float64(i)*step + dt
		e.sun[i] = Sun(jde)
		e.moon[i] = Moon(jde)
	}
	return e, nil
}

// Covers reports whether jd falls inside the sampled range.
func (e *Ephemeris) Covers(jd float64) bool {
	return jd >= e.start && jd <= e.start+float64(len(e.sun)-1)*e.step
}

func interpolate(a, b Equatorial, f float64) Equatorial {
	dRA := norm180(b.RA - a.RA)
	return Equatorial{
		RA:       norm360(a.RA + f*dRA),
		Dec:      a.Dec + f*(b.Dec-a.Dec),
		Parallax: a.Parallax + f*(b.Parallax-a.Parallax),
	}
}

func (e *Ephemeris) at(s []Equatorial, jd float64) Equatorial {
	x := (jd - e.start) / e.step
	i := int(math.Floor(x))
	if i < 0 {
		i = 0
	}
	if i > len(s)-2 {
		i = len(s) - 2
	}
	return interpolate(s[i], s[i+1], x-float64(i))
}

// Sun returns the interpolated position of the Sun at jd (UT).
func (e *Ephemeris) Sun(jd float64) Equatorial { return e.at(e.sun, jd) }

// Moon returns the interpolated position of the Moon at jd (UT).
func (e *Ephemeris) Moon(jd float64) Equatorial { return e.at(e.moon, jd) }

// Horizontal returns the altitude and azimuth (from north, eastward)
// [deg] of p for an observer at lat, lon at jd (UT).
func Horizontal(p Equatorial, lat, lon, jd float64) (alt, az float64) {
	H := gmst(jd) + lon - p.RA
	sinAlt := sind(lat)*sind(p.Dec) + cosd(lat)*cosd(p.Dec)*cosd(H)
	alt = math.Asin(math.Max(-1, math.Min(1, sinAlt))) / deg
	az = norm360(math.Atan2(sind(H), cosd(H)*sind(lat)-math.Tan(p.Dec*deg)*cosd(lat))/deg + 180)
	return alt, az
}

// Separation returns the angle between two points on the sky [deg].
func Separation(alt1, az1, alt2, az2 float64) float64 {
	c := sind(alt1)*sind(alt2) + cosd(alt1)*cosd(alt2)*cosd(az1-az2)
	return math.Acos(math.Max(-1, math.Min(1, c))) / deg
}
