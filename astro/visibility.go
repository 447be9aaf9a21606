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
)

// Outcome classifies the evening of one observer.
type Outcome int

const (
	// Visible means the Moon is above the horizon after sunset and
	// after conjunction, so the crescent metric is defined.
	Visible Outcome = iota
	// SetBeforeNewMoon means the Moon sets before the conjunction.
	SetBeforeNewMoon
	// SetBeforeSunset means the Moon sets before the Sun, or there is
	// no sunset on the day.
	SetBeforeSunset
)

// Observer is a location on the Earth's surface with its observing
// conditions.
type Observer struct {
	Lat, Lon    float64 // [deg]
	Elevation   float64 // [m]
	Temperature float64 // [°C]
	Pressure    float64 // [kPa]
}

// refraction returns the atmospheric refraction at the horizon [deg].
func (o Observer) refraction() float64 {
	return 0.5667 * (o.Pressure / 101.325) * (283 / (273 + o.Temperature))
}

// dip returns the depression of the horizon due to elevation [deg].
func (o Observer) dip() float64 {
	if o.Elevation <= 0 {
		return 0
	}
	return 0.0347 * math.Sqrt(o.Elevation)
}

// Evening holds the geometry of the crescent at the best time of
// observation on one evening.
type Evening struct {
	Outcome Outcome

	Sunset, Moonset, Best float64 // Julian day (UT)

	// ARCV is the arc of vision: the topocentric altitude difference
	// between Moon and Sun [deg]. ARCVGeo is the airless geocentric
	// difference used by Yallop.
	ARCV, ARCVGeo float64

	// ARCL is the Sun-Moon elongation [deg].
	ARCL float64

	// W is the topocentric crescent width [arcmin].
	W float64
}

const (
	searchStep = 10.0 / 1440 // [day]
	bisections = 16
)

// crossing returns the first time in [jd0, jd1] at which f changes
// from positive to non-positive.
func crossing(f func(float64) float64, jd0, jd1 float64) (float64, bool) {
	prev := f(jd0)
	for t := jd0 + searchStep; t <= jd1+1e-9; t += searchStep {
		cur := f(t)
		if prev > 0 && cur <= 0 {
			lo, hi := t-searchStep, t
			for i := 0; i < bisections; i++ {
				mid := (lo + hi) / 2
				if f(mid) > 0 {
					lo = mid
				} else {
					hi = mid
				}
			}
			return hi, true
		}
		prev = cur
	}
	return 0, false
}

// lastCrossing returns the last time in [jd0, jd1] at which f changes
// from positive to non-positive.
func lastCrossing(f func(float64) float64, jd0, jd1 float64) (float64, bool) {
	var last float64
	var found bool
	for t := jd0; t < jd1; {
		c, ok := crossing(f, t, jd1)
		if !ok {
			break
		}
		last, found = c, true
		t = c + searchStep
	}
	return last, found
}

// Evening computes the crescent geometry for observer o on the evening
// following localNoon (Julian day, UT), given the conjunction time.
func (e *Ephemeris) Evening(o Observer, localNoon, conjunction float64) Evening {
	refr, dip := o.refraction(), o.dip()
	sunAlt := func(jd float64) float64 {
		alt, _ := Horizontal(e.Sun(jd), o.Lat, o.Lon, jd)
		return alt + 0.2666 + refr + dip
	}
	moonAlt := func(jd float64) float64 {
		p := e.Moon(jd)
		alt, _ := Horizontal(p, o.Lat, o.Lon, jd)
		return alt - 0.7275*p.Parallax + refr + dip
	}

	var ev Evening
	sunset, ok := crossing(sunAlt, localNoon, localNoon+0.75)
	if !ok {
		ev.Outcome = SetBeforeSunset
		return ev
	}
	ev.Sunset = sunset
	if moonAlt(sunset) <= 0 {
		ev.Outcome = SetBeforeSunset
		if ms, ok := lastCrossing(moonAlt, sunset-1, sunset); ok {
			ev.Moonset = ms
			if ms < conjunction {
				ev.Outcome = SetBeforeNewMoon
			}
		}
		return ev
	}
	moonset, ok := crossing(moonAlt, sunset, sunset+1)
	if !ok {
		moonset = sunset + 1
	}
	ev.Moonset = moonset
	if moonset < conjunction {
		ev.Outcome = SetBeforeNewMoon
		return ev
	}

	best := sunset + 4.0/9*(moonset-sunset)
	ev.Best = best
	sun, moon := e.Sun(best), e.Moon(best)
	sAlt, sAz := Horizontal(sun, o.Lat, o.Lon, best)
	mAlt, mAz := Horizontal(moon, o.Lat, o.Lon, best)
	mAltTopo := mAlt - moon.Parallax*cosd(mAlt)

	ev.ARCVGeo = mAlt - sAlt
	ev.ARCV = mAltTopo - sAlt
	ev.ARCL = Separation(mAltTopo, mAz, sAlt, sAz)
	sd := 0.27245 * moon.Parallax * 60 // [arcmin]
	sdTopo := sd * (1 + sind(mAltTopo)*sind(moon.Parallax))
	ev.W = sdTopo * (1 - cosd(ev.ARCL))
	return ev
}

// YallopQ returns the Yallop (1997) q value of the evening.
func (ev Evening) YallopQ() float64 {
	w := ev.W
	return (ev.ARCVGeo - (11.8371 - 6.3226*w + 0.7319*w*w - 0.1018*w*w*w)) / 10
}

// OdehV returns the Odeh (2006) V value of the evening.
func (ev Evening) OdehV() float64 {
	w := ev.W
	return ev.ARCV - (-0.1018*w*w*w + 0.7319*w*w - 6.3226*w + 7.1651)
}

// YallopClass returns the Yallop visibility class (A-F) of q.
func YallopClass(q float64) string {
	switch {
	case q > 0.216:
		return "A"
	case q > -0.014:
		return "B"
	case q > -0.160:
		return "C"
	case q > -0.232:
		return "D"
	case q > -0.293:
		return "E"
	}
	return "F"
}

// OdehClass returns the Odeh visibility zone (A-D) of V.
func OdehClass(v float64) string {
	switch {
	case v >= 5.65:
		return "A"
	case v >= 2.00:
		return "B"
	case v >= -0.96:
		return "C"
	}
	return "D"
}
