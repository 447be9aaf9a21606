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
	"time"
)

// hijriEpoch is the Julian day number of 1 Muharram 1 AH in the
// arithmetical calendar (19 July 622).
const hijriEpoch = 1948440

var hijriMonths = [12]string{
	"Muharram", "Safar", "Rabi' al-Awwal", "Rabi' al-Thani",
	"Jumada al-Ula", "Jumada al-Akhirah", "Rajab", "Sha'ban",
	"Ramadan", "Shawwal", "Dhu al-Qa'dah", "Dhu al-Hijjah",
}

// HijriMonthName returns the name of Islamic month m (1-12).
func HijriMonthName(m int) (string, error) {
	if m < 1 || m > 12 {
		return "", fmt.Errorf("astro: invalid Hijri month %d", m)
	}
	return hijriMonths[m-1], nil
}

// hijriJDN returns the Julian day number of a date in the tabular
// Islamic calendar, which has leap years 2, 5, 7, 10, 13, 16, 18, 21,
// 24, 26 and 29 of each 30-year cycle.
func hijriJDN(y, m, d int) int {
	days := (y-1)*354 + floorDiv(3+11*y, 30)
	days += (m-1)*29 + m/2
	days += d - 1
	return hijriEpoch + days
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// gregorianJDN returns the Julian day number of a Gregorian date.
func gregorianJDN(y int, m time.Month, d int) int {
	a := (14 - int(m)) / 12
	yy := y + 4800 - a
	mm := int(m) + 12*a - 3
	return d + (153*mm+2)/5 + 365*yy + yy/4 - yy/100 + yy/400 - 32045
}

// jdnGregorian returns the Gregorian date of Julian day number jdn.
func jdnGregorian(jdn int) time.Time {
	l := jdn + 68569
	n := (4 * l) / 146097
	l = l - (146097*n+3)/4
	i := (4000 * (l + 1)) / 1461001
	l = l - (1461*i)/4 + 31
	j := (80 * l) / 2447
	day := l - (2447*j)/80
	l = j / 11
	month := j + 2 - 12*l
	year := 100*(n-49) + i + l
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// HijriToGregorian returns the Gregorian date (midnight UTC) of a date
// in the tabular Islamic calendar.
func HijriToGregorian(y, m, d int) (time.Time, error) {
	if y < 1 || m < 1 || m > 12 || d < 1 || d > 30 {
		return time.Time{}, fmt.Errorf("astro: invalid Hijri date %d-%02d-%02d", y, m, d)
	}
	return jdnGregorian(hijriJDN(y, m, d)), nil
}

// ToHijri returns the tabular Islamic date of the calendar day of t
// (in t's location).
func ToHijri(t time.Time) (y, m, d int, err error) {
	jdn := gregorianJDN(t.Year(), t.Month(), t.Day())
	if jdn < hijriEpoch {
		return 0, 0, 0, fmt.Errorf("astro: %s is before the Islamic epoch", t.Format("2006-01-02"))
	}
	y = (30*(jdn-hijriEpoch)+10646)/10631 + 1
	for y > 1 && hijriJDN(y, 1, 1) > jdn {
		y--
	}
	for hijriJDN(y+1, 1, 1) <= jdn {
		y++
	}
	m = 1
	for m < 12 && hijriJDN(y, m+1, 1) <= jdn {
		m++
	}
	d = jdn - hijriJDN(y, m, 1) + 1
	return y, m, d, nil
}
