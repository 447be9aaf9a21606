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
	"sort"
	"strings"
	"unicode"
)

// Region is a named map extent with the places labeled on its maps.
type Region struct {
	Name   string
	Bounds Bounds
	Cities []string
}

// Title returns the display form of the region name, e.g.
// "North America" for NORTH_AMERICA.
func (r Region) Title() string {
	words := strings.Fields(strings.Replace(strings.ToLower(r.Name), "_", " ", -1))
	for i, w := range words {
		rr := []rune(w)
		rr[0] = unicode.ToUpper(rr[0])
		words[i] = string(rr)
	}
	return strings.Join(words, " ")
}

var citiesWorld = []string{
	"Honolulu",
	"Vancouver", "Los Angeles", "Mexico City", "Toronto", "Miami", "Washington,  D.C.",
	"Lima", "Bogota", "Santiago", "São Paulo",
	"Dakar", "Lagos",
	"Madrid", "London", "Vienna", "Moscow",
	"Cape Town",
	"Istanbul", "Cairo", "Makkah", "Tehran",
	"Nairobi", "Addis Ababa",
	"Islamabad", "Mumbai",
	"Bangkok", "Singapore",
	"Hong Kong", "Beijing", "Tokyo",
	"Sydney", "Perth",
}

var regions = map[string]Region{
	"WORLD": {
		Name:   "WORLD",
		Bounds: Bounds{MinX: -179, MaxX: 180, MinY: -61, MaxY: 61},
		Cities: citiesWorld,
	},
	"NORTH_AMERICA": {
		Name:   "NORTH_AMERICA",
		Bounds: Bounds{MinX: -170, MaxX: -40, MinY: 15, MaxY: 61},
		Cities: []string{
			"Honolulu", "Vancouver", "Edmonton", "Calgary", "Winnipeg", "Thunder Bay",
			"Toronto", "Montréal", "Halifax", "St. John's", "Portland", "San Francisco",
			"Los Angeles", "Billings", "Albuquerque", "Denver", "Kansas City", "Dallas",
			"Houston", "Minneapolis", "Chicago", "Orlando", "Atlanta", "Miami",
			"Washington,  D.C.", "Boston", "Hermosillo", "Monterrey", "Mexico City",
			"Mérida", "Havana", "Kingston",
		},
	},
	"EUROPE": {
		Name:   "EUROPE",
		Bounds: Bounds{MinX: -15, MaxX: 50, MinY: 34, MaxY: 61},
		Cities: []string{
			"Lisbon", "Dublin", "Madrid", "Edinburgh", "London", "Barcelona", "Paris",
			"Amsterdam", "Zürich", "Oslo", "Rome", "København", "Venice", "Berlin",
			"Vienna", "Stockholm", "Sarajevo", "Warsaw", "Athens", "Riga", "Bucharest",
			"Minsk", "Istanbul", "Kyiv", "Ankara", "Moscow", "Rostov", "Tbilisi",
		},
	},
	"MIDDLE_EAST": {
		Name:   "MIDDLE_EAST",
		Bounds: Bounds{MinX: 25, MaxX: 75, MinY: 10, MaxY: 45},
		Cities: []string{
			"Istanbul", "Khartoum", "Cairo", "Luxor", "Ankara", "Beirut", "Aleppo",
			"Medina", "Makkah", "Djibouti", "Sanaa", "Irbil", "Baghdad", "Riyadh",
			"Kuwait City", "Baku", "Tehran", "Doha", "Dubai", "Kerman", "Muscat",
			"Mashhad", "Karachi", "Kabul",
		},
	},
	"IRAN": {
		Name:   "IRAN",
		Bounds: Bounds{MinX: 43.5, MaxX: 63.5, MinY: 24.5, MaxY: 40},
		Cities: []string{
			"Tehran", "Mashhad", "Kerman", "Shiraz", "Zanjan", "Ardabil", "Isfahan",
			"Gorgan", "Tabriz", "Semnan", "Yazd", "Rasht", "Arak", "Boshruyeh",
			"Mehran", "Dargaz", "Chabahar", "Zahedan", "Birjand", "Sanandaj", "Ahvaz",
			"Saravan", "Hamadan", "Khorramabad", "Qomsheh", "Ilam", "Sari", "Qazvin",
			"Bandar-e-Abbas", "Bandar-e Bushehr", "Sirjan", "Kashmar", "Bojnurd", "Qom",
			"Urmia", "Khvoy", "Yasuj",
		},
	},
}

// unsupportedRegions are known extents that cannot be mapped yet.
var unsupportedRegions = map[string]string{
	"WORLD_FULL": "polar latitudes are not supported",
}

// LookupRegion returns the region with the given name. Names are not
// case sensitive.
func LookupRegion(name string) (Region, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if r, ok := regions[key]; ok {
		return r, nil
	}
	if why, ok := unsupportedRegions[key]; ok {
		return Region{}, fmt.Errorf("hilal: region %s is not supported: %s", key, why)
	}
	return Region{}, fmt.Errorf("hilal: unknown region %q; valid options are %s", name, strings.Join(RegionNames(), ", "))
}

// RegionNames returns the names of the supported regions in sorted order.
func RegionNames() []string {
	names := make([]string, 0, len(regions))
	for n := range regions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
