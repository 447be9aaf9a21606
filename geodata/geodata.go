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

// Package geodata loads the political boundaries and populated places
// drawn on visibility maps from shapefiles in geographic coordinates.
package geodata

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"
)

// Place is a labeled point on a map.
type Place struct {
	geom.Point
	Name       string
	Population float64
}

type feature struct {
	geom.Geom
}

// BBox returns the polygon covering the given extent.
func BBox(minX, maxX, minY, maxY float64) geom.Polygon {
	return geom.Polygon{{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
		{X: minX, Y: minY},
	}}
}

// LoadBoundaries reads the boundary shapes in the shapefile at path
// and returns the outlines that fall within bbox, clipped to it.
// Polygon rings and line strings are both returned as paths.
func LoadBoundaries(path string, bbox geom.Polygon) ([][]geom.Point, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("geodata: opening boundaries: %v", err)
	}
	defer d.Close()

	index := rtree.NewTree(25, 50)
	for {
		g, _, more := d.DecodeRowFields()
		if !more {
			break
		}
		if g == nil {
			continue
		}
		index.Insert(&feature{Geom: g})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("geodata: reading boundaries: %v", err)
	}

	var paths [][]geom.Point
	for _, fI := range index.SearchIntersect(bbox.Bounds()) {
		switch g := fI.(*feature).Geom.(type) {
		case geom.Polygonal:
			clipped := g.Intersection(bbox)
			if clipped == nil {
				continue
			}
			for _, p := range clipped.Polygons() {
				for _, ring := range p {
					if len(ring) > 1 {
						paths = append(paths, closeRing([]geom.Point(ring)))
					}
				}
			}
		case geom.LineString:
			paths = append(paths, []geom.Point(g))
		case geom.MultiLineString:
			for _, l := range g {
				paths = append(paths, []geom.Point(l))
			}
		}
	}
	return paths, nil
}

func closeRing(r []geom.Point) []geom.Point {
	if r[0] == r[len(r)-1] {
		return r
	}
	return append(r, r[0])
}

// LoadPlaces reads the populated places in the shapefile at path and
// returns those whose NAME is in names and which fall within bbox.
// When several places share a name the most populous (POP_MAX) is kept.
// The result is sorted by name.
func LoadPlaces(path string, names []string, bbox geom.Polygon) ([]Place, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("geodata: opening places: %v", err)
	}
	defer d.Close()

	best := make(map[string]Place)
	for {
		g, fields, more := d.DecodeRowFields("NAME", "POP_MAX")
		if !more {
			break
		}
		name := strings.TrimSpace(fields["NAME"])
		if !want[name] {
			continue
		}
		pt, ok := g.(geom.Point)
		if !ok {
			continue
		}
		var pop float64
		if s := strings.TrimSpace(fields["POP_MAX"]); s != "" {
			if pop, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("geodata: place %s: invalid POP_MAX: %v", name, err)
			}
		}
		if prev, ok := best[name]; !ok || pop > prev.Population {
			best[name] = Place{Point: pt, Name: name, Population: pop}
		}
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("geodata: reading places: %v", err)
	}
	return FilterPlaces(best, bbox), nil
}

// FilterPlaces returns the places within bbox, sorted by name.
func FilterPlaces(places map[string]Place, bbox geom.Polygon) []Place {
	b := bbox.Bounds()
	var o []Place
	for _, p := range places {
		if p.X < b.Min.X || p.X > b.Max.X || p.Y < b.Min.Y || p.Y > b.Max.Y {
			continue
		}
		o = append(o, p)
	}
	sort.Slice(o, func(i, j int) bool { return o[i].Name < o[j].Name })
	return o
}
