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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spatialmodel/hilal/internal/hash"
)

// IndexFile is the name of the map index kept at the output root.
const IndexFile = "maps_index.json"

// IndexEntry describes one rendered map.
type IndexEntry struct {
	Key         string    `json:"key"`
	Region      string    `json:"region"`
	HijriYear   int       `json:"hijri_year"`
	HijriMonth  int       `json:"hijri_month"`
	MonthName   string    `json:"month_name"`
	Conjunction time.Time `json:"conjunction"`
	Criterion   string    `json:"criterion"`
	Mode        Mode      `json:"mode"`
	Resolution  int       `json:"resolution"`
	Days        int       `json:"days"`

	// File is the map path relative to the output root.
	File    string    `json:"file"`
	Created time.Time `json:"created"`
}

// monthKey identifies the inputs that determine a month's map.
type monthKey struct {
	Region      string
	Bounds      Bounds
	Conjunction time.Time
	Criterion   Criterion
	Mode        Mode
	Resolution  int
	Days        int
	Env         Environment
}

// MonthKey returns the cache key of the map for the month beginning
// with conjunction under configuration c.
func MonthKey(c *Config, conjunction time.Time) string {
	return hash.Key(monthKey{
		Region:      c.Region.Name,
		Bounds:      c.Region.Bounds,
		Conjunction: conjunction.UTC(),
		Criterion:   c.Criterion,
		Mode:        c.Mode,
		Resolution:  c.Resolution,
		Days:        c.Days,
		Env:         c.Env,
	})
}

// Index records the maps that have been produced under an output root
// so that repeated runs can skip them.
type Index struct {
	root string

	mu      sync.Mutex
	entries map[string]IndexEntry
}

// OpenIndex reads the index at root. A missing index is empty.
func OpenIndex(root string) (*Index, error) {
	ix := &Index{root: root, entries: make(map[string]IndexEntry)}
	b, err := os.ReadFile(filepath.Join(root, IndexFile))
	if os.IsNotExist(err) {
		return ix, nil
	} else if err != nil {
		return nil, fmt.Errorf("hilal: reading map index: %w", err)
	}
	var entries []IndexEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("hilal: parsing map index: %w", err)
	}
	for _, e := range entries {
		ix.entries[e.Key] = e
	}
	return ix, nil
}

// Lookup returns the entry for key if its map still exists on disk.
func (ix *Index) Lookup(key string) (IndexEntry, bool) {
	ix.mu.Lock()
	e, ok := ix.entries[key]
	ix.mu.Unlock()
	if !ok {
		return e, false
	}
	if _, err := os.Stat(filepath.Join(ix.root, e.File)); err != nil {
		return e, false
	}
	return e, true
}

// Add records e, replacing any entry with the same key.
func (ix *Index) Add(e IndexEntry) {
	ix.mu.Lock()
	ix.entries[e.Key] = e
	ix.mu.Unlock()
}

// Entries returns the entries sorted by conjunction and region.
func (ix *Index) Entries() []IndexEntry {
	ix.mu.Lock()
	o := make([]IndexEntry, 0, len(ix.entries))
	for _, e := range ix.entries {
		o = append(o, e)
	}
	ix.mu.Unlock()
	sort.Slice(o, func(i, j int) bool {
		if !o[i].Conjunction.Equal(o[j].Conjunction) {
			return o[i].Conjunction.Before(o[j].Conjunction)
		}
		if o[i].Region != o[j].Region {
			return o[i].Region < o[j].Region
		}
		return o[i].Key < o[j].Key
	})
	return o
}

// Save writes the index to the output root.
func (ix *Index) Save() error {
	b, err := json.MarshalIndent(ix.Entries(), "", "  ")
	if err != nil {
		return fmt.Errorf("hilal: encoding map index: %w", err)
	}
	if err := os.MkdirAll(ix.root, os.ModePerm); err != nil {
		return fmt.Errorf("hilal: writing map index: %w", err)
	}
	path := filepath.Join(ix.root, IndexFile)
	if err := os.WriteFile(path+".tmp", b, 0644); err != nil {
		return fmt.Errorf("hilal: writing map index: %w", err)
	}
	if err := os.Rename(path+".tmp", path); err != nil {
		return fmt.Errorf("hilal: writing map index: %w", err)
	}
	return nil
}
