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
	"context"
	"fmt"
	"time"

	"github.com/ctessum/sparse"
)

// ComputeTask is the unit of work of one visibility worker: the
// visibility of every cell in one latitude chunk for every day.
type ComputeTask struct {
	Chunk Chunk

	// Lats holds the latitudes of the chunk's rows and Lons the full
	// longitude axis.
	Lats, Lons []float64

	Conjunction time.Time
	Days        int
	Criterion   Criterion
	Env         Environment
	Mode        Mode

	// Categories is the code order used in CategoryMode.
	Categories []Category

	Store StoreSpec
}

func (t *ComputeTask) check() error {
	if len(t.Lats) != t.Chunk.Rows {
		return fmt.Errorf("hilal: %v has %d rows but %d latitudes", t.Chunk, t.Chunk.Rows, len(t.Lats))
	}
	if len(t.Lons) != t.Store.NumLon {
		return fmt.Errorf("hilal: %v: %d longitudes for a store with %d columns", t.Chunk, len(t.Lons), t.Store.NumLon)
	}
	if t.Days != t.Store.NumDays {
		return fmt.Errorf("hilal: %v: %d days for a store with %d days", t.Chunk, t.Days, t.Store.NumDays)
	}
	if t.Mode != t.Store.Mode {
		return fmt.Errorf("hilal: %v: mode %q for a store in mode %q", t.Chunk, t.Mode, t.Store.Mode)
	}
	return nil
}

// request builds the oracle request covering every cell of the chunk,
// ordered row-major.
func (t *ComputeTask) request() *BatchRequest {
	n := len(t.Lats) * len(t.Lons)
	r := &BatchRequest{
		Lats:        make([]float64, 0, n),
		Lons:        make([]float64, 0, n),
		Conjunction: t.Conjunction,
		Days:        t.Days,
		Criterion:   t.Criterion,
		Env:         t.Env,
		Mode:        t.Mode,
	}
	for _, lat := range t.Lats {
		for _, lon := range t.Lons {
			r.Lats = append(r.Lats, lat)
			r.Lons = append(r.Lons, lon)
		}
	}
	return r
}

// Compute asks the oracle for the chunk's visibilities and returns them
// as an array of shape (rows, columns, days). Nothing is written.
func (t *ComputeTask) Compute(ctx context.Context, o Oracle) (*sparse.DenseArray, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	var table *CategoryTable
	if t.Mode == CategoryMode {
		var err error
		if table, err = NewCategoryTable(t.Criterion, t.Categories); err != nil {
			return nil, err
		}
	}
	req := t.request()
	res, err := o.VisibilityBatch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("hilal: computing visibility for %v: %w", t.Chunk, err)
	}
	if err := checkBatchResult(req, res); err != nil {
		return nil, fmt.Errorf("%v: %w", t.Chunk, err)
	}

	// The oracle result is cell-major with days innermost, which is
	// also the element order of a (rows, columns, days) array.
	out := sparse.ZerosDense(len(t.Lats), len(t.Lons), t.Days)
	if t.Mode == RawMode {
		copy(out.Elements, res.Values)
		return out, nil
	}
	for i, label := range res.Labels {
		code, err := table.Remap(label)
		if err != nil {
			return nil, fmt.Errorf("hilal: %v: %w", t.Chunk, err)
		}
		out.Elements[i] = float64(code)
	}
	return out, nil
}

// Run computes the chunk and commits it to the shared store. The store
// is only opened once the whole chunk has been computed, so a failed
// task leaves the store untouched.
func (t *ComputeTask) Run(ctx context.Context, o Oracle) error {
	data, err := t.Compute(ctx, o)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return WithWritable(t.Store, func(g *GridHandle) error {
		return g.WriteRows(t.Chunk.StartRow, data)
	})
}
