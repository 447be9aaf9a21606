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
	"io"
	"os"
	"path/filepath"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/google/uuid"
)

// visVar is the name of the visibility variable in the store file.
const visVar = "visibility"

// StoreSpec identifies a shared grid store: a NetCDF file holding a
// (lat, lon, day) array that worker processes write to by row range.
type StoreSpec struct {
	Path    string
	NumLat  int
	NumLon  int
	NumDays int
	Mode    Mode
}

// NewStoreSpec returns a spec for a store with a unique file name in dir.
func NewStoreSpec(dir string, numLat, numLon, numDays int, mode Mode) StoreSpec {
	return StoreSpec{
		Path:    filepath.Join(dir, fmt.Sprintf("hilal_%s.nc", uuid.New())),
		NumLat:  numLat,
		NumLon:  numLon,
		NumDays: numDays,
		Mode:    mode,
	}
}

// Shape returns the dimensions of the stored array.
func (s StoreSpec) Shape() []int { return []int{s.NumLat, s.NumLon, s.NumDays} }

// Len returns the number of stored elements.
func (s StoreSpec) Len() int { return s.NumLat * s.NumLon * s.NumDays }

func (s StoreSpec) check() error {
	if s.Path == "" {
		return fmt.Errorf("hilal: grid store path is empty")
	}
	if s.NumLat <= 0 || s.NumLon <= 0 || s.NumDays <= 0 {
		return fmt.Errorf("hilal: invalid grid store shape %v", s.Shape())
	}
	if s.Mode != RawMode && s.Mode != CategoryMode {
		return fmt.Errorf("hilal: invalid grid store mode %q", s.Mode)
	}
	return nil
}

// zero returns a zeroed slice of n elements of the stored type.
func (s StoreSpec) zero(n int) interface{} {
	if s.Mode == RawMode {
		return make([]float32, n)
	}
	return make([]uint8, n)
}

// zeroFill writes zeros over the whole store.
var zeroFill = func(g *GridHandle) error {
	return g.write(nil, nil, g.spec.zero(g.spec.Len()))
}

// CreateStore allocates a zero-filled store file for s. The file is
// flushed and closed before CreateStore returns. If CreateStore fails
// after creating the file, the file is removed.
func CreateStore(s StoreSpec) (err error) {
	if err := s.check(); err != nil {
		return err
	}
	h := cdf.NewHeader([]string{"lat", "lon", "day"}, s.Shape())
	if s.Mode == RawMode {
		h.AddVariable(visVar, []string{"lat", "lon", "day"}, []float32{0})
		h.AddAttribute(visVar, "description", "crescent visibility metric")
	} else {
		h.AddVariable(visVar, []string{"lat", "lon", "day"}, []uint8{0})
		h.AddAttribute(visVar, "description", "crescent visibility category code")
	}
	h.AddAttribute("", "mode", string(s.Mode))
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("hilal: invalid grid store header: %v", errs)
	}
	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("hilal: creating grid store: %w", err)
	}
	g := &GridHandle{spec: s, f: f, writable: true}
	defer func() {
		if rerr := g.Release(); err == nil {
			err = rerr
		}
		if err != nil {
			os.Remove(s.Path)
		}
	}()
	if g.cf, err = cdf.Create(f, h); err != nil {
		return fmt.Errorf("hilal: creating grid store: %w", err)
	}
	if err := zeroFill(g); err != nil {
		return fmt.Errorf("hilal: zero-filling grid store: %w", err)
	}
	return g.Flush()
}

// RemoveStore deletes the store file. Removing a store that does not
// exist is not an error.
func RemoveStore(s StoreSpec) error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("hilal: removing grid store: %w", err)
	}
	return nil
}

// GridHandle is an open view of a store file.
type GridHandle struct {
	spec     StoreSpec
	f        *os.File
	cf       *cdf.File
	writable bool
}

// OpenWritable opens an existing store for writing.
func OpenWritable(s StoreSpec) (*GridHandle, error) {
	return openStore(s, os.O_RDWR)
}

// OpenReadOnly opens an existing store for reading.
func OpenReadOnly(s StoreSpec) (*GridHandle, error) {
	return openStore(s, os.O_RDONLY)
}

func openStore(s StoreSpec, flag int) (*GridHandle, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(s.Path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("hilal: opening grid store: %w", err)
	}
	cf, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("hilal: reading grid store header: %w", err)
	}
	g := &GridHandle{spec: s, f: f, cf: cf, writable: flag&os.O_RDWR != 0}
	if err := g.checkHeader(); err != nil {
		g.Release()
		return nil, err
	}
	return g, nil
}

// checkHeader makes sure the file matches the spec it was opened with.
func (g *GridHandle) checkHeader() error {
	lengths := g.cf.Header.Lengths(visVar)
	if lengths == nil {
		return fmt.Errorf("hilal: grid store %s has no %s variable", g.spec.Path, visVar)
	}
	want := g.spec.Shape()
	if len(lengths) != len(want) {
		return fmt.Errorf("hilal: grid store %s has shape %v; want %v", g.spec.Path, lengths, want)
	}
	for i := range want {
		if lengths[i] != want[i] {
			return fmt.Errorf("hilal: grid store %s has shape %v; want %v", g.spec.Path, lengths, want)
		}
	}
	switch g.cf.Header.ZeroValue(visVar, 0).(type) {
	case []float32:
		if g.spec.Mode != RawMode {
			return fmt.Errorf("hilal: grid store %s holds raw values; want categories", g.spec.Path)
		}
	case []uint8:
		if g.spec.Mode != CategoryMode {
			return fmt.Errorf("hilal: grid store %s holds categories; want raw values", g.spec.Path)
		}
	default:
		return fmt.Errorf("hilal: grid store %s has an unsupported element type", g.spec.Path)
	}
	return nil
}

// Spec returns the spec the handle was opened with.
func (g *GridHandle) Spec() StoreSpec { return g.spec }

// WriteRows writes data, which must have the shape (rows, NumLon,
// NumDays), into the store starting at latitude row start.
func (g *GridHandle) WriteRows(start int, data *sparse.DenseArray) error {
	if !g.writable {
		return fmt.Errorf("hilal: grid store %s is open read-only", g.spec.Path)
	}
	shape := data.GetShape()
	if len(shape) != 3 || shape[1] != g.spec.NumLon || shape[2] != g.spec.NumDays {
		return fmt.Errorf("hilal: cannot write block of shape %v into grid store of shape %v", shape, g.spec.Shape())
	}
	rows := shape[0]
	if rows == 0 {
		return nil
	}
	if start < 0 || start+rows > g.spec.NumLat {
		return fmt.Errorf("hilal: rows [%d, %d) out of range for grid store with %d rows", start, start+rows, g.spec.NumLat)
	}
	var values interface{}
	switch g.spec.Mode {
	case RawMode:
		v := make([]float32, len(data.Elements))
		for i, e := range data.Elements {
			v[i] = float32(e)
		}
		values = v
	case CategoryMode:
		v := make([]uint8, len(data.Elements))
		for i, e := range data.Elements {
			v[i] = uint8(e)
		}
		values = v
	}
	begin := []int{start, 0, 0}
	end := []int{start + rows - 1, g.spec.NumLon - 1, g.spec.NumDays - 1}
	if err := g.write(begin, end, values); err != nil {
		return fmt.Errorf("hilal: writing rows [%d, %d) to grid store: %w", start, start+rows, err)
	}
	return nil
}

func (g *GridHandle) write(begin, end []int, values interface{}) error {
	var want int
	switch v := values.(type) {
	case []float32:
		want = len(v)
	case []uint8:
		want = len(v)
	}
	n, err := g.cf.Writer(visVar, begin, end).Write(values)
	// The writer reports io.EOF when the write fills the requested range.
	if err == io.EOF && n == want {
		err = nil
	}
	if err == nil && n != want {
		err = fmt.Errorf("short write: %d of %d elements", n, want)
	}
	return err
}

// ReadAll returns the full contents of the store as an array of shape
// (NumLat, NumLon, NumDays).
func (g *GridHandle) ReadAll() (*sparse.DenseArray, error) {
	r := g.cf.Reader(visVar, nil, nil)
	buf := r.Zero(g.spec.Len())
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("hilal: reading grid store: %w", err)
	}
	o := sparse.ZerosDense(g.spec.Shape()...)
	switch v := buf.(type) {
	case []float32:
		for i, e := range v {
			o.Elements[i] = float64(e)
		}
	case []uint8:
		for i, e := range v {
			o.Elements[i] = float64(e)
		}
	}
	return o, nil
}

// Flush commits written data to disk.
func (g *GridHandle) Flush() error {
	if g.f == nil || !g.writable {
		return nil
	}
	if err := g.f.Sync(); err != nil {
		return fmt.Errorf("hilal: flushing grid store: %w", err)
	}
	return nil
}

// Release closes the handle. It is safe to call more than once.
func (g *GridHandle) Release() error {
	if g.f == nil {
		return nil
	}
	err := g.f.Close()
	g.f, g.cf = nil, nil
	if err != nil {
		return fmt.Errorf("hilal: closing grid store: %w", err)
	}
	return nil
}

// WithWritable opens the store for writing, calls fn, and then flushes
// and releases the handle regardless of whether fn succeeded.
func WithWritable(s StoreSpec, fn func(*GridHandle) error) (err error) {
	g, err := OpenWritable(s)
	if err != nil {
		return err
	}
	defer func() {
		if ferr := g.Flush(); err == nil {
			err = ferr
		}
		if rerr := g.Release(); err == nil {
			err = rerr
		}
	}()
	return fn(g)
}
