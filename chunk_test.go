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
	"reflect"
	"testing"
)

func TestPartition(t *testing.T) {
	lat := span(-61, 61, 50)
	for _, requested := range []int{-1, 0, 1, 2, 3, 4, 7, 49, 50, 51, 1000} {
		chunks, err := Partition(lat, requested)
		if err != nil {
			t.Fatal(err)
		}
		if want := WorkerCount(requested, len(lat)); len(chunks) != want {
			t.Errorf("requested %d: %d chunks; want %d", requested, len(chunks), want)
		}
		if len(chunks) > numCPU() || len(chunks) > len(lat) {
			t.Errorf("requested %d: %d chunks exceeds the CPU count or axis length", requested, len(chunks))
		}
		if requested > 0 && len(chunks) > requested {
			t.Errorf("requested %d: %d chunks", requested, len(chunks))
		}
		var joined GridAxis
		next := 0
		for i, c := range chunks {
			if c.Index != i || c.StartRow != next || c.Rows <= 0 {
				t.Fatalf("requested %d: chunk %d is %+v; want start %d", requested, i, c, next)
			}
			if d := c.Rows - chunks[0].Rows; d != 0 && d != -1 {
				t.Errorf("requested %d: unbalanced chunks %+v", requested, chunks)
			}
			next = c.EndRow()
		}
		for _, a := range SplitAxis(lat, chunks) {
			joined = append(joined, a...)
		}
		if !reflect.DeepEqual(joined, lat) {
			t.Errorf("requested %d: chunks do not reproduce the axis", requested)
		}
		if Serial(chunks) != (len(chunks) == 1) {
			t.Errorf("requested %d: Serial = %v for %d chunks", requested, Serial(chunks), len(chunks))
		}
	}
}

func TestPartitionBalance(t *testing.T) {
	setCPUs(t, 3)
	chunks, err := Partition(make(GridAxis, 10), 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []Chunk{
		{Index: 0, StartRow: 0, Rows: 4},
		{Index: 1, StartRow: 4, Rows: 3},
		{Index: 2, StartRow: 7, Rows: 3},
	}
	if !reflect.DeepEqual(chunks, want) {
		t.Errorf("%+v != %+v", chunks, want)
	}
}

func TestPartitionEmpty(t *testing.T) {
	if _, err := Partition(nil, 4); err == nil {
		t.Error("partitioning an empty axis should fail")
	}
}

// setCPUs overrides the CPU count workers are capped at.
func setCPUs(t *testing.T, n int) {
	orig := numCPU
	numCPU = func() int { return n }
	t.Cleanup(func() { numCPU = orig })
}

func TestWorkerCount(t *testing.T) {
	setCPUs(t, 4)
	for _, test := range []struct{ requested, rows, want int }{
		{0, 10, 4},
		{-1, 100, 4},
		{2, 10, 2},
		{8, 10, 4},
		{4, 3, 3},
	} {
		if got := WorkerCount(test.requested, test.rows); got != test.want {
			t.Errorf("WorkerCount(%d, %d) = %d; want %d", test.requested, test.rows, got, test.want)
		}
	}
}
