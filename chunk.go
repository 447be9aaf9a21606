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
	"runtime"
)

// numCPU is the number of CPUs workers may use.
var numCPU = runtime.NumCPU

// A Chunk is a contiguous band of latitude rows assigned to one worker.
type Chunk struct {
	// Index is the position of the chunk in the partition.
	Index int

	// StartRow is the first latitude row covered by the chunk. It is
	// equal to the sum of the row counts of all preceding chunks.
	StartRow int

	// Rows is the number of latitude rows in the chunk.
	Rows int
}

// EndRow returns one past the last row covered by c.
func (c Chunk) EndRow() int { return c.StartRow + c.Rows }

func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d [%d, %d)", c.Index, c.StartRow, c.EndRow())
}

// WorkerCount returns the number of workers that will be used for
// an axis of length n when requested workers are asked for.
// requested <= 0 means one worker per CPU.
func WorkerCount(requested, n int) int {
	k := numCPU()
	if requested > 0 && requested < k {
		k = requested
	}
	if n < k {
		k = n
	}
	return k
}

// Partition splits the latitude axis into balanced contiguous chunks,
// one per worker. When the axis length is not divisible by the worker
// count the leading chunks receive one extra row.
func Partition(lat GridAxis, requested int) ([]Chunk, error) {
	k := WorkerCount(requested, len(lat))
	if k <= 0 {
		return nil, fmt.Errorf("hilal: cannot partition a latitude axis of length %d", len(lat))
	}
	base, extra := len(lat)/k, len(lat)%k
	chunks := make([]Chunk, k)
	start := 0
	for i := range chunks {
		rows := base
		if i < extra {
			rows++
		}
		chunks[i] = Chunk{Index: i, StartRow: start, Rows: rows}
		start += rows
	}
	return chunks, nil
}

// Serial reports whether the partition should run in-process rather
// than in isolated worker processes.
func Serial(chunks []Chunk) bool { return len(chunks) == 1 }

// Lats returns the latitude values covered by c.
func (c Chunk) Lats(lat GridAxis) GridAxis {
	return lat[c.StartRow:c.EndRow()]
}

// SplitAxis returns the latitude values of each chunk. Concatenating
// the results in order reproduces lat.
func SplitAxis(lat GridAxis, chunks []Chunk) []GridAxis {
	o := make([]GridAxis, len(chunks))
	for i, c := range chunks {
		o[i] = c.Lats(lat)
	}
	return o
}
