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

// Package hash creates stable keys for cached map runs.
package hash

import (
	"encoding/gob"
	"fmt"
	"hash"
	"hash/fnv"
	"reflect"

	"github.com/davecgh/go-spew/spew"
)

// Key returns a hex hash key for the given parts. Equal parts always
// give equal keys, in this process or any other.
func Key(parts ...interface{}) string {
	h := fnv.New128a()
	e := gob.NewEncoder(h)
	for _, p := range parts {
		if isNilPointer(p) {
			// gob panics on nil pointers.
			return spewKey(parts)
		}
		if err := e.Encode(p); err != nil {
			return spewKey(parts)
		}
	}
	return sum(h)
}

func isNilPointer(p interface{}) bool {
	v := reflect.ValueOf(p)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

func spewKey(parts []interface{}) string {
	h := fnv.New128a()
	printer := spew.ConfigState{
		Indent:                  " ",
		SortKeys:                true,
		DisableMethods:          true,
		SpewKeys:                true,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
	}
	for _, p := range parts {
		printer.Fprintf(h, "%#v\n", p)
	}
	return sum(h)
}

func sum(h hash.Hash) string {
	b := h.Sum(nil)
	return fmt.Sprintf("%x", b[:h.Size()])
}
