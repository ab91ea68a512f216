// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package notes

import "encoding/binary"

// AtSysinfoEhdr is the auxiliary-vector entry type whose value is the
// base address of the kernel's vdso mapping.
const AtSysinfoEhdr = 33

// AuxvValue scans the raw auxiliary-vector bytes for the first entry
// of the given type. The vector is a flat array of (type, value)
// pointer-sized pairs terminated by an AT_NULL entry.
func AuxvValue(auxv []byte, ptrSize int, order binary.ByteOrder, typ uint64) (uint64, bool) {
	word := func(b []byte) uint64 {
		if ptrSize == 8 {
			return order.Uint64(b)
		}
		return uint64(order.Uint32(b))
	}
	pair := 2 * ptrSize
	for off := 0; off+pair <= len(auxv); off += pair {
		t := word(auxv[off:])
		if t == 0 { // AT_NULL
			break
		}
		if t == typ {
			return word(auxv[off+ptrSize:]), true
		}
	}
	return 0, false
}
