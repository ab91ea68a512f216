// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elfview

import "encoding/binary"

// DynTag is the closed set of DT_* dynamic-section tags this package
// understands, mirroring debug/elf's elf.DynTag but trimmed to the
// tags the layout resolver needs.
type DynTag int64

const (
	DT_NULL     DynTag = 0
	DT_NEEDED   DynTag = 1
	DT_PLTRELSZ DynTag = 2
	DT_PLTGOT   DynTag = 3
	DT_HASH     DynTag = 4
	DT_STRTAB   DynTag = 5
	DT_SYMTAB   DynTag = 6
	DT_RELA     DynTag = 7
	DT_RELASZ   DynTag = 8
	DT_STRSZ    DynTag = 10
	DT_INIT     DynTag = 12
	DT_FINI     DynTag = 13
	DT_REL      DynTag = 17
	DT_RELSZ    DynTag = 18
	DT_PLTREL   DynTag = 20
	DT_JMPREL   DynTag = 23
	DT_GNU_HASH DynTag = 0x6ffffef5
)

// DynEntry is one (tag, value) pair from PT_DYNAMIC.
type DynEntry struct {
	Tag DynTag
	Val uint64
}

// ParseDynamic decodes the dynamic array backing a PT_DYNAMIC segment.
// data must be exactly the segment's bytes (Filesz long).
func ParseDynamic(data []byte, class Class, order binary.ByteOrder) []DynEntry {
	entSize := class.DynSize()
	var out []DynEntry
	for off := 0; off+entSize <= len(data); off += entSize {
		var tag int64
		var val uint64
		if class == Class64 {
			tag = int64(order.Uint64(data[off : off+8]))
			val = order.Uint64(data[off+8 : off+16])
		} else {
			tag = int64(int32(order.Uint32(data[off : off+4])))
			val = uint64(order.Uint32(data[off+4 : off+8]))
		}
		if DynTag(tag) == DT_NULL {
			break
		}
		out = append(out, DynEntry{Tag: DynTag(tag), Val: val})
	}
	return out
}

// Lookup returns the value of the first entry with the given tag.
func Lookup(entries []DynEntry, tag DynTag) (uint64, bool) {
	for _, e := range entries {
		if e.Tag == tag {
			return e.Val, true
		}
	}
	return 0, false
}
