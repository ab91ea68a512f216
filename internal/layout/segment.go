// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package layout computes the LayoutTable: virtual addresses and
// file offsets for text, data, bss, dynamic, interp, eh_frame,
// GOT/PLT, hash, init/fini, and each shared library, joining the
// on-disk executable, the core's program headers, the NT_FILE table
// and the live memory map.
package layout

import "github.com/extcore/extcore/internal/elfview"

// Segment encapsulates the segment_file_offset + (vaddr -
// segment_vaddr) arithmetic; every address-to-offset translation in
// this package flows through a Segment value.
type Segment struct {
	VAddr  uint64
	Offset uint64
	Size   uint64
}

// Contains reports whether addr falls within the segment's virtual
// address range.
func (s Segment) Contains(addr uint64) bool {
	return s.Size > 0 && addr >= s.VAddr && addr < s.VAddr+s.Size
}

// OffsetOf translates a virtual address known to be inside the
// segment into a file offset.
func (s Segment) OffsetOf(addr uint64) uint64 {
	return s.Offset + (addr - s.VAddr)
}

// CoreOffsetOf resolves a live virtual address against the core
// file's own PT_LOAD table, used by the pipeline for regions that
// LayoutTable doesn't model directly (heap, stack, vdso, vsyscall).
func CoreOffsetOf(corePhdrs []elfview.Phdr, vaddr uint64) (uint64, bool) {
	for _, p := range corePhdrs {
		if p.Type != elfview.PT_LOAD {
			continue
		}
		seg := Segment{VAddr: p.Vaddr, Offset: p.Offset, Size: p.Filesz}
		if seg.Contains(vaddr) {
			return seg.OffsetOf(vaddr), true
		}
	}
	return 0, false
}
