// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"testing"

	"github.com/extcore/extcore/internal/elfview"
)

func TestSegmentOffsetOf(t *testing.T) {
	s := Segment{VAddr: 0x400000, Offset: 0, Size: 0x1000}
	if !s.Contains(0x400500) {
		t.Fatal("expected 0x400500 to be contained")
	}
	if got, want := s.OffsetOf(0x400500), uint64(0x500); got != want {
		t.Errorf("OffsetOf = %#x, want %#x", got, want)
	}
	if s.Contains(0x401000) {
		t.Error("0x401000 should be outside the segment (exclusive end)")
	}
}

func TestFindTextData(t *testing.T) {
	phdrs := []elfview.Phdr{
		{Type: elfview.PT_LOAD, Offset: 0, Vaddr: 0x400000, Filesz: 0x1000, Memsz: 0x1000},
		{Type: elfview.PT_LOAD, Offset: 0x2000, Vaddr: 0x403000, Filesz: 0x200, Memsz: 0x400},
		{Type: elfview.PT_DYNAMIC, Offset: 0x2100, Vaddr: 0x403100, Filesz: 0x80, Memsz: 0x80},
	}
	text, data, ok := findTextData(phdrs)
	if !ok {
		t.Fatal("expected ok")
	}
	if text.Offset != 0 || text.Vaddr != 0x400000 {
		t.Errorf("text = %+v, want offset 0 vaddr 0x400000", text)
	}
	if data.Offset != 0x2000 || data.Vaddr != 0x403000 {
		t.Errorf("data = %+v, want offset 0x2000 vaddr 0x403000", data)
	}
}
