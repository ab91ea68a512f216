// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package symbols

import (
	"encoding/binary"
	"testing"

	"github.com/extcore/extcore/internal/ehframe"
	"github.com/extcore/extcore/internal/elfview"
)

func TestFromFuncRangesNamesAndSkipsEmpty(t *testing.T) {
	ranges := []ehframe.FuncRange{
		{Addr: 0x401000, Size: 0x20},
		{Addr: 0x401100, Size: 0}, // must be dropped
	}
	syms := FromFuncRanges(ranges)
	if len(syms) != 1 {
		t.Fatalf("got %d symbols, want 1", len(syms))
	}
	if syms[0].Name != "sub_401000" {
		t.Errorf("name = %q, want sub_401000", syms[0].Name)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	syms := []Symbol{{Name: "sub_1000", Addr: 0x1000, Size: 0x10}, {Name: "sub_2000", Addr: 0x2000, Size: 0x8}}
	symtab, strtab := Encode(elfview.Class64, binary.LittleEndian, syms, 5)

	wantEntries := len(syms) + 1
	if got := len(symtab) / elfview.Class64.SymSize(); got != wantEntries {
		t.Fatalf("symtab has %d entries, want %d", got, wantEntries)
	}
	if strtab[0] != 0 {
		t.Errorf("strtab[0] = %d, want 0", strtab[0])
	}

	second := symtab[elfview.Class64.SymSize() : 2*elfview.Class64.SymSize()]
	nameOff := binary.LittleEndian.Uint32(second[0:4])
	if nameOff == 0 {
		t.Fatalf("first real symbol has NameOff 0 (collides with empty name)")
	}
	end := nameOff
	for end < uint32(len(strtab)) && strtab[end] != 0 {
		end++
	}
	if got := string(strtab[nameOff:end]); got != "sub_1000" {
		t.Errorf("first symbol name = %q, want sub_1000", got)
	}
}

func TestGotPltSize(t *testing.T) {
	if got := GotPltSize(elfview.Class64, 5); got != 64 {
		t.Errorf("GotPltSize(64, 5) = %d, want 64", got)
	}
	if got := GotPltSize(elfview.Class32, 5); got != 32 {
		t.Errorf("GotPltSize(32, 5) = %d, want 32", got)
	}
}
