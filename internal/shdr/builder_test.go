// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shdr

import (
	"encoding/binary"
	"testing"

	"github.com/extcore/extcore/internal/auxpayload"
	"github.com/extcore/extcore/internal/diag"
	"github.com/extcore/extcore/internal/elfview"
	"github.com/extcore/extcore/internal/layout"
)

func TestBuildStaticBinarySkipsDynamicSections(t *testing.T) {
	lt := &layout.LayoutTable{
		Static: true,
		Text:   layout.Entry{Vaddr: 0x400000, Offset: 0x1000, Size: 0x2000},
		Data:   layout.Entry{Vaddr: 0x600000, Offset: 0x3000, Size: 0x1000},
		Bss:    layout.Entry{Vaddr: 0x601000, Offset: 0, Size: 0x800},
		Note:   layout.Entry{Offset: 0x200, Size: 0x100},
		EhFrame: layout.Entry{Vaddr: 0x402000, Offset: 0x2000, Size: 0x400},
	}
	aux := auxpayload.Offsets{
		Prstatus: auxpayload.Region{Offset: 0x4000, Size: 352},
	}
	log := &diag.Log{}

	secs, names, textIdx := Build(elfview.Class64, binary.LittleEndian, lt, aux, Extra{}, log)

	if secs[0].Type != elfview.SHT_NULL {
		t.Fatalf("section 0 = %+v, want SHT_NULL", secs[0])
	}
	for _, s := range secs {
		if s.Name == ".interp" || s.Name == ".dynsym" || s.Name == ".dynstr" || s.Name == ".plt" || s.Name == ".dynamic" {
			t.Errorf("static binary should not emit %s", s.Name)
		}
	}
	if secs[textIdx].Name != ".text" || secs[textIdx].Offset != lt.Text.Offset {
		t.Errorf(".text entry = %+v, want offset %#x", secs[textIdx], lt.Text.Offset)
	}
	last := secs[len(secs)-1]
	if last.Name != ".shstrtab" {
		t.Fatalf("last section = %q, want .shstrtab", last.Name)
	}
	if int(secs[len(secs)-3].NameOff) >= len(names) {
		t.Errorf(".symtab NameOff out of range of names buffer")
	}
	if names[0] != 0 {
		t.Errorf("names[0] = %d, want 0 (empty name at index 0)", names[0])
	}
}

func TestBuildClass32RecordSizes(t *testing.T) {
	lt := &layout.LayoutTable{
		Text:    layout.Entry{Vaddr: 0x8048000, Offset: 0x1000, Size: 0x2000},
		Data:    layout.Entry{Vaddr: 0x804a000, Offset: 0x3000, Size: 0x1000},
		Bss:     layout.Entry{Vaddr: 0x804b000, Size: 0x400},
		Note:    layout.Entry{Offset: 0x200, Size: 0x100},
		Dynamic: layout.Entry{Vaddr: 0x804a100, Offset: 0x3100, Size: 0x80},
		Interp:  layout.Entry{Vaddr: 0x8048200, Offset: 0x1200, Size: 0x13},
		Rel:     layout.Entry{Vaddr: 0x8048300, Offset: 0x1300, Size: 0x40},
		Jmprel:  layout.Entry{Vaddr: 0x8048400, Offset: 0x1400, Size: 0x20},
		Dynsym:  layout.Entry{Vaddr: 0x8048500, Offset: 0x1500, Size: 0x60},
		Dynstr:  layout.Entry{Vaddr: 0x8048600, Offset: 0x1600, Size: 0x30},
		PltGot:  layout.Entry{Vaddr: 0x804a200, Offset: 0x3200, Size: 0x18},
	}
	secs, _, _ := Build(elfview.Class32, binary.LittleEndian, lt, auxpayload.Offsets{}, Extra{}, &diag.Log{})

	want := map[string]struct{ entsize, align uint64 }{
		".dynsym":  {16, 4},
		".rel.dyn": {8, 4},
		".rel.plt": {8, 4},
		".dynamic": {8, 4},
		".got.plt": {4, 4},
		".symtab":  {16, 4},
	}
	seen := map[string]bool{}
	for _, s := range secs {
		w, ok := want[s.Name]
		if !ok {
			continue
		}
		seen[s.Name] = true
		if s.Entsize != w.entsize || s.Addralign != w.align {
			t.Errorf("%s: entsize/align = %d/%d, want %d/%d", s.Name, s.Entsize, s.Addralign, w.entsize, w.align)
		}
	}
	for name := range want {
		if !seen[name] {
			t.Errorf("section %s not emitted", name)
		}
	}
}

func TestBuildPltRelaSelectsRelaPlt(t *testing.T) {
	lt := &layout.LayoutTable{
		Text:    layout.Entry{Vaddr: 0x400000, Offset: 0x1000, Size: 0x2000},
		Data:    layout.Entry{Vaddr: 0x600000, Offset: 0x3000, Size: 0x1000},
		Rela:    layout.Entry{Vaddr: 0x400300, Offset: 0x1300, Size: 0x60},
		Jmprel:  layout.Entry{Vaddr: 0x400400, Offset: 0x1400, Size: 0x48},
		PltRela: true,
	}
	secs, _, _ := Build(elfview.Class64, binary.LittleEndian, lt, auxpayload.Offsets{}, Extra{}, &diag.Log{})
	var names []string
	for _, s := range secs {
		names = append(names, s.Name)
	}
	has := func(n string) bool {
		for _, s := range names {
			if s == n {
				return true
			}
		}
		return false
	}
	if !has(".rela.plt") || has(".rel.plt") {
		t.Errorf("sections = %v, want .rela.plt and no .rel.plt", names)
	}
	for _, s := range secs {
		if s.Name == ".rela.plt" && s.Entsize != 24 {
			t.Errorf(".rela.plt entsize = %d, want 24", s.Entsize)
		}
	}
}

func TestAlignUp(t *testing.T) {
	cases := []struct{ v, align, want uint64 }{
		{0, 16, 0},
		{1, 16, 16},
		{16, 16, 16},
		{17, 16, 32},
		{5, 0, 5},
	}
	for _, c := range cases {
		if got := alignUp(c.v, c.align); got != c.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", c.v, c.align, got, c.want)
		}
	}
}
