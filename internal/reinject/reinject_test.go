// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reinject

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/extcore/extcore/internal/elfview"
)

// buildCore assembles a minimal 64-bit core image: ELF header, the
// given program headers, and segment bytes at their stated offsets.
func buildCore(t *testing.T, phdrs []elfview.Phdr, size int) ([]byte, *elfview.Ehdr) {
	t.Helper()
	h := elfview.Ehdr{
		Class: elfview.Class64, Data: elfview.DataLittle,
		Type: elfview.ET_CORE, Machine: 0x3e, Version: 1,
		Phoff:     uint64(elfview.Class64.EhdrSize()),
		Ehsize:    uint16(elfview.Class64.EhdrSize()),
		Phentsize: uint16(elfview.Class64.PhdrSize()),
		Phnum:     uint16(len(phdrs)),
	}
	data := make([]byte, size)
	copy(data, elfview.EncodeEhdr(h))
	for i, p := range phdrs {
		off := h.Phoff + uint64(i)*uint64(h.Phentsize)
		copy(data[off:], elfview.EncodePhdr(elfview.Class64, binary.LittleEndian, p))
	}
	parsed, err := elfview.ParseEhdr(data)
	if err != nil {
		t.Fatal(err)
	}
	return data, parsed
}

func TestReinjectGrowsTextAndShiftsOffsets(t *testing.T) {
	phdrs := []elfview.Phdr{
		{Type: elfview.PT_NOTE, Offset: 0x400, Filesz: 0x100},
		{Type: elfview.PT_LOAD, Offset: 0x1000, Vaddr: 0x400000, Filesz: StubSize, Memsz: 0x2000, Flags: elfview.PF_R | elfview.PF_X},
		{Type: elfview.PT_LOAD, Offset: 0x2000, Vaddr: 0x600000, Filesz: 0x1000, Memsz: 0x1000, Flags: elfview.PF_R | elfview.PF_W},
	}
	data, h := buildCore(t, phdrs, 0x3000)
	for i := 0x1000; i < 0x2000; i++ {
		data[i] = 0xAA // the kernel's one-page stub
	}
	for i := 0x2000; i < 0x3000; i++ {
		data[i] = 0xBB // data segment contents
	}

	path := filepath.Join(t.TempDir(), "core")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	newText := bytes.Repeat([]byte{0xCC}, 0x2000)
	res, err := Reinject(path, data, h, phdrs, 0x400000, newText)
	if err != nil {
		t.Fatal(err)
	}
	if res.Delta != 0x1000 {
		t.Errorf("Delta = %#x, want 0x1000", res.Delta)
	}

	out, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0x4000 {
		t.Fatalf("output size = %#x, want 0x4000", len(out))
	}
	oh, err := elfview.ParseEhdr(out)
	if err != nil {
		t.Fatal(err)
	}
	ophdrs, err := elfview.ParsePhdrs(out, oh)
	if err != nil {
		t.Fatal(err)
	}

	text := ophdrs[1]
	if text.Filesz != text.Memsz {
		t.Errorf("text p_filesz = %#x, want p_memsz %#x", text.Filesz, text.Memsz)
	}
	if got := ophdrs[2].Offset; got != 0x3000 {
		t.Errorf("data p_offset = %#x, want original + delta = 0x3000", got)
	}
	if ophdrs[0].Offset != 0x400 {
		t.Errorf("PT_NOTE offset changed to %#x; only PT_LOADs shift", ophdrs[0].Offset)
	}
	if !bytes.Equal(out[0x1000:0x3000], newText) {
		t.Error("text region does not hold the injected image")
	}
	for i := 0x3000; i < 0x4000; i++ {
		if out[i] != 0xBB {
			t.Fatalf("data byte at %#x = %#x, want 0xBB", i, out[i])
		}
	}
}

func TestReinjectTextLastLoadIsFatal(t *testing.T) {
	phdrs := []elfview.Phdr{
		{Type: elfview.PT_NOTE, Offset: 0x400, Filesz: 0x100},
		{Type: elfview.PT_LOAD, Offset: 0x1000, Vaddr: 0x400000, Filesz: StubSize, Memsz: 0x2000},
	}
	data, h := buildCore(t, phdrs, 0x2000)
	path := filepath.Join(t.TempDir(), "core")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Reinject(path, data, h, phdrs, 0x400000, make([]byte, 0x2000)); err == nil {
		t.Fatal("expected error when the text PT_LOAD is the final PT_LOAD")
	}
}

func TestReinjectUnknownVaddr(t *testing.T) {
	phdrs := []elfview.Phdr{
		{Type: elfview.PT_LOAD, Offset: 0x1000, Vaddr: 0x400000, Filesz: StubSize, Memsz: 0x1000},
	}
	data, h := buildCore(t, phdrs, 0x2000)
	if _, err := Reinject("unused", data, h, phdrs, 0xdead0000, nil); err == nil {
		t.Fatal("expected error for an address outside every PT_LOAD")
	}
}

func TestCreateTempIncrementsSuffix(t *testing.T) {
	dir := t.TempDir()
	core := filepath.Join(dir, "core")
	if err := os.WriteFile(core+".tmp", nil, 0644); err != nil {
		t.Fatal(err)
	}
	name, f, err := createTemp(core)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if name != core+".tmp.1" {
		t.Errorf("temp name = %q, want suffix-incremented %q", name, core+".tmp.1")
	}
}
