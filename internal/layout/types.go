// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

// Entry is one (vaddr, offset, size) triple, the unit the
// LayoutTable is built from.
type Entry struct {
	Vaddr  uint64
	Offset uint64
	Size   uint64
}

func (e Entry) valid() bool { return e.Size > 0 }

// LibraryRecord describes one file-backed shared-object mapping.
type LibraryRecord struct {
	Path     string
	Name     string // basename
	Base     uint64
	Size     uint64
	Perm     uint8 // procfs.Perm bits, duplicated here to avoid an import cycle
	FileOff  uint64
	Injected bool
}

// LayoutTable is the full set of addresses and offsets the resolver
// computes for the section synthesizer and symbol reconstructor.
type LayoutTable struct {
	PIE       bool
	RelocBase uint64
	Static    bool // true iff the executable has no PT_INTERP

	Text       Entry
	Data       Entry
	Bss        Entry
	Dynamic    Entry
	Interp     Entry
	EhFrameHdr Entry
	EhFrame    Entry
	Note       Entry

	// Dynamic-tag-derived entries; zero Entry means "tag not present".
	Rel      Entry
	Rela     Entry
	Jmprel   Entry
	PltGot   Entry
	GnuHash  Entry
	Init     Entry
	Fini     Entry
	Dynsym   Entry
	Dynstr   Entry
	Plt      Entry
	StrSize  uint64
	PltRelSz uint64

	// PltRela is true when DT_PLTREL says the PLT relocations carry
	// explicit addends (Rela records rather than Rel).
	PltRela bool

	// EhFrameSideChannel is true when eh_frame's address came from the
	// executable's own section headers rather than its program
	// headers (statically linked binaries have no PT_GNU_EH_FRAME).
	EhFrameSideChannel bool

	Libraries []LibraryRecord
}
