// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package shdr synthesizes the section header table and its string
// table from the layout resolver's and auxiliary payload writer's
// outputs, then rewrites the ELF header's section-table fields and
// file type.
package shdr

import (
	"encoding/binary"
	"fmt"

	"github.com/extcore/extcore/internal/auxpayload"
	"github.com/extcore/extcore/internal/diag"
	"github.com/extcore/extcore/internal/elfview"
	"github.com/extcore/extcore/internal/layout"
)

// sentinelSize is the fallback size written for an optional section
// whose true size can't be recovered (the original executable is
// stripped).
const sentinelSize = 64

// Extra carries the handful of LayoutTable-adjacent values the
// section synthesizer needs but that don't belong in LayoutTable
// itself: the live process's heap/stack/vdso/vsyscall regions and the
// original entry point. Each library's injection verdict travels on
// its own LibraryRecord.Injected; this package only consumes the
// boolean, never computes it.
type Extra struct {
	EntryPoint uint64
	Heap       layout.Entry
	Stack      layout.Entry
	Vdso       layout.Entry
	Vsyscall   layout.Entry
}

// Builder accumulates section header records and their name-string
// bytes in the fixed emission order.
type Builder struct {
	class   elfview.Class
	order   binary.ByteOrder
	static  bool
	log     *diag.Log
	names   []byte
	secs    []elfview.Shdr
	textIdx int
}

func newBuilder(class elfview.Class, order binary.ByteOrder, static bool, log *diag.Log) *Builder {
	b := &Builder{class: class, order: order, static: static, log: log}
	b.names = []byte{0} // index 0 is the empty name, per ELF convention
	return b
}

func (b *Builder) add(name string, typ uint32, flags uint64, addr, offset, size uint64, link, info uint32, align, entsize uint64) int {
	nameOff := uint32(len(b.names))
	b.names = append(b.names, []byte(name)...)
	b.names = append(b.names, 0)
	b.secs = append(b.secs, elfview.Shdr{
		Name: name, NameOff: nameOff, Type: typ, Flags: flags,
		Addr: addr, Offset: offset, Size: size,
		Link: link, Info: info, Addralign: align, Entsize: entsize,
	})
	return len(b.secs) - 1
}

// sized returns e.Size if nonzero, else the sentinel fallback,
// recording a warning so the STRIPPED_SHDRS personality bit's
// rationale is visible in the diagnostic log.
func (b *Builder) sized(name string, e layout.Entry) uint64 {
	if e.Size != 0 {
		return e.Size
	}
	b.log.Warnf("shdr: %s size unknown (stripped executable?), using sentinel", name)
	return sentinelSize
}

// Build emits the section header table for lt in its fixed order,
// skipping dynamic-linked-only sections when lt.Static. It returns
// the section records (with resolved Name but not yet bound to a
// numeric index, which is implicit in slice order), the accumulated
// .shstrtab bytes, and the index of .text for the symbol
// reconstructor.
func Build(class elfview.Class, order binary.ByteOrder, lt *layout.LayoutTable, aux auxpayload.Offsets, ex Extra, log *diag.Log) ([]elfview.Shdr, []byte, int) {
	b := newBuilder(class, order, lt.Static, log)

	b.add("", elfview.SHT_NULL, 0, 0, 0, 0, 0, 0, 0, 0) // index 0: NULL

	if !lt.Static {
		b.add(".interp", elfview.SHT_PROGBITS, elfview.SHF_ALLOC, lt.Interp.Vaddr, lt.Interp.Offset, lt.Interp.Size, 0, 0, 1, 0)
	}

	b.add(".note", elfview.SHT_NOTE, elfview.SHF_ALLOC, 0, lt.Note.Offset, lt.Note.Size, 0, 0, 4, 0)

	ptr := uint64(class.PtrSize())

	var dynsymIdx, dynstrIdx int
	if !lt.Static {
		b.add(".hash", elfview.SHT_GNU_HASH, elfview.SHF_ALLOC, lt.GnuHash.Vaddr, lt.GnuHash.Offset, b.sized(".hash", lt.GnuHash), 0, 0, ptr, 0)
		dynsymIdx = b.add(".dynsym", elfview.SHT_DYNSYM, elfview.SHF_ALLOC, lt.Dynsym.Vaddr, lt.Dynsym.Offset, b.sized(".dynsym", lt.Dynsym), 0, 0, ptr, uint64(class.SymSize()))
		dynstrIdx = b.add(".dynstr", elfview.SHT_STRTAB, elfview.SHF_ALLOC, lt.Dynstr.Vaddr, lt.Dynstr.Offset, b.sized(".dynstr", lt.Dynstr), 0, 0, 1, 0)
		b.secs[dynsymIdx].Link = uint32(dynstrIdx)

		if lt.Rela.Size != 0 || lt.Rela.Vaddr != 0 {
			b.add(".rela.dyn", elfview.SHT_RELA, elfview.SHF_ALLOC, lt.Rela.Vaddr, lt.Rela.Offset, lt.Rela.Size, uint32(dynsymIdx), 0, ptr, uint64(class.RelaSize()))
		} else {
			b.add(".rel.dyn", elfview.SHT_REL, elfview.SHF_ALLOC, lt.Rel.Vaddr, lt.Rel.Offset, lt.Rel.Size, uint32(dynsymIdx), 0, ptr, uint64(class.RelSize()))
		}
		if lt.PltRela {
			b.add(".rela.plt", elfview.SHT_RELA, elfview.SHF_ALLOC, lt.Jmprel.Vaddr, lt.Jmprel.Offset, lt.Jmprel.Size, uint32(dynsymIdx), 0, ptr, uint64(class.RelaSize()))
		} else {
			b.add(".rel.plt", elfview.SHT_REL, elfview.SHF_ALLOC, lt.Jmprel.Vaddr, lt.Jmprel.Offset, lt.Jmprel.Size, uint32(dynsymIdx), 0, ptr, uint64(class.RelSize()))
		}

		b.add(".init", elfview.SHT_PROGBITS, elfview.SHF_ALLOC|elfview.SHF_EXECINSTR, lt.Init.Vaddr, lt.Init.Offset, b.sized(".init", lt.Init), 0, 0, 4, 0)

		// .plt sits right after .init, 16-byte aligned, mirroring the
		// alignment the linker used in the original file.
		pltOff := alignUp(lt.Init.Offset+b.sized(".init", lt.Init), 16)
		pltAddr := lt.Init.Vaddr + (pltOff - lt.Init.Offset)
		b.add(".plt", elfview.SHT_PROGBITS, elfview.SHF_ALLOC|elfview.SHF_EXECINSTR, pltAddr, pltOff, b.sized(".plt", lt.Plt), 0, 0, 16, 16)
	}

	b.textIdx = b.add(".text", elfview.SHT_PROGBITS, elfview.SHF_ALLOC|elfview.SHF_EXECINSTR, lt.Text.Vaddr, lt.Text.Offset, lt.Text.Size, 0, 0, 16, 0)

	if !lt.Static {
		b.add(".fini", elfview.SHT_PROGBITS, elfview.SHF_ALLOC|elfview.SHF_EXECINSTR, lt.Fini.Vaddr, lt.Fini.Offset, b.sized(".fini", lt.Fini), 0, 0, 4, 0)
		if !lt.EhFrameSideChannel {
			b.add(".eh_frame_hdr", elfview.SHT_PROGBITS, elfview.SHF_ALLOC, lt.EhFrameHdr.Vaddr, lt.EhFrameHdr.Offset, b.sized(".eh_frame_hdr", lt.EhFrameHdr), 0, 0, 4, 0)
		}
	}

	ehOff := lt.EhFrame.Offset
	ehAddr := lt.EhFrame.Vaddr
	ehSize := lt.EhFrame.Size
	// A .eh_frame image may carry four leading zero bytes that must
	// be skipped. The builder only sees layout metadata, not file
	// bytes, so the pipeline detects that case and adjusts lt.EhFrame
	// before calling Build; see internal/pipeline's
	// skipEhFrameLeadZeroes.
	b.add(".eh_frame", elfview.SHT_PROGBITS, elfview.SHF_ALLOC, ehAddr, ehOff, ehSize, 0, 0, 8, 0)

	if !lt.Static {
		b.add(".dynamic", elfview.SHT_DYNAMIC, elfview.SHF_ALLOC|elfview.SHF_WRITE, lt.Dynamic.Vaddr, lt.Dynamic.Offset, lt.Dynamic.Size, uint32(dynstrIdx), 0, ptr, uint64(class.DynSize()))
		b.add(".got.plt", elfview.SHT_PROGBITS, elfview.SHF_ALLOC|elfview.SHF_WRITE, lt.PltGot.Vaddr, lt.PltGot.Offset, b.sized(".got.plt", lt.PltGot), 0, 0, ptr, ptr)
	}

	b.add(".data", elfview.SHT_PROGBITS, elfview.SHF_ALLOC|elfview.SHF_WRITE, lt.Data.Vaddr, lt.Data.Offset, lt.Data.Size, 0, 0, 8, 0)
	b.add(".bss", elfview.SHT_NOBITS, elfview.SHF_ALLOC|elfview.SHF_WRITE, lt.Bss.Vaddr, lt.Bss.Offset, lt.Bss.Size, 0, 0, 8, 0)
	if ex.Heap.Size > 0 {
		b.add(".heap", elfview.SHT_PROGBITS, elfview.SHF_ALLOC|elfview.SHF_WRITE, ex.Heap.Vaddr, ex.Heap.Offset, ex.Heap.Size, 0, 0, 8, 0)
	}

	dataSeq := make(map[string]int)
	for _, lib := range lt.Libraries {
		addLibrarySections(b, lib, dataSeq)
	}

	b.add(".prstatus", elfview.SHT_PROGBITS, 0, 0, aux.Prstatus.Offset, aux.Prstatus.Size, 0, 0, 1, 0)
	b.add(".fdinfo", elfview.SHT_PROGBITS, 0, 0, aux.Fdinfo.Offset, aux.Fdinfo.Size, 0, 0, 1, 0)
	b.add(".siginfo", elfview.SHT_PROGBITS, 0, 0, aux.Siginfo.Offset, aux.Siginfo.Size, 0, 0, 1, 0)
	b.add(".auxvector", elfview.SHT_PROGBITS, 0, 0, aux.Auxv.Offset, aux.Auxv.Size, 0, 0, 1, 0)
	b.add(".exepath", elfview.SHT_PROGBITS, 0, 0, aux.Exepath.Offset, aux.Exepath.Size, 0, 0, 1, 0)
	b.add(".personality", elfview.SHT_PROGBITS, 0, 0, aux.Personality.Offset, aux.Personality.Size, 0, 0, 1, 0)
	b.add(".arglist", elfview.SHT_PROGBITS, 0, 0, aux.Arglist.Offset, aux.Arglist.Size, 0, 0, 1, 0)

	if ex.Stack.Size > 0 {
		b.add(".stack", elfview.SHT_PROGBITS, elfview.SHF_ALLOC|elfview.SHF_WRITE, ex.Stack.Vaddr, ex.Stack.Offset, ex.Stack.Size, 0, 0, 8, 0)
	}
	if ex.Vdso.Size > 0 {
		b.add(".vdso", elfview.SHT_PROGBITS, elfview.SHF_ALLOC|elfview.SHF_EXECINSTR, ex.Vdso.Vaddr, ex.Vdso.Offset, ex.Vdso.Size, 0, 0, 8, 0)
	}
	if ex.Vsyscall.Size > 0 {
		b.add(".vsyscall", elfview.SHT_PROGBITS, elfview.SHF_ALLOC|elfview.SHF_EXECINSTR, ex.Vsyscall.Vaddr, ex.Vsyscall.Offset, ex.Vsyscall.Size, 0, 0, 8, 0)
	}

	symtabIdx := b.add(".symtab", elfview.SHT_SYMTAB, 0, 0, 0, 0, 0, 0, ptr, uint64(class.SymSize()))
	strtabIdx := b.add(".strtab", elfview.SHT_STRTAB, 0, 0, 0, 0, 0, 0, 1, 0)
	b.secs[symtabIdx].Link = uint32(strtabIdx)

	// .shstrtab itself: its size/offset are only known once the
	// names are complete and the table's file position is fixed, so
	// Write patches this entry when it puts the table on disk.
	b.add(".shstrtab", elfview.SHT_STRTAB, 0, 0, 0, 0, 0, 0, 1, 0)

	return b.secs, b.names, b.textIdx
}

// addLibrarySections emits one section per shared-object mapping: an
// executable mapping becomes <lib>.text, a writable one <lib>.data.N
// (N counting that library's data mappings in order), a read-only one
// <lib>.relro, and a mapping with no permissions <lib>.undef.
func addLibrarySections(b *Builder, lib layout.LibraryRecord, dataSeq map[string]int) {
	typ := elfview.SHT_SHLIB
	if lib.Injected {
		typ = elfview.SHT_INJECTED
	}
	r, w, x := lib.Perm&1 != 0, lib.Perm&2 != 0, lib.Perm&4 != 0
	switch {
	case x:
		b.add(lib.Name+".text", typ, elfview.SHF_ALLOC|elfview.SHF_EXECINSTR, lib.Base, lib.FileOff, lib.Size, 0, 0, 16, 0)
	case w:
		n := dataSeq[lib.Name]
		dataSeq[lib.Name] = n + 1
		b.add(fmt.Sprintf("%s.data.%d", lib.Name, n), typ, elfview.SHF_ALLOC|elfview.SHF_WRITE, lib.Base, lib.FileOff, lib.Size, 0, 0, 8, 0)
	case r:
		b.add(lib.Name+".relro", typ, elfview.SHF_ALLOC, lib.Base, lib.FileOff, lib.Size, 0, 0, 8, 0)
	default:
		b.add(lib.Name+".undef", typ, 0, lib.Base, lib.FileOff, lib.Size, 0, 0, 1, 0)
	}
}

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}
