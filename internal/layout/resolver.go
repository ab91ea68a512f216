// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/extcore/extcore/internal/diag"
	"github.com/extcore/extcore/internal/elfview"
	"github.com/extcore/extcore/internal/notes"
	"github.com/extcore/extcore/internal/procfs"
)

// Input bundles everything the resolver needs: the on-disk
// executable's bytes and parsed headers, the core's parsed headers,
// the decoded NT_FILE table, and the live process's memory map.
type Input struct {
	ExeData  []byte
	ExeEhdr  *elfview.Ehdr
	ExePhdrs []elfview.Phdr

	CoreEhdr  *elfview.Ehdr
	CorePhdrs []elfview.Phdr
	NoteOff   uint64
	NoteSize  uint64

	NtFile []notes.NtFileEntry
	Maps   *procfs.MemoryMap

	ExeBasename string
}

// Resolve computes the LayoutTable. A missing dynamic segment on a
// dynamically linked binary is fatal; most other gaps degrade to
// zero-sized entries the synthesizer can fall back on.
func Resolve(in Input, log *diag.Log) (*LayoutTable, error) {
	lt := &LayoutTable{}

	textPhdr, dataPhdr, ok := findTextData(in.ExePhdrs)
	if !ok {
		return nil, fmt.Errorf("layout: executable has no PT_LOAD segments")
	}
	lt.PIE = textPhdr.Vaddr == 0

	var base uint64
	if lt.PIE {
		entry, ok := notes.LookupByBasename(in.NtFile, in.ExeBasename)
		if !ok {
			return nil, fmt.Errorf("layout: PIE executable %q not found in NT_FILE table", in.ExeBasename)
		}
		base = entry.Start
	}
	lt.RelocBase = base

	lt.Text = Entry{Vaddr: textPhdr.Vaddr + base, Size: textPhdr.Memsz}
	dataVaddr := dataPhdr.Vaddr + base
	lt.Data = Entry{Vaddr: dataVaddr, Size: dataPhdr.Filesz}
	bssSize := dataPhdr.Memsz - dataPhdr.Filesz
	lt.Bss = Entry{Vaddr: dataVaddr + dataPhdr.Filesz, Size: bssSize}

	var dynPhdr, interpPhdr, ehPhdr *elfview.Phdr
	for i := range in.ExePhdrs {
		p := &in.ExePhdrs[i]
		switch p.Type {
		case elfview.PT_DYNAMIC:
			dynPhdr = p
		case elfview.PT_INTERP:
			interpPhdr = p
		case elfview.PT_GNU_EH_FRAME:
			ehPhdr = p
		}
	}
	lt.Static = interpPhdr == nil

	if dynPhdr != nil {
		lt.Dynamic = Entry{Vaddr: dynPhdr.Vaddr + base, Size: dynPhdr.Memsz}
	} else if !lt.Static {
		return nil, fmt.Errorf("layout: dynamically linked executable has no PT_DYNAMIC segment")
	}
	if interpPhdr != nil {
		lt.Interp = Entry{Vaddr: interpPhdr.Vaddr + base, Size: interpPhdr.Memsz}
	}
	if ehPhdr != nil {
		lt.EhFrameHdr = Entry{Vaddr: ehPhdr.Vaddr + base, Size: ehPhdr.Memsz}
		lt.EhFrame = Entry{Vaddr: ehPhdr.Vaddr + base, Size: ehPhdr.Memsz}
		// PT_GNU_EH_FRAME only locates the header; the unwind table
		// proper is found through the executable's own section headers
		// below, when it still has them.
		if addr, size, ok := sideChannelSection(in.ExeData, in.ExeEhdr, ".eh_frame"); ok {
			lt.EhFrame = Entry{Vaddr: addr + base, Size: size}
		}
	} else {
		// Statically linked: no PT_GNU_EH_FRAME, so the unwind table's
		// address is only recoverable from the executable's own section
		// headers, if it still has any.
		if addr, size, ok := sideChannelSection(in.ExeData, in.ExeEhdr, ".eh_frame"); ok {
			lt.EhFrame = Entry{Vaddr: addr + base, Size: size}
			lt.EhFrameSideChannel = true
		} else {
			log.Warnf("layout: no eh_frame recoverable for static binary; omitting section")
		}
	}

	// Cross-reference the core's own PT_LOADs to fill in file offsets.
	coreSegs := coreLoadSegments(in.CorePhdrs)
	resolveOffset := func(e *Entry) {
		if e.Size == 0 {
			return
		}
		for _, seg := range coreSegs {
			if seg.Contains(e.Vaddr) {
				e.Offset = seg.OffsetOf(e.Vaddr)
				return
			}
		}
		log.Warnf("layout: address %#x not covered by any core PT_LOAD", e.Vaddr)
	}
	resolveOffset(&lt.Text)
	resolveOffset(&lt.Data)
	resolveOffset(&lt.Bss)
	resolveOffset(&lt.Dynamic)
	resolveOffset(&lt.Interp)
	resolveOffset(&lt.EhFrameHdr)
	resolveOffset(&lt.EhFrame)
	lt.Note = Entry{Offset: in.NoteOff, Size: in.NoteSize}

	if dynPhdr != nil {
		if err := resolveDynamicTags(lt, in, *dynPhdr, coreSegs, log); err != nil {
			return nil, err
		}
	}

	fillFromExeShdrs(lt, in, resolveOffset)

	lt.Libraries = collectLibraries(in.Maps, in.NtFile)

	return lt, nil
}

// fillFromExeShdrs recovers the sizes that neither program headers nor
// dynamic tags carry (hash, init, fini, got.plt, dynsym) and the .plt
// address, from the original executable's own section header table. A
// stripped executable has no table; the affected entries stay
// zero-sized and the synthesizer falls back to sentinel sizes.
func fillFromExeShdrs(lt *LayoutTable, in Input, resolveOffset func(*Entry)) {
	if in.ExeEhdr.Shnum == 0 {
		return
	}
	fillSize := func(dst *Entry, names ...string) {
		if dst.Size != 0 {
			return
		}
		for _, n := range names {
			if _, size, ok := sideChannelSection(in.ExeData, in.ExeEhdr, n); ok {
				dst.Size = size
				return
			}
		}
	}
	fillSize(&lt.GnuHash, ".gnu.hash", ".hash")
	fillSize(&lt.Init, ".init")
	fillSize(&lt.Fini, ".fini")
	fillSize(&lt.PltGot, ".got.plt")
	fillSize(&lt.Dynsym, ".dynsym")

	if lt.Plt.Size == 0 {
		if addr, size, ok := sideChannelSection(in.ExeData, in.ExeEhdr, ".plt"); ok {
			lt.Plt = Entry{Vaddr: addr + lt.RelocBase, Size: size}
			resolveOffset(&lt.Plt)
		}
	}
}

// findTextData identifies the executable's text PT_LOAD (file offset
// zero) and data PT_LOAD (nonzero file offset).
func findTextData(phdrs []elfview.Phdr) (text, data elfview.Phdr, ok bool) {
	var loads []elfview.Phdr
	for _, p := range phdrs {
		if p.Type == elfview.PT_LOAD {
			loads = append(loads, p)
		}
	}
	if len(loads) == 0 {
		return elfview.Phdr{}, elfview.Phdr{}, false
	}
	text = loads[0]
	if len(loads) > 1 {
		data = loads[1]
	} else {
		data = loads[0]
	}
	for _, p := range loads {
		if p.Offset == 0 {
			text = p
			break
		}
	}
	for _, p := range loads {
		if p.Offset != 0 {
			data = p
			break
		}
	}
	return text, data, true
}

func coreLoadSegments(phdrs []elfview.Phdr) []Segment {
	var segs []Segment
	for _, p := range phdrs {
		if p.Type == elfview.PT_LOAD {
			segs = append(segs, Segment{VAddr: p.Vaddr, Offset: p.Offset, Size: p.Filesz})
		}
	}
	return segs
}

// resolveDynamicTags walks the executable's PT_DYNAMIC tag array and
// populates every dynamic-tag-derived LayoutTable field. Each
// resolved address is converted to a core-file offset by checking the
// text Segment, then the data Segment.
func resolveDynamicTags(lt *LayoutTable, in Input, dynPhdr elfview.Phdr, coreSegs []Segment, log *diag.Log) error {
	if int(dynPhdr.Offset+dynPhdr.Filesz) > len(in.ExeData) {
		return fmt.Errorf("layout: PT_DYNAMIC out of range in executable file")
	}
	raw := in.ExeData[dynPhdr.Offset : dynPhdr.Offset+dynPhdr.Filesz]
	tags := elfview.ParseDynamic(raw, in.ExeEhdr.Class, byteOrder(in.ExeEhdr))

	textSeg := Segment{VAddr: lt.Text.Vaddr, Offset: lt.Text.Offset, Size: lt.Text.Size}
	dataSeg := Segment{VAddr: lt.Data.Vaddr, Offset: lt.Data.Offset, Size: lt.Data.Size}
	off := func(addr uint64) (uint64, bool) {
		if textSeg.Contains(addr) {
			return textSeg.OffsetOf(addr), true
		}
		if dataSeg.Contains(addr) {
			return dataSeg.OffsetOf(addr), true
		}
		return 0, false
	}
	set := func(e *Entry, vaddr uint64) {
		e.Vaddr = vaddr + lt.RelocBase
		if o, ok := off(e.Vaddr); ok {
			e.Offset = o
		} else {
			log.Warnf("layout: dynamic-tag address %#x outside text/data segments", e.Vaddr)
		}
	}

	for _, t := range tags {
		switch t.Tag {
		case elfview.DT_REL:
			set(&lt.Rel, t.Val)
		case elfview.DT_RELA:
			set(&lt.Rela, t.Val)
		case elfview.DT_RELASZ, elfview.DT_RELSZ:
			lt.Rela.Size = t.Val
			lt.Rel.Size = t.Val
		case elfview.DT_JMPREL:
			set(&lt.Jmprel, t.Val)
		case elfview.DT_PLTRELSZ:
			lt.PltRelSz = t.Val
			lt.Jmprel.Size = t.Val
		case elfview.DT_PLTGOT:
			set(&lt.PltGot, t.Val)
		case elfview.DT_HASH, elfview.DT_GNU_HASH:
			set(&lt.GnuHash, t.Val)
		case elfview.DT_INIT:
			set(&lt.Init, t.Val)
		case elfview.DT_FINI:
			set(&lt.Fini, t.Val)
		case elfview.DT_SYMTAB:
			set(&lt.Dynsym, t.Val)
		case elfview.DT_STRTAB:
			set(&lt.Dynstr, t.Val)
		case elfview.DT_STRSZ:
			lt.StrSize = t.Val
			lt.Dynstr.Size = t.Val
		}
	}

	// DT_PLTREL names the record type of the PLT relocations. When the
	// tag is absent (unusual, but stripped-down linkers exist), fall
	// back to whichever flavor the DT_RELA/DT_REL tags showed.
	if v, ok := elfview.Lookup(tags, elfview.DT_PLTREL); ok {
		lt.PltRela = elfview.DynTag(v) == elfview.DT_RELA
	} else {
		lt.PltRela = lt.Rela.Vaddr != 0 || lt.Rela.Size != 0
	}
	return nil
}

func byteOrder(h *elfview.Ehdr) binary.ByteOrder {
	if h.Data == elfview.DataBig {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// sideChannelSection looks up a named section in the executable's own
// (possibly still-present) section header table, used for addresses
// and sizes that program headers and dynamic tags don't carry.
func sideChannelSection(data []byte, h *elfview.Ehdr, name string) (addr, size uint64, ok bool) {
	if h.Shnum == 0 {
		return 0, 0, false
	}
	order := byteOrder(h)
	shdrs, err := elfview.ParseShdrs(data, h.Class, order, h.Shoff, int(h.Shnum))
	if err != nil || int(h.Shstrndx) >= len(shdrs) {
		return 0, 0, false
	}
	strtab := shdrs[h.Shstrndx]
	if strtab.Offset+strtab.Size > uint64(len(data)) {
		return 0, 0, false
	}
	strs := data[strtab.Offset : strtab.Offset+strtab.Size]
	for _, s := range shdrs {
		if sectionName(strs, s.NameOff) == name {
			return s.Addr, s.Size, true
		}
	}
	return 0, 0, false
}

func sectionName(strs []byte, off uint32) string {
	if uint64(off) >= uint64(len(strs)) {
		return ""
	}
	end := off
	for int(end) < len(strs) && strs[end] != 0 {
		end++
	}
	return string(strs[off:end])
}

// collectLibraries builds one LibraryRecord per shared-object mapping
// observed in the live process's memory map, cross-referenced against
// NT_FILE for its file offset.
func collectLibraries(mm *procfs.MemoryMap, ntFile []notes.NtFileEntry) []LibraryRecord {
	if mm == nil {
		return nil
	}
	var out []LibraryRecord
	for _, r := range mm.Regions {
		if r.Kind != procfs.KindSharedObject {
			continue
		}
		fileOff := r.FileOff
		if e, ok := notes.LookupByAddr(ntFile, r.Base); ok {
			fileOff = e.FileOfs * 4096
		}
		out = append(out, LibraryRecord{
			Path:    r.Pathname,
			Name:    filepath.Base(r.Pathname),
			Base:    r.Base,
			Size:    r.Size(),
			Perm:    uint8(r.Perm),
			FileOff: fileOff,
		})
	}
	return out
}
