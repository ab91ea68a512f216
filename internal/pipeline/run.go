// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/extcore/extcore/internal/auxpayload"
	"github.com/extcore/extcore/internal/coreload"
	"github.com/extcore/extcore/internal/diag"
	"github.com/extcore/extcore/internal/ehframe"
	"github.com/extcore/extcore/internal/elfview"
	"github.com/extcore/extcore/internal/layout"
	"github.com/extcore/extcore/internal/notes"
	"github.com/extcore/extcore/internal/procfs"
	"github.com/extcore/extcore/internal/reinject"
	"github.com/extcore/extcore/internal/shdr"
	"github.com/extcore/extcore/internal/symbols"
)

// Run reconstructs the core file at corePath (staged first to
// opts.OutputPath if that differs) into an extended core file. It
// returns the accumulated diagnostic log even on error, since a
// partially completed run may still carry useful warnings.
func Run(corePath string, opts Options) (*diag.Log, error) {
	log := &diag.Log{}

	if opts.OutputPath != "" && opts.OutputPath != corePath {
		if err := copyFile(corePath, opts.OutputPath); err != nil {
			return log, fmt.Errorf("pipeline: staging %s: %w", opts.OutputPath, err)
		}
		corePath = opts.OutputPath
	}

	core, err := coreload.Load(corePath)
	if err != nil {
		return log, err
	}
	defer func() {
		if core != nil {
			core.Close()
		}
	}()

	class := core.Ehdr.Class
	order := coreByteOrder(core.Ehdr)
	ptrSize := class.PtrSize()

	rawNotes := elfview.ParseNotes(core.Data()[core.NoteOff:core.NoteOff+core.NoteSize], order)
	ps := notes.Parse(rawNotes, ptrSize, order, log)

	mm, err := procfs.ReadMaps(opts.Pid)
	if err != nil {
		return log, fmt.Errorf("pipeline: reading process maps: %w", err)
	}
	fds, err := procfs.ReadFdTable(opts.Pid)
	if err != nil {
		log.Warnf("pipeline: reading fd table: %v", err)
	}
	exePath, err := procfs.ExePath(opts.Pid)
	if err != nil {
		return log, fmt.Errorf("pipeline: resolving exe path: %w", err)
	}
	exeData, err := os.ReadFile(exePath)
	if err != nil {
		return log, fmt.Errorf("pipeline: reading executable %s: %w", exePath, err)
	}
	exeEhdr, err := elfview.ParseEhdr(exeData)
	if err != nil {
		return log, fmt.Errorf("pipeline: parsing executable ELF header: %w", err)
	}
	exePhdrs, err := elfview.ParsePhdrs(exeData, exeEhdr)
	if err != nil {
		return log, fmt.Errorf("pipeline: parsing executable program headers: %w", err)
	}

	lt, err := layout.Resolve(layout.Input{
		ExeData:     exeData,
		ExeEhdr:     exeEhdr,
		ExePhdrs:    exePhdrs,
		CoreEhdr:    core.Ehdr,
		CorePhdrs:   core.Phdrs,
		NoteOff:     core.NoteOff,
		NoteSize:    core.NoteSize,
		NtFile:      ps.NtFile,
		Maps:        mm,
		ExeBasename: opts.ExeBasename,
	}, log)
	if err != nil {
		return log, err
	}
	for i := range lt.Libraries {
		lt.Libraries[i].Injected = opts.Heuristics && looksInjected(lt.Libraries[i])
	}

	textImage, err := procfs.ReadRange(opts.Pid, lt.Text.Vaddr, int(lt.Text.Size))
	if err != nil {
		return log, fmt.Errorf("pipeline: capturing executable text: %w", err)
	}
	if _, err := reinject.Reinject(corePath, core.Data(), core.Ehdr, core.Phdrs, lt.Text.Vaddr, textImage); err != nil {
		return log, fmt.Errorf("pipeline: reinjecting executable text: %w", err)
	}

	if opts.IncludeLibraryText {
		for i := range lt.Libraries {
			lib := lt.Libraries[i]
			if lib.Perm&uint8(procfs.Exec) == 0 {
				continue // only text mappings get their stubs replaced
			}
			reloaded, err := coreload.Load(corePath)
			if err != nil {
				return log, fmt.Errorf("pipeline: reloading core before library %s: %w", lib.Name, err)
			}
			img, err := procfs.ReadRange(opts.Pid, lib.Base, int(lib.Size))
			if err != nil {
				log.Warnf("pipeline: capturing library %s text: %v", lib.Name, err)
				reloaded.Close()
				continue
			}
			_, err = reinject.ReinjectLibraryText(corePath, reloaded.Data(), reloaded.Ehdr, reloaded.Phdrs, lib.Base, img)
			reloaded.Close()
			if err != nil {
				log.Warnf("pipeline: reinjecting library %s: %v", lib.Name, err)
			}
		}
	}

	core, err = core.Reload()
	if err != nil {
		return log, fmt.Errorf("pipeline: reloading rewritten core: %w", err)
	}

	f, err := os.OpenFile(corePath, os.O_RDWR, 0666)
	if err != nil {
		return log, fmt.Errorf("pipeline: reopening %s for append: %w", corePath, err)
	}
	defer f.Close()

	args, err := procfs.ReadCmdline(opts.Pid)
	if err != nil {
		log.Warnf("pipeline: reading cmdline: %v", err)
	}
	personality := auxpayload.DerivePersonality(lt.Static, lt.PIE, opts.Heuristics, exeEhdr.Shnum == 0)
	aux, err := auxpayload.Write(f, order, auxpayload.Input{
		Prstatuses:  auxpayload.CollectPrstatuses(ps),
		Fds:         fds,
		Siginfo:     ps.Siginfo,
		Auxv:        ps.Auxv,
		ExePath:     exePath,
		Personality: personality,
		Args:        args,
	})
	if err != nil {
		return log, fmt.Errorf("pipeline: writing auxiliary payload: %w", err)
	}

	extra := shdr.Extra{
		EntryPoint: exeEhdr.Entry + lt.RelocBase,
		Heap:       regionEntry(mm, core.Phdrs, procfs.KindHeap, log),
		Stack:      regionEntry(mm, core.Phdrs, procfs.KindStack, log),
		Vdso:       vdsoEntry(mm, core.Phdrs, ps.Auxv, ptrSize, order, log),
		Vsyscall:   regionEntry(mm, core.Phdrs, procfs.KindVsyscall, log),
	}
	skipEhFrameLeadZeroes(lt, core.Data())
	secs, names, textIdx := shdr.Build(class, order, lt, aux, extra, log)

	var ranges []ehframe.FuncRange
	if end := lt.EhFrame.Offset + lt.EhFrame.Size; lt.EhFrame.Size > 0 && end <= uint64(len(core.Data())) {
		ehBytes := core.Data()[lt.EhFrame.Offset:end]
		ranges, err = ehframe.Walk(ehBytes, order, lt.EhFrame.Vaddr, ptrSize)
		if err != nil {
			log.Warnf("pipeline: walking eh_frame: %v", err)
		}
	} else if lt.EhFrame.Size > 0 {
		log.Warnf("pipeline: eh_frame range [%#x,%#x) outside file, skipping symbol reconstruction", lt.EhFrame.Offset, end)
	}
	syms := symbols.FromFuncRanges(ranges)
	symtabBytes, strtabBytes := symbols.Encode(class, order, syms, uint16(textIdx))

	symtabOff, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return log, fmt.Errorf("pipeline: seeking to end before symbol table: %w", err)
	}
	if _, err := f.Write(symtabBytes); err != nil {
		return log, fmt.Errorf("pipeline: writing .symtab: %w", err)
	}
	strtabOff := symtabOff + int64(len(symtabBytes))
	if _, err := f.Write(strtabBytes); err != nil {
		return log, fmt.Errorf("pipeline: writing .strtab: %w", err)
	}

	var dynsymSize uint64
	for i := range secs {
		if secs[i].Name == ".dynsym" {
			dynsymSize = secs[i].Size
			break
		}
	}
	dsymCount := int(dynsymSize / uint64(class.SymSize()))

	for i := range secs {
		switch secs[i].Name {
		case ".symtab":
			secs[i].Offset = uint64(symtabOff)
			secs[i].Size = uint64(len(symtabBytes))
		case ".strtab":
			secs[i].Offset = uint64(strtabOff)
			secs[i].Size = uint64(len(strtabBytes))
		case ".got.plt":
			secs[i].Size = symbols.GotPltSize(class, dsymCount)
		}
	}

	hdrBuf := append([]byte(nil), core.Data()[:class.EhdrSize()]...)
	if err := shdr.Write(f, class, order, core.Ehdr, hdrBuf, secs, names, extra.EntryPoint); err != nil {
		return log, fmt.Errorf("pipeline: writing section headers: %w", err)
	}

	return log, nil
}

// skipEhFrameLeadZeroes handles a .eh_frame image that starts with
// four zero bytes: advance the offset by 4 and shrink the size to
// match, so the synthesized section starts at the first real CIE
// rather than the zero-padding.
func skipEhFrameLeadZeroes(lt *layout.LayoutTable, data []byte) {
	e := &lt.EhFrame
	if e.Size < 8 || e.Offset+4 > uint64(len(data)) {
		return
	}
	if data[e.Offset] == 0 && data[e.Offset+1] == 0 && data[e.Offset+2] == 0 && data[e.Offset+3] == 0 {
		e.Offset += 4
		e.Size -= 4
	}
}

func coreByteOrder(h *elfview.Ehdr) binary.ByteOrder {
	if h.Data == elfview.DataBig {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// looksInjected flags a library mapping that has no backing path, or
// that is readable+executable at file offset zero despite claiming to
// be file-backed; both patterns are typical of dll-injection.
func looksInjected(lib layout.LibraryRecord) bool {
	return lib.Path == "" || lib.FileOff == 0 && lib.Size > 0 && lib.Perm&1 != 0 && lib.Perm&4 != 0
}

// regionEntry finds the first memory-map region of the given kind and
// resolves its core-file offset, logging and returning a zero Entry
// if none is present; the heap/stack/vdso/vsyscall sections are all
// optional.
func regionEntry(mm *procfs.MemoryMap, corePhdrs []elfview.Phdr, kind procfs.Kind, log *diag.Log) layout.Entry {
	if mm == nil {
		return layout.Entry{}
	}
	for _, r := range mm.Regions {
		if r.Kind != kind {
			continue
		}
		e := layout.Entry{Vaddr: r.Base, Size: r.Size()}
		if off, ok := layout.CoreOffsetOf(corePhdrs, r.Base); ok {
			e.Offset = off
		} else {
			log.Warnf("pipeline: %s region %#x not covered by any core PT_LOAD", kind, r.Base)
		}
		return e
	}
	return layout.Entry{}
}

// vdsoEntry locates the vdso mapping, preferring the [vdso] annotation
// in the live memory map and falling back to the auxv's
// AT_SYSINFO_EHDR value (the address the kernel itself hands the
// process) when the annotation is missing, as it is under some
// sandboxes and emulators. The fallback assumes the usual
// one-page vdso image.
func vdsoEntry(mm *procfs.MemoryMap, corePhdrs []elfview.Phdr, auxv []byte, ptrSize int, order binary.ByteOrder, log *diag.Log) layout.Entry {
	e := regionEntry(mm, corePhdrs, procfs.KindVDSO, log)
	if e.Size > 0 {
		return e
	}
	addr, ok := notes.AuxvValue(auxv, ptrSize, order, notes.AtSysinfoEhdr)
	if !ok {
		return e
	}
	e = layout.Entry{Vaddr: addr, Size: 4096}
	if off, ok := layout.CoreOffsetOf(corePhdrs, addr); ok {
		e.Offset = off
	} else {
		log.Warnf("pipeline: auxv vdso address %#x not covered by any core PT_LOAD", addr)
	}
	return e
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
