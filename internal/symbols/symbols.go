// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package symbols reconstructs local function symbols from eh_frame
// walk results and serializes them into .symtab/.strtab payloads,
// appended to the file tail and cross-referenced by the synthesized
// .symtab/.strtab/.got.plt section headers.
package symbols

import (
	"encoding/binary"
	"fmt"

	"github.com/extcore/extcore/internal/ehframe"
	"github.com/extcore/extcore/internal/elfview"
)

// Symbol is one reconstructed local function symbol.
type Symbol struct {
	Name string
	Addr uint64
	Size uint64
}

// FromFuncRanges names each eh_frame-derived range sub_<hex-address>,
// the usual disassembler convention for functions with no recoverable
// name.
func FromFuncRanges(ranges []ehframe.FuncRange) []Symbol {
	syms := make([]Symbol, 0, len(ranges))
	for _, r := range ranges {
		if r.Size == 0 {
			continue
		}
		syms = append(syms, Symbol{
			Name: fmt.Sprintf("sub_%x", r.Addr),
			Addr: r.Addr,
			Size: r.Size,
		})
	}
	return syms
}

// Encode serializes syms into .symtab and .strtab byte blobs. textShndx
// is the section index recorded in each symbol's st_shndx field; every
// reconstructed symbol lives in .text. Symbols are emitted
// STB_GLOBAL/STT_FUNC so scope-filtering tools still see them.
func Encode(class elfview.Class, order binary.ByteOrder, syms []Symbol, textShndx uint16) (symtab, strtab []byte) {
	strtab = []byte{0}
	symtab = elfview.EncodeSym(class, order, elfview.Sym{}) // index 0: the mandatory null symbol

	for _, s := range syms {
		nameOff := uint32(len(strtab))
		strtab = append(strtab, []byte(s.Name)...)
		strtab = append(strtab, 0)

		sym := elfview.Sym{
			NameOff: nameOff,
			Info:    elfview.StInfo(elfview.STB_GLOBAL, elfview.STT_FUNC),
			Shndx:   textShndx,
			Value:   s.Addr,
			Size:    s.Size,
		}
		symtab = append(symtab, elfview.EncodeSym(class, order, sym)...)
	}
	return symtab, strtab
}

// GotPltSize computes the resized .got.plt length: three reserved
// slots (the dynamic linker's resolver triad) plus one pointer-sized
// slot per dynamic symbol.
func GotPltSize(class elfview.Class, dynSymCount int) uint64 {
	return uint64(dynSymCount+3) * uint64(class.PtrSize())
}
