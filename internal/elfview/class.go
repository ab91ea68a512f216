// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package elfview is a typed, class-agnostic view over ELF structures:
// the file header, program headers, section headers, notes, dynamic
// tags, relocations and symbols, for both 32- and 64-bit targets.
//
// Unlike debug/elf it also knows how to encode the structures it
// decodes, since the reconstruction pipeline needs to emit a section
// header table that never existed in the input core file.
package elfview

import "fmt"

// Class is the ELF file class (32- or 64-bit).
type Class uint8

const (
	Class32 Class = 1
	Class64 Class = 2
)

func (c Class) String() string {
	switch c {
	case Class32:
		return "ELF32"
	case Class64:
		return "ELF64"
	default:
		return fmt.Sprintf("Class(%d)", c)
	}
}

// PtrSize returns the width in bytes of a pointer-sized field for c.
func (c Class) PtrSize() int {
	if c == Class32 {
		return 4
	}
	return 8
}

// EhdrSize, PhdrSize and ShdrSize return the on-disk size of the
// corresponding structure for this class.
func (c Class) EhdrSize() int {
	if c == Class32 {
		return 52
	}
	return 64
}

func (c Class) PhdrSize() int {
	if c == Class32 {
		return 32
	}
	return 56
}

func (c Class) ShdrSize() int {
	if c == Class32 {
		return 40
	}
	return 64
}

func (c Class) SymSize() int {
	if c == Class32 {
		return 16
	}
	return 24
}

// RelSize, RelaSize and DynSize return the on-disk size of one Rel
// relocation, one Rela relocation, and one dynamic-tag record: two,
// three, and two pointer-sized words respectively in both classes.
func (c Class) RelSize() int { return 2 * c.PtrSize() }

func (c Class) RelaSize() int { return 3 * c.PtrSize() }

func (c Class) DynSize() int { return 2 * c.PtrSize() }

// Data is the byte order of the ELF file. Core dumps are always
// produced in the host's native order, but it is carried explicitly
// rather than assumed little-endian.
type Data uint8

const (
	DataLittle Data = 1
	DataBig    Data = 2
)
