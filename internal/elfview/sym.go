// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elfview

import "encoding/binary"

// Sym is a class-normalized symbol table entry.
type Sym struct {
	NameOff uint32
	Info    uint8
	Other   uint8
	Shndx   uint16
	Value   uint64
	Size    uint64
}

// EncodeSym serializes a symbol table entry. The on-disk field order
// differs between ELF32 and ELF64 (st_value/st_size come before
// st_info/st_other/st_shndx in ELF32).
func EncodeSym(class Class, order binary.ByteOrder, s Sym) []byte {
	buf := make([]byte, class.SymSize())
	if class == Class64 {
		order.PutUint32(buf[0:4], s.NameOff)
		buf[4] = s.Info
		buf[5] = s.Other
		order.PutUint16(buf[6:8], s.Shndx)
		order.PutUint64(buf[8:16], s.Value)
		order.PutUint64(buf[16:24], s.Size)
	} else {
		order.PutUint32(buf[0:4], s.NameOff)
		order.PutUint32(buf[4:8], uint32(s.Value))
		order.PutUint32(buf[8:12], uint32(s.Size))
		buf[12] = s.Info
		buf[13] = s.Other
		order.PutUint16(buf[14:16], s.Shndx)
	}
	return buf
}
