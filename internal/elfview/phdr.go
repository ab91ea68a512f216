// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elfview

import (
	"encoding/binary"
	"fmt"
)

// Phdr is a class-normalized program header entry.
type Phdr struct {
	Type   uint32
	Flags  uint32
	Offset uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

func (p Phdr) Perm() (r, w, x bool) {
	return p.Flags&PF_R != 0, p.Flags&PF_W != 0, p.Flags&PF_X != 0
}

// ParsePhdrs decodes the program header table described by the ELF
// header h, where data is the whole mapped file.
func ParsePhdrs(data []byte, h *Ehdr) ([]Phdr, error) {
	order := h.order()
	out := make([]Phdr, 0, h.Phnum)
	sz := uint64(h.Phentsize)
	for i := uint16(0); i < h.Phnum; i++ {
		off := h.Phoff + uint64(i)*sz
		if off+sz > uint64(len(data)) {
			return nil, fmt.Errorf("elfview: program header %d out of range", i)
		}
		b := data[off : off+sz]
		var p Phdr
		if h.Class == Class64 {
			p.Type = order.Uint32(b[0:4])
			p.Flags = order.Uint32(b[4:8])
			p.Offset = order.Uint64(b[8:16])
			p.Vaddr = order.Uint64(b[16:24])
			p.Paddr = order.Uint64(b[24:32])
			p.Filesz = order.Uint64(b[32:40])
			p.Memsz = order.Uint64(b[40:48])
			p.Align = order.Uint64(b[48:56])
		} else {
			p.Type = order.Uint32(b[0:4])
			p.Offset = uint64(order.Uint32(b[4:8]))
			p.Vaddr = uint64(order.Uint32(b[8:12]))
			p.Paddr = uint64(order.Uint32(b[12:16]))
			p.Filesz = uint64(order.Uint32(b[16:20]))
			p.Memsz = uint64(order.Uint32(b[20:24]))
			p.Flags = order.Uint32(b[24:28])
			p.Align = uint64(order.Uint32(b[28:32]))
		}
		out = append(out, p)
	}
	return out, nil
}

// PatchPhdrFilesz rewrites p_filesz for the program header at index i
// in-place in buf, used by the segment reinjector to raise a text
// segment's filesz up to its memsz.
func PatchPhdrFilesz(buf []byte, h *Ehdr, i int, filesz uint64) {
	order := h.order()
	off := h.Phoff + uint64(i)*uint64(h.Phentsize)
	if h.Class == Class64 {
		order.PutUint64(buf[off+32:off+40], filesz)
	} else {
		order.PutUint32(buf[off+16:off+20], uint32(filesz))
	}
}

// PatchPhdrOffset rewrites p_offset for the program header at index i.
func PatchPhdrOffset(buf []byte, h *Ehdr, i int, offset uint64) {
	order := h.order()
	base := h.Phoff + uint64(i)*uint64(h.Phentsize)
	if h.Class == Class64 {
		order.PutUint64(buf[base+8:base+16], offset)
	} else {
		order.PutUint32(buf[base+4:base+8], uint32(offset))
	}
}

// EncodePhdr encodes a single program header entry for class/order.
func EncodePhdr(class Class, order binary.ByteOrder, p Phdr) []byte {
	buf := make([]byte, class.PhdrSize())
	if class == Class64 {
		order.PutUint32(buf[0:4], p.Type)
		order.PutUint32(buf[4:8], p.Flags)
		order.PutUint64(buf[8:16], p.Offset)
		order.PutUint64(buf[16:24], p.Vaddr)
		order.PutUint64(buf[24:32], p.Paddr)
		order.PutUint64(buf[32:40], p.Filesz)
		order.PutUint64(buf[40:48], p.Memsz)
		order.PutUint64(buf[48:56], p.Align)
	} else {
		order.PutUint32(buf[0:4], p.Type)
		order.PutUint32(buf[4:8], uint32(p.Offset))
		order.PutUint32(buf[8:12], uint32(p.Vaddr))
		order.PutUint32(buf[12:16], uint32(p.Paddr))
		order.PutUint32(buf[16:20], uint32(p.Filesz))
		order.PutUint32(buf[20:24], uint32(p.Memsz))
		order.PutUint32(buf[24:28], p.Flags)
		order.PutUint32(buf[28:32], uint32(p.Align))
	}
	return buf
}
