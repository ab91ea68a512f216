// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elfview

import (
	"encoding/binary"
	"fmt"
)

// Ehdr is a class-normalized view of the ELF file header: every field
// is widened to uint64/uint16 regardless of the on-disk width, so
// callers never branch on the class for plain reads.
type Ehdr struct {
	Class     Class
	Data      Data
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

func (h Ehdr) order() binary.ByteOrder {
	if h.Data == DataBig {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ParseEhdr decodes the ELF file header at the start of data.
func ParseEhdr(data []byte) (*Ehdr, error) {
	if len(data) < 20 || data[0] != 0x7f || data[1] != 'E' || data[2] != 'L' || data[3] != 'F' {
		return nil, fmt.Errorf("elfview: missing ELF magic")
	}
	class := Class(data[4])
	if class != Class32 && class != Class64 {
		return nil, fmt.Errorf("elfview: unknown EI_CLASS %d", data[4])
	}
	d := Data(data[5])
	order := binary.ByteOrder(binary.LittleEndian)
	if d == DataBig {
		order = binary.BigEndian
	}
	h := &Ehdr{Class: class, Data: d}
	if len(data) < class.EhdrSize() {
		return nil, fmt.Errorf("elfview: truncated ELF header")
	}
	h.Type = order.Uint16(data[16:18])
	h.Machine = order.Uint16(data[18:20])
	h.Version = order.Uint32(data[20:24])
	if class == Class64 {
		h.Entry = order.Uint64(data[24:32])
		h.Phoff = order.Uint64(data[32:40])
		h.Shoff = order.Uint64(data[40:48])
		h.Flags = order.Uint32(data[48:52])
		h.Ehsize = order.Uint16(data[52:54])
		h.Phentsize = order.Uint16(data[54:56])
		h.Phnum = order.Uint16(data[56:58])
		h.Shentsize = order.Uint16(data[58:60])
		h.Shnum = order.Uint16(data[60:62])
		h.Shstrndx = order.Uint16(data[62:64])
	} else {
		h.Entry = uint64(order.Uint32(data[24:28]))
		h.Phoff = uint64(order.Uint32(data[28:32]))
		h.Shoff = uint64(order.Uint32(data[32:36]))
		h.Flags = order.Uint32(data[36:40])
		h.Ehsize = order.Uint16(data[40:42])
		h.Phentsize = order.Uint16(data[42:44])
		h.Phnum = order.Uint16(data[44:46])
		h.Shentsize = order.Uint16(data[46:48])
		h.Shnum = order.Uint16(data[48:50])
		h.Shstrndx = order.Uint16(data[50:52])
	}
	return h, nil
}

// EncodeEhdr serializes a complete ELF header for h's class and byte
// order, including the e_ident prefix.
func EncodeEhdr(h Ehdr) []byte {
	order := h.order()
	buf := make([]byte, h.Class.EhdrSize())
	buf[0], buf[1], buf[2], buf[3] = 0x7f, 'E', 'L', 'F'
	buf[4] = byte(h.Class)
	buf[5] = byte(h.Data)
	buf[6] = 1 // EV_CURRENT
	order.PutUint16(buf[16:18], h.Type)
	order.PutUint16(buf[18:20], h.Machine)
	order.PutUint32(buf[20:24], h.Version)
	if h.Class == Class64 {
		order.PutUint64(buf[24:32], h.Entry)
		order.PutUint64(buf[32:40], h.Phoff)
		order.PutUint64(buf[40:48], h.Shoff)
		order.PutUint32(buf[48:52], h.Flags)
		order.PutUint16(buf[52:54], h.Ehsize)
		order.PutUint16(buf[54:56], h.Phentsize)
		order.PutUint16(buf[56:58], h.Phnum)
		order.PutUint16(buf[58:60], h.Shentsize)
		order.PutUint16(buf[60:62], h.Shnum)
		order.PutUint16(buf[62:64], h.Shstrndx)
	} else {
		order.PutUint32(buf[24:28], uint32(h.Entry))
		order.PutUint32(buf[28:32], uint32(h.Phoff))
		order.PutUint32(buf[32:36], uint32(h.Shoff))
		order.PutUint32(buf[36:40], h.Flags)
		order.PutUint16(buf[40:42], h.Ehsize)
		order.PutUint16(buf[42:44], h.Phentsize)
		order.PutUint16(buf[44:46], h.Phnum)
		order.PutUint16(buf[46:48], h.Shentsize)
		order.PutUint16(buf[48:50], h.Shnum)
		order.PutUint16(buf[50:52], h.Shstrndx)
	}
	return buf
}

// PatchSectionFields overwrites e_shoff, e_shnum, e_shstrndx, e_shentsize,
// e_type and e_entry in an already-written ELF header buffer, the final
// step of the section synthesizer. buf must contain at least the ELF
// header starting at offset 0.
func (h *Ehdr) PatchSectionFields(buf []byte, shoff uint64, shnum, shstrndx uint16, shentsize uint16, etype uint16, entry uint64) {
	order := h.order()
	if h.Class == Class64 {
		order.PutUint64(buf[24:32], entry)
		order.PutUint64(buf[40:48], shoff)
		order.PutUint16(buf[58:60], shentsize)
		order.PutUint16(buf[60:62], shnum)
		order.PutUint16(buf[62:64], shstrndx)
	} else {
		order.PutUint32(buf[24:28], uint32(entry))
		order.PutUint32(buf[32:36], uint32(shoff))
		order.PutUint16(buf[46:48], shentsize)
		order.PutUint16(buf[48:50], shnum)
		order.PutUint16(buf[50:52], shstrndx)
	}
	order.PutUint16(buf[16:18], etype)
	h.Type = etype
	h.Entry = entry
	h.Shoff = shoff
	h.Shnum = shnum
	h.Shstrndx = shstrndx
	h.Shentsize = shentsize
}
