// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elfview

import "encoding/binary"

// Shdr is a class-normalized section header record, read or about to
// be written. Name is resolved against the accompanying shstrtab by
// the caller; NameOff is the raw sh_name offset.
type Shdr struct {
	Name      string
	NameOff   uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

// ParseShdrs decodes count section headers starting at off, given the
// raw (un-normalized) sh_name offsets; name resolution against a
// string table is left to the caller.
func ParseShdrs(data []byte, class Class, order binary.ByteOrder, off uint64, count int) ([]Shdr, error) {
	sz := uint64(class.ShdrSize())
	out := make([]Shdr, 0, count)
	for i := 0; i < count; i++ {
		base := off + uint64(i)*sz
		if base+sz > uint64(len(data)) {
			break
		}
		b := data[base : base+sz]
		var s Shdr
		if class == Class64 {
			s.NameOff = order.Uint32(b[0:4])
			s.Type = order.Uint32(b[4:8])
			s.Flags = order.Uint64(b[8:16])
			s.Addr = order.Uint64(b[16:24])
			s.Offset = order.Uint64(b[24:32])
			s.Size = order.Uint64(b[32:40])
			s.Link = order.Uint32(b[40:44])
			s.Info = order.Uint32(b[44:48])
			s.Addralign = order.Uint64(b[48:56])
			s.Entsize = order.Uint64(b[56:64])
		} else {
			s.NameOff = order.Uint32(b[0:4])
			s.Type = order.Uint32(b[4:8])
			s.Flags = uint64(order.Uint32(b[8:12]))
			s.Addr = uint64(order.Uint32(b[12:16]))
			s.Offset = uint64(order.Uint32(b[16:20]))
			s.Size = uint64(order.Uint32(b[20:24]))
			s.Link = order.Uint32(b[24:28])
			s.Info = order.Uint32(b[28:32])
			s.Addralign = uint64(order.Uint32(b[32:36]))
			s.Entsize = uint64(order.Uint32(b[36:40]))
		}
		out = append(out, s)
	}
	return out, nil
}

// EncodeShdr serializes a section header for class/order.
func EncodeShdr(class Class, order binary.ByteOrder, s Shdr) []byte {
	buf := make([]byte, class.ShdrSize())
	if class == Class64 {
		order.PutUint32(buf[0:4], s.NameOff)
		order.PutUint32(buf[4:8], s.Type)
		order.PutUint64(buf[8:16], s.Flags)
		order.PutUint64(buf[16:24], s.Addr)
		order.PutUint64(buf[24:32], s.Offset)
		order.PutUint64(buf[32:40], s.Size)
		order.PutUint32(buf[40:44], s.Link)
		order.PutUint32(buf[44:48], s.Info)
		order.PutUint64(buf[48:56], s.Addralign)
		order.PutUint64(buf[56:64], s.Entsize)
	} else {
		order.PutUint32(buf[0:4], s.NameOff)
		order.PutUint32(buf[4:8], s.Type)
		order.PutUint32(buf[8:12], uint32(s.Flags))
		order.PutUint32(buf[12:16], uint32(s.Addr))
		order.PutUint32(buf[16:20], uint32(s.Offset))
		order.PutUint32(buf[20:24], uint32(s.Size))
		order.PutUint32(buf[24:28], s.Link)
		order.PutUint32(buf[28:32], s.Info)
		order.PutUint32(buf[32:36], uint32(s.Addralign))
		order.PutUint32(buf[36:40], uint32(s.Entsize))
	}
	return buf
}
