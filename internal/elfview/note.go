// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elfview

import (
	"bytes"
	"encoding/binary"
)

// Note is one ELF note record: a name, a type, and a descriptor. Name
// and descriptor are each padded to a 4-byte boundary on disk.
type Note struct {
	Name string
	Type uint32
	Desc []byte
}

func padLen(n int) int { return (n + 3) &^ 3 }

// ParseNotes walks a PT_NOTE segment's raw bytes, yielding one Note
// per record. A truncated trailing record is silently dropped (it
// can't be a well-formed note).
func ParseNotes(b []byte, order binary.ByteOrder) []Note {
	var out []Note
	for len(b) >= 12 {
		namesz := order.Uint32(b[0:4])
		descsz := order.Uint32(b[4:8])
		typ := order.Uint32(b[8:12])
		b = b[12:]

		nsz := padLen(int(namesz))
		if nsz > len(b) {
			break
		}
		var name string
		if namesz > 0 && namesz <= uint32(len(b)) {
			name = string(bytes.TrimRight(b[:namesz-1], "\x00"))
		}
		b = b[nsz:]

		dsz := padLen(int(descsz))
		if dsz > len(b) {
			break
		}
		desc := append([]byte(nil), b[:descsz]...)
		b = b[dsz:]

		out = append(out, Note{Name: name, Type: typ, Desc: desc})
	}
	return out
}

// EncodeNote serializes a single note record, name+desc included,
// padded to 4-byte boundaries.
func EncodeNote(order binary.ByteOrder, n Note) []byte {
	nameField := n.Name + "\x00"
	nameSize := padLen(len(nameField))
	descSize := padLen(len(n.Desc))

	buf := make([]byte, 12+nameSize+descSize)
	order.PutUint32(buf[0:4], uint32(len(nameField)))
	order.PutUint32(buf[4:8], uint32(len(n.Desc)))
	order.PutUint32(buf[8:12], n.Type)
	copy(buf[12:12+len(nameField)], nameField)
	copy(buf[12+nameSize:12+nameSize+len(n.Desc)], n.Desc)
	return buf
}

// EncodeNotes concatenates the encoding of each note in order.
func EncodeNotes(order binary.ByteOrder, notes []Note) []byte {
	var buf bytes.Buffer
	for _, n := range notes {
		buf.Write(EncodeNote(order, n))
	}
	return buf.Bytes()
}
