// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package notes

import (
	"encoding/binary"
	"testing"
)

func auxv64(pairs ...uint64) []byte {
	buf := make([]byte, 8*len(pairs))
	for i, v := range pairs {
		binary.LittleEndian.PutUint64(buf[i*8:], v)
	}
	return buf
}

func TestAuxvValue(t *testing.T) {
	auxv := auxv64(
		6, 4096, // AT_PAGESZ
		AtSysinfoEhdr, 0x7fff00000000,
		9, 0x401000, // AT_ENTRY
		0, 0, // AT_NULL
	)
	got, ok := AuxvValue(auxv, 8, binary.LittleEndian, AtSysinfoEhdr)
	if !ok || got != 0x7fff00000000 {
		t.Errorf("AuxvValue = %#x, %v; want vdso base", got, ok)
	}
	if _, ok := AuxvValue(auxv, 8, binary.LittleEndian, 51); ok {
		t.Error("unexpected match for absent entry type")
	}
}

func TestAuxvValueStopsAtNull(t *testing.T) {
	auxv := auxv64(
		6, 4096,
		0, 0, // AT_NULL terminates the walk
		AtSysinfoEhdr, 0xdead0000,
	)
	if _, ok := AuxvValue(auxv, 8, binary.LittleEndian, AtSysinfoEhdr); ok {
		t.Error("entries past AT_NULL must not be visible")
	}
}

func TestAuxvValue32(t *testing.T) {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:], AtSysinfoEhdr)
	binary.LittleEndian.PutUint32(buf[4:], 0xb7fff000)
	got, ok := AuxvValue(buf, 4, binary.LittleEndian, AtSysinfoEhdr)
	if !ok || got != 0xb7fff000 {
		t.Errorf("AuxvValue = %#x, %v; want 32-bit vdso base", got, ok)
	}
}
