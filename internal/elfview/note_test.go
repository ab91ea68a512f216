// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elfview

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestNoteRoundTrip(t *testing.T) {
	notes := []Note{
		{Name: "CORE", Type: NT_PRPSINFO, Desc: []byte{1, 2, 3}},
		{Name: "CORE", Type: NT_AUXV, Desc: []byte{0, 0, 0, 0, 0, 0, 0, 0}},
		{Name: "CORE", Type: NT_FILE, Desc: nil},
	}
	enc := EncodeNotes(binary.LittleEndian, notes)
	got := ParseNotes(enc, binary.LittleEndian)
	if len(got) != len(notes) {
		t.Fatalf("got %d notes, want %d", len(got), len(notes))
	}
	for i, n := range notes {
		if got[i].Name != n.Name || got[i].Type != n.Type || !bytes.Equal(got[i].Desc, n.Desc) {
			t.Errorf("note %d: got %+v, want %+v", i, got[i], n)
		}
	}
}

func TestPadLen(t *testing.T) {
	cases := map[int]int{0: 0, 1: 4, 3: 4, 4: 4, 5: 8}
	for in, want := range cases {
		if got := padLen(in); got != want {
			t.Errorf("padLen(%d) = %d, want %d", in, got, want)
		}
	}
}
