// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/extcore/extcore/internal/diag"
	"github.com/extcore/extcore/internal/elfview"
	"github.com/extcore/extcore/internal/layout"
	"github.com/extcore/extcore/internal/procfs"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in")
	dst := filepath.Join(dir, "out")
	if err := os.WriteFile(src, []byte("core bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := copyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "core bytes" {
		t.Errorf("copyFile produced %q, want %q", got, "core bytes")
	}
}

func TestLooksInjected(t *testing.T) {
	cases := []struct {
		name string
		lib  layout.LibraryRecord
		want bool
	}{
		{"no path", layout.LibraryRecord{Path: ""}, true},
		{"normal library", layout.LibraryRecord{Path: "/lib/libc.so.6", FileOff: 0x1000, Size: 0x2000, Perm: 5}, false},
		{"r-x at file offset 0", layout.LibraryRecord{Path: "anon", FileOff: 0, Size: 0x1000, Perm: 5}, true},
	}
	for _, c := range cases {
		if got := looksInjected(c.lib); got != c.want {
			t.Errorf("%s: looksInjected = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestRegionEntryMissingKindReturnsZero(t *testing.T) {
	mm := &procfs.MemoryMap{Regions: []procfs.Region{{Base: 0x1000, End: 0x2000, Kind: procfs.KindFileMap}}}
	log := &diag.Log{}
	got := regionEntry(mm, nil, procfs.KindHeap, log)
	if got != (layout.Entry{}) {
		t.Errorf("regionEntry for absent kind = %+v, want zero value", got)
	}
}

func TestRegionEntryResolvesOffset(t *testing.T) {
	mm := &procfs.MemoryMap{Regions: []procfs.Region{{Base: 0x401000, End: 0x402000, Kind: procfs.KindHeap}}}
	phdrs := []elfview.Phdr{{Type: elfview.PT_LOAD, Vaddr: 0x400000, Offset: 0x1000, Filesz: 0x3000}}
	log := &diag.Log{}
	got := regionEntry(mm, phdrs, procfs.KindHeap, log)
	if got.Offset != 0x2000 || got.Size != 0x1000 {
		t.Errorf("regionEntry = %+v, want offset 0x2000 size 0x1000", got)
	}
}
