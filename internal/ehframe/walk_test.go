// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ehframe

import (
	"encoding/binary"
	"testing"
)

func TestWalkEmptyInput(t *testing.T) {
	ranges, err := Walk(nil, binary.LittleEndian, 0x400000, 8)
	if err != nil {
		t.Fatal(err)
	}
	if ranges != nil {
		t.Errorf("got %v, want nil for empty section", ranges)
	}
}

func TestDedupCollapsesSameAddress(t *testing.T) {
	in := []FuncRange{
		{Addr: 0x1000, Size: 0x10},
		{Addr: 0x1000, Size: 0x10},
		{Addr: 0x2000, Size: 0x20},
	}
	out := dedup(in)
	if len(out) != 2 {
		t.Fatalf("got %d ranges, want 2", len(out))
	}
	if out[0].Addr != 0x1000 || out[1].Addr != 0x2000 {
		t.Errorf("dedup result = %v", out)
	}
}
