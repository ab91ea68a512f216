// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ehframe recovers function address ranges from a .eh_frame
// section's call-frame-information records. It is a thin wrapper over
// go-delve/delve's call-frame parser, the same package the delve
// debugger uses to unwind stacks when only .eh_frame is available.
// Each FDE covers one function's instruction range, which is enough
// to rebuild a symbol table for a stripped binary.
package ehframe

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/go-delve/delve/pkg/dwarf/frame"
)

// FuncRange is one function's address extent, recovered from a single
// Frame Description Entry's pc range.
type FuncRange struct {
	Addr uint64
	Size uint64
}

// Walk parses the raw .eh_frame bytes and returns one FuncRange per
// FDE, sorted by address; ranges sharing a start address are collapsed
// to one, whatever their sizes.
// sectionAddr is the virtual address the section was mapped at, needed
// to resolve eh_frame's PC-relative pointer encodings; since the core
// holds the section at its runtime address, the recovered ranges come
// out as runtime addresses with no further bias. ptrSize is 4 or 8.
func Walk(data []byte, order binary.ByteOrder, sectionAddr uint64, ptrSize int) ([]FuncRange, error) {
	if len(data) == 0 {
		return nil, nil
	}
	fdes, err := frame.Parse(data, order, 0, ptrSize, sectionAddr)
	if err != nil {
		return nil, fmt.Errorf("ehframe: parsing call frame information: %w", err)
	}

	ranges := make([]FuncRange, 0, len(fdes))
	for _, fde := range fdes {
		begin, end := fde.Begin(), fde.End()
		if end <= begin {
			continue
		}
		ranges = append(ranges, FuncRange{Addr: begin, Size: end - begin})
	}

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Addr < ranges[j].Addr })
	return dedup(ranges), nil
}

func dedup(in []FuncRange) []FuncRange {
	out := in[:0]
	var last uint64
	haveLast := false
	for _, r := range in {
		if haveLast && r.Addr == last {
			continue
		}
		out = append(out, r)
		last = r.Addr
		haveLast = true
	}
	return out
}
