// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package auxpayload

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/extcore/extcore/internal/notes"
	"github.com/extcore/extcore/internal/procfs"
)

// Input bundles everything C7 appends to the file tail.
type Input struct {
	Prstatuses  [][]byte // one per thread, thread 0 first
	Fds         []procfs.FdInfo
	Siginfo     []byte
	Auxv        []byte
	ExePath     string
	Personality uint32
	Args        []byte // raw /proc/<pid>/cmdline bytes, truncated/padded to ElfPrargsz
}

// Write appends the seven payload regions to f in their fixed order
// (prstatus, fdinfo, siginfo, auxv, exepath, personality, arglist)
// and returns their offsets.
func Write(f *os.File, order binary.ByteOrder, in Input) (Offsets, error) {
	var off Offsets

	start, err := f.Seek(0, os.SEEK_END)
	if err != nil {
		return off, fmt.Errorf("auxpayload: seeking to end: %w", err)
	}
	cur := uint64(start)

	write := func(b []byte) (Region, error) {
		r := Region{Offset: cur, Size: uint64(len(b))}
		if len(b) > 0 {
			if _, err := f.Write(b); err != nil {
				return r, fmt.Errorf("auxpayload: write: %w", err)
			}
		}
		cur += uint64(len(b))
		return r, nil
	}

	prstatusBlob := make([]byte, 0)
	for _, p := range in.Prstatuses {
		prstatusBlob = append(prstatusBlob, p...)
	}
	if off.Prstatus, err = write(prstatusBlob); err != nil {
		return off, err
	}

	fdBlob := encodeFdInfos(in.Fds, order)
	if off.Fdinfo, err = write(fdBlob); err != nil {
		return off, err
	}

	if off.Siginfo, err = write(in.Siginfo); err != nil {
		return off, err
	}

	if off.Auxv, err = write(in.Auxv); err != nil {
		return off, err
	}

	pathBlob := append([]byte(in.ExePath), 0)
	if off.Exepath, err = write(pathBlob); err != nil {
		return off, err
	}

	persBlob := make([]byte, 4)
	order.PutUint32(persBlob, in.Personality)
	if off.Personality, err = write(persBlob); err != nil {
		return off, err
	}

	argBlob := make([]byte, ElfPrargsz)
	copy(argBlob, in.Args)
	if off.Arglist, err = write(argBlob); err != nil {
		return off, err
	}

	off.SectionTableBase = cur
	return off, nil
}

// encodeFdInfos serializes the dense fd-info array in FdRecordSize
// fixed-width records.
func encodeFdInfos(fds []procfs.FdInfo, order binary.ByteOrder) []byte {
	buf := make([]byte, len(fds)*FdRecordSize)
	for i, fd := range fds {
		rec := buf[i*FdRecordSize : (i+1)*FdRecordSize]
		order.PutUint32(rec[0:4], uint32(fd.Fd))
		pathLen := len(fd.Target)
		if pathLen > 255 {
			pathLen = 255
		}
		copy(rec[8:8+pathLen], fd.Target[:pathLen])

		if fd.Socket != nil {
			order.PutUint32(rec[264:268], 1)
			copy(rec[268:284], []byte(padIP(fd.Socket.SrcIP, 16)))
			copy(rec[284:300], []byte(padIP(fd.Socket.DstIP, 16)))
			order.PutUint16(rec[300:302], fd.Socket.SrcPort)
			order.PutUint16(rec[302:304], fd.Socket.DstPort)
			order.PutUint32(rec[304:308], uint32(fd.Socket.Protocol))
		}
	}
	return buf
}

func padIP(ip string, n int) string {
	if len(ip) >= n {
		return ip[:n]
	}
	b := make([]byte, n)
	copy(b, ip)
	return string(b)
}

// DerivePersonality computes the personality bit-field from the
// analyzed binary traits.
func DerivePersonality(static, pie, heuristics, strippedShdrs bool) uint32 {
	var p uint32
	if static {
		p |= PersonalityStatic
	}
	if pie {
		p |= PersonalityPIE
	}
	if heuristics {
		p |= PersonalityHeuristics
	}
	if strippedShdrs {
		p |= PersonalityStrippedShdrs
	}
	return p
}

// CollectPrstatuses orders thread prstatus records with the
// thread-group leader first.
func CollectPrstatuses(ps *notes.ProcessState) [][]byte {
	out := make([][]byte, len(ps.Threads))
	for i, t := range ps.Threads {
		out[i] = t.Prstatus
	}
	return out
}
