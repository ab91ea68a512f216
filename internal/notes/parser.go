// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package notes

import (
	"encoding/binary"

	"github.com/extcore/extcore/internal/diag"
	"github.com/extcore/extcore/internal/elfview"
)

// Parse walks the decoded note records (already split out of the
// PT_NOTE segment by elfview.ParseNotes) and builds a ProcessState.
// Unrecognized note types are ignored; fixed-size notes with the
// wrong descriptor length are logged and skipped rather than treated
// as fatal.
func Parse(rawNotes []elfview.Note, ptrSize int, order binary.ByteOrder, log *diag.Log) *ProcessState {
	ps := &ProcessState{}

	wantPr := prstatusSize(ptrSize)
	wantInfo := prpsinfoSize(ptrSize)
	wantSig := siginfoSize(ptrSize)

	for _, n := range rawNotes {
		switch n.Type {
		case elfview.NT_PRSTATUS:
			if len(n.Desc) != wantPr {
				log.Warnf("note parser: skipping NT_PRSTATUS: got %d bytes, want %d", len(n.Desc), wantPr)
				continue
			}
			ps.Threads = append(ps.Threads, ThreadState{
				Tid:      readPid(n.Desc, ptrSize, order),
				Prstatus: append([]byte(nil), n.Desc...),
			})
			if len(ps.Threads) == 1 {
				ps.ExitSig = int32(int16(order.Uint16(n.Desc[prstatusCursigOffset : prstatusCursigOffset+2])))
			}
		case elfview.NT_FPREGSET:
			if len(ps.Threads) == 0 {
				log.Warnf("note parser: NT_FPREGSET with no preceding NT_PRSTATUS")
				continue
			}
			ps.Threads[len(ps.Threads)-1].Fpregs = append([]byte(nil), n.Desc...)
		case elfview.NT_PRPSINFO:
			if len(n.Desc) != wantInfo {
				log.Warnf("note parser: skipping NT_PRPSINFO: got %d bytes, want %d", len(n.Desc), wantInfo)
				continue
			}
			ps.Prpsinfo = append([]byte(nil), n.Desc...)
			decodePrpsinfo(ps, n.Desc, ptrSize, order)
		case elfview.NT_SIGINFO:
			if len(n.Desc) != wantSig {
				log.Warnf("note parser: skipping NT_SIGINFO: got %d bytes, want %d", len(n.Desc), wantSig)
				continue
			}
			ps.Siginfo = append([]byte(nil), n.Desc...)
		case elfview.NT_AUXV:
			// auxv has no fixed size; take whatever the kernel wrote.
			ps.Auxv = append([]byte(nil), n.Desc...)
		case elfview.NT_FILE:
			entries, err := decodeNtFile(n.Desc, order)
			if err != nil {
				log.Warnf("note parser: skipping NT_FILE: %v", err)
				continue
			}
			ps.NtFile = entries
		}
	}
	return ps
}

func readPid(desc []byte, ptrSize int, order binary.ByteOrder) int32 {
	off := prstatusPidOffset(ptrSize)
	if len(desc) < off+4 {
		return 0
	}
	return int32(order.Uint32(desc[off : off+4]))
}

// decodePrpsinfo recovers the convenience fields of struct
// elf_prpsinfo: pr_uid/pr_gid/pr_ppid and the 16-byte pr_fname. The
// field offsets differ between classes because pr_flag is a long and
// the 32-bit kernel uid/gid types are 16 bits wide.
func decodePrpsinfo(ps *ProcessState, desc []byte, ptrSize int, order binary.ByteOrder) {
	var uidOff, fnameOff int
	if ptrSize == 8 {
		uidOff, fnameOff = 16, 40
		if len(desc) < fnameOff+16 {
			return
		}
		ps.Uid = order.Uint32(desc[uidOff : uidOff+4])
		ps.Gid = order.Uint32(desc[uidOff+4 : uidOff+8])
		ps.Ppid = int32(order.Uint32(desc[uidOff+12 : uidOff+16]))
	} else {
		uidOff, fnameOff = 8, 28
		if len(desc) < fnameOff+16 {
			return
		}
		ps.Uid = uint32(order.Uint16(desc[uidOff : uidOff+2]))
		ps.Gid = uint32(order.Uint16(desc[uidOff+2 : uidOff+4]))
		ps.Ppid = int32(order.Uint32(desc[uidOff+8 : uidOff+12]))
	}
	b := desc[fnameOff : fnameOff+16]
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	ps.ExecName = string(b[:n])
}
