// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package notes

import (
	"encoding/binary"
	"testing"

	"github.com/extcore/extcore/internal/diag"
	"github.com/extcore/extcore/internal/elfview"
)

func prstatusDesc(pid int32, cursig int16) []byte {
	desc := make([]byte, PrstatusSize64)
	binary.LittleEndian.PutUint16(desc[prstatusCursigOffset:], uint16(cursig))
	binary.LittleEndian.PutUint32(desc[prstatusPidOffset(8):], uint32(pid))
	return desc
}

func prpsinfoDesc(uid, gid uint32, ppid int32, fname string) []byte {
	desc := make([]byte, PrpsinfoSize64)
	binary.LittleEndian.PutUint32(desc[16:], uid)
	binary.LittleEndian.PutUint32(desc[20:], gid)
	binary.LittleEndian.PutUint32(desc[28:], uint32(ppid))
	copy(desc[40:56], fname)
	return desc
}

func TestParseThreads(t *testing.T) {
	raw := []elfview.Note{
		{Name: "CORE", Type: elfview.NT_PRSTATUS, Desc: prstatusDesc(100, 11)},
		{Name: "CORE", Type: elfview.NT_FPREGSET, Desc: make([]byte, 512)},
		{Name: "CORE", Type: elfview.NT_PRSTATUS, Desc: prstatusDesc(101, 0)},
		{Name: "CORE", Type: elfview.NT_PRSTATUS, Desc: prstatusDesc(102, 0)},
	}
	log := &diag.Log{}
	ps := Parse(raw, 8, binary.LittleEndian, log)

	if len(ps.Threads) != 3 {
		t.Fatalf("got %d threads, want 3", len(ps.Threads))
	}
	if ps.Threads[0].Tid != 100 {
		t.Errorf("leader tid = %d, want 100", ps.Threads[0].Tid)
	}
	if ps.Threads[0].Fpregs == nil {
		t.Error("leader's NT_FPREGSET not attached")
	}
	if ps.Threads[1].Fpregs != nil {
		t.Error("second thread should have no fp registers")
	}
	if ps.ExitSig != 11 {
		t.Errorf("ExitSig = %d, want 11 (leader's pr_cursig)", ps.ExitSig)
	}
	if log.Len() != 0 {
		t.Errorf("unexpected warnings: %v", log.Entries())
	}
}

func TestParseSkipsWrongSizeNote(t *testing.T) {
	raw := []elfview.Note{
		{Name: "CORE", Type: elfview.NT_PRSTATUS, Desc: make([]byte, 10)}, // wrong size
		{Name: "CORE", Type: elfview.NT_PRSTATUS, Desc: prstatusDesc(7, 6)},
		{Name: "CORE", Type: elfview.NT_PRPSINFO, Desc: make([]byte, 5)}, // wrong size
	}
	log := &diag.Log{}
	ps := Parse(raw, 8, binary.LittleEndian, log)

	if len(ps.Threads) != 1 || ps.Threads[0].Tid != 7 {
		t.Fatalf("threads = %+v, want exactly the well-formed one", ps.Threads)
	}
	if ps.Prpsinfo != nil {
		t.Error("malformed NT_PRPSINFO should have been skipped")
	}
	if log.Len() != 2 {
		t.Errorf("got %d warnings, want 2", log.Len())
	}
}

func TestParsePrpsinfo(t *testing.T) {
	raw := []elfview.Note{
		{Name: "CORE", Type: elfview.NT_PRPSINFO, Desc: prpsinfoDesc(1000, 1000, 1, "hello")},
		{Name: "CORE", Type: elfview.NT_AUXV, Desc: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{Name: "CORE", Type: elfview.NT_SIGINFO, Desc: make([]byte, SiginfoSize64)},
	}
	ps := Parse(raw, 8, binary.LittleEndian, &diag.Log{})

	if ps.ExecName != "hello" {
		t.Errorf("ExecName = %q, want hello", ps.ExecName)
	}
	if ps.Uid != 1000 || ps.Gid != 1000 || ps.Ppid != 1 {
		t.Errorf("uid/gid/ppid = %d/%d/%d, want 1000/1000/1", ps.Uid, ps.Gid, ps.Ppid)
	}
	if len(ps.Auxv) != 8 {
		t.Errorf("auxv length = %d, want 8", len(ps.Auxv))
	}
	if len(ps.Siginfo) != SiginfoSize64 {
		t.Errorf("siginfo length = %d, want %d", len(ps.Siginfo), SiginfoSize64)
	}
}
