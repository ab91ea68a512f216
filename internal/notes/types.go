// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package notes decodes the PT_NOTE segment of a core file into
// thread register state, process info, signal info, the auxiliary
// vector and the file-mapping table.
package notes

// ThreadState is one thread's worth of kernel-emitted register state.
// Thread 0 is always the thread-group leader.
type ThreadState struct {
	Tid      int32
	Prstatus []byte // raw NT_PRSTATUS descriptor, kernel layout preserved
	Fpregs   []byte // raw NT_FPREGSET descriptor, if present
}

// NtFileEntry is one decoded row of the kernel's NT_FILE note: a
// mapped virtual address range, the backing file's page offset, and
// its pathname.
type NtFileEntry struct {
	Start    uint64
	End      uint64
	FileOfs  uint64
	Pathname string
}

// ProcessState aggregates everything the note parser recovers for a
// single process.
type ProcessState struct {
	Threads  []ThreadState // Threads[0] is the group leader
	Prpsinfo []byte        // raw NT_PRPSINFO descriptor (singleton)
	Siginfo  []byte        // raw NT_SIGINFO descriptor (singleton)
	Auxv     []byte        // raw NT_AUXV descriptor
	NtFile   []NtFileEntry

	// Derived from Prpsinfo and the leader's Prstatus, for
	// convenience; zero values if the source note was malformed or
	// absent.
	ExecName string
	ExitSig  int32
	Uid      uint32
	Gid      uint32
	Ppid     int32
}

// Warning is a soft, non-fatal problem encountered while parsing
// notes.
type Warning struct {
	Note   string
	Reason string
}

func (w Warning) Error() string {
	return "notes: " + w.Note + ": " + w.Reason
}
