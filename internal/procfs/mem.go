// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procfs

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ReadRange reads size bytes at virtual address base from
// /proc/<pid>/mem. The target is sent SIGSTOP before the read and
// SIGCONT after, so the single pread observes a quiescent address
// space without a full ptrace attach.
func ReadRange(pid int, base uint64, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("procfs: invalid read size %d", size)
	}
	if err := unix.Kill(pid, unix.SIGSTOP); err != nil {
		return nil, fmt.Errorf("procfs: SIGSTOP pid %d: %w", pid, err)
	}
	defer unix.Kill(pid, unix.SIGCONT)

	f, err := os.Open(fmt.Sprintf("/proc/%d/mem", pid))
	if err != nil {
		return nil, fmt.Errorf("procfs: opening mem: %w", err)
	}
	defer f.Close()

	buf := allocReadBuffer(size)
	n, err := f.ReadAt(buf, int64(base))
	if err != nil && n == 0 {
		return nil, fmt.Errorf("procfs: pread at %#x: %w", base, err)
	}
	return buf[:n], nil
}

// allocReadBuffer sizes the read buffer so that large requests land
// on huge-page-friendly allocations; small requests just get an
// exact-size slice.
func allocReadBuffer(size int) []byte {
	const hugePage = 2 << 20 // 2 MiB
	if size < hugePage {
		return make([]byte, size)
	}
	rounded := (size + hugePage - 1) &^ (hugePage - 1)
	return make([]byte, rounded)[:size]
}
