// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procfs

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ReadFdTable reads every entry of /proc/<pid>/fd, resolving each
// symlink and, for socket fds, looking up the inode in the TCP then
// UDP tables. The result is bounded at MaxFds entries.
func ReadFdTable(pid int) ([]FdInfo, error) {
	dir := fmt.Sprintf("/proc/%d/fd", pid)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("procfs: %w", err)
	}

	nums := make([]int, 0, len(entries))
	for _, e := range entries {
		if n, err := strconv.Atoi(e.Name()); err == nil {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	if len(nums) > MaxFds {
		nums = nums[:MaxFds]
	}

	var nt *netTable // loaded lazily, only if a socket fd is seen
	out := make([]FdInfo, 0, len(nums))
	for _, fd := range nums {
		link := fmt.Sprintf("%s/%d", dir, fd)
		target, err := os.Readlink(link)
		if err != nil {
			continue // fd closed between ReadDir and here: skip
		}
		info := FdInfo{Fd: fd, Target: target}
		if inode, ok := socketInode(target); ok {
			if nt == nil {
				nt, err = loadNetTables(pid)
				if err != nil {
					nt = &netTable{tcp: map[uint64]socketEndpoint{}, udp: map[uint64]socketEndpoint{}}
				}
			}
			if tuple, ok := nt.lookup(inode); ok {
				t := tuple
				info.Socket = &t
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// socketInode extracts the inode number from a "socket:[12345]"
// symlink target.
func socketInode(target string) (uint64, bool) {
	if !strings.HasPrefix(target, "socket:[") || !strings.HasSuffix(target, "]") {
		return 0, false
	}
	s := strings.TrimSuffix(strings.TrimPrefix(target, "socket:["), "]")
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
