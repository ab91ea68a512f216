// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procfs

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadMaps parses /proc/<pid>/maps into a classified MemoryMap.
// Classification is exclusive per region: each line is assigned
// exactly one Kind.
func ReadMaps(pid int) (*MemoryMap, error) {
	path := fmt.Sprintf("/proc/%d/maps", pid)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("procfs: %w", err)
	}
	defer f.Close()

	mm := &MemoryMap{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	idx := 0
	for sc.Scan() {
		line := sc.Text()
		r, err := parseMapLine(line, idx)
		if err != nil {
			continue // malformed line: skip, not fatal
		}
		mm.Regions = append(mm.Regions, r)
		idx++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("procfs: reading %s: %w", path, err)
	}
	return mm, nil
}

// parseMapLine decodes one "maps" line:
//
//	base-end perms offset dev inode pathname
func parseMapLine(line string, regionIndex int) (Region, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return Region{}, fmt.Errorf("too few fields")
	}
	addrs := strings.SplitN(fields[0], "-", 2)
	if len(addrs) != 2 {
		return Region{}, fmt.Errorf("bad address range %q", fields[0])
	}
	base, err := strconv.ParseUint(addrs[0], 16, 64)
	if err != nil {
		return Region{}, err
	}
	end, err := strconv.ParseUint(addrs[1], 16, 64)
	if err != nil {
		return Region{}, err
	}
	permStr := fields[1]
	var perm Perm
	if len(permStr) >= 3 {
		if permStr[0] == 'r' {
			perm |= Read
		}
		if permStr[1] == 'w' {
			perm |= Write
		}
		if permStr[2] == 'x' {
			perm |= Exec
		}
	}
	off, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		off = 0
	}
	var pathname string
	if len(fields) >= 6 {
		pathname = strings.Join(fields[5:], " ")
	}

	r := Region{
		Base:     base,
		End:      end,
		Perm:     perm,
		FileOff:  off,
		Pathname: pathname,
	}
	r.Kind, r.Tid = classify(permStr, pathname, perm, regionIndex)
	return r, nil
}

// classify assigns exactly one Kind per region: [heap], [stack],
// [stack:TID], [vdso], [vsyscall], "---p" (padding), a ".so" path
// (shared object), a path with exec permission (executable file map),
// a path without exec (file map), rwxp/r-xp anonymous
// (anonymous-exec).
func classify(permStr, pathname string, perm Perm, regionIndex int) (Kind, int) {
	switch {
	case pathname == "[heap]":
		return KindHeap, 0
	case pathname == "[stack]":
		return KindStack, 0
	case strings.HasPrefix(pathname, "[stack:"):
		tid := 0
		tidStr := strings.TrimSuffix(strings.TrimPrefix(pathname, "[stack:"), "]")
		if v, err := strconv.Atoi(tidStr); err == nil {
			tid = v
		}
		// Region.Tid carries the real thread id for display/matching
		// purposes; callers addressing this region in a parallel array
		// must use its position in MemoryMap.Regions, not Tid.
		return KindThreadStack, tid
	case pathname == "[vdso]":
		return KindVDSO, 0
	case pathname == "[vsyscall]":
		return KindVsyscall, 0
	case permStr == "---p":
		return KindPadding, 0
	case strings.HasPrefix(pathname, "["):
		return KindSpecial, 0
	case strings.HasSuffix(pathname, ".so") || strings.Contains(pathname, ".so."):
		return KindSharedObject, 0
	case pathname != "" && perm&Exec != 0:
		return KindExecutableFileMap, 0
	case pathname != "":
		return KindFileMap, 0
	case perm&Exec != 0:
		return KindAnonymousExec, 0
	default:
		return KindOther, 0
	}
}
