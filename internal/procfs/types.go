// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package procfs reads mappings, per-fd links, socket inode tables,
// the executable path, and arbitrary virtual-address ranges from the
// process filesystem and the process memory device for a still-live
// process.
package procfs

// Perm is a set of permission bits on a memory region.
type Perm uint8

const (
	Read Perm = 1 << iota
	Write
	Exec
)

func (p Perm) String() string {
	var b []byte
	add := func(c byte, has bool) {
		if has {
			b = append(b, c)
		} else {
			b = append(b, '-')
		}
	}
	add('r', p&Read != 0)
	add('w', p&Write != 0)
	add('x', p&Exec != 0)
	return string(b)
}

// Kind classifies a memory region by its maps-line annotation and
// permissions.
type Kind int

const (
	KindOther Kind = iota
	KindHeap
	KindStack
	KindThreadStack // carries Tid
	KindVDSO
	KindVsyscall
	KindSharedObject
	KindExecutableFileMap
	KindFileMap
	KindAnonymousExec
	KindPadding
	KindSpecial
)

func (k Kind) String() string {
	switch k {
	case KindHeap:
		return "heap"
	case KindStack:
		return "stack"
	case KindThreadStack:
		return "thread-stack"
	case KindVDSO:
		return "vdso"
	case KindVsyscall:
		return "vsyscall"
	case KindSharedObject:
		return "shared-object"
	case KindExecutableFileMap:
		return "executable-file-map"
	case KindFileMap:
		return "other-file-map"
	case KindAnonymousExec:
		return "anonymous-exec"
	case KindPadding:
		return "padding"
	case KindSpecial:
		return "special"
	default:
		return "other"
	}
}

// Region is one line of /proc/<pid>/maps, classified.
type Region struct {
	Base, End uint64
	Perm      Perm
	FileOff   uint64
	Pathname  string
	Kind      Kind
	Tid       int // valid only when Kind == KindThreadStack
}

func (r Region) Size() uint64 { return r.End - r.Base }

// MemoryMap is the ordered sequence of a process's mapped regions.
type MemoryMap struct {
	Regions []Region
}

// Protocol identifies the transport protocol backing a socket fd.
type Protocol int

const (
	ProtoNone Protocol = iota
	ProtoTCP
	ProtoUDP
)

func (p Protocol) String() string {
	switch p {
	case ProtoTCP:
		return "tcp"
	case ProtoUDP:
		return "udp"
	default:
		return "none"
	}
}

// SocketTuple describes a socket's endpoints, when known.
type SocketTuple struct {
	SrcIP, DstIP     string
	SrcPort, DstPort uint16
	Protocol         Protocol
}

// FdInfo is one entry of the process's open file descriptor table.
type FdInfo struct {
	Fd     int
	Target string // resolved fd/<n> symlink target
	Socket *SocketTuple
}

// MaxFds bounds the fd-info array.
const MaxFds = 256
