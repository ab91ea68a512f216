// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coreload memory-maps the kernel-produced core file,
// validates it, and indexes its program headers and note segment.
package coreload

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/extcore/extcore/internal/elfview"
)

// Core is a loaded, validated core file: its bytes, its parsed ELF
// header and program header table, and the bounds of its PT_NOTE
// segment.
type Core struct {
	Path string

	data []byte // mmap'd bytes, read-only
	file *os.File

	Ehdr  *elfview.Ehdr
	Phdrs []elfview.Phdr

	NoteOff  uint64
	NoteSize uint64
}

// Data returns the core file's mapped bytes. The returned slice is
// read-only in spirit (backed by a PROT_READ mapping) and must not
// outlive a call to Close or Reload.
func (c *Core) Data() []byte { return c.data }

// Load opens path, maps it read-only, and validates it is an ELF core
// file. It locates the single PT_NOTE segment as required by C4.
func Load(path string) (*Core, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("coreload: open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("coreload: stat %s: %w", path, err)
	}
	size := st.Size()
	if size == 0 {
		f.Close()
		return nil, fmt.Errorf("coreload: %s is empty", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("coreload: mmap %s: %w", path, err)
	}

	c := &Core{Path: path, data: data, file: f}
	if err := c.parse(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Core) parse() error {
	h, err := elfview.ParseEhdr(c.data)
	if err != nil {
		return fmt.Errorf("coreload: %s: %w", c.Path, err)
	}
	if h.Type != elfview.ET_CORE {
		return fmt.Errorf("coreload: %s is not a core file (e_type=%#x)", c.Path, h.Type)
	}
	phdrs, err := elfview.ParsePhdrs(c.data, h)
	if err != nil {
		return fmt.Errorf("coreload: %s: %w", c.Path, err)
	}
	c.Ehdr = h
	c.Phdrs = phdrs

	found := false
	for _, p := range phdrs {
		if p.Type == elfview.PT_NOTE {
			c.NoteOff = p.Offset
			c.NoteSize = p.Filesz
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("coreload: %s has no PT_NOTE segment", c.Path)
	}
	return nil
}

// Close unmaps the core file and closes its descriptor.
func (c *Core) Close() error {
	var err error
	if c.data != nil {
		err = unix.Munmap(c.data)
		c.data = nil
	}
	if c.file != nil {
		if cerr := c.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Reload discards the stale mapping and remaps path from scratch,
// picking up the bytes the reinjector just rewrote. Callers must
// treat the returned *Core as an entirely fresh handle; the receiver
// is closed.
func (c *Core) Reload() (*Core, error) {
	path := c.Path
	if err := c.Close(); err != nil {
		return nil, fmt.Errorf("coreload: reload: closing stale mapping: %w", err)
	}
	return Load(path)
}
