// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reinject rewrites the core file so that the executable's
// (and, optionally, each shared library's) full text image is
// materialized inside the file at the corresponding PT_LOAD offset,
// shifting later offsets.
//
// The kernel writes only the first page of each executable text
// segment into the core; this package replaces that 4096-byte stub
// with the complete image captured live via internal/procfs: copy the
// unaffected prefix, splice in the new text, copy the unaffected (but
// offset-shifted) suffix, then rename the result over the original.
package reinject

import (
	"fmt"
	"os"

	"github.com/extcore/extcore/internal/elfview"
)

// StubSize is the number of text bytes the kernel writes into a core
// file for an executable mapping: one page.
const StubSize = 4096

// Result describes the effect of one reinjection, so callers can
// shift their own cached layout offsets accordingly.
type Result struct {
	Delta      int64 // newTextSize - StubSize
	TextOffset uint64
	NextOffset uint64
}

// Reinject replaces the stub at textVaddr's PT_LOAD with newText,
// growing the segment's p_filesz to its p_memsz and shifting every
// subsequent PT_LOAD's p_offset by Delta. It rewrites corePath via a
// temporary sibling file, renamed atomically over the original with
// permissions 0777.
func Reinject(corePath string, data []byte, h *elfview.Ehdr, phdrs []elfview.Phdr, textVaddr uint64, newText []byte) (Result, error) {
	textIdx := -1
	for i, p := range phdrs {
		if p.Type != elfview.PT_LOAD {
			continue
		}
		if textVaddr >= p.Vaddr && textVaddr < p.Vaddr+p.Memsz {
			textIdx = i
			break
		}
	}
	if textIdx < 0 {
		return Result{}, fmt.Errorf("reinject: no PT_LOAD covers vaddr %#x", textVaddr)
	}
	textPhdr := phdrs[textIdx]

	// The following PT_LOAD is assumed to be the data segment; a text
	// segment must never be the final PT_LOAD. A library whose text is
	// last would have no "next" header to pivot on; treat that as
	// fatal rather than silently truncating the file.
	nextIdx := -1
	for i := textIdx + 1; i < len(phdrs); i++ {
		if phdrs[i].Type == elfview.PT_LOAD {
			nextIdx = i
			break
		}
	}
	if nextIdx < 0 {
		return Result{}, fmt.Errorf("reinject: text PT_LOAD at index %d has no following PT_LOAD (violates the never-last invariant)", textIdx)
	}
	nextPhdr := phdrs[nextIdx]

	textOff := textPhdr.Offset
	nextOff := nextPhdr.Offset
	delta := int64(len(newText)) - StubSize

	if nextOff > uint64(len(data)) || textOff > uint64(len(data)) {
		return Result{}, fmt.Errorf("reinject: offsets out of range for %s", corePath)
	}

	prefix := append([]byte(nil), data[:textOff]...)
	elfview.PatchPhdrFilesz(prefix, h, textIdx, textPhdr.Memsz)
	for i := nextIdx; i < len(phdrs); i++ {
		if phdrs[i].Type != elfview.PT_LOAD {
			continue
		}
		newOff := int64(phdrs[i].Offset) + delta
		if newOff < 0 {
			return Result{}, fmt.Errorf("reinject: negative resulting offset for PT_LOAD %d", i)
		}
		elfview.PatchPhdrOffset(prefix, h, i, uint64(newOff))
	}

	suffix := data[nextOff:]

	tmpPath, tmpFile, err := createTemp(corePath)
	if err != nil {
		return Result{}, err
	}
	defer tmpFile.Close()

	if _, err := tmpFile.Write(prefix); err != nil {
		return Result{}, fmt.Errorf("reinject: writing prefix: %w", err)
	}
	if _, err := tmpFile.Write(newText); err != nil {
		return Result{}, fmt.Errorf("reinject: writing text image: %w", err)
	}
	if _, err := tmpFile.Write(suffix); err != nil {
		return Result{}, fmt.Errorf("reinject: writing suffix: %w", err)
	}
	if err := tmpFile.Chmod(0777); err != nil {
		return Result{}, fmt.Errorf("reinject: chmod: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return Result{}, fmt.Errorf("reinject: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, corePath); err != nil {
		return Result{}, fmt.Errorf("reinject: rename %s -> %s: %w", tmpPath, corePath, err)
	}

	return Result{Delta: delta, TextOffset: textOff, NextOffset: nextOff}, nil
}

// createTemp opens a fresh sibling file for corePath, incrementing a
// numeric suffix until the name doesn't collide with a leftover from
// an earlier run.
func createTemp(corePath string) (string, *os.File, error) {
	base := corePath + ".tmp"
	for i := 0; ; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s.%d", base, i)
		}
		f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0666)
		if err == nil {
			return name, f, nil
		}
		if !os.IsExist(err) {
			return "", nil, fmt.Errorf("reinject: creating temp file: %w", err)
		}
	}
}
