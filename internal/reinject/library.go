// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reinject

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/extcore/extcore/internal/elfview"
)

// StageAnonymous copies image into a freshly anonymously-mapped
// region and returns it together with a release function. Library
// text images can transiently run to hundreds of megabytes; staging
// them through an explicit anonymous mapping lets munmap hand the
// pages back to the OS immediately instead of waiting on the garbage
// collector.
func StageAnonymous(image []byte) (mapped []byte, release func() error, err error) {
	if len(image) == 0 {
		return nil, func() error { return nil }, nil
	}
	m, err := unix.Mmap(-1, 0, len(image), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, nil, fmt.Errorf("reinject: anonymous mmap: %w", err)
	}
	copy(m, image)
	return m, func() error { return unix.Munmap(m) }, nil
}

// ReinjectLibraryText runs the same splice-and-rename transform as
// Reinject, but for a shared library's text segment. Each library
// reinjection works against the *current* file, so callers must
// re-load the core's phdrs between libraries (the offsets of later
// PT_LOADs have shifted).
func ReinjectLibraryText(corePath string, data []byte, h *elfview.Ehdr, phdrs []elfview.Phdr, libVaddr uint64, image []byte) (Result, error) {
	staged, release, err := StageAnonymous(image)
	if err != nil {
		return Result{}, err
	}
	defer release()
	return Reinject(corePath, data, h, phdrs, libVaddr, staged)
}
