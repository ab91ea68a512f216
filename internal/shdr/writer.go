// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shdr

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/extcore/extcore/internal/elfview"
)

// Write seeks to the current end of f, appends the section header
// table and its .shstrtab there, patches the .shstrtab entry's own
// Offset/Size, and finally rewrites the ELF header's section-table
// fields plus e_type/e_entry. The original ET_CORE becomes ET_NONE so
// section-header-aware tooling will read the file.
//
// hdrBuf must hold the file's first class.EhdrSize() bytes (the ELF
// header); Write patches it in place and writes it back over the
// start of f.
func Write(f *os.File, class elfview.Class, order binary.ByteOrder, h *elfview.Ehdr, hdrBuf []byte, secs []elfview.Shdr, names []byte, entry uint64) error {
	tableStart, err := f.Seek(0, os.SEEK_END)
	if err != nil {
		return fmt.Errorf("shdr: seeking to end: %w", err)
	}

	shstrtabIdx := len(secs) - 1
	if secs[shstrtabIdx].Name != ".shstrtab" {
		return fmt.Errorf("shdr: internal error: last section is %q, not .shstrtab", secs[shstrtabIdx].Name)
	}

	tableSize := uint64(len(secs)) * uint64(class.ShdrSize())
	shstrtabOff := uint64(tableStart) + tableSize
	secs[shstrtabIdx].Offset = shstrtabOff
	secs[shstrtabIdx].Size = uint64(len(names))

	for _, s := range secs {
		if _, err := f.Write(elfview.EncodeShdr(class, order, s)); err != nil {
			return fmt.Errorf("shdr: writing section header %q: %w", s.Name, err)
		}
	}
	if _, err := f.Write(names); err != nil {
		return fmt.Errorf("shdr: writing shstrtab: %w", err)
	}

	h.PatchSectionFields(hdrBuf, uint64(tableStart), uint16(len(secs)), uint16(shstrtabIdx), uint16(class.ShdrSize()), elfview.ET_NONE, entry)

	if _, err := f.WriteAt(hdrBuf, 0); err != nil {
		return fmt.Errorf("shdr: patching ELF header: %w", err)
	}
	return nil
}
