// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package notes

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// decodeNtFile parses the kernel's NT_FILE descriptor: count,
// page_size, then count packed (start, end, file_ofs) triples, then
// count NUL-terminated paths concatenated.
func decodeNtFile(desc []byte, order binary.ByteOrder) ([]NtFileEntry, error) {
	if len(desc) < 16 {
		return nil, fmt.Errorf("NT_FILE descriptor too short (%d bytes)", len(desc))
	}
	count := order.Uint64(desc[0:8])
	// page_size at desc[8:16] is recorded by the kernel but not kept;
	// file_ofs values are stored as written, in units of that page
	// size, not bytes.
	b := desc[16:]

	tripleBytes := count * 24
	if uint64(len(b)) < tripleBytes {
		return nil, fmt.Errorf("NT_FILE descriptor truncated: need %d bytes of triples, have %d", tripleBytes, len(b))
	}
	entries := make([]NtFileEntry, count)
	for i := uint64(0); i < count; i++ {
		t := b[i*24 : i*24+24]
		entries[i].Start = order.Uint64(t[0:8])
		entries[i].End = order.Uint64(t[8:16])
		entries[i].FileOfs = order.Uint64(t[16:24])
	}
	paths := b[tripleBytes:]
	for i := uint64(0); i < count; i++ {
		idx := bytes.IndexByte(paths, 0)
		if idx < 0 {
			return nil, fmt.Errorf("NT_FILE descriptor: missing NUL terminator for path %d", i)
		}
		entries[i].Pathname = string(paths[:idx])
		paths = paths[idx+1:]
	}
	return entries, nil
}

// EncodeNtFile re-serializes a file-mapping table in the same layout
// decodeNtFile reads (with page_size fixed at 4096), used by tests to
// check the decode/encode round-trip.
func EncodeNtFile(entries []NtFileEntry, order binary.ByteOrder) []byte {
	var buf bytes.Buffer
	tmp := make([]byte, 8)
	order.PutUint64(tmp, uint64(len(entries)))
	buf.Write(tmp)
	order.PutUint64(tmp, 4096)
	buf.Write(tmp)
	for _, e := range entries {
		order.PutUint64(tmp, e.Start)
		buf.Write(tmp)
		order.PutUint64(tmp, e.End)
		buf.Write(tmp)
		order.PutUint64(tmp, e.FileOfs)
		buf.Write(tmp)
	}
	for _, e := range entries {
		buf.WriteString(e.Pathname)
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// LookupByAddr returns the NT_FILE entry whose range contains addr.
func LookupByAddr(entries []NtFileEntry, addr uint64) (NtFileEntry, bool) {
	for _, e := range entries {
		if addr >= e.Start && addr < e.End {
			return e, true
		}
	}
	return NtFileEntry{}, false
}

// LookupByBasename returns the first NT_FILE entry whose path's final
// component matches name.
func LookupByBasename(entries []NtFileEntry, name string) (NtFileEntry, bool) {
	for _, e := range entries {
		base := e.Pathname
		if idx := bytes.LastIndexByte([]byte(base), '/'); idx >= 0 {
			base = base[idx+1:]
		}
		if base == name {
			return e, true
		}
	}
	return NtFileEntry{}, false
}
