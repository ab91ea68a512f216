// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipeline drives one reconstruction end to end: load the
// core, decode its notes, introspect the still-live process, resolve
// the layout table, reinject full text images, reload the rewritten
// core, append the auxiliary payload, synthesize section headers, and
// finally reconstruct local symbols from eh_frame.
package pipeline

// Options controls one reconstruction run, mirroring the CLI flags.
type Options struct {
	ExeBasename        string // -e: expected executable basename
	Pid                int    // -p: target process id
	OutputPath         string // -o: destination path for the rewritten core
	IncludeLibraryText bool   // -t: also reinject full shared-library text
	Heuristics         bool   // -h: enable injected-mapping heuristics
}
