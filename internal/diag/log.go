// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diag accumulates non-fatal diagnostics produced while
// reconstructing a core file, each tagged with the source location
// that raised it. Soft problems pile up here instead of aborting the
// run; the caller decides when and where to surface them.
package diag

import (
	"fmt"
	"runtime"
)

// Entry is one accumulated diagnostic.
type Entry struct {
	Message string
	Where   string // "file.go:123"
}

// Log collects warnings in the order they were produced. The zero
// value is ready to use.
type Log struct {
	entries []Entry
}

// Warnf records a formatted warning, tagging it with the caller's
// source location.
func (l *Log) Warnf(format string, args ...interface{}) {
	_, file, line, ok := runtime.Caller(1)
	where := "?"
	if ok {
		where = fmt.Sprintf("%s:%d", file, line)
	}
	l.entries = append(l.entries, Entry{
		Message: fmt.Sprintf(format, args...),
		Where:   where,
	})
}

// Entries returns every accumulated diagnostic, in order.
func (l *Log) Entries() []Entry {
	return l.entries
}

// Len reports how many diagnostics have been recorded.
func (l *Log) Len() int {
	return len(l.entries)
}
