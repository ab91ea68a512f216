// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procfs

import (
	"fmt"
	"os"
)

// ExePath resolves /proc/<pid>/exe, reading the link twice to defeat
// an intermediate symbolic layer.
func ExePath(pid int) (string, error) {
	path := fmt.Sprintf("/proc/%d/exe", pid)
	first, err := os.Readlink(path)
	if err != nil {
		return "", fmt.Errorf("procfs: readlink %s: %w", path, err)
	}
	second, err := os.Readlink(first)
	if err != nil {
		// The first link already resolved to a real file (no second
		// symbolic layer); that's the common case, not an error.
		return first, nil
	}
	return second, nil
}
