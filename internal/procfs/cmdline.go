// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procfs

import (
	"fmt"
	"os"
)

// ReadCmdline returns the raw, NUL-separated argv bytes from
// /proc/<pid>/cmdline, used to populate the arglist region of the
// auxiliary payload.
func ReadCmdline(pid int) ([]byte, error) {
	b, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
	if err != nil {
		return nil, fmt.Errorf("procfs: reading cmdline: %w", err)
	}
	return b, nil
}
