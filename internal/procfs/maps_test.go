// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procfs

import "testing"

func TestParseMapLine(t *testing.T) {
	cases := []struct {
		line string
		kind Kind
	}{
		{"7f0000000000-7f0000001000 rw-p 00000000 00:00 0                          [heap]", KindHeap},
		{"7ffc00000000-7ffc00021000 rw-p 00000000 00:00 0                          [stack]", KindStack},
		{"7f1000000000-7f1000001000 rw-p 00000000 00:00 0                          [stack:123]", KindThreadStack},
		{"7f2000000000-7f2000001000 r-xp 00000000 00:00 0                          [vdso]", KindVDSO},
		{"7f3000000000-7f3000001000 ---p 00000000 00:00 0 ", KindPadding},
		{"7f4000000000-7f4000200000 r-xp 00000000 08:01 100 /lib/x86_64-linux-gnu/libc.so.6", KindSharedObject},
		{"400000-401000 r-xp 00000000 08:01 200 /bin/hello", KindExecutableFileMap},
		{"7f5000000000-7f5000001000 r--p 00000000 08:01 300 /etc/localtime", KindFileMap},
		{"7f6000000000-7f6000001000 rwxp 00000000 00:00 0 ", KindAnonymousExec},
	}
	for _, c := range cases {
		r, err := parseMapLine(c.line, 0)
		if err != nil {
			t.Fatalf("parseMapLine(%q): %v", c.line, err)
		}
		if r.Kind != c.kind {
			t.Errorf("parseMapLine(%q) kind = %v, want %v", c.line, r.Kind, c.kind)
		}
	}
}

func TestDecodeHexAddr(t *testing.T) {
	// 127.0.0.1:80 encoded little-endian, as /proc/net/tcp would show it.
	ip, port, err := decodeHexAddr("0100007F:0050")
	if err != nil {
		t.Fatal(err)
	}
	if ip != "127.0.0.1" || port != 80 {
		t.Errorf("got %s:%d, want 127.0.0.1:80", ip, port)
	}
}
