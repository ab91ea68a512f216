// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command extcore rewrites a kernel-produced core dump into an
// extended core file carrying synthesized section headers, a
// reconstructed local symbol table, and auxiliary process metadata.
// --root lets a relative core path (and the stdin spool location) be
// resolved against a chroot or sysroot copy instead of the live
// filesystem.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/extcore/extcore/internal/pipeline"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		exe        string
		pid        int
		output     string
		libText    bool
		heuristics bool
		fromStdin  bool
		root       string
	)

	cmd := &cobra.Command{
		Use:   "extcore [core-file]",
		Short: "Reconstruct a kernel core dump into an extended core file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			corePath, cleanup, err := resolveInput(args, fromStdin, root)
			if err != nil {
				return err
			}
			defer cleanup()

			if output == "" {
				output = corePath
			}
			if pid == 0 {
				return fmt.Errorf("extcore: -p (pid) is required")
			}

			log, err := pipeline.Run(corePath, pipeline.Options{
				ExeBasename:        exe,
				Pid:                pid,
				OutputPath:         output,
				IncludeLibraryText: libText,
				Heuristics:         heuristics,
			})
			for _, e := range log.Entries() {
				fmt.Fprintf(os.Stderr, "extcore: %s: %s\n", e.Where, e.Message)
			}
			if err != nil {
				return fmt.Errorf("extcore: %w", err)
			}
			fmt.Fprintf(os.Stdout, "extcore: wrote %s\n", output)
			return nil
		},
	}

	flags := cmd.Flags()
	// -h is taken by the heuristics flag below; register the help flag
	// first, long-form only, so cobra doesn't claim the shorthand.
	flags.Bool("help", false, "help for extcore")
	flags.StringVarP(&exe, "exe", "e", "", "basename of the expected executable")
	flags.IntVarP(&pid, "pid", "p", 0, "pid of the target process (required)")
	flags.StringVarP(&output, "output", "o", "", "destination path for the extended core file (defaults to overwriting the input)")
	flags.BoolVarP(&libText, "text", "t", false, "reinject full text images for shared libraries, not just the executable")
	flags.BoolVarP(&heuristics, "heuristics", "h", false, "enable heuristic classification of injected library mappings")
	flags.BoolVarP(&fromStdin, "stdin", "i", false, "read the raw core dump from stdin instead of a file argument")
	flags.StringVar(&root, "root", "", "root directory to resolve a relative core-file path against, and to spool stdin into with -i")

	return cmd
}

// resolveInput decides where the input core file comes from: a
// positional path argument, or (with -i) a freshly spooled copy of
// stdin, since coreload.Load needs a seekable, mmap-able file
// descriptor rather than a pipe.
func resolveInput(args []string, fromStdin bool, root string) (path string, cleanup func(), err error) {
	noop := func() {}
	if fromStdin {
		dir := root
		if dir == "" {
			dir = os.TempDir()
		}
		f, err := os.CreateTemp(dir, "extcore-stdin-*.core")
		if err != nil {
			return "", noop, fmt.Errorf("spooling stdin: %w", err)
		}
		defer f.Close()
		if _, err := io.Copy(f, os.Stdin); err != nil {
			os.Remove(f.Name())
			return "", noop, fmt.Errorf("spooling stdin: %w", err)
		}
		return f.Name(), func() { os.Remove(f.Name()) }, nil
	}
	if len(args) != 1 {
		return "", noop, fmt.Errorf("extcore: exactly one core-file argument is required unless -i is set")
	}
	p := args[0]
	if root != "" && !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	return p, noop, nil
}
