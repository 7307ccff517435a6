// Package inkctx carries the run-wide settings the pipeline needs —
// NO_COLOR, verbosity, resolved paths — as an explicit record instead
// of hidden globals.
package inkctx

import "path/filepath"

// Context holds the ambient configuration cmd/inkjet gathers once per
// run and hands to its dispatch step, which copies the binary and
// inkfile paths into the Executor's options.
type Context struct {
	// NoColor disables colored output, set from the NO_COLOR env var.
	NoColor bool
	// Verbose enables diagnostic logging to stderr.
	Verbose bool
	// BinaryPath is the path to the running inkjet binary, used to
	// build the INK/INKJET environment variables.
	BinaryPath string
	// InkfilePath is the resolved path to the inkfile, or a synthetic
	// marker such as "<stdin>" or "<literal>" when the text did not
	// come from a file on disk.
	InkfilePath string
	// InkfileDir is the absolute directory the inkfile was loaded
	// from, used for INK_DIR/INKJET_DIR and fixed-dir CWD resolution.
	InkfileDir string
	// Cwd is the directory inkjet was invoked from, used when
	// inkjet_fixed_dir is disabled.
	Cwd string
}

// AbsInkfilePath returns the absolute form of InkfilePath, falling
// back to the raw value for synthetic inkfiles.
func (c Context) AbsInkfilePath() string {
	if c.InkfilePath == "" {
		return c.InkfilePath
	}
	abs, err := filepath.Abs(c.InkfilePath)
	if err != nil {
		return c.InkfilePath
	}
	return abs
}
