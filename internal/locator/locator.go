// Package locator implements the Inkfile Locator: find the inkfile
// from an explicit path, literal text, stdin, or by walking upward
// from the working directory.
package locator

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/inkjet-run/inkjet/internal/ierrors"
)

const inkfileName = "inkjet.md"

// Result is what the Locator hands to the rest of the pipeline.
type Result struct {
	Text string
	// Path is the resolved file path, or a synthetic marker
	// ("<stdin>", "<literal>") when the text did not come from a file.
	Path string
	// Dir is the directory to treat as the inkfile's home, used for
	// INK_DIR/INKJET_DIR and as the default execution CWD.
	Dir string
}

// Locate resolves the inkfile per spec: a flagValue containing a
// newline is literal text; "-" reads stdin; anything else is treated
// as a path; an empty flagValue walks upward from cwd looking for
// inkjet.md.
func Locate(flagValue string, cwd string, stdin io.Reader) (Result, error) {
	switch {
	case strings.Contains(flagValue, "\n"):
		dir, err := filepath.Abs(cwd)
		if err != nil {
			return Result{}, ierrors.IO("resolve cwd", err)
		}
		return Result{Text: flagValue, Path: "<literal>", Dir: dir}, nil

	case flagValue == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return Result{}, ierrors.IO("read stdin", err)
		}
		dir, err := filepath.Abs(cwd)
		if err != nil {
			return Result{}, ierrors.IO("resolve cwd", err)
		}
		return Result{Text: string(data), Path: "<stdin>", Dir: dir}, nil

	case flagValue != "":
		return readFile(flagValue)

	default:
		found, err := searchUpward(cwd)
		if err != nil {
			return Result{}, err
		}
		return readFile(found)
	}
}

func readFile(path string) (Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{}, ierrors.IO("resolve inkfile path", err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, ierrors.Locate("inkfile not found: %s", abs)
		}
		return Result{}, ierrors.IO("read inkfile", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return Result{}, ierrors.Locate("inkfile is empty: %s", abs)
	}
	return Result{Text: string(data), Path: abs, Dir: filepath.Dir(abs)}, nil
}

// searchUpward walks from cwd toward the filesystem root looking for
// inkjet.md, returning the first match.
func searchUpward(cwd string) (string, error) {
	dir, err := filepath.Abs(cwd)
	if err != nil {
		return "", ierrors.IO("resolve cwd", err)
	}
	for {
		candidate := filepath.Join(dir, inkfileName)
		if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ierrors.Locate("no %s found in %s or any parent directory", inkfileName, cwd)
		}
		dir = parent
	}
}
