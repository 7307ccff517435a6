// Package importer discovers peer inkfiles and merges them into a
// Command Tree when the top-level inkfile declares inkjet_import: all.
package importer

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/inkjet-run/inkjet/internal/directive"
	"github.com/inkjet-run/inkjet/internal/ierrors"
	"github.com/inkjet-run/inkjet/internal/parser"
	"github.com/inkjet-run/inkjet/internal/tree"
)

var atxHeading = regexp.MustCompile(`^(#{1,6})(\s|$)`)
var h1Heading = regexp.MustCompile(`^#(\s|$)`)

type discoveredFile struct {
	path  string
	depth int
}

// Discover finds every file named exactly "inkjet.md" or ending in
// ".inkjet.md" under root, excluding topLevelPath, sorted by
// (directory depth ascending, then path lexicographically ascending)
// per the documented merge order.
func Discover(root, topLevelPath string) ([]string, error) {
	var files []discoveredFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if path == topLevelPath {
			return nil
		}
		name := d.Name()
		if name != "inkjet.md" && !strings.HasSuffix(name, ".inkjet.md") {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		depth := strings.Count(filepath.ToSlash(rel), "/")
		files = append(files, discoveredFile{path: path, depth: depth})
		return nil
	})
	if err != nil {
		return nil, ierrors.IO("failed to discover imported inkfiles", err)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].depth != files[j].depth {
			return files[i].depth < files[j].depth
		}
		return files[i].path < files[j].path
	})

	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out, nil
}

// Apply discovers and merges peer inkfiles into t when
// t.Directives.ImportAll is set. root is the top-level inkfile's
// directory; topLevelPath is skipped during discovery. readFile reads
// a discovered file's contents (injected so tests can stub it, though
// the real caller passes os.ReadFile).
func Apply(t *tree.CommandTree, root, topLevelPath string, readFile func(string) ([]byte, error)) error {
	if !t.Directives.ImportAll {
		return nil
	}

	files, err := Discover(root, topLevelPath)
	if err != nil {
		return err
	}

	for _, path := range files {
		raw, readErr := readFile(path)
		if readErr != nil {
			return ierrors.IO("failed to read imported inkfile "+path, readErr)
		}
		text := string(raw)
		dir := filepath.Dir(path)
		fileDirectives := directive.Scan(text)

		// A file with its own H1 becomes a nested parent subcommand; a
		// file without one contributes its H2 commands as siblings of
		// the top-level inkfile's own commands.
		body := text
		if hasH1(text) {
			body = shiftHeadingLevels(text, 1)
		}

		subTree, parseErr := parser.Parse([]byte(body), path, fileDirectives, dir)
		if parseErr != nil {
			return parseErr
		}
		markImported(subTree.Root)

		for _, child := range subTree.Root.Children {
			t.Root.ReplaceChild(child)
		}
	}
	return nil
}

func markImported(c *tree.Command) {
	for _, ch := range c.Children {
		ch.FromImport = true
		markImported(ch)
	}
}

// hasH1 reports whether text contains a level-1 ATX heading outside of
// fenced code blocks.
func hasH1(text string) bool {
	found := false
	walkNonFencedLines(text, func(line string) bool {
		if h1Heading.MatchString(line) {
			found = true
			return false
		}
		return true
	})
	return found
}

// shiftHeadingLevels rewrites every ATX heading outside of fenced code
// blocks by delta levels, capped at H6, so that "#" becomes the parent
// subcommand an imported file's own headings nest beneath. The
// parser requires a heading's leading path segments to name every
// open ancestor by its own heading text (e.g. "### services stop"
// under "## services"), so shifting the levels alone isn't enough:
// every heading below the H1 also gets the H1's own name prepended as
// a new leading path segment, since that's the ancestor the shift
// just introduced.
func shiftHeadingLevels(text string, delta int) string {
	lines := strings.Split(text, "\n")
	inFence := false
	var fenceMarker string
	var h1Name string
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if marker := fenceDelimiter(trimmed); marker != "" {
			if !inFence {
				inFence = true
				fenceMarker = marker
			} else if marker == fenceMarker {
				inFence = false
			}
			continue
		}
		if inFence {
			continue
		}
		if m := atxHeading.FindStringSubmatch(line); m != nil {
			level := len(m[1])
			rest := line[len(m[1]):]
			if level == 1 {
				h1Name = headingPrimaryName(rest)
			} else if h1Name != "" {
				rest = prependHeadingSegment(rest, h1Name)
			}
			newLevel := level + delta
			if newLevel > 6 {
				newLevel = 6
			}
			lines[i] = strings.Repeat("#", newLevel) + rest
		}
	}
	return strings.Join(lines, "\n")
}

// headingPrimaryName extracts a heading's own name token, stripping
// the hidden-command underscore and any "//alias" suffix, the same
// way the parser's own terminal-segment handling does. It ignores any
// leading path segments since it's only ever applied to a file's H1,
// which has no ancestors to qualify.
func headingPrimaryName(rest string) string {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	terminal := fields[len(fields)-1]
	if idx := strings.Index(terminal, "//"); idx != -1 {
		terminal = terminal[:idx]
	}
	return strings.TrimPrefix(terminal, "_")
}

// prependHeadingSegment inserts seg as a new leading path segment
// ahead of a heading's existing name/argument text.
func prependHeadingSegment(rest, seg string) string {
	trimmed := strings.TrimLeft(rest, " \t")
	if trimmed == "" {
		return rest
	}
	return " " + seg + " " + trimmed
}

func walkNonFencedLines(text string, fn func(line string) bool) {
	inFence := false
	var fenceMarker string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if marker := fenceDelimiter(trimmed); marker != "" {
			if !inFence {
				inFence = true
				fenceMarker = marker
			} else if marker == fenceMarker {
				inFence = false
			}
			continue
		}
		if inFence {
			continue
		}
		if !fn(line) {
			return
		}
	}
}

func fenceDelimiter(trimmedLine string) string {
	if strings.HasPrefix(trimmedLine, "```") {
		return "```"
	}
	if strings.HasPrefix(trimmedLine, "~~~") {
		return "~~~"
	}
	return ""
}
