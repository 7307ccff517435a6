// Package directive is the pre-pass that extracts Inkjet's text-level
// directives — inkjet_sort, inkjet_fixed_dir, inkjet_import — before
// structural Markdown parsing runs. It is line-oriented and ignores
// Markdown context entirely.
package directive

import (
	"bufio"
	"strings"

	"github.com/inkjet-run/inkjet/internal/tree"
)

const (
	tokenSort     = "inkjet_sort:"
	tokenFixedDir = "inkjet_fixed_dir:"
	tokenImport   = "inkjet_import:"
)

// Scan extracts directive values from raw inkfile text. It does not
// consume or alter text; the caller still parses it in full. Unknown
// directive tokens are ignored. The last occurrence of a directive
// wins if it appears more than once.
func Scan(text string) tree.Directives {
	d := tree.DefaultDirectives()

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if idx := strings.Index(line, tokenSort); idx != -1 {
			if v, ok := trailingBool(line[idx+len(tokenSort):]); ok {
				d.SortSourceOrder = v
			}
			continue
		}
		if idx := strings.Index(line, tokenFixedDir); idx != -1 {
			if v, ok := trailingBool(line[idx+len(tokenFixedDir):]); ok {
				d.FixedDir = v
			}
			continue
		}
		if idx := strings.Index(line, tokenImport); idx != -1 {
			rest := strings.TrimSpace(line[idx+len(tokenImport):])
			rest = trimNonAlnum(rest)
			if strings.HasPrefix(strings.ToLower(rest), "all") {
				d.ImportAll = true
			}
		}
	}
	return d
}

// trailingBool extracts the first "true" or "false" token following a
// directive's colon.
func trailingBool(rest string) (bool, bool) {
	rest = strings.TrimSpace(rest)
	rest = trimNonAlnum(rest)
	lower := strings.ToLower(rest)
	switch {
	case strings.HasPrefix(lower, "true"):
		return true, true
	case strings.HasPrefix(lower, "false"):
		return false, true
	default:
		return false, false
	}
}

// trimNonAlnum strips Markdown decoration (backticks, asterisks,
// leading punctuation) so the directive reads correctly whether it
// appears in prose, a code span, or a raw comment line.
func trimNonAlnum(s string) string {
	isWordChar := func(r byte) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
	}
	start := 0
	for start < len(s) && !isWordChar(s[start]) {
		start++
	}
	return s[start:]
}
