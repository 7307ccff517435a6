package parser

import (
	"strings"

	"github.com/inkjet-run/inkjet/internal/tree"
)

// headingInfo is the result of parsing one heading's visible text into
// a path, name metadata, and positional-argument tokens.
type headingInfo struct {
	PathSegments []string
	Hidden       bool
	Primary      string
	Aliases      []string
	Args         []tree.PositionalArg
}

// parseHeadingText splits a heading's visible text (e.g.
// "services stop all (name) (extra=1) -- (tail...)") into its
// ancestor-path segments plus the terminal segment's name/alias/hidden
// markers, and the positional-argument tokens trailing it.
func parseHeadingText(text string) headingInfo {
	fields := splitHeadingFields(text)

	var nameFields []string
	var argTokens []string
	sawArgs := false
	for _, f := range fields {
		if !sawArgs && strings.HasPrefix(f, "(") {
			sawArgs = true
		}
		if sawArgs {
			argTokens = append(argTokens, f)
		} else {
			nameFields = append(nameFields, f)
		}
	}

	var info headingInfo
	if len(nameFields) == 0 {
		return info
	}
	info.PathSegments = nameFields[:len(nameFields)-1]

	terminal := nameFields[len(nameFields)-1]
	if strings.Contains(terminal, "//") {
		parts := strings.Split(terminal, "//")
		terminal = parts[0]
		info.Aliases = append(info.Aliases, parts[1:]...)
	}
	if strings.HasPrefix(terminal, "_") {
		info.Hidden = true
		terminal = strings.TrimPrefix(terminal, "_")
	}
	info.Primary = terminal

	info.Args = parseArgTokens(argTokens)
	return info
}

// splitHeadingFields splits on whitespace but keeps "--" as its own
// field and keeps "(...)" groups intact even if they happen to contain
// no spaces (they never do, by construction, since each positional
// token is a single whitespace-free field already).
func splitHeadingFields(text string) []string {
	return strings.Fields(text)
}

// parseArgTokens turns the trailing "(name)", "(name?)", "(name=val)",
// "(name...)"/"(name...?)" and literal "--" tokens of a heading into
// PositionalArg descriptors.
func parseArgTokens(tokens []string) []tree.PositionalArg {
	var args []tree.PositionalArg
	rawTail := false
	for _, tok := range tokens {
		if tok == "--" {
			rawTail = true
			continue
		}
		if !strings.HasPrefix(tok, "(") || !strings.HasSuffix(tok, ")") {
			continue
		}
		inner := tok[1 : len(tok)-1]

		variadic := false
		optional := false
		if strings.HasSuffix(inner, "...?") {
			variadic = true
			optional = true
			inner = strings.TrimSuffix(inner, "...?")
		} else if strings.HasSuffix(inner, "...") {
			variadic = true
			inner = strings.TrimSuffix(inner, "...")
		}

		if strings.HasSuffix(inner, "?") {
			optional = true
			inner = strings.TrimSuffix(inner, "?")
		}

		var def string
		hasDef := false
		if idx := strings.Index(inner, "="); idx != -1 {
			def = inner[idx+1:]
			inner = inner[:idx]
			hasDef = true
			optional = true
		}

		args = append(args, tree.PositionalArg{
			Name:       inner,
			Required:   !optional && !rawTail,
			Default:    def,
			HasDefault: hasDef,
			Variadic:   variadic,
			RawTail:    rawTail,
		})
	}
	return args
}
