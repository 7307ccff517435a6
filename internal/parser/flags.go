package parser

import (
	"strings"

	"github.com/inkjet-run/inkjet/internal/ierrors"
	"github.com/inkjet-run/inkjet/internal/tree"
)

// listItem is a markdown-neutral view of one bullet-list entry: its
// own first-line text (emphasis stripped) and any nested sub-bullets.
// Keeping this separate from the goldmark AST lets the flag grammar be
// tested without constructing real Markdown nodes.
type listItem struct {
	Text string
	Sub  []listItem
}

// parseOptionsList turns the bullet list following an "OPTIONS"
// paragraph into Flag descriptors, supporting both the longform
// (sub-bullet) and shorthand (single-line, pipe-delimited type) forms.
func parseOptionsList(items []listItem, loc tree.SourceLocation) ([]tree.Flag, error) {
	var flags []tree.Flag
	for _, item := range items {
		f, err := parseOneFlag(item, loc)
		if err != nil {
			return nil, err
		}
		flags = append(flags, f)
	}
	return flags, nil
}

func parseOneFlag(item listItem, loc tree.SourceLocation) (tree.Flag, error) {
	text := strings.TrimSpace(item.Text)
	if rest, ok := stripFlagKeyword(text); ok && strings.Contains(rest, "|") {
		return parseShorthandFlag(rest, loc)
	}
	if len(item.Sub) > 0 {
		sub := item.Sub
		if _, ok := stripFlagKeyword(text); ok {
			// names given on the bullet itself rather than in a sub-bullet
			sub = append([]listItem{{Text: text}}, item.Sub...)
		}
		return parseLongformFlag(sub, loc)
	}
	return tree.Flag{}, ierrors.Config(loc.File, loc.Line, "malformed OPTIONS bullet %q", text)
}

// stripFlagKeyword removes a leading "flag:" or "flags:" token.
func stripFlagKeyword(s string) (string, bool) {
	lower := strings.ToLower(s)
	for _, kw := range []string{"flags:", "flag:"} {
		if strings.HasPrefix(lower, kw) {
			return strings.TrimSpace(s[len(kw):]), true
		}
	}
	return s, false
}

// parseShorthandFlag handles: "-x --long |type| [required] description…"
func parseShorthandFlag(rest string, loc tree.SourceLocation) (tree.Flag, error) {
	first := strings.Index(rest, "|")
	second := strings.Index(rest[first+1:], "|")
	if first == -1 || second == -1 {
		return tree.Flag{}, ierrors.Config(loc.File, loc.Line, "shorthand flag missing closing |type|: %q", rest)
	}
	second += first + 1

	namesPart := strings.TrimSpace(rest[:first])
	typePart := strings.TrimSpace(rest[first+1 : second])
	tailPart := strings.TrimSpace(rest[second+1:])

	short, long := splitFlagNameTokens(strings.Fields(namesPart))
	if long == "" {
		return tree.Flag{}, ierrors.Config(loc.File, loc.Line, "flag has no long name: %q", rest)
	}

	required := false
	if rem, ok := stripRequiredToken(tailPart); ok {
		required = true
		tailPart = rem
	}

	return tree.Flag{
		Long:        long,
		Short:       short,
		Type:        parseFlagType(typePart),
		Required:    required,
		Description: strings.TrimSpace(tailPart),
	}, nil
}

// parseLongformFlag handles the sub-bullet form:
//
//	- flag: -x, --long
//	  - type: string
//	  - desc: some description
//	  - required
func parseLongformFlag(sub []listItem, loc tree.SourceLocation) (tree.Flag, error) {
	var f tree.Flag
	var haveNames bool
	for _, line := range sub {
		t := strings.TrimSpace(line.Text)
		lower := strings.ToLower(t)
		switch {
		case strings.HasPrefix(lower, "flags:"):
			names := strings.TrimSpace(t[len("flags:"):])
			f.Short, f.Long = splitFlagNameTokens(splitNameList(names))
			haveNames = true
		case strings.HasPrefix(lower, "flag:"):
			names := strings.TrimSpace(t[len("flag:"):])
			f.Short, f.Long = splitFlagNameTokens(splitNameList(names))
			haveNames = true
		case strings.HasPrefix(lower, "type:"):
			f.Type = parseFlagType(strings.TrimSpace(t[len("type:"):]))
		case strings.HasPrefix(lower, "desc:"):
			f.Description = strings.TrimSpace(t[len("desc:"):])
		case strings.HasPrefix(lower, "description:"):
			f.Description = strings.TrimSpace(t[len("description:"):])
		case lower == "required":
			f.Required = true
		}
	}
	if !haveNames || f.Long == "" {
		return tree.Flag{}, ierrors.Config(loc.File, loc.Line, "OPTIONS entry missing flag: name")
	}
	return f, nil
}

// splitNameList splits "-x, --long" or "-x --long" into tokens.
func splitNameList(s string) []string {
	s = strings.ReplaceAll(s, ",", " ")
	return strings.Fields(s)
}

// splitFlagNameTokens assigns single-dash tokens to short and
// double-dash tokens to long; both describe the same flag.
func splitFlagNameTokens(tokens []string) (short, long string) {
	for _, tok := range tokens {
		switch {
		case strings.HasPrefix(tok, "--"):
			long = strings.TrimPrefix(tok, "--")
		case strings.HasPrefix(tok, "-"):
			short = strings.TrimPrefix(tok, "-")
		}
	}
	return short, long
}

func stripRequiredToken(s string) (string, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 || strings.ToLower(fields[0]) != "required" {
		return s, false
	}
	return strings.Join(fields[1:], " "), true
}

func parseFlagType(s string) tree.FlagType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string":
		return tree.FlagString
	case "number":
		return tree.FlagNumber
	default:
		return tree.FlagBool
	}
}
