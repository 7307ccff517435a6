// Package parser drives goldmark over the inkfile text and emits a
// Command Tree. It maintains a small state machine — idle,
// in_command_heading, awaiting_description, collecting_prose,
// in_options_list, in_code_fence — implemented as an explicit stack of
// per-heading-level states walked across the document's top-level
// block nodes.
package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/inkjet-run/inkjet/internal/ierrors"
	"github.com/inkjet-run/inkjet/internal/tree"
)

// openState tracks the command currently open at a given heading
// level, plus whether its short description has been captured yet and
// whether the next bullet list should be read as an OPTIONS block.
type openState struct {
	cmd            *tree.Command
	gotShortDesc   bool
	pendingOptions bool
}

// Parse builds a Command Tree from inkfile Markdown text. file is
// used for diagnostics. directives sets the FixedDir and dir the
// SourceDir recorded on every command; the Importer calls Parse once
// per imported file with that file's own directives and directory.
func Parse(source []byte, file string, directives tree.Directives, dir string) (*tree.CommandTree, error) {
	lineStarts := computeLineStarts(source)

	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader(source))

	root := tree.NewRoot()
	root.FixedDir = directives.FixedDir
	root.SourceDir = dir

	var stack [7]*openState
	stack[0] = &openState{cmd: root}

	current := func() *openState {
		for l := 6; l >= 0; l-- {
			if stack[l] != nil {
				return stack[l]
			}
		}
		return stack[0]
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		loc := tree.SourceLocation{File: file, Line: lineForNode(node, lineStarts)}

		switch n := node.(type) {
		case *ast.Heading:
			if n.Level == 1 {
				for l := 1; l <= 6; l++ {
					stack[l] = nil
				}
				continue
			}
			if err := openHeading(n, source, loc, &stack); err != nil {
				return nil, err
			}

		case *ast.Blockquote:
			st := current()
			text := blockProseText(n, source)
			if text == "" {
				continue
			}
			recordProse(st, text)

		case *ast.Paragraph:
			text := strings.TrimSpace(inlineText(n, source))
			if text == "" {
				continue
			}
			st := current()
			if text == "OPTIONS" {
				st.pendingOptions = true
				continue
			}
			switch {
			case st.gotShortDesc:
				recordProse(st, text)
			case st.cmd.Name == "":
				// root: "any prose before the first H2" is fair game,
				// not just blockquotes.
				recordProse(st, text)
			default:
				// non-root: only a blockquote establishes the short
				// description; a bare paragraph ahead of one is
				// prose that matches no construct.
			}

		case *ast.List:
			if n.IsOrdered() {
				continue
			}
			st := current()
			if !st.pendingOptions {
				continue
			}
			st.pendingOptions = false
			items := convertList(n, source)
			flags, err := parseOptionsList(items, loc)
			if err != nil {
				return nil, err
			}
			if err := tree.ValidateFlags(loc, flags, nil); err != nil {
				return nil, err
			}
			st.cmd.Flags = append(st.cmd.Flags, flags...)

		case *ast.FencedCodeBlock:
			st := current()
			if st.cmd.Name == "" {
				continue
			}
			st.cmd.Scripts = append(st.cmd.Scripts, extractScript(n, source))
		}
	}

	assignImplicitVerbose(root)

	return &tree.CommandTree{Root: root, Directives: directives}, nil
}

func recordProse(st *openState, text string) {
	if !st.gotShortDesc {
		st.cmd.ShortDesc = text
		st.gotShortDesc = true
		return
	}
	if st.cmd.LongDesc == "" {
		st.cmd.LongDesc = text
	} else {
		st.cmd.LongDesc += "\n\n" + text
	}
}

func openHeading(n *ast.Heading, source []byte, loc tree.SourceLocation, stack *[7]*openState) error {
	level := n.Level
	raw := inlineText(n, source)
	info := parseHeadingText(raw)
	if info.Primary == "" {
		return nil
	}

	var parent *openState
	if level == 2 {
		parent = stack[0]
	} else {
		parent = stack[level-1]
		if parent == nil {
			return ierrors.Config(loc.File, loc.Line,
				"heading %q has no open ancestor at level %d", raw, level-1)
		}
	}
	if err := validateAncestorPath(stack, level, info.PathSegments, loc); err != nil {
		return err
	}

	cmd := &tree.Command{
		Name:      info.Primary,
		Aliases:   info.Aliases,
		Hidden:    info.Hidden,
		Args:      info.Args,
		Loc:       loc,
		FixedDir:  parent.cmd.FixedDir,
		SourceDir: parent.cmd.SourceDir,
	}
	for _, a := range info.Aliases {
		if a == "default" {
			cmd.IsDefault = true
		}
	}
	if err := tree.ValidateArgs(loc, cmd.Args); err != nil {
		return err
	}
	if err := parent.cmd.AddChild(cmd); err != nil {
		return err
	}

	for l := level; l <= 6; l++ {
		stack[l] = nil
	}
	stack[level] = &openState{cmd: cmd}
	return nil
}

// validateAncestorPath checks that a heading's leading path segments
// name the commands currently open at levels 2..level-1, in order.
func validateAncestorPath(stack *[7]*openState, level int, segments []string, loc tree.SourceLocation) error {
	want := level - 2
	if len(segments) != want {
		return ierrors.Config(loc.File, loc.Line,
			"heading ancestor path has %d segment(s), expected %d for a level-%d heading",
			len(segments), want, level)
	}
	for i, seg := range segments {
		anc := stack[2+i]
		if anc == nil || !anc.cmd.MatchesToken(seg) {
			return ierrors.Config(loc.File, loc.Line, "heading segment %q does not match the open ancestor command", seg)
		}
	}
	return nil
}

func assignImplicitVerbose(c *tree.Command) {
	c.EnsureImplicitVerbose()
	for _, ch := range c.Children {
		assignImplicitVerbose(ch)
	}
}

// --- Markdown AST helpers ---

// inlineText flattens a block node's inline children into plain text,
// ignoring emphasis/strong/code-span/link markup so headings compare
// on their visible text alone.
func inlineText(n ast.Node, source []byte) string {
	var sb strings.Builder
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		default:
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				walk(c)
			}
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		walk(c)
	}
	return sb.String()
}

// blockProseText renders a blockquote's paragraphs (and any nested
// blocks) as plain text, one paragraph per line.
func blockProseText(n ast.Node, source []byte) string {
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Kind() == ast.KindParagraph || c.Kind() == ast.KindTextBlock {
			if t := strings.TrimSpace(inlineText(c, source)); t != "" {
				parts = append(parts, t)
			}
			continue
		}
		if t := blockProseText(c, source); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// convertList turns a goldmark bullet list into the Markdown-neutral
// listItem shape the flag grammar parses.
func convertList(n *ast.List, source []byte) []listItem {
	var items []listItem
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		li, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		items = append(items, convertListItem(li, source))
	}
	return items
}

func convertListItem(li *ast.ListItem, source []byte) listItem {
	var item listItem
	var textParts []string
	for c := li.FirstChild(); c != nil; c = c.NextSibling() {
		if sub, ok := c.(*ast.List); ok {
			item.Sub = append(item.Sub, convertList(sub, source)...)
			continue
		}
		if t := strings.TrimSpace(inlineText(c, source)); t != "" {
			textParts = append(textParts, t)
		}
	}
	item.Text = strings.TrimSpace(strings.Join(textParts, " "))
	return item
}

func extractScript(n *ast.FencedCodeBlock, source []byte) tree.Script {
	var rawLang string
	if lang := n.Language(source); lang != nil {
		rawLang = string(lang)
	}
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	src := sb.String()

	var shebang string
	if strings.HasPrefix(src, "#!") {
		if idx := strings.IndexByte(src, '\n'); idx != -1 {
			shebang = strings.TrimSpace(src[:idx])
		} else {
			shebang = strings.TrimSpace(src)
		}
	}

	return tree.Script{
		Language:    normalizeLanguage(rawLang),
		RawLanguage: rawLang,
		Source:      src,
		Shebang:     shebang,
	}
}

// normalizeLanguage lowercases a fence info-string tag and applies the
// documented interpreter-family aliasing.
func normalizeLanguage(tag string) string {
	fields := strings.Fields(tag)
	if len(fields) == 0 {
		return ""
	}
	t := strings.ToLower(fields[0])
	switch t {
	case "js", "javascript":
		return "node"
	case "py", "python":
		return "python"
	case "rb":
		return "ruby"
	case "ts", "typescript":
		return "deno"
	case "go":
		return "yaegi"
	default:
		return t
	}
}

// --- source-offset to line-number mapping ---

func computeLineStarts(source []byte) []int {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func lineForOffset(starts []int, offset int) int {
	lo, hi := 0, len(starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

func firstLineOffset(n ast.Node) int {
	if n == nil {
		return -1
	}
	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		return lines.At(0).Start
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off := firstLineOffset(c); off != -1 {
			return off
		}
	}
	return -1
}

func lineForNode(n ast.Node, lineStarts []int) int {
	off := firstLineOffset(n)
	if off == -1 {
		return 0
	}
	return lineForOffset(lineStarts, off)
}
