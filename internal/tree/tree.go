// Package tree implements Inkjet's Command Tree: the in-memory
// hierarchy of commands, positional args, flags, and scripts produced
// by the Parser and consumed by the CLI Builder and Resolver.
package tree

import (
	"strings"

	"github.com/inkjet-run/inkjet/internal/ierrors"
)

// SourceLocation pins a node to where it was declared, for diagnostics.
type SourceLocation struct {
	File string
	Line int
}

// FlagType is the value type a Flag accepts.
type FlagType int

const (
	FlagBool FlagType = iota
	FlagString
	FlagNumber
)

func (t FlagType) String() string {
	switch t {
	case FlagBool:
		return "boolean"
	case FlagString:
		return "string"
	case FlagNumber:
		return "number"
	default:
		return "unknown"
	}
}

// PositionalArg is one entry from a command heading's (parens) tokens.
type PositionalArg struct {
	Name       string
	Required   bool
	Default    string
	HasDefault bool
	Variadic   bool
	RawTail    bool
}

// Flag is one entry from a command's OPTIONS block, plus the implicit
// verbose flag every command carries unless redefined.
type Flag struct {
	Long        string
	Short       string
	Type        FlagType
	Required    bool
	Description string
	Implicit    bool
}

// EnvKey is the environment-variable key for this flag: the long name
// with every '-' replaced by '_'.
func (f Flag) EnvKey() string {
	return strings.ReplaceAll(f.Long, "-", "_")
}

// EnvKey is the environment-variable key for a positional arg.
func (a PositionalArg) EnvKey() string {
	return strings.ReplaceAll(a.Name, "-", "_")
}

// Script is a command's fenced code block: its normalised interpreter
// language, the raw info-string tag, the source text, and an optional
// shebang line that overrides interpreter selection.
type Script struct {
	Language    string
	RawLanguage string
	Source      string
	Shebang     string
}

// Command is one heading in the inkfile, or the synthetic root that
// represents the inkfile itself.
type Command struct {
	Name        string
	Aliases     []string
	IsDefault   bool
	Hidden      bool
	ShortDesc   string
	LongDesc    string
	Args        []PositionalArg
	Flags       []Flag
	// Scripts holds every fenced code block declared for this command.
	// Most commands have exactly one; a command may declare several
	// tagged for different platforms (spec: "a command may contain
	// multiple code blocks with different tags").
	Scripts     []Script
	Children    []*Command
	Loc         SourceLocation
	FromImport  bool   // true if this command came from an imported file
	SourceDir   string // directory to use as CWD when running this command
	FixedDir    bool   // whether SourceDir should be used as CWD at all
}

// NewRoot creates the synthetic root command representing the inkfile.
func NewRoot() *Command {
	return &Command{Name: "", FixedDir: true}
}

// Invocable reports whether this command can be run directly (has at
// least one script) as opposed to being a group that only routes to
// children.
func (c *Command) Invocable() bool {
	return len(c.Scripts) > 0
}

// MatchesToken reports whether token names this command, either by
// canonical name or by one of its aliases (excluding the synthetic
// "default" alias, which is not a name token).
func (c *Command) MatchesToken(token string) bool {
	if c.Name == token {
		return true
	}
	for _, a := range c.Aliases {
		if a == "default" {
			continue
		}
		if a == token {
			return true
		}
	}
	return false
}

// FindChild resolves token against this command's children by
// canonical name or alias.
func (c *Command) FindChild(token string) (*Command, bool) {
	for _, ch := range c.Children {
		if ch.MatchesToken(token) {
			return ch, true
		}
	}
	return nil, false
}

// DefaultChild returns the child declared with the "default" alias,
// if any.
func (c *Command) DefaultChild() (*Command, bool) {
	for _, ch := range c.Children {
		for _, a := range ch.Aliases {
			if a == "default" {
				return ch, true
			}
		}
	}
	return nil, false
}

// AddChild appends child, enforcing that no existing child already
// claims its canonical name or any of its aliases. Used for
// within-file construction, where a collision is a ConfigError.
func (c *Command) AddChild(child *Command) error {
	for _, existing := range c.Children {
		if namesCollide(existing, child) {
			return ierrors.Config(child.Loc.File, child.Loc.Line,
				"duplicate command %q (already declared at %s:%d)",
				child.Name, existing.Loc.File, existing.Loc.Line)
		}
	}
	c.Children = append(c.Children, child)
	return nil
}

// ReplaceChild inserts child, removing any existing child with the
// same canonical name first. Used by the Importer, where a later
// definition wholesale-replaces an earlier one instead of erroring.
func (c *Command) ReplaceChild(child *Command) {
	for i, existing := range c.Children {
		if existing.Name == child.Name {
			c.Children[i] = child
			return
		}
	}
	c.Children = append(c.Children, child)
}

func namesCollide(a, b *Command) bool {
	if a.Name == b.Name {
		return true
	}
	for _, al := range b.Aliases {
		if al == "default" {
			continue
		}
		if a.MatchesToken(al) {
			return true
		}
	}
	for _, al := range a.Aliases {
		if al == "default" {
			continue
		}
		if b.MatchesToken(al) {
			return true
		}
	}
	return false
}

// SortedChildren returns c's visible children (hidden commands are
// omitted from help/completion but remain invocable) ordered per the
// inkjet_sort directive: source order when sortSourceOrder is true
// (the default, and the behaviour when the directive is absent),
// alphabetical by canonical name when false.
func (c *Command) SortedChildren(sortSourceOrder bool) []*Command {
	visible := make([]*Command, 0, len(c.Children))
	for _, ch := range c.Children {
		if !ch.Hidden {
			visible = append(visible, ch)
		}
	}
	if sortSourceOrder {
		return visible
	}
	out := make([]*Command, len(visible))
	copy(out, visible)
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && out[j-1].Name > out[j].Name {
			out[j-1], out[j] = out[j], out[j-1]
			j--
		}
	}
	return out
}

// AllChildren returns every child regardless of visibility, in source
// order — used for lookup, which must still find hidden commands.
func (c *Command) AllChildren() []*Command {
	return c.Children
}

// EnsureImplicitVerbose adds the implicit "verbose" boolean flag with
// short "v" to c unless a flag named "verbose" was already declared
// explicitly, per spec: "explicit redefinition replaces the implicit
// one."
func (c *Command) EnsureImplicitVerbose() {
	for _, f := range c.Flags {
		if f.Long == "verbose" {
			return
		}
	}
	c.Flags = append(c.Flags, Flag{
		Long:     "verbose",
		Short:    "v",
		Type:     FlagBool,
		Implicit: true,
	})
}

// ValidateArgs enforces the PositionalArg invariants: at most one
// variadic, and it must be last; no required arg after an optional
// one; a raw-tail arg must be last.
func ValidateArgs(loc SourceLocation, args []PositionalArg) error {
	variadicSeen := -1
	optionalSeen := -1
	rawTailSeen := -1
	for i, a := range args {
		if a.Variadic {
			if variadicSeen != -1 {
				return ierrors.Config(loc.File, loc.Line, "only one variadic argument is allowed per command")
			}
			variadicSeen = i
		}
		if a.RawTail {
			rawTailSeen = i
		}
		if a.Required && optionalSeen != -1 {
			return ierrors.Config(loc.File, loc.Line, "required argument %q cannot follow optional argument", a.Name)
		}
		if !a.Required {
			optionalSeen = i
		}
	}
	if variadicSeen != -1 && variadicSeen != len(args)-1 {
		return ierrors.Config(loc.File, loc.Line, "variadic argument must be the last positional argument")
	}
	if rawTailSeen != -1 && rawTailSeen != len(args)-1 {
		return ierrors.Config(loc.File, loc.Line, "raw-tail argument must be the last positional argument")
	}
	return nil
}

// ValidateFlags enforces flag-name invariants: long names unique
// within a command, short names unique within a command and its
// ancestor chain (ancestorShorts is the set of short names already
// claimed by ancestors; a nil map skips the ancestor check, which is
// how the Parser calls it for each command's OPTIONS block).
func ValidateFlags(loc SourceLocation, flags []Flag, ancestorShorts map[string]bool) error {
	longs := map[string]bool{}
	shorts := map[string]bool{}
	for _, f := range flags {
		if longs[f.Long] {
			return ierrors.Config(loc.File, loc.Line, "duplicate flag --%s", f.Long)
		}
		longs[f.Long] = true
		if f.Short != "" {
			if shorts[f.Short] || (ancestorShorts != nil && ancestorShorts[f.Short]) {
				return ierrors.Config(loc.File, loc.Line, "duplicate flag short name -%s", f.Short)
			}
			shorts[f.Short] = true
		}
	}
	return nil
}

// Directives are the text-level toggles the Directive Scanner extracts
// before structural parsing.
type Directives struct {
	// SortSourceOrder is true (the default, and the behaviour when the
	// directive is absent) when children should render in source
	// order; false when inkjet_sort: false requests alphabetical order.
	SortSourceOrder bool
	// FixedDir is true (the default) when scripts run with CWD set to
	// the inkfile's directory.
	FixedDir bool
	// ImportAll is true when inkjet_import: all was declared.
	ImportAll bool
}

// DefaultDirectives returns the directive set in effect when no
// directive lines are present.
func DefaultDirectives() Directives {
	return Directives{SortSourceOrder: true, FixedDir: true, ImportAll: false}
}

// CommandTree is the rooted forest produced by the Parser.
type CommandTree struct {
	Root       *Command
	Directives Directives
}

// Lookup walks path against the tree, returning the deepest Command
// reached, the number of path segments consumed reaching it, and
// whether the full path was consumed.
func (t *CommandTree) Lookup(path []string) (cmd *Command, consumed int, full bool) {
	cur := t.Root
	for i, seg := range path {
		next, ok := cur.FindChild(seg)
		if !ok {
			return cur, i, false
		}
		cur = next
	}
	return cur, len(path), true
}

// PathString renders a path for diagnostics, e.g. "services stop all".
func PathString(path []string) string {
	return strings.Join(path, " ")
}
