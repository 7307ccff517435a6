// Package completion hand-builds bash and fish completion scripts from
// a Command Tree's visible structure. There is no dynamic runtime
// component here: the Tree's shape is fixed once the Parser has run,
// so the scripts are plain templated text, generated once per
// `inkjet-dynamic-completions` invocation.
package completion

import (
	"fmt"
	"strings"

	"github.com/inkjet-run/inkjet/internal/tree"
)

// Bash renders a bash completion script for binName that completes
// command paths and long flag names from t's visible structure.
// Hidden commands are never offered.
func Bash(t *tree.CommandTree, binName string) string {
	var b strings.Builder
	fname := completionFuncName(binName)

	fmt.Fprintf(&b, "# bash completion for %s\n", binName)
	fmt.Fprintf(&b, "%s() {\n", fname)
	b.WriteString("    local cur words cword\n")
	b.WriteString("    _init_completion || return\n\n")
	b.WriteString("    local path=\"${COMP_WORDS[*]:1:COMP_CWORD-1}\"\n")
	b.WriteString("    case \"$path\" in\n")

	emitBashCases(&b, t.Root, nil, t.Directives.SortSourceOrder)

	b.WriteString("    esac\n")
	b.WriteString("}\n")
	fmt.Fprintf(&b, "complete -F %s %s\n", fname, binName)
	return b.String()
}

// emitBashCases walks the visible tree, emitting one `case` arm per
// ancestor path that lists its children and flags as completion
// candidates for COMPREPLY.
func emitBashCases(b *strings.Builder, cmd *tree.Command, path []string, sortSourceOrder bool) {
	children := cmd.SortedChildren(sortSourceOrder)
	words := make([]string, 0, len(children)+len(cmd.Flags))
	for _, ch := range children {
		words = append(words, ch.Name)
	}
	for _, f := range cmd.Flags {
		words = append(words, "--"+f.Long)
	}

	pattern := strings.Join(path, " ")
	fmt.Fprintf(b, "        \"%s\")\n", pattern)
	fmt.Fprintf(b, "            COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(words, " "))
	b.WriteString("            ;;\n")

	for _, ch := range children {
		emitBashCases(b, ch, append(append([]string{}, path...), ch.Name), sortSourceOrder)
	}
}

// Fish renders a fish completion script for binName using
// `complete -c` directives, one per visible command path.
func Fish(t *tree.CommandTree, binName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# fish completion for %s\n", binName)
	emitFishCompletions(&b, t.Root, nil, binName, t.Directives.SortSourceOrder)
	return b.String()
}

func emitFishCompletions(b *strings.Builder, cmd *tree.Command, path []string, binName string, sortSourceOrder bool) {
	for _, ch := range cmd.SortedChildren(sortSourceOrder) {
		childPath := append(append([]string{}, path...), ch.Name)
		condition := fishSubcommandCondition(path)
		desc := ch.ShortDesc

		fmt.Fprintf(b, "complete -c %s -n %q -a %q", binName, condition, ch.Name)
		if desc != "" {
			fmt.Fprintf(b, " -d %q", desc)
		}
		b.WriteString("\n")

		for _, f := range ch.Flags {
			fmt.Fprintf(b, "complete -c %s -n %q -l %q", binName, fishSubcommandCondition(childPath), f.Long)
			if f.Short != "" {
				fmt.Fprintf(b, " -s %q", f.Short)
			}
			if f.Description != "" {
				fmt.Fprintf(b, " -d %q", f.Description)
			}
			b.WriteString("\n")
		}

		emitFishCompletions(b, ch, childPath, binName, sortSourceOrder)
	}
}

// fishSubcommandCondition builds the `__fish_seen_subcommand_from`-style
// guard restricting completions to a specific command path.
func fishSubcommandCondition(path []string) string {
	if len(path) == 0 {
		return "__fish_use_subcommand"
	}
	return "__fish_seen_subcommand_from " + strings.Join(path, " ")
}

func completionFuncName(binName string) string {
	return "_" + strings.ReplaceAll(binName, "-", "_") + "_completions"
}
