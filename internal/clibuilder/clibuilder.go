// Package clibuilder translates a Command Tree into a *cobra.Command
// graph, the same way a static cobra app registers *cobra.Command
// values onto a root command in init() — but built dynamically from
// the Tree instead, since Inkjet's command set isn't known until an
// inkfile has been parsed.
package clibuilder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkjet-run/inkjet/internal/completion"
	"github.com/inkjet-run/inkjet/internal/tree"
)

// Options configures the root command's own identity.
type Options struct {
	BinaryName string
	Version    string
}

// RunFunc is invoked once cobra has routed argv down to a command
// path. Every dynamically-built node disables cobra's own flag
// parsing (declared flags aren't known until the Tree exists, and
// their types come from the inkfile, not a compile-time FlagSet), so
// RunFunc receives the untouched remainder of argv for the Resolver
// to parse and the Executor to run. cc is the matched node itself, so
// a caller that needs to print this command's own help text (e.g. on
// resolver.HelpRequested) can call cc.Help() directly.
type RunFunc func(cc *cobra.Command, path []string, rest []string) error

// Build constructs the root command for ct: the global inkfile/
// interactive/preview/verbose flags, one cobra node per visible-or-
// hidden Tree command (hidden nodes carry cobra's own Hidden flag, so
// they're excluded from help output but still invocable by name), and
// the hidden `inkjet-dynamic-completions` command.
func Build(ct *tree.CommandTree, opts Options, run RunFunc) *cobra.Command {
	root := &cobra.Command{
		Use:                opts.BinaryName,
		Short:              ct.Root.ShortDesc,
		Long:               renderLong(ct.Root),
		Version:            opts.Version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableFlagParsing: true,
	}
	root.PersistentFlags().StringP("inkfile", "c", "", "path to the inkfile, literal text, or - for stdin")
	root.PersistentFlags().BoolP("interactive", "i", false, "prompt for declared args/flags before running")
	root.PersistentFlags().BoolP("preview", "p", false, "print the script body and exit without running")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose diagnostics")
	root.Flags().BoolP("version", "V", false, "print the version number and exit")

	// Root itself is the default-alias dispatch target for a bare
	// invocation with no subcommand tokens, so it needs the same
	// DisableFlagParsing treatment as every other node: OPTIONS flags
	// declared on the default command aren't known to cobra either.
	// -h/-V are caught by hand for the same reason they already are on
	// every dynamic node.
	root.RunE = func(cc *cobra.Command, args []string) error {
		if wantsHelp(args) {
			return cc.Help()
		}
		if wantsVersion(args) {
			fmt.Fprintf(cc.OutOrStdout(), "%s version %s\n", cc.Name(), cc.Version)
			return nil
		}
		return run(cc, nil, args)
	}

	addChildren(root, ct.Root, nil, run)
	addCompletionCommand(root, ct)
	return root
}

func addChildren(parent *cobra.Command, cmd *tree.Command, path []string, run RunFunc) {
	for _, ch := range cmd.AllChildren() {
		childPath := append(append([]string{}, path...), ch.Name)
		node := &cobra.Command{
			Use:                ch.Name,
			Aliases:            visibleAliases(ch),
			Short:              ch.ShortDesc,
			Long:               renderLong(ch),
			Hidden:             ch.Hidden,
			DisableFlagParsing: true,
			RunE: func(cc *cobra.Command, args []string) error {
				if wantsHelp(args) {
					return cc.Help()
				}
				return run(cc, childPath, args)
			},
		}
		parent.AddCommand(node)
		addChildren(node, ch, childPath, run)
	}
}

// addCompletionCommand wires a hidden dynamic-completions command,
// generated from ct's own visible structure rather than cobra's static
// completion generator (which closes over a command graph fixed at
// init() time, not one built fresh per inkfile).
func addCompletionCommand(root *cobra.Command, ct *tree.CommandTree) {
	comp := &cobra.Command{
		Use:    "inkjet-dynamic-completions [bash|fish]",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cc *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				fmt.Fprint(cc.OutOrStdout(), completion.Bash(ct, root.Use))
			case "fish":
				fmt.Fprint(cc.OutOrStdout(), completion.Fish(ct, root.Use))
			default:
				return fmt.Errorf("unsupported completion shell %q", args[0])
			}
			return nil
		},
	}
	root.AddCommand(comp)
}

// wantsHelp recognises -h/--help ahead of the Resolver taking over,
// since a node with DisableFlagParsing never parses its own --help
// flag for us.
func wantsHelp(args []string) bool {
	for _, a := range args {
		if a == "-h" || a == "--help" {
			return true
		}
		if a == "--" {
			return false
		}
	}
	return false
}

// wantsVersion recognises -V/--version on the root command, which
// also has DisableFlagParsing set and so never gets cobra's own
// version-flag handling for free.
func wantsVersion(args []string) bool {
	for _, a := range args {
		if a == "-V" || a == "--version" {
			return true
		}
		if a == "--" {
			return false
		}
	}
	return false
}

func visibleAliases(cmd *tree.Command) []string {
	out := make([]string, 0, len(cmd.Aliases))
	for _, a := range cmd.Aliases {
		if a != "default" {
			out = append(out, a)
		}
	}
	return out
}

func renderLong(cmd *tree.Command) string {
	if cmd.LongDesc == "" {
		return cmd.ShortDesc
	}
	if cmd.ShortDesc == "" {
		return cmd.LongDesc
	}
	return strings.Join([]string{cmd.ShortDesc, cmd.LongDesc}, "\n\n")
}
