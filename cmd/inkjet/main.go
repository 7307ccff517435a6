// Command inkjet turns a Markdown inkfile into an interactive CLI.
// It wires the Locator, Directive Scanner, Importer, Parser, CLI
// Builder, Resolver, and Executor into a single pipeline, and is the
// only place in the module that calls os.Exit.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inkjet-run/inkjet/internal/clibuilder"
	"github.com/inkjet-run/inkjet/internal/directive"
	"github.com/inkjet-run/inkjet/internal/executor"
	"github.com/inkjet-run/inkjet/internal/ierrors"
	"github.com/inkjet-run/inkjet/internal/ilog"
	"github.com/inkjet-run/inkjet/internal/importer"
	"github.com/inkjet-run/inkjet/internal/inkctx"
	"github.com/inkjet-run/inkjet/internal/interactive"
	"github.com/inkjet-run/inkjet/internal/locator"
	"github.com/inkjet-run/inkjet/internal/parser"
	"github.com/inkjet-run/inkjet/internal/resolver"
	"github.com/inkjet-run/inkjet/internal/tree"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

// globalFlags are the flags the Locator and Executor need before a
// Command Tree even exists, so they're pulled out of argv by hand
// ahead of cobra ever seeing it and threaded through explicitly
// instead of living as package-level state.
type globalFlags struct {
	inkfile     string
	interactive bool
	preview     bool
	verbose     bool
}

func extractGlobalFlags(argv []string) (globalFlags, []string) {
	var g globalFlags
	rest := make([]string, 0, len(argv))
	for i := 0; i < len(argv); i++ {
		a := argv[i]
		switch {
		case a == "-c" || a == "--inkfile":
			if i+1 < len(argv) {
				g.inkfile = argv[i+1]
				i++
			}
		case strings.HasPrefix(a, "--inkfile="):
			g.inkfile = strings.TrimPrefix(a, "--inkfile=")
		case a == "-i" || a == "--interactive":
			g.interactive = true
		case a == "-p" || a == "--preview":
			g.preview = true
		case a == "-v" || a == "--verbose":
			g.verbose = true
		case a == "--":
			rest = append(rest, argv[i:]...)
			return g, rest
		default:
			rest = append(rest, a)
		}
	}
	return g, rest
}

func run(argv []string) int {
	global, rest := extractGlobalFlags(argv)
	log := ilog.New(global.verbose)

	cwd, err := os.Getwd()
	if err != nil {
		return fail(err)
	}

	located, err := locator.Locate(global.inkfile, cwd, os.Stdin)
	if err != nil {
		return fail(err)
	}
	log.Debugf("using inkfile %s", located.Path)

	directives := directive.Scan(located.Text)
	ct, err := parser.Parse([]byte(located.Text), located.Path, directives, located.Dir)
	if err != nil {
		return fail(err)
	}

	if err := importer.Apply(ct, located.Dir, located.Path, os.ReadFile); err != nil {
		return fail(err)
	}

	binaryPath, err := os.Executable()
	if err != nil {
		binaryPath = "inkjet"
	}

	ictx := inkctx.Context{
		NoColor:     os.Getenv("NO_COLOR") != "",
		Verbose:     global.verbose,
		BinaryPath:  binaryPath,
		InkfilePath: located.Path,
		InkfileDir:  located.Dir,
		Cwd:         cwd,
	}

	var runErr error
	root := clibuilder.Build(ct, clibuilder.Options{BinaryName: "inkjet", Version: version},
		func(cc *cobra.Command, path []string, tail []string) error {
			runErr = dispatch(ct, cc, path, tail, global, ictx, log)
			return nil
		})
	root.SetArgs(rest)

	if execErr := root.Execute(); execErr != nil {
		return fail(ierrors.Usage("%v", execErr))
	}
	if runErr != nil {
		return fail(runErr)
	}
	return ierrors.ExitOK
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, "inkjet:", err)
	return ierrors.ExitCode(err)
}

// dispatch re-resolves path+tail (argv trimmed of global flags) against
// the full Tree, since cobra only tells us which node matched and
// leaves its own flag set untouched; the Resolver is the single source
// of truth for flag/arg binding.
func dispatch(ct *tree.CommandTree, cc *cobra.Command, path, tail []string, global globalFlags, ictx inkctx.Context, log *ilog.Logger) error {
	argv := append(append([]string{}, path...), tail...)
	inv, err := resolver.Resolve(ct, argv)
	if err != nil {
		var help *resolver.HelpRequested
		if errors.As(err, &help) {
			return cc.Help()
		}
		return err
	}

	if inv.CWD == "" {
		inv.CWD = ictx.Cwd
	}

	if global.interactive && interactive.IsInteractive() {
		choice, promptErr := runInteractivePrompts(inv)
		if promptErr != nil {
			return promptErr
		}
		if choice == interactive.ChoiceCancel {
			return nil
		}
		if choice == interactive.ChoicePreview {
			global.preview = true
		}
	}

	ownFile, ownDir := ictx.InkfilePath, ictx.InkfileDir
	if inv.Command.Loc.File != "" {
		ownFile = inv.Command.Loc.File
	}
	if inv.Command.SourceDir != "" {
		ownDir = inv.Command.SourceDir
	}

	opts := executor.Options{
		BinaryPath:     ictx.BinaryPath,
		InkfilePath:    ownFile,
		InkfileDir:     ownDir,
		TopInkfilePath: ictx.InkfilePath,
		TopInkfileDir:  ictx.InkfileDir,
		Preview:        global.preview,
		Highlighter:    interactive.PlainHighlighter{},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			log.Debugf("signal received, cancelling script")
			cancel()
		}
	}()

	_, err = executor.Run(ctx, inv, opts)
	return err
}

// runInteractivePrompts renders the command's description, asks for
// any declared args/flags not already bound, and returns the user's
// run/preview/cancel choice.
func runInteractivePrompts(inv *resolver.Invocation) (interactive.Choice, error) {
	renderer := interactive.PlainRenderer{}
	fmt.Fprintln(os.Stderr, renderer.RenderDescription(inv.Command))

	prompter := interactive.NewStdioPrompter()
	for _, arg := range inv.Command.Args {
		if _, bound := inv.Env[arg.EnvKey()]; bound {
			continue
		}
		value, err := prompter.PromptArg(arg)
		if err != nil {
			return interactive.ChoiceCancel, err
		}
		inv.Env[arg.EnvKey()] = value
	}
	for _, flag := range inv.Command.Flags {
		if _, bound := inv.Env[flag.EnvKey()]; bound {
			continue
		}
		value, err := prompter.PromptFlag(flag)
		if err != nil {
			return interactive.ChoiceCancel, err
		}
		if value != "" {
			inv.Env[flag.EnvKey()] = value
		}
	}

	return prompter.Confirm(inv.Command)
}
