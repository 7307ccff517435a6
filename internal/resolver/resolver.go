// Package resolver walks argv against a Command Tree and produces a
// single Invocation: the selected Command plus its resolved arg/flag
// environment bindings, ready for the Executor.
package resolver

import (
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/inkjet-run/inkjet/internal/ierrors"
	"github.com/inkjet-run/inkjet/internal/tree"
)

// Invocation is the fully-resolved result of walking argv against a
// Command Tree. Env holds only the declared arg/flag bindings
// (dash-separated names normalised to underscores); the Executor adds
// the reserved INK/INKJET/INK_DIR/INKJET_DIR/INKJET_IMPORTED variables
// before spawning.
type Invocation struct {
	Command *tree.Command
	Path    []string
	Env     map[string]string
	CWD     string
}

// HelpRequested means argv resolved to a command group with no default
// child and no trailing arguments: the caller should print help for
// Command and exit 0, not treat this as a failure.
type HelpRequested struct {
	Command *tree.Command
	Path    []string
}

func (h *HelpRequested) Error() string { return "help requested for " + tree.PathString(h.Path) }

// Resolve walks argv against t, following default-alias redirects
// through any chain of non-invocable groups, then parses the
// remaining tokens against the selected command's flags and
// positional args.
func Resolve(t *tree.CommandTree, argv []string) (*Invocation, error) {
	cur, path, rest := walkPath(t, argv)

	for !cur.Invocable() {
		def, ok := cur.DefaultChild()
		if !ok {
			break
		}
		cur = def
		path = append(append([]string{}, path...), def.Name)
	}

	if !cur.Invocable() {
		if len(rest) > 0 {
			return nil, ierrors.Usage("%q has no command matching %q", tree.PathString(path), rest[0])
		}
		return nil, &HelpRequested{Command: cur, Path: path}
	}

	env, remaining, err := parseFlags(cur, rest)
	if err != nil {
		return nil, err
	}

	argEnv, err := bindPositionalArgs(cur, remaining)
	if err != nil {
		return nil, err
	}
	for k, v := range argEnv {
		env[k] = v
	}

	cwd := ""
	if cur.FixedDir {
		cwd = cur.SourceDir
	}

	return &Invocation{Command: cur, Path: path, Env: env, CWD: cwd}, nil
}

// walkPath consumes argv tokens that name a child by canonical name or
// alias, stopping at the first non-matching token.
func walkPath(t *tree.CommandTree, argv []string) (*tree.Command, []string, []string) {
	cur := t.Root
	var path []string
	i := 0
	for i < len(argv) {
		child, ok := cur.FindChild(argv[i])
		if !ok {
			break
		}
		cur = child
		path = append(path, child.Name)
		i++
	}
	return cur, path, argv[i:]
}

// parseFlags parses args against cmd's flags using POSIX conventions
// (--long, --long=value, -s value, bundled boolean shorts, -- to stop
// flag parsing), returning the resolved environment bindings and the
// leftover positional tokens.
func parseFlags(cmd *tree.Command, args []string) (map[string]string, []string, error) {
	fs := pflag.NewFlagSet(cmd.Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	strs := map[string]*string{}
	bools := map[string]*bool{}
	for _, f := range cmd.Flags {
		if f.Type == tree.FlagBool {
			bools[f.Long] = fs.BoolP(f.Long, f.Short, false, f.Description)
		} else {
			strs[f.Long] = fs.StringP(f.Long, f.Short, "", f.Description)
		}
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, ierrors.Usage("%v", err)
	}

	env := map[string]string{}
	for _, f := range cmd.Flags {
		key := f.EnvKey()
		switch f.Type {
		case tree.FlagBool:
			if *bools[f.Long] {
				env[key] = "true"
			} else if f.Required {
				return nil, nil, ierrors.Usage("missing required flag --%s", f.Long)
			}
		case tree.FlagNumber:
			v := *strs[f.Long]
			if v == "" {
				if f.Required {
					return nil, nil, ierrors.Usage("missing required flag --%s", f.Long)
				}
				continue
			}
			d, derr := decimal.NewFromString(v)
			if derr != nil {
				return nil, nil, ierrors.Usage("flag --%s expects a number, got %q", f.Long, v)
			}
			env[key] = d.String()
		default: // FlagString
			v := *strs[f.Long]
			if v == "" {
				if f.Required {
					return nil, nil, ierrors.Usage("missing required flag --%s", f.Long)
				}
				continue
			}
			env[key] = v
		}
	}

	return env, fs.Args(), nil
}

// bindPositionalArgs binds tokens against cmd's positional args: plain
// args consume one token each, a trailing variadic space-joins every
// remaining token, and a raw-tail arg collects everything after `--`
// verbatim.
func bindPositionalArgs(cmd *tree.Command, tokens []string) (map[string]string, error) {
	env := map[string]string{}
	i := 0
	for _, a := range cmd.Args {
		switch {
		case a.RawTail:
			env[a.EnvKey()] = strings.Join(tokens[i:], " ")
			i = len(tokens)

		case a.Variadic:
			if i >= len(tokens) {
				if a.Required {
					return nil, ierrors.Usage("missing required argument %q", a.Name)
				}
				env[a.EnvKey()] = a.Default
				continue
			}
			env[a.EnvKey()] = strings.Join(tokens[i:], " ")
			i = len(tokens)

		default:
			if i < len(tokens) {
				env[a.EnvKey()] = tokens[i]
				i++
				continue
			}
			if a.Required {
				return nil, ierrors.Usage("missing required argument %q", a.Name)
			}
			env[a.EnvKey()] = a.Default
		}
	}
	if i < len(tokens) {
		return nil, ierrors.Usage("unexpected extra argument %q", tokens[i])
	}
	return env, nil
}
