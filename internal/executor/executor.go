// Package executor spawns the interpreter a Command's script names,
// after injecting the Resolver's environment bindings and the
// reserved INK/INKJET variables, and propagates its exit status.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/inkjet-run/inkjet/internal/ierrors"
	"github.com/inkjet-run/inkjet/internal/interactive"
	"github.com/inkjet-run/inkjet/internal/resolver"
	"github.com/inkjet-run/inkjet/internal/tree"
)

// Options carries the pieces of an invocation the Executor needs
// beyond the resolved arg/flag bindings: the inkjet binary's own
// path, the selected command's own inkfile, and the topmost inkfile
// in an import chain (INKJET always points there, even for a command
// that came from an imported file).
type Options struct {
	BinaryPath     string
	InkfilePath    string
	InkfileDir     string
	TopInkfilePath string
	TopInkfileDir  string
	Preview        bool
	Highlighter    interactive.Highlighter
}

var shellFamily = map[string]bool{
	"sh": true, "bash": true, "zsh": true, "fish": true, "dash": true,
}

// Run selects the script appropriate for the running platform,
// injects the environment, and executes it with the interpreter its
// language tag names. It returns the script's exit code; a non-zero
// return is always accompanied by a *ierrors.ScriptError unless the
// failure was Inkjet's own (interpreter not found, temp file write
// failure), in which case it's an *ierrors.IoError.
func Run(ctx context.Context, inv *resolver.Invocation, opts Options) (int, error) {
	script, err := selectScript(inv.Command)
	if err != nil {
		return 0, err
	}

	if opts.Preview {
		body := script.Source
		if opts.Highlighter != nil {
			body = opts.Highlighter.Highlight(script.Language, body)
		}
		fmt.Fprintln(os.Stdout, body)
		return 0, nil
	}

	env := buildEnv(inv, opts)

	if script.Shebang != "" {
		return runShebang(ctx, script, inv.CWD, env)
	}
	if shellFamily[script.Language] {
		return runShell(ctx, script.Source, inv.CWD, env)
	}

	spec, err := interpreterSpawn(script.Language, script.Source)
	if err != nil {
		return 0, err
	}
	return runSpawn(ctx, spec, inv.CWD, env)
}

// selectScript picks the fenced code block to run: on Windows, a
// powershell/pwsh/cmd block is preferred if the command declares one;
// otherwise the first declared block runs regardless of platform.
func selectScript(cmd *tree.Command) (*tree.Script, error) {
	if len(cmd.Scripts) == 0 {
		return nil, ierrors.Usage("%q has no script body to run", cmd.Name)
	}
	if runtime.GOOS == "windows" {
		for i := range cmd.Scripts {
			switch cmd.Scripts[i].Language {
			case "powershell", "pwsh", "cmd":
				return &cmd.Scripts[i], nil
			}
		}
	}
	return &cmd.Scripts[0], nil
}

func buildEnv(inv *resolver.Invocation, opts Options) []string {
	env := os.Environ()
	for k, v := range inv.Env {
		env = append(env, k+"="+v)
	}
	env = append(env,
		"INK="+opts.BinaryPath+" --inkfile "+opts.InkfilePath,
		"INKJET="+opts.BinaryPath+" --inkfile "+opts.TopInkfilePath,
		"INK_DIR="+opts.InkfileDir,
		"INKJET_DIR="+opts.TopInkfileDir,
		"INKJET_IMPORTED="+strconv.FormatBool(inv.Command.FromImport),
	)
	return env
}

// runShell runs a shell-family script in-process via mvdan.cc/sh/v3,
// with the options that correspond to "set -e" so the first failing
// pipeline aborts the script. Using an in-process interpreter rather
// than spawning an external shell also sidesteps the need to locate a
// real bash binary on Windows.
func runShell(ctx context.Context, source, dir string, env []string) (int, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(source), "")
	if err != nil {
		return 0, ierrors.IO("failed to parse shell script", err)
	}

	runner, err := interp.New(
		interp.StdIO(os.Stdin, os.Stdout, os.Stderr),
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.Params("-e"),
	)
	if err != nil {
		return 0, ierrors.IO("failed to create shell runner", err)
	}

	runErr := runner.Run(ctx, file)
	if runErr == nil {
		return 0, nil
	}
	var status interp.ExitStatus
	if errors.As(runErr, &status) {
		return int(status), &ierrors.ScriptError{Code: int(status)}
	}
	return 1, ierrors.IO("shell script failed", runErr)
}

// spawnSpec is an external interpreter invocation: program, args, and
// an optional cleanup for any temp file the args reference.
type spawnSpec struct {
	program string
	args    []string
	cleanup func()
}

// interpreterSpawn builds the program/args for every non-shell
// language tag, per the interpreter-selection table.
func interpreterSpawn(lang, source string) (spawnSpec, error) {
	switch lang {
	case "powershell", "pwsh":
		return spawnSpec{program: "pwsh", args: []string{"-Command", source}}, nil

	case "cmd":
		path, cleanup, err := writeTempScript(source, ".bat")
		if err != nil {
			return spawnSpec{}, err
		}
		return spawnSpec{program: "cmd.exe", args: []string{"/C", path}, cleanup: cleanup}, nil

	case "node":
		return spawnSpec{program: "node", args: []string{"-e", source}}, nil

	case "deno":
		return spawnSpec{program: "deno", args: []string{"eval", "-T", source}}, nil

	case "python":
		prog := "python3"
		if runtime.GOOS == "windows" {
			prog = "python"
		}
		return spawnSpec{program: prog, args: []string{"-c", source}}, nil

	case "ruby":
		return spawnSpec{program: "ruby", args: []string{"-e", source}}, nil

	case "php":
		body := strings.TrimPrefix(strings.TrimSpace(source), "<?php")
		return spawnSpec{program: "php", args: []string{"-r", body}}, nil

	case "yaegi":
		path, cleanup, err := writeTempScript(source, ".go")
		if err != nil {
			return spawnSpec{}, err
		}
		return spawnSpec{program: "yaegi", args: []string{"run", path}, cleanup: cleanup}, nil

	default:
		return spawnSpec{}, ierrors.IO("no interpreter known for language tag "+lang, nil)
	}
}

// runSpawn spawns an external interpreter with the Resolver's bindings
// and the reserved environment variables injected, inheriting the
// parent process's stdio directly, and propagates its exit status.
func runSpawn(ctx context.Context, spec spawnSpec, dir string, env []string) (int, error) {
	if spec.cleanup != nil {
		defer spec.cleanup()
	}

	if _, err := exec.LookPath(spec.program); err != nil {
		return 0, ierrors.IO("interpreter "+spec.program+" not found on PATH", err)
	}

	cmd := exec.CommandContext(ctx, spec.program, spec.args...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	runErr := cmd.Run()
	if runErr == nil {
		return 0, nil
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		return exitErr.ExitCode(), &ierrors.ScriptError{Code: exitErr.ExitCode()}
	}
	return 0, ierrors.IO("failed to run "+spec.program, runErr)
}

// runShebang overrides interpreter selection with a script's own
// shebang line: the body is written to a temporary executable file
// and run directly, letting the OS resolve the interpreter.
func runShebang(ctx context.Context, script *tree.Script, dir string, env []string) (int, error) {
	path, cleanup, err := writeTempScript(script.Source, "")
	if err != nil {
		return 0, err
	}
	defer cleanup()

	cmd := exec.CommandContext(ctx, path)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	runErr := cmd.Run()
	if runErr == nil {
		return 0, nil
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		return exitErr.ExitCode(), &ierrors.ScriptError{Code: exitErr.ExitCode()}
	}
	return 0, ierrors.IO("failed to run shebang script", runErr)
}

func writeTempScript(body, ext string) (path string, cleanup func(), err error) {
	f, createErr := os.CreateTemp("", "inkjet-script-*"+ext)
	if createErr != nil {
		return "", nil, ierrors.IO("failed to create temp script file", createErr)
	}
	defer f.Close()

	if _, writeErr := io.WriteString(f, body); writeErr != nil {
		os.Remove(f.Name())
		return "", nil, ierrors.IO("failed to write temp script file", writeErr)
	}
	if chmodErr := os.Chmod(f.Name(), 0o755); chmodErr != nil {
		os.Remove(f.Name())
		return "", nil, ierrors.IO("failed to make temp script file executable", chmodErr)
	}

	name := f.Name()
	return name, func() { os.Remove(name) }, nil
}
