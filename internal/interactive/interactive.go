// Package interactive defines the capability interfaces cmd/inkjet
// and the Executor consult for `-i`/`-p` mode: rendering a
// command's description through a rich-text collaborator, prompting
// for declared args/flags, and syntax-highlighting a previewed script
// body. Rich-text rendering, prompting, and highlighting are external
// collaborators by design; this package only supplies the interfaces
// plus headless stubs that satisfy them without those collaborators
// being present.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/inkjet-run/inkjet/internal/tree"
)

// Renderer renders a command's description and long-form prose for
// display before an interactive run or preview.
type Renderer interface {
	RenderDescription(cmd *tree.Command) string
}

// Prompter asks the user for values of a command's declared
// positional args and flags, and for the final run/preview/cancel
// choice.
type Prompter interface {
	PromptArg(arg tree.PositionalArg) (string, error)
	PromptFlag(flag tree.Flag) (string, error)
	Confirm(cmd *tree.Command) (Choice, error)
}

// Highlighter syntax-highlights a script body for preview.
type Highlighter interface {
	Highlight(language, source string) string
}

// Choice is the user's answer to a Prompter.Confirm call.
type Choice int

const (
	ChoiceRun Choice = iota
	ChoicePreview
	ChoiceCancel
)

// IsInteractive reports whether stdin is a terminal, the check
// cmd/inkjet makes to decide whether `-i` prompts are meaningful
// rather than hanging on a pipe.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// PlainRenderer is the headless Renderer: it concatenates the short
// and long descriptions with no markup processing.
type PlainRenderer struct{}

func (PlainRenderer) RenderDescription(cmd *tree.Command) string {
	var b strings.Builder
	if cmd.ShortDesc != "" {
		b.WriteString(cmd.ShortDesc)
	}
	if cmd.LongDesc != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(cmd.LongDesc)
	}
	return b.String()
}

// StdioPrompter is the headless Prompter: it reads answers line by
// line from an io.Reader, writing prompts to an io.Writer. It refuses
// to prompt when the process's stdin isn't a terminal (whatever In
// is), auto-denying instead of blocking forever on a closed or piped
// stdin.
type StdioPrompter struct {
	In  io.Reader
	Out io.Writer

	in *bufio.Reader
}

// NewStdioPrompter wires up stdin and stderr as the default stdio pair.
func NewStdioPrompter() *StdioPrompter {
	return &StdioPrompter{In: os.Stdin, Out: os.Stderr}
}

// reader returns the single *bufio.Reader wrapping p.In, creating it
// on first use. A fresh bufio.Reader per call would discard whatever
// it had already read ahead into its internal buffer, silently
// dropping input across successive prompts.
func (p *StdioPrompter) reader() *bufio.Reader {
	if p.in == nil {
		p.in = bufio.NewReader(p.In)
	}
	return p.in
}

func (p *StdioPrompter) PromptArg(arg tree.PositionalArg) (string, error) {
	if !IsInteractive() {
		return arg.Default, nil
	}
	label := arg.Name
	if arg.HasDefault {
		fmt.Fprintf(p.Out, "%s [%s]: ", label, arg.Default)
	} else {
		fmt.Fprintf(p.Out, "%s: ", label)
	}
	line, err := p.reader().ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return arg.Default, nil
	}
	return line, nil
}

func (p *StdioPrompter) PromptFlag(flag tree.Flag) (string, error) {
	if !IsInteractive() {
		return "", nil
	}
	fmt.Fprintf(p.Out, "--%s (%s): ", flag.Long, flag.Description)
	line, err := p.reader().ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *StdioPrompter) Confirm(cmd *tree.Command) (Choice, error) {
	if !IsInteractive() {
		return ChoiceCancel, nil
	}
	fmt.Fprintf(p.Out, "Run %q now? [r]un/[p]review/[c]ancel: ", cmd.Name)
	for {
		line, err := p.reader().ReadString('\n')
		if err != nil && err != io.EOF {
			return ChoiceCancel, err
		}
		switch strings.TrimSpace(strings.ToLower(line)) {
		case "r", "run", "":
			return ChoiceRun, nil
		case "p", "preview":
			return ChoicePreview, nil
		case "c", "cancel":
			return ChoiceCancel, nil
		default:
			fmt.Fprint(p.Out, "please answer r, p, or c: ")
		}
	}
}

// PlainHighlighter is the headless Highlighter: it returns the source
// unmodified, with no ANSI styling.
type PlainHighlighter struct{}

func (PlainHighlighter) Highlight(language, source string) string {
	return source
}
