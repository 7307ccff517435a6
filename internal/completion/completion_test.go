package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkjet-run/inkjet/internal/parser"
	"github.com/inkjet-run/inkjet/internal/tree"
)

func parseTree(t *testing.T, src string) *tree.CommandTree {
	t.Helper()
	ct, err := parser.Parse([]byte(src), "inkjet.md", tree.DefaultDirectives(), "/work")
	require.NoError(t, err)
	return ct
}

func TestBash_ListsVisibleTopLevelCommands(t *testing.T) {
	ct := parseTree(t, "## build\n\n```sh\nmake\n```\n\n## _debug\n\n```sh\necho d\n```\n")
	out := Bash(ct, "inkjet")
	assert.Contains(t, out, "build")
	assert.NotContains(t, out, "compgen -W \"debug")
}

func TestBash_IncludesLongFlags(t *testing.T) {
	src := "## deploy\n\nOPTIONS\n\n- flag: --target |string| deployment target\n\n```sh\necho $target\n```\n"
	ct := parseTree(t, src)
	out := Bash(ct, "inkjet")
	assert.Contains(t, out, "--target")
}

func TestFish_EmitsSubcommandCompletion(t *testing.T) {
	ct := parseTree(t, "## services\n\n### services stop\n\n```sh\necho stop\n```\n")
	out := Fish(ct, "inkjet")
	assert.Contains(t, out, "__fish_use_subcommand")
	assert.Contains(t, out, "services")
	assert.Contains(t, out, "__fish_seen_subcommand_from services")
	assert.Contains(t, out, "stop")
}

func TestFish_ExcludesHiddenCommands(t *testing.T) {
	ct := parseTree(t, "## _internal-only\n\n```sh\necho x\n```\n")
	out := Fish(ct, "inkjet")
	assert.NotContains(t, out, "internal-only")
}
