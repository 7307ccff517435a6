package resolver

import (
	"errors"
	"testing"

	"github.com/inkjet-run/inkjet/internal/parser"
	"github.com/inkjet-run/inkjet/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTree(t *testing.T, src string) *tree.CommandTree {
	t.Helper()
	ct, err := parser.Parse([]byte(src), "inkjet.md", tree.DefaultDirectives(), "/work")
	require.NoError(t, err)
	return ct
}

func TestResolve_DefaultAliasWithNoArgv(t *testing.T) {
	ct := parseTree(t, "## build//default\n\n```sh\necho built\n```\n")
	inv, err := Resolve(ct, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"build"}, inv.Path)
}

func TestResolve_PositionalArgsWithDefaultValue(t *testing.T) {
	ct := parseTree(t, "## echo (name) (optional=default)\n\n```sh\necho \"Hello $name! Optional arg is $optional.\"\n```\n")
	inv, err := Resolve(ct, []string{"echo", "World"})
	require.NoError(t, err)
	assert.Equal(t, "World", inv.Env["name"])
	assert.Equal(t, "default", inv.Env["optional"])
}

func TestResolve_NumberFlagTypeMismatchIsUsageError(t *testing.T) {
	src := "## run\n\nOPTIONS\n\n- flag: --num |number| a count\n\n```sh\necho $num\n```\n"
	ct := parseTree(t, src)
	_, err := Resolve(ct, []string{"run", "--num", "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "num")
	assert.Contains(t, err.Error(), "number")
}

func TestResolve_NumberFlagAccepted(t *testing.T) {
	src := "## run\n\nOPTIONS\n\n- flag: --num |number| a count\n\n```sh\necho $num\n```\n"
	ct := parseTree(t, src)
	inv, err := Resolve(ct, []string{"run", "--num", "3.5"})
	require.NoError(t, err)
	assert.Equal(t, "3.5", inv.Env["num"])
}

func TestResolve_VariadicArgSpaceJoined(t *testing.T) {
	ct := parseTree(t, "## extras (extras...?)\n\n```sh\necho $extras\n```\n")
	inv, err := Resolve(ct, []string{"extras", "a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, "a b c", inv.Env["extras"])
}

func TestResolve_RawTailForwardedVerbatim(t *testing.T) {
	ct := parseTree(t, "## run (cmd) -- (rest)\n\n```sh\n$cmd $rest\n```\n")
	inv, err := Resolve(ct, []string{"run", "echo", "--", "-x", "--weird"})
	require.NoError(t, err)
	assert.Equal(t, "echo", inv.Env["cmd"])
	assert.Equal(t, "-x --weird", inv.Env["rest"])
}

func TestResolve_MissingRequiredArgIsUsageError(t *testing.T) {
	ct := parseTree(t, "## greet (name)\n\n```sh\necho $name\n```\n")
	_, err := Resolve(ct, []string{"greet"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestResolve_MissingRequiredFlagIsUsageError(t *testing.T) {
	src := "## deploy\n\nOPTIONS\n\n- flag: --target |string| required deployment target\n\n```sh\necho $target\n```\n"
	ct := parseTree(t, src)
	_, err := Resolve(ct, []string{"deploy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target")
}

func TestResolve_UnknownFlagIsUsageError(t *testing.T) {
	ct := parseTree(t, "## build\n\n```sh\nmake\n```\n")
	_, err := Resolve(ct, []string{"build", "--nope"})
	require.Error(t, err)
}

func TestResolve_BooleanFlagTrue(t *testing.T) {
	src := "## build\n\nOPTIONS\n\n- flag: --dry-run |boolean| skip side effects\n\n```sh\nmake\n```\n"
	ct := parseTree(t, src)
	inv, err := Resolve(ct, []string{"build", "--dry-run"})
	require.NoError(t, err)
	assert.Equal(t, "true", inv.Env["dry_run"])
}

func TestResolve_GroupWithNoDefaultAndNoArgsIsHelpRequested(t *testing.T) {
	ct := parseTree(t, "## services\n\n### services stop\n\n```sh\necho stop\n```\n")
	_, err := Resolve(ct, []string{"services"})
	require.Error(t, err)
	var help *HelpRequested
	require.ErrorAs(t, err, &help)
	assert.Equal(t, []string{"services"}, help.Path)
}

func TestResolve_GroupWithTrailingArgsIsUsageError(t *testing.T) {
	ct := parseTree(t, "## services\n\n### services stop\n\n```sh\necho stop\n```\n")
	_, err := Resolve(ct, []string{"services", "bogus"})
	require.Error(t, err)
	var help *HelpRequested
	assert.False(t, errors.As(err, &help))
}

func TestResolve_FixedDirUsesSourceDir(t *testing.T) {
	ct := parseTree(t, "## build\n\n```sh\nmake\n```\n")
	inv, err := Resolve(ct, []string{"build"})
	require.NoError(t, err)
	assert.Equal(t, "/work", inv.CWD)
}

func errorsAs(err error, target any) bool {
	h, ok := target.(**HelpRequested)
	if !ok {
		return false
	}
	he, ok := err.(*HelpRequested)
	if ok {
		*h = he
	}
	return ok
}
