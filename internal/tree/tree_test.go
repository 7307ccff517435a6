package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_ResolvesDeclaredPath(t *testing.T) {
	root := NewRoot()
	services := &Command{Name: "services"}
	stop := &Command{Name: "stop"}
	all := &Command{Name: "all", Scripts: []Script{{Language: "bash", Source: "echo hi"}}}
	require.NoError(t, stop.AddChild(all))
	require.NoError(t, services.AddChild(stop))
	require.NoError(t, root.AddChild(services))

	tr := &CommandTree{Root: root, Directives: DefaultDirectives()}
	cmd, consumed, full := tr.Lookup([]string{"services", "stop", "all"})
	require.True(t, full)
	assert.Equal(t, 3, consumed)
	assert.Same(t, all, cmd)
}

func TestLookup_StopsAtFirstUnmatchedToken(t *testing.T) {
	root := NewRoot()
	build := &Command{Name: "build", Scripts: []Script{{Language: "bash", Source: "x"}}}
	require.NoError(t, root.AddChild(build))

	tr := &CommandTree{Root: root}
	cmd, consumed, full := tr.Lookup([]string{"build", "extra"})
	assert.False(t, full)
	assert.Equal(t, 1, consumed)
	assert.Same(t, build, cmd)
}

func TestFindChild_ResolvesAlias(t *testing.T) {
	root := NewRoot()
	build := &Command{Name: "build", Aliases: []string{"b", "default"}}
	require.NoError(t, root.AddChild(build))

	found, ok := root.FindChild("b")
	require.True(t, ok)
	assert.Same(t, build, found)

	def, ok := root.DefaultChild()
	require.True(t, ok)
	assert.Same(t, build, def)
}

func TestAddChild_DuplicatePathIsConfigError(t *testing.T) {
	root := NewRoot()
	a := &Command{Name: "ping", Loc: SourceLocation{File: "f.md", Line: 1}}
	b := &Command{Name: "ping", Loc: SourceLocation{File: "f.md", Line: 5}}
	require.NoError(t, root.AddChild(a))
	err := root.AddChild(b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate command")
}

func TestReplaceChild_LaterWinsWholesale(t *testing.T) {
	root := NewRoot()
	first := &Command{Name: "ping", Scripts: []Script{{Source: "echo blip"}}}
	root.ReplaceChild(first)
	second := &Command{Name: "ping", Scripts: []Script{{Source: "echo pong"}}, FromImport: true}
	root.ReplaceChild(second)

	require.Len(t, root.Children, 1)
	assert.Equal(t, "echo pong", root.Children[0].Scripts[0].Source)
}

func TestSortedChildren_HiddenOmittedButStillInvocable(t *testing.T) {
	root := NewRoot()
	vis := &Command{Name: "visible"}
	hid := &Command{Name: "_secret", Hidden: true}
	require.NoError(t, root.AddChild(vis))
	require.NoError(t, root.AddChild(hid))

	sorted := root.SortedChildren(true)
	require.Len(t, sorted, 1)
	assert.Equal(t, "visible", sorted[0].Name)

	found, ok := root.FindChild("_secret")
	require.True(t, ok)
	assert.True(t, found.Hidden)
}

func TestSortedChildren_AlphabeticalWhenSortFalse(t *testing.T) {
	root := NewRoot()
	for _, n := range []string{"zeta", "alpha", "mu"} {
		require.NoError(t, root.AddChild(&Command{Name: n}))
	}
	sorted := root.SortedChildren(false)
	names := []string{sorted[0].Name, sorted[1].Name, sorted[2].Name}
	assert.Equal(t, []string{"alpha", "mu", "zeta"}, names)

	srcOrder := root.SortedChildren(true)
	names = []string{srcOrder[0].Name, srcOrder[1].Name, srcOrder[2].Name}
	assert.Equal(t, []string{"zeta", "alpha", "mu"}, names)
}

func TestEnsureImplicitVerbose_AddsUnlessDeclared(t *testing.T) {
	c1 := &Command{}
	c1.EnsureImplicitVerbose()
	require.Len(t, c1.Flags, 1)
	assert.Equal(t, "verbose", c1.Flags[0].Long)
	assert.Equal(t, "v", c1.Flags[0].Short)
	assert.True(t, c1.Flags[0].Implicit)

	c2 := &Command{Flags: []Flag{{Long: "verbose", Short: "x", Type: FlagBool}}}
	c2.EnsureImplicitVerbose()
	require.Len(t, c2.Flags, 1)
	assert.Equal(t, "x", c2.Flags[0].Short)
	assert.False(t, c2.Flags[0].Implicit)
}

func TestValidateArgs_VariadicMustBeLast(t *testing.T) {
	loc := SourceLocation{File: "f.md", Line: 1}
	err := ValidateArgs(loc, []PositionalArg{
		{Name: "a", Variadic: true},
		{Name: "b"},
	})
	assert.Error(t, err)
}

func TestValidateArgs_RequiredAfterOptionalIsError(t *testing.T) {
	loc := SourceLocation{File: "f.md", Line: 1}
	err := ValidateArgs(loc, []PositionalArg{
		{Name: "a", HasDefault: true, Default: "x"},
		{Name: "b", Required: true},
	})
	assert.Error(t, err)
}

func TestValidateArgs_RawTailMustBeLast(t *testing.T) {
	loc := SourceLocation{File: "f.md", Line: 1}
	err := ValidateArgs(loc, []PositionalArg{
		{Name: "a", RawTail: true},
		{Name: "b"},
	})
	assert.Error(t, err)
}

func TestValidateFlags_DuplicateLongIsError(t *testing.T) {
	loc := SourceLocation{File: "f.md", Line: 1}
	err := ValidateFlags(loc, []Flag{{Long: "dry-run"}, {Long: "dry-run"}}, nil)
	assert.Error(t, err)
}

func TestValidateFlags_DuplicateShortAcrossAncestors(t *testing.T) {
	loc := SourceLocation{File: "f.md", Line: 1}
	err := ValidateFlags(loc, []Flag{{Long: "verbose", Short: "v"}}, map[string]bool{"v": true})
	assert.Error(t, err)
}

func TestFlag_EnvKey_DashesBecomeUnderscores(t *testing.T) {
	f := Flag{Long: "dry-run-fast"}
	assert.Equal(t, "dry_run_fast", f.EnvKey())
}
