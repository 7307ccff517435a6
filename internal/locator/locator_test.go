package locator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocate_LiteralTextWhenNewlinePresent(t *testing.T) {
	res, err := Locate("# Title\n## build\n", t.TempDir(), strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, "<literal>", res.Path)
	require.Contains(t, res.Text, "## build")
}

func TestLocate_StdinWhenDash(t *testing.T) {
	res, err := Locate("-", t.TempDir(), strings.NewReader("# from stdin\n"))
	require.NoError(t, err)
	require.Equal(t, "<stdin>", res.Path)
	require.Equal(t, "# from stdin\n", res.Text)
}

func TestLocate_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.md")
	require.NoError(t, os.WriteFile(path, []byte("## cmd\n"), 0o644))

	res, err := Locate(path, dir, strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, dir, res.Dir)
	require.Contains(t, res.Text, "## cmd")
}

func TestLocate_ExplicitPathMissingIsLocateError(t *testing.T) {
	dir := t.TempDir()
	_, err := Locate(filepath.Join(dir, "missing.md"), dir, strings.NewReader(""))
	require.Error(t, err)
}

func TestLocate_SearchUpwardFindsInkfile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "inkjet.md"), []byte("## x\n"), 0o644))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	res, err := Locate("", nested, strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, root, res.Dir)
}

func TestLocate_SearchUpwardNotFoundIs66(t *testing.T) {
	root := t.TempDir()
	_, err := Locate("", root, strings.NewReader(""))
	require.Error(t, err)
}

func TestLocate_EmptyFileIsLocateError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.md")
	require.NoError(t, os.WriteFile(path, []byte("   \n"), 0o644))
	_, err := Locate(path, dir, strings.NewReader(""))
	require.Error(t, err)
}
