package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, contents := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(contents), 0o644))
	}
	return root
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

const testConfig = `source_paths = ["src"]
build_paths = ["build"]
templates = ["src/hello.tmpl"]
`

func TestListJSON(t *testing.T) {
	root := writeProject(t, map[string]string{
		"ginjarator.toml": testConfig,
	})

	out, err := runCommand(t, "--root", root, "list", "--format", "json")
	require.NoError(t, err)

	var listed struct {
		SourcePaths []string `json:"source_paths"`
		Templates   []string `json:"templates"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Equal(t, []string{"src"}, listed.SourcePaths)
	assert.Equal(t, []string{"src/hello.tmpl"}, listed.Templates)
}

func TestListText(t *testing.T) {
	root := writeProject(t, map[string]string{
		"ginjarator.toml": testConfig,
	})

	out, err := runCommand(t, "--root", root, "list", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "templates:\n  src/hello.tmpl\n")
}

func TestListUnknownFormat(t *testing.T) {
	root := writeProject(t, map[string]string{
		"ginjarator.toml": testConfig,
	})

	_, err := runCommand(t, "--root", root, "list", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestInitScanRenderPipeline(t *testing.T) {
	root := writeProject(t, map[string]string{
		"ginjarator.toml": testConfig,
		"src/name.txt":    "world",
		"src/hello.tmpl":  `{{ ginjarator.WriteText("build/hello.txt", ginjarator.ReadText("src/name.txt")) }}`,
	})

	_, err := runCommand(t, "--root", root, "init")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "build.ninja"))

	_, err = runCommand(t, "--root", root, "scan", "src/hello.tmpl")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(
		root, ".ginjarator", "templates", "src%2Fhello.tmpl.json",
	))

	_, err = runCommand(t, "--root", root, "render", "src/hello.tmpl")
	require.NoError(t, err)

	contents, err := os.ReadFile(filepath.Join(root, "build", "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "world", string(contents))
}

func TestMinimalConfigCommand(t *testing.T) {
	root := writeProject(t, map[string]string{
		"ginjarator.toml": testConfig,
	})

	_, err := runCommand(t, "--root", root, "minimal-config")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, ".ginjarator", "config", "minimal.json"))
}
