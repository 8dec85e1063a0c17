package template

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/ginjarator/internal/errs"
	"github.com/conneroisu/ginjarator/internal/fsys"
	"github.com/conneroisu/ginjarator/internal/paths"
)

const testConfig = `source_paths = ["src"]
build_paths = ["build"]
templates = ["src/hello.tmpl"]
`

const testMinimalCache = `{
  "source_paths": [
    "src"
  ],
  "build_paths": [
    "build"
  ]
}
`

const helloTemplate = `{{ ginjarator.WriteText("build/hello.txt", ginjarator.ReadText("src/name.txt")) }}`

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

func readFile(t *testing.T, root, name string) string {
	t.Helper()
	contents, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(contents)
}

func TestScanRecordsDependenciesAndOutputs(t *testing.T) {
	root := writeProject(t, map[string]string{
		"ginjarator.toml":                 testConfig,
		".ginjarator/config/minimal.json": testMinimalCache,
		"src/name.txt":                    "world",
		"src/hello.tmpl":                  helloTemplate,
	})

	require.NoError(t, Scan(root, "src/hello.tmpl"))

	var recorded struct {
		Dependencies []string `json:"dependencies"`
		Outputs      []string `json:"outputs"`
	}
	stateRaw := readFile(t, root, ".ginjarator/templates/src%2Fhello.tmpl.json")
	require.NoError(t, json.Unmarshal([]byte(stateRaw), &recorded))

	assert.Equal(t, []string{
		".ginjarator/config/minimal.json",
		"src/hello.tmpl",
		"src/name.txt",
	}, recorded.Dependencies)
	assert.Equal(t, []string{"build/hello.txt"}, recorded.Outputs)

	// Nothing renders during a scan.
	assert.NoFileExists(t, filepath.Join(root, "build", "hello.txt"))

	depfile := readFile(t, root, ".ginjarator/templates/src%2Fhello.tmpl.d")
	assert.Contains(t, depfile, "src/name.txt")

	dyndep := readFile(t, root, ".ginjarator/templates/src%2Fhello.tmpl.dd")
	assert.Contains(t, dyndep, "ninja_dyndep_version = 1")
	assert.Contains(t, dyndep, "build/hello.txt")
}

func TestScanDefersReadsOfBuildOutputs(t *testing.T) {
	root := writeProject(t, map[string]string{
		"ginjarator.toml":                 testConfig,
		".ginjarator/config/minimal.json": testMinimalCache,
		"src/hello.tmpl": `{% if ginjarator.ReadText("build/earlier.txt") %}x{% endif %}`,
	})

	require.NoError(t, Scan(root, "src/hello.tmpl"))

	var recorded struct {
		Dependencies []string `json:"dependencies"`
		Outputs      []string `json:"outputs"`
	}
	stateRaw := readFile(t, root, ".ginjarator/templates/src%2Fhello.tmpl.json")
	require.NoError(t, json.Unmarshal([]byte(stateRaw), &recorded))

	// The deferred read shows up as a render-pass dependency but not in the
	// scan depfile.
	assert.Contains(t, recorded.Dependencies, "build/earlier.txt")
	depfile := readFile(t, root, ".ginjarator/templates/src%2Fhello.tmpl.d")
	assert.NotContains(t, depfile, "build/earlier.txt")
}

func TestRenderWritesOutputsAndStamp(t *testing.T) {
	root := writeProject(t, map[string]string{
		"ginjarator.toml":                 testConfig,
		".ginjarator/config/minimal.json": testMinimalCache,
		"src/name.txt":                    "world",
		"src/hello.tmpl":                  helloTemplate,
	})
	require.NoError(t, Scan(root, "src/hello.tmpl"))

	require.NoError(t, Render(root, "src/hello.tmpl"))

	assert.Equal(t, "world", readFile(t, root, "build/hello.txt"))
	assert.FileExists(t, filepath.Join(
		root, ".ginjarator", "templates", "src%2Fhello.tmpl.render-stamp",
	))
}

func TestRenderRejectsUnrecordedWrites(t *testing.T) {
	root := writeProject(t, map[string]string{
		"ginjarator.toml":                 testConfig,
		".ginjarator/config/minimal.json": testMinimalCache,
		"src/hello.tmpl": `{{ ginjarator.WriteText("build/sneaky.txt", "x") }}`,
		".ginjarator/templates/src%2Fhello.tmpl.json": `{
  "dependencies": [
    ".ginjarator/config/minimal.json",
    "src/hello.tmpl"
  ],
  "outputs": []
}
`,
	})

	err := Render(root, "src/hello.tmpl")
	require.Error(t, err)
	var templateErr *errs.TemplateError
	assert.ErrorAs(t, err, &templateErr)
}

func TestNinjaReturnsContentsAndCopiesDependencies(t *testing.T) {
	root := writeProject(t, map[string]string{
		"ginjarator.toml": testConfig,
		"src/rules.tmpl":  `build {{ ginjarator.ToNinja("a b") }}: phony`,
	})
	internalFS, err := fsys.New(root)
	require.NoError(t, err)

	contents, err := Ninja("src/rules.tmpl", internalFS)
	require.NoError(t, err)
	assert.Equal(t, "build a$ b: phony", contents)
	assert.Contains(t, internalFS.Dependencies(), paths.FS("src/rules.tmpl"))
}

func TestExecuteMissingTemplate(t *testing.T) {
	root := writeProject(t, map[string]string{
		"ginjarator.toml":                 testConfig,
		".ginjarator/config/minimal.json": testMinimalCache,
	})

	err := Scan(root, "src/missing.tmpl")
	var templateErr *errs.TemplateError
	assert.ErrorAs(t, err, &templateErr)
}

func TestRegisteredHelper(t *testing.T) {
	RegisterHelper("greeting", func() string { return "hello" })
	root := writeProject(t, map[string]string{
		"ginjarator.toml": testConfig,
		"src/rules.tmpl":  `# {{ greeting() }}`,
	})
	internalFS, err := fsys.New(root)
	require.NoError(t, err)

	contents, err := Ninja("src/rules.tmpl", internalFS)
	require.NoError(t, err)
	assert.Equal(t, "# hello", contents)
}
