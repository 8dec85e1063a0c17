// Package template scans and renders pongo2 templates with tracked
// filesystem access.
//
// Scanning renders a template in ScanMode, where build outputs aren't
// readable or writable yet; everything the template touched (or deferred) is
// recorded as state, a depfile, and a dyndep file for ninja. Rendering
// replays the template in RenderMode, where exactly the recorded
// dependencies are readable and exactly the recorded outputs are writable.
package template

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/conneroisu/ginjarator/internal/errs"
	"github.com/conneroisu/ginjarator/internal/fsys"
	"github.com/conneroisu/ginjarator/internal/ninja"
	"github.com/conneroisu/ginjarator/internal/paths"
)

func init() {
	// Output is ninja files and arbitrary text, never HTML.
	pongo2.SetAutoescape(false)
}

var (
	helpersMu sync.RWMutex
	helpers   = map[string]any{}
)

// RegisterHelper makes a Go function available to templates under the given
// name. Projects that embed ginjarator register helpers before running
// commands; this replaces per-template code modules.
func RegisterHelper(name string, fn any) {
	helpersMu.Lock()
	defer helpersMu.Unlock()
	helpers[name] = fn
}

// RegisterFilter registers a pongo2 filter by adapting a plain Go function.
func RegisterFilter(name string, fn func(input, param any) (any, error)) error {
	if pongo2.FilterExists(name) {
		return fmt.Errorf("filter %q already exists", name)
	}
	return pongo2.RegisterFilter(
		name,
		func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			var paramValue any
			if param != nil {
				paramValue = param.Interface()
			}
			result, err := fn(in.Interface(), paramValue)
			if err != nil {
				return nil, &pongo2.Error{Sender: name, OrigError: err}
			}
			return pongo2.AsValue(result), nil
		},
	)
}

// API is what templates see as the "ginjarator" global.
type API struct {
	currentTemplate paths.FS
	fs              *fsys.FS
}

// NewAPI returns the template API for the given template and filesystem.
func NewAPI(currentTemplate paths.FS, fs *fsys.FS) *API {
	return &API{currentTemplate: currentTemplate, fs: fs}
}

// CurrentTemplate returns the template currently being rendered.
func (a *API) CurrentTemplate() string { return string(a.currentTemplate) }

// FS returns the underlying tracked filesystem.
func (a *API) FS() *fsys.FS { return a.fs }

// ReadText returns a file's contents, or nil if it might not be built yet (in
// which case it is recorded to be read in the render pass).
func (a *API) ReadText(path string) (any, error) {
	contents, ok, err := a.fs.ReadText(paths.New(path))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return contents, nil
}

// WriteText writes a file, or records it to be written in the render pass.
// It returns an empty string so it can be used directly in an expression tag.
func (a *API) WriteText(path, contents string) (string, error) {
	return "", a.fs.WriteText(paths.New(path), contents)
}

// AddDependency records a file as a dependency without reading it.
func (a *API) AddDependency(path string) (string, error) {
	_, err := a.fs.AddDependency(paths.New(path), true)
	return "", err
}

// AddOutput records a file as an output without writing it.
func (a *API) AddOutput(path string) (string, error) {
	return "", a.fs.AddOutput(paths.New(path), true)
}

// SourcePaths returns the configured source paths.
func (a *API) SourcePaths() []string {
	return pathStrings(a.fs.MinimalConfig().SourcePaths)
}

// BuildPaths returns the configured build paths.
func (a *API) BuildPaths() []string {
	return pathStrings(a.fs.MinimalConfig().BuildPaths)
}

// ToNinja converts a value to ninja syntax.
func (a *API) ToNinja(value any) (string, error) { return ninja.Escape(value) }

// ToNinjaShell converts a value to shell-quoted ninja syntax.
func (a *API) ToNinjaShell(value any) (string, error) { return ninja.EscapeShell(value) }

// Fail aborts rendering with an error raised by the template itself.
func (a *API) Fail(message string) (string, error) {
	return "", &errs.TemplateError{
		Template: string(a.currentTemplate),
		Err:      fmt.Errorf("%s", message),
	}
}

func pathStrings(in []paths.FS) []string {
	out := make([]string, len(in))
	for i, p := range in {
		out[i] = string(p)
	}
	return out
}

// loader feeds pongo2 through the tracked filesystem, so included and
// extended templates land in the dependency set like any other read.
type loader struct {
	fs *fsys.FS
}

func (l *loader) Abs(base, name string) string { return name }

func (l *loader) Get(path string) (io.Reader, error) {
	contents, ok, err := l.fs.ReadText(paths.New(path))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("template %q is not built yet", path)
	}
	return strings.NewReader(contents), nil
}

// Execute renders the template through the API's filesystem and returns the
// output.
func Execute(api *API) (string, error) {
	set := pongo2.NewSet("ginjarator", &loader{fs: api.fs})
	set.Globals = pongo2.Context{"ginjarator": api}
	helpersMu.RLock()
	for name, fn := range helpers {
		set.Globals[name] = fn
	}
	helpersMu.RUnlock()

	tpl, err := set.FromFile(api.CurrentTemplate())
	if err != nil {
		return "", &errs.TemplateError{Template: api.CurrentTemplate(), Err: err}
	}
	out, err := tpl.Execute(pongo2.Context{})
	if err != nil {
		return "", &errs.TemplateError{Template: api.CurrentTemplate(), Err: err}
	}
	return out, nil
}

type state struct {
	Dependencies []string `json:"dependencies"`
	Outputs      []string `json:"outputs"`
}

func marshalState(dependencies, outputs []paths.FS) (string, error) {
	raw, err := json.MarshalIndent(state{
		Dependencies: pathStrings(dependencies),
		Outputs:      pathStrings(outputs),
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw) + "\n", nil
}

func union(a, b []paths.FS) []paths.FS {
	set := make(map[paths.FS]struct{}, len(a)+len(b))
	for _, p := range a {
		set[p] = struct{}{}
	}
	for _, p := range b {
		set[p] = struct{}{}
	}
	out := make([]paths.FS, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Scan renders a template in ScanMode and records its dependencies and
// outputs for the render pass.
func Scan(root string, templatePath paths.FS) error {
	internalFS, err := fsys.New(root)
	if err != nil {
		return err
	}
	scanFS, err := fsys.NewWithMode(root, fsys.NewScanMode())
	if err != nil {
		return err
	}
	api := NewAPI(templatePath, scanFS)
	if _, err := Execute(api); err != nil {
		return err
	}

	scanDependencies := scanFS.Dependencies()
	renderDependencies := union(scanFS.Dependencies(), scanFS.DeferredDependencies())
	renderOutputs := union(scanFS.Outputs(), scanFS.DeferredOutputs())

	statePath := paths.TemplateState(templatePath)
	stateJSON, err := marshalState(renderDependencies, renderOutputs)
	if err != nil {
		return err
	}
	if err := internalFS.WriteTextNow(statePath, stateJSON); err != nil {
		return err
	}

	depfile, err := ninja.Depfile(statePath, scanDependencies)
	if err != nil {
		return err
	}
	if err := internalFS.WriteTextNow(paths.TemplateDepfile(templatePath), depfile); err != nil {
		return err
	}

	dyndep, err := ninja.Dyndep(
		paths.TemplateRenderStamp(templatePath),
		renderOutputs,
		renderDependencies,
	)
	if err != nil {
		return err
	}
	return internalFS.WriteTextNow(paths.TemplateDyndep(templatePath), dyndep)
}

// Render replays a template in RenderMode using the state recorded by Scan,
// then writes its render stamp.
func Render(root string, templatePath paths.FS) error {
	internalFS, err := fsys.New(root)
	if err != nil {
		return err
	}
	raw, err := internalFS.ReadTextNow(paths.TemplateState(templatePath))
	if err != nil {
		return err
	}
	var recorded state
	if err := json.Unmarshal([]byte(raw), &recorded); err != nil {
		return fmt.Errorf("parse template state for %q: %w", templatePath, err)
	}
	renderFS, err := fsys.NewWithMode(root, fsys.NewRenderMode(
		toPaths(recorded.Dependencies),
		toPaths(recorded.Outputs),
	))
	if err != nil {
		return err
	}
	api := NewAPI(templatePath, renderFS)
	if _, err := Execute(api); err != nil {
		return err
	}
	// The stamp is rewritten unconditionally so its mtime always moves.
	return internalFS.WriteTextNow(paths.TemplateRenderStamp(templatePath), "")
}

// Ninja renders a template of custom ninja code and copies its dependencies
// into the caller's filesystem. NinjaMode doesn't allow outputs, so there are
// none to copy.
func Ninja(templatePath paths.FS, internalFS *fsys.FS) (string, error) {
	ninjaFS, err := fsys.NewWithMode(internalFS.Root(), fsys.NewNinjaMode())
	if err != nil {
		return "", err
	}
	api := NewAPI(templatePath, ninjaFS)
	contents, err := Execute(api)
	if err != nil {
		return "", err
	}
	for _, dependency := range ninjaFS.Dependencies() {
		if _, err := internalFS.AddDependency(dependency, false); err != nil {
			return "", err
		}
	}
	return contents, nil
}

func toPaths(in []string) []paths.FS {
	out := make([]paths.FS, len(in))
	for i, p := range in {
		out[i] = paths.New(p)
	}
	return out
}
