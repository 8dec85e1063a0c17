package fsys

import (
	"sort"

	"github.com/conneroisu/ginjarator/internal/config"
	"github.com/conneroisu/ginjarator/internal/errs"
	"github.com/conneroisu/ginjarator/internal/paths"
)

// Mode decides which paths a FS may read or write, and whether a disallowed
// access can be deferred to a later pass.
//
// CheckRead and CheckWrite return (true, nil) when the access is allowed now,
// (false, nil) when it must be deferred to a later pass, and an error when the
// path is not allowed at all (or deferring is required but deferOK is false).
type Mode interface {
	// UseCacheToConfigure reports whether the minimal config should be read
	// from the cache instead of ginjarator.toml.
	UseCacheToConfigure() bool

	Configure(minimal *config.Minimal) error
	CheckRead(path paths.FS, deferOK bool) (bool, error)
	CheckWrite(path paths.FS, deferOK bool) (bool, error)
}

// NOTE: The checks below are meant to prevent mistakes that could make builds
// less reliable. They are not meant to be, and aren't, secure.

type allowed struct {
	now      []paths.FS
	nowExact []paths.FS
	deferred []paths.FS
}

func isRelativeToAny(path paths.FS, others []paths.FS) bool {
	for _, other := range others {
		if path.IsRelativeTo(other) {
			return true
		}
	}
	return false
}

func (a allowed) check(path paths.FS, op string, deferOK bool) (bool, error) {
	for _, exact := range a.nowExact {
		if path == exact {
			return true, nil
		}
	}
	if isRelativeToAny(path, a.now) {
		return true, nil
	}
	if isRelativeToAny(path, a.deferred) {
		if deferOK {
			return false, nil
		}
		return false, &errs.DeferredError{Path: string(path), Op: op}
	}
	all := append(append([]paths.FS{}, a.now...), a.nowExact...)
	if deferOK {
		all = append(all, a.deferred...)
	}
	allStrings := make([]string, len(all))
	for i, p := range all {
		allStrings[i] = string(p)
	}
	sort.Strings(allStrings)
	return false, &errs.NotAllowedError{Path: string(path), Op: op, Allowed: allStrings}
}

type baseMode struct {
	minimal *config.Minimal
}

func (m *baseMode) UseCacheToConfigure() bool { return true }

func (m *baseMode) Configure(minimal *config.Minimal) error {
	if m.minimal != nil {
		return errs.ErrAlreadyConfigured
	}
	m.minimal = minimal
	return nil
}

func (m *baseMode) minimalConfig() (*config.Minimal, error) {
	if m.minimal == nil {
		return nil, errs.ErrNotConfigured
	}
	return m.minimal, nil
}

// InternalMode is access by ginjarator itself, not templates.
type InternalMode struct {
	baseMode
}

// NewInternalMode returns a Mode for ginjarator's own bookkeeping.
func NewInternalMode() *InternalMode { return &InternalMode{} }

func (m *InternalMode) UseCacheToConfigure() bool { return false }

func (m *InternalMode) CheckRead(path paths.FS, deferOK bool) (bool, error) {
	minimal, err := m.minimalConfig()
	if err != nil {
		return false, err
	}
	return allowed{
		now:      append([]paths.FS{paths.Internal}, minimal.SourcePaths...),
		nowExact: []paths.FS{paths.Config},
	}.check(path, "read", false)
}

func (m *InternalMode) CheckWrite(path paths.FS, deferOK bool) (bool, error) {
	if _, err := m.minimalConfig(); err != nil {
		return false, err
	}
	return allowed{
		now:      []paths.FS{paths.Internal},
		nowExact: []paths.FS{paths.NinjaEntrypoint},
	}.check(path, "write", false)
}

// NinjaMode renders a template containing custom ninja code. Any source path
// can be read; no writing is allowed.
type NinjaMode struct {
	baseMode
}

// NewNinjaMode returns a Mode for rendering ninja templates.
func NewNinjaMode() *NinjaMode { return &NinjaMode{} }

// Ninja templates are rendered during init, which also writes the minimal
// config cache. Configuring from the real config prevents circular
// dependencies.
func (m *NinjaMode) UseCacheToConfigure() bool { return false }

func (m *NinjaMode) CheckRead(path paths.FS, deferOK bool) (bool, error) {
	minimal, err := m.minimalConfig()
	if err != nil {
		return false, err
	}
	return allowed{
		now:      minimal.SourcePaths,
		nowExact: []paths.FS{paths.Config},
	}.check(path, "read", false)
}

func (m *NinjaMode) CheckWrite(path paths.FS, deferOK bool) (bool, error) {
	if _, err := m.minimalConfig(); err != nil {
		return false, err
	}
	return allowed{}.check(path, "write", false)
}

// ScanMode scans templates to find their dependencies and outputs. Any source
// path can be read now; any build path can be deferred to read or write
// later.
type ScanMode struct {
	baseMode
}

// NewScanMode returns a Mode for the scan pass.
func NewScanMode() *ScanMode { return &ScanMode{} }

func (m *ScanMode) CheckRead(path paths.FS, deferOK bool) (bool, error) {
	minimal, err := m.minimalConfig()
	if err != nil {
		return false, err
	}
	return allowed{
		now:      minimal.SourcePaths,
		nowExact: []paths.FS{paths.Config, paths.MinimalConfig},
		deferred: minimal.BuildPaths,
	}.check(path, "read", deferOK)
}

func (m *ScanMode) CheckWrite(path paths.FS, deferOK bool) (bool, error) {
	minimal, err := m.minimalConfig()
	if err != nil {
		return false, err
	}
	return allowed{
		deferred: minimal.BuildPaths,
	}.check(path, "write", deferOK)
}

// TestScanMode is ScanMode for use in external project tests.
type TestScanMode struct {
	ScanMode
}

// NewTestScanMode returns a ScanMode that configures from ginjarator.toml.
func NewTestScanMode() *TestScanMode { return &TestScanMode{} }

func (m *TestScanMode) UseCacheToConfigure() bool { return false }

// RenderMode renders templates, using the results from a scan pass: exactly
// the recorded dependencies can be read and exactly the recorded outputs can
// be written. Anything the scan pass would have rejected is rejected here
// too.
type RenderMode struct {
	baseMode
	dependencies []paths.FS
	outputs      []paths.FS
	scanMode     ScanMode
}

// NewRenderMode returns a Mode for the render pass.
func NewRenderMode(dependencies, outputs []paths.FS) *RenderMode {
	return &RenderMode{
		dependencies: append([]paths.FS(nil), dependencies...),
		outputs:      append([]paths.FS(nil), outputs...),
	}
}

func (m *RenderMode) Configure(minimal *config.Minimal) error {
	if err := m.baseMode.Configure(minimal); err != nil {
		return err
	}
	return m.scanMode.Configure(minimal)
}

func (m *RenderMode) CheckRead(path paths.FS, deferOK bool) (bool, error) {
	if _, err := m.scanMode.CheckRead(path, true); err != nil {
		return false, err
	}
	return allowed{nowExact: m.dependencies}.check(path, "read", false)
}

func (m *RenderMode) CheckWrite(path paths.FS, deferOK bool) (bool, error) {
	if _, err := m.scanMode.CheckWrite(path, true); err != nil {
		return false, err
	}
	return allowed{nowExact: m.outputs}.check(path, "write", false)
}

// TestRenderMode is RenderMode for use in external project tests.
type TestRenderMode struct {
	RenderMode
}

// NewTestRenderMode returns a RenderMode that configures from
// ginjarator.toml.
func NewTestRenderMode(dependencies, outputs []paths.FS) *TestRenderMode {
	return &TestRenderMode{RenderMode: *NewRenderMode(dependencies, outputs)}
}

func (m *TestRenderMode) UseCacheToConfigure() bool { return false }
