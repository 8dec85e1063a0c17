// Package gintest helps projects test code that runs inside ginjarator
// templates. It builds template APIs in the test variants of scan and render
// modes, which read the project config directly instead of the cache.
package gintest

import (
	"errors"

	"github.com/conneroisu/ginjarator/internal/fsys"
	"github.com/conneroisu/ginjarator/internal/paths"
	"github.com/conneroisu/ginjarator/internal/template"
)

var errTestWrites = errors.New("tests should not write to a real project")

// The current template when a test doesn't care which template is running.
const defaultCurrentTemplate = "test-only--the-current-template-is-not-set"

// API wraps the template API for use in project tests.
type API struct {
	*template.API
}

// Options configure the API under test.
type Options struct {
	// CurrentTemplate is the template path reported to the code under test.
	CurrentTemplate string
	// Root is the project root. Defaults to the current directory.
	Root string
	// Dependencies are files the scan pass read or marked for reading later.
	// Only used by ForRender.
	Dependencies []string
	// Outputs are files the scan pass marked for writing later. Only used by
	// ForRender.
	Outputs []string
}

func (o *Options) fill() {
	if o.CurrentTemplate == "" {
		o.CurrentTemplate = defaultCurrentTemplate
	}
	if o.Root == "" {
		o.Root = "."
	}
}

// ForScan returns a template API in scan mode.
func ForScan(opts Options) (*API, error) {
	opts.fill()
	fs, err := fsys.NewWithMode(opts.Root, fsys.NewTestScanMode())
	if err != nil {
		return nil, err
	}
	return &API{template.NewAPI(paths.New(opts.CurrentTemplate), fs)}, nil
}

// ForRender returns a template API in render mode. If Root is the current
// project's own directory, Outputs must be empty so a test can't accidentally
// write into a real project.
func ForRender(opts Options) (*API, error) {
	opts.fill()
	if opts.Root == "." && len(opts.Outputs) > 0 {
		return nil, errTestWrites
	}
	dependencies := append(
		[]paths.FS{paths.Config},
		toPaths(opts.Dependencies)...,
	)
	fs, err := fsys.NewWithMode(opts.Root, fsys.NewTestRenderMode(
		dependencies,
		toPaths(opts.Outputs),
	))
	if err != nil {
		return nil, err
	}
	return &API{template.NewAPI(paths.New(opts.CurrentTemplate), fs)}, nil
}

func toPaths(in []string) []paths.FS {
	out := make([]paths.FS, len(in))
	for i, p := range in {
		out[i] = paths.New(p)
	}
	return out
}

// RegisterHelper exposes template.RegisterHelper to projects, so tests and
// embedded mains can install the same helpers.
func RegisterHelper(name string, fn any) {
	template.RegisterHelper(name, fn)
}

// RegisterFilter exposes template.RegisterFilter to projects.
func RegisterFilter(name string, fn func(input, param any) (any, error)) error {
	return template.RegisterFilter(name, fn)
}
