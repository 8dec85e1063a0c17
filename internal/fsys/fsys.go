// Package fsys reads source files and writes build outputs while recording
// every access, so that scan results can be exported to ninja as exact
// dependency information.
package fsys

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/conneroisu/ginjarator/internal/config"
	"github.com/conneroisu/ginjarator/internal/paths"
)

// FS is the tracked interface to a project's files. All paths are relative to
// the project root; which of them may be touched is decided by the Mode.
type FS struct {
	root string
	mode Mode

	minimal *config.Minimal

	dependencies         map[paths.FS]struct{}
	deferredDependencies map[paths.FS]struct{}
	outputs              map[paths.FS]struct{}
	deferredOutputs      map[paths.FS]struct{}
}

// New returns an FS in InternalMode.
func New(root string) (*FS, error) {
	return NewWithMode(root, NewInternalMode())
}

// NewWithMode returns an FS rooted at the project's top-level path.
//
// The minimal config is loaded from the cache or from ginjarator.toml per the
// mode, and whichever file it came from is recorded as a dependency.
func NewWithMode(root string, mode Mode) (*FS, error) {
	fs := &FS{
		root:                 root,
		mode:                 mode,
		dependencies:         make(map[paths.FS]struct{}),
		deferredDependencies: make(map[paths.FS]struct{}),
		outputs:              make(map[paths.FS]struct{}),
		deferredOutputs:      make(map[paths.FS]struct{}),
	}

	var loadedFrom paths.FS
	if mode.UseCacheToConfigure() {
		loadedFrom = paths.MinimalConfig
		raw, err := os.ReadFile(fs.Resolve(loadedFrom))
		if err != nil {
			return nil, fmt.Errorf("load minimal config cache: %w", err)
		}
		fs.minimal, err = config.ParseMinimal(raw)
		if err != nil {
			return nil, err
		}
	} else {
		loadedFrom = paths.Config
		raw, err := os.ReadFile(fs.Resolve(loadedFrom))
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg, err := config.Parse(raw)
		if err != nil {
			return nil, err
		}
		fs.minimal = &cfg.Minimal
	}
	if err := mode.Configure(fs.minimal); err != nil {
		return nil, err
	}

	if _, err := fs.AddDependency(loadedFrom, false); err != nil {
		return nil, err
	}
	return fs, nil
}

// Root returns the project's top-level path.
func (fs *FS) Root() string { return fs.root }

// Resolve returns the OS path for a project-relative path.
func (fs *FS) Resolve(p paths.FS) string {
	return filepath.Join(fs.root, filepath.FromSlash(string(p)))
}

func sortedKeys(set map[paths.FS]struct{}) []paths.FS {
	out := make([]paths.FS, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Dependencies returns the files that were read, sorted.
func (fs *FS) Dependencies() []paths.FS { return sortedKeys(fs.dependencies) }

// DeferredDependencies returns the files deferred to be read in another pass,
// sorted.
func (fs *FS) DeferredDependencies() []paths.FS { return sortedKeys(fs.deferredDependencies) }

// Outputs returns the files that were written, sorted.
func (fs *FS) Outputs() []paths.FS { return sortedKeys(fs.outputs) }

// DeferredOutputs returns the files deferred to be written in another pass,
// sorted.
func (fs *FS) DeferredOutputs() []paths.FS { return sortedKeys(fs.deferredOutputs) }

// MinimalConfig returns the minimal subset of the config.
func (fs *FS) MinimalConfig() *config.Minimal { return fs.minimal }

// ReadConfig returns the full config, recording the dependency on it.
func (fs *FS) ReadConfig() (*config.Config, error) {
	raw, err := fs.ReadTextNow(paths.Config)
	if err != nil {
		return nil, err
	}
	return config.Parse([]byte(raw))
}

// AddDependency records a path as a dependency. It reports whether the file
// can be read in this pass; with deferOK false, a deferred path is an error.
func (fs *FS) AddDependency(path paths.FS, deferOK bool) (bool, error) {
	now, err := fs.mode.CheckRead(path, deferOK)
	if err != nil {
		return false, err
	}
	if now {
		fs.dependencies[path] = struct{}{}
	} else {
		fs.deferredDependencies[path] = struct{}{}
	}
	return now, nil
}

// ReadText returns the contents of a file. ok is false when the file can't be
// read in this pass; it is then recorded as a deferred dependency.
func (fs *FS) ReadText(path paths.FS) (contents string, ok bool, err error) {
	now, err := fs.AddDependency(path, true)
	if err != nil {
		return "", false, err
	}
	if !now {
		return "", false, nil
	}
	raw, err := os.ReadFile(fs.Resolve(path))
	if err != nil {
		return "", false, err
	}
	return string(raw), true, nil
}

// ReadTextNow returns the contents of a file, failing if reading would have
// to be deferred.
func (fs *FS) ReadTextNow(path paths.FS) (string, error) {
	if _, err := fs.AddDependency(path, false); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(fs.Resolve(path))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// AddOutput records a path as an output without writing it.
func (fs *FS) AddOutput(path paths.FS, deferOK bool) error {
	_, err := fs.addOutput(path, deferOK)
	return err
}

func (fs *FS) addOutput(path paths.FS, deferOK bool) (bool, error) {
	now, err := fs.mode.CheckWrite(path, deferOK)
	if err != nil {
		return false, err
	}
	if now {
		fs.outputs[path] = struct{}{}
	} else {
		fs.deferredOutputs[path] = struct{}{}
	}
	return now, nil
}

// WriteText writes a string to a file, or records the file as a deferred
// output to write in another pass.
func (fs *FS) WriteText(path paths.FS, contents string) error {
	now, err := fs.addOutput(path, true)
	if err != nil {
		return err
	}
	if !now {
		return nil
	}
	return fs.writeFile(path, contents)
}

// WriteTextNow writes a string to a file, failing if writing would have to be
// deferred.
func (fs *FS) WriteTextNow(path paths.FS, contents string) error {
	if _, err := fs.addOutput(path, false); err != nil {
		return err
	}
	return fs.writeFile(path, contents)
}

// WriteTextIfChanged is WriteTextNow, except that a file whose contents
// already match is left alone so its mtime is preserved. Combined with
// ninja's restat, that stops unchanged generated files from triggering
// rebuilds downstream. It reports whether the file was written.
func (fs *FS) WriteTextIfChanged(path paths.FS, contents string) (bool, error) {
	if _, err := fs.addOutput(path, false); err != nil {
		return false, err
	}
	existing, err := os.ReadFile(fs.Resolve(path))
	if err == nil && string(existing) == contents {
		return false, nil
	}
	if err := fs.writeFile(path, contents); err != nil {
		return false, err
	}
	return true, nil
}

func (fs *FS) writeFile(path paths.FS, contents string) error {
	resolved := fs.Resolve(path)
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return err
	}
	return os.WriteFile(resolved, []byte(contents), 0o644)
}
