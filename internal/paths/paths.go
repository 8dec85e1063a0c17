// Package paths defines the path vocabulary shared by the rest of ginjarator:
// slash-separated paths relative to the project root, plus the well-known
// locations under the internal state directory.
package paths

import (
	"net/url"
	"path"
	"strings"
)

// FS is a slash-separated path relative to the project root (and therefore to
// build.ninja), not necessarily to the current directory.
type FS string

// New returns a cleaned FS path.
func New(p string) FS {
	return FS(path.Clean(strings.ReplaceAll(p, "\\", "/")))
}

func (p FS) String() string { return string(p) }

// Join appends elements to the path.
func (p FS) Join(elements ...string) FS {
	return FS(path.Join(append([]string{string(p)}, elements...)...))
}

// Dir returns the parent of the path.
func (p FS) Dir() FS { return FS(path.Dir(string(p))) }

// IsRelativeTo reports whether p is other or is contained in other. The check
// is lexical, matching how source_paths/build_paths scope access.
func (p FS) IsRelativeTo(other FS) bool {
	if p == other {
		return true
	}
	return strings.HasPrefix(string(p), string(other)+"/")
}

// Well-known project paths.
const (
	Config          FS = "ginjarator.toml"
	Internal        FS = ".ginjarator"
	NinjaEntrypoint FS = "build.ninja"
)

// InternalPath returns a path for internal state. Each component is escaped
// to remove "/", so other paths can be used as single components.
func InternalPath(components ...string) FS {
	escaped := make([]string, len(components))
	for i, component := range components {
		escaped[i] = escapeComponent(component)
	}
	return Internal.Join(escaped...)
}

// QueryEscape percent-encodes everything outside the unreserved set but spells
// spaces as "+"; swap those back so components stay valid path segments.
func escapeComponent(component string) string {
	return strings.ReplaceAll(url.QueryEscape(component), "+", "%20")
}

// Derived internal paths.
var (
	MinimalConfig     = InternalPath("config", "minimal.json")
	NinjaMain         = InternalPath("main.ninja")
	EntrypointDepfile = InternalPath("build.ninja.d")
	ScanDoneStamp     = InternalPath("scan-done.stamp")
	GitIgnore         = Internal.Join(".gitignore")
)

// NinjaTemplateOutput returns the output path for a ninja template.
func NinjaTemplateOutput(template FS) FS {
	return InternalPath("ninja_templates", string(template)+".ninja")
}

// TemplateState returns the path for a template's recorded dependencies and
// outputs.
func TemplateState(template FS) FS {
	return InternalPath("templates", string(template)+".json")
}

// TemplateDepfile returns the path for a template's depfile.
func TemplateDepfile(template FS) FS {
	return InternalPath("templates", string(template)+".d")
}

// TemplateDyndep returns the path for a template's dyndep file.
func TemplateDyndep(template FS) FS {
	return InternalPath("templates", string(template)+".dd")
}

// TemplateRenderStamp returns the path for a template's render stamp.
func TemplateRenderStamp(template FS) FS {
	return InternalPath("templates", string(template)+".render-stamp")
}
