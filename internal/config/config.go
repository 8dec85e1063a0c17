// Package config parses and validates ginjarator.toml, plus the minimal
// config cache that almost every template depends on.
//
// The minimal subset (source_paths, build_paths) is split out from the full
// config so that adding or removing templates does not invalidate every
// template's dependency on the config: the cache is only rewritten when the
// minimal fields actually change.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/conneroisu/ginjarator/internal/paths"
)

// Minimal is the subset of config that is needed by (almost) everything.
type Minimal struct {
	SourcePaths []paths.FS
	BuildPaths  []paths.FS
}

// Config is the full parsed ginjarator.toml.
type Config struct {
	Minimal
	Templates      []paths.FS
	NinjaTemplates []paths.FS
}

type rawConfig struct {
	SourcePaths    []string `toml:"source_paths" json:"source_paths"`
	BuildPaths     []string `toml:"build_paths" json:"build_paths"`
	Templates      []string `toml:"templates" json:"-"`
	NinjaTemplates []string `toml:"ninja_templates" json:"-"`
}

// Normalize as much as possible so that semantically identical configs
// serialize identically and don't trigger rebuilds: order of source_paths and
// build_paths has no effect, so they're sorted and deduplicated.
func normalizePaths(raw []string, defaults []string) []paths.FS {
	if len(raw) == 0 {
		raw = defaults
	}
	seen := make(map[paths.FS]bool, len(raw))
	out := make([]paths.FS, 0, len(raw))
	for _, p := range raw {
		fp := paths.New(p)
		if !seen[fp] {
			seen[fp] = true
			out = append(out, fp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func orderedPaths(raw []string) []paths.FS {
	out := make([]paths.FS, len(raw))
	for i, p := range raw {
		out[i] = paths.New(p)
	}
	return out
}

func (m *Minimal) validate() error {
	for _, sourcePath := range m.SourcePaths {
		for _, buildPath := range m.BuildPaths {
			if sourcePath.IsRelativeTo(buildPath) || buildPath.IsRelativeTo(sourcePath) {
				return fmt.Errorf(
					"source_paths and build_paths must not overlap: %q vs %q",
					sourcePath, buildPath,
				)
			}
		}
	}
	return nil
}

// Parse returns the config parsed from ginjarator.toml contents. Unknown keys
// are errors so that typos fail loudly instead of silently misconfiguring a
// build.
func Parse(raw []byte) (*Config, error) {
	var parsed rawConfig
	decoder := toml.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", paths.Config, err)
	}
	cfg := &Config{
		Minimal: Minimal{
			SourcePaths: normalizePaths(parsed.SourcePaths, []string{"src"}),
			BuildPaths:  normalizePaths(parsed.BuildPaths, []string{"build"}),
		},
		Templates:      orderedPaths(parsed.Templates),
		NinjaTemplates: orderedPaths(parsed.NinjaTemplates),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseMinimal returns the minimal config parsed from the JSON cache.
func ParseMinimal(raw []byte) (*Minimal, error) {
	var parsed rawConfig
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", paths.MinimalConfig, err)
	}
	minimal := &Minimal{
		SourcePaths: normalizePaths(parsed.SourcePaths, nil),
		BuildPaths:  normalizePaths(parsed.BuildPaths, nil),
	}
	if err := minimal.validate(); err != nil {
		return nil, err
	}
	return minimal, nil
}

// MarshalMinimal returns the minimal config as canonical JSON, suitable for
// the cache file. The output is deterministic so a byte-identical cache means
// nothing minimal changed.
func (m *Minimal) MarshalMinimal() ([]byte, error) {
	raw := rawConfig{
		SourcePaths: pathStrings(m.SourcePaths),
		BuildPaths:  pathStrings(m.BuildPaths),
	}
	out, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func pathStrings(in []paths.FS) []string {
	out := make([]string, len(in))
	for i, p := range in {
		out[i] = string(p)
	}
	return out
}
