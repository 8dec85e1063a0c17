// Package ninja emits fragments of ninja syntax: escaped values, depfiles,
// and dyndep files.
package ninja

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/conneroisu/ginjarator/internal/paths"
)

// https://ninja-build.org/manual.html#ref_lexer
var ninjaEscapes = strings.NewReplacer(
	" ", "$ ",
	":", "$:",
	"$", "$$",
)

func escapeString(value string, escapeShell bool) (string, error) {
	if escapeShell {
		value = shellQuote(value)
	}
	if strings.ContainsAny(value, "#\n") {
		return "", fmt.Errorf("can't escape %q for ninja: contains %q or newline", value, "#")
	}
	return ninjaEscapes.Replace(value), nil
}

func escape(value any, escapeShell bool) (string, error) {
	switch v := value.(type) {
	case string:
		return escapeString(v, escapeShell)
	case paths.FS:
		return escapeString(string(v), escapeShell)
	case []string:
		return escapeSlice(len(v), func(i int) any { return v[i] }, escapeShell)
	case []paths.FS:
		return escapeSlice(len(v), func(i int) any { return v[i] }, escapeShell)
	case []any:
		return escapeSlice(len(v), func(i int) any { return v[i] }, escapeShell)
	case map[paths.FS]struct{}:
		sorted := make([]paths.FS, 0, len(v))
		for p := range v {
			sorted = append(sorted, p)
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		return escape(sorted, escapeShell)
	default:
		return "", fmt.Errorf("can't convert %v (%T) to ninja syntax", value, value)
	}
}

func escapeSlice(n int, at func(int) any, escapeShell bool) (string, error) {
	parts := make([]string, n)
	for i := range parts {
		part, err := escape(at(i), escapeShell)
		if err != nil {
			return "", err
		}
		parts[i] = part
	}
	return strings.Join(parts, " "), nil
}

// Escape returns the value in ninja's syntax. Strings and paths are escaped;
// slices are joined with spaces; sets are sorted first.
func Escape(value any) (string, error) {
	return escape(value, false)
}

// EscapeShell returns the value shell-quoted and then escaped for ninja, for
// use inside command lines.
func EscapeShell(value any) (string, error) {
	return escape(value, true)
}

var shellSafe = regexp.MustCompile(`^[a-zA-Z0-9_@%+=:,./-]+$`)

func shellQuote(value string) string {
	if value == "" {
		return "''"
	}
	if shellSafe.MatchString(value) {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}

// The depfile syntax does not seem to be well documented in any one place.
// The Target Rules section of
// https://pubs.opengroup.org/onlinepubs/9799919799/utilities/make.html
// describes some of it, but not backslash handling, and ninja's parser
// comments suggest its own rules may change. This just disallows potentially
// problematic characters as much as possible.
func depfileEscape(p paths.FS) (string, error) {
	for _, c := range string(p) {
		if unicode.IsSpace(c) || !unicode.IsPrint(c) || strings.ContainsRune(`:;#"\`, c) {
			return "", fmt.Errorf("unsupported characters in depfile path %q", p)
		}
	}
	return strings.ReplaceAll(string(p), "%", `\%`), nil
}

// Depfile returns make-style depfile contents declaring the target's
// dependencies.
func Depfile(target paths.FS, dependencies []paths.FS) (string, error) {
	escapedTarget, err := depfileEscape(target)
	if err != nil {
		return "", err
	}
	sorted := append([]paths.FS(nil), dependencies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var builder strings.Builder
	for _, dependency := range sorted {
		escapedDependency, err := depfileEscape(dependency)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&builder, "%s: %s\n", escapedTarget, escapedDependency)
	}
	return builder.String(), nil
}

// Dyndep returns dyndep file contents binding a render stamp to the outputs
// and dependencies discovered by a scan pass.
func Dyndep(stamp paths.FS, outputs, dependencies []paths.FS) (string, error) {
	escapedStamp, err := Escape(stamp)
	if err != nil {
		return "", err
	}
	escapedOutputs, err := Escape(sortedCopy(outputs))
	if err != nil {
		return "", err
	}
	escapedDependencies, err := Escape(sortedCopy(dependencies))
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	builder.WriteString("ninja_dyndep_version = 1\n")
	fmt.Fprintf(&builder, "build $\n        %s $\n", escapedStamp)
	fmt.Fprintf(&builder, "        | $\n        %s $\n", escapedOutputs)
	builder.WriteString("        : $\n        dyndep $\n")
	fmt.Fprintf(&builder, "        | $\n        %s\n", escapedDependencies)
	return builder.String(), nil
}

func sortedCopy(in []paths.FS) []paths.FS {
	out := append([]paths.FS(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
