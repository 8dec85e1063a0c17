//go:build property
// +build property

package ninja

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/ginjarator/internal/paths"
)

func TestEscapeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Escaping the same value twice gives the same result.
	properties.Property("escape is deterministic", prop.ForAll(
		func(value string) bool {
			first, err1 := Escape(value)
			second, err2 := Escape(value)
			if err1 != nil || err2 != nil {
				return (err1 == nil) == (err2 == nil)
			}
			return first == second
		},
		gen.AnyString(),
	))

	// Escaped output never contains characters ninja's lexer would split on
	// outside of an escape sequence.
	properties.Property("no unescaped specials", prop.ForAll(
		func(value string) bool {
			escaped, err := Escape(value)
			if err != nil {
				return true // Values with "#" or newlines are rejected.
			}
			stripped := strings.NewReplacer("$ ", "", "$:", "", "$$", "").Replace(escaped)
			return !strings.ContainsAny(stripped, " :$")
		},
		gen.AnyString(),
	))

	// Shell quoting never weakens ninja escaping.
	properties.Property("shell escape also ninja escapes", prop.ForAll(
		func(value string) bool {
			escaped, err := EscapeShell(value)
			if err != nil {
				return true
			}
			stripped := strings.NewReplacer("$ ", "", "$:", "", "$$", "").Replace(escaped)
			return !strings.ContainsAny(stripped, " :$")
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestDepfileProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Accepted paths survive unchanged except for "%", so ninja reads back
	// exactly the path that was written.
	properties.Property("escaping is reversible", prop.ForAll(
		func(target string) bool {
			escaped, err := depfileEscape(paths.FS(target))
			if err != nil {
				return true // Unsupported characters are rejected up front.
			}
			return strings.ReplaceAll(escaped, `\%`, "%") == target
		},
		gen.RegexMatch(`^[a-zA-Z0-9_./%-]+$`),
	))

	properties.TestingRun(t)
}
