// Package errs defines the error types shared across ginjarator's filesystem
// and template layers.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured is returned when a filesystem mode is used before it has
// been given a minimal config.
var ErrNotConfigured = errors.New("filesystem mode is not configured yet")

// ErrAlreadyConfigured is returned when a filesystem mode is configured
// twice; modes are single use.
var ErrAlreadyConfigured = errors.New("filesystem mode is already configured")

// NotAllowedError reports an access to a path outside the mode's allowed set.
type NotAllowedError struct {
	Path    string
	Op      string
	Allowed []string
}

func (e *NotAllowedError) Error() string {
	return fmt.Sprintf(
		"%s %q is not in allowed paths: [%s]",
		e.Op, e.Path, strings.Join(e.Allowed, " "),
	)
}

// DeferredError reports an access that is only valid in a later pass, in a
// context where deferring is not allowed.
type DeferredError struct {
	Path string
	Op   string
}

func (e *DeferredError) Error() string {
	return fmt.Sprintf(
		"%s %q is not allowed in this pass and deferring to a later pass is disabled",
		e.Op, e.Path,
	)
}

// TemplateError reports a failure while loading or rendering a template.
type TemplateError struct {
	Template string
	Err      error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %q: %v", e.Template, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }
