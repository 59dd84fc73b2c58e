package compat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/glimte/contractgate/schema"
)

var (
	// ErrBumpViolation is matched by every *BumpViolationError
	ErrBumpViolation = errors.New("compat: version bump too small for detected changes")
	// ErrChangelog is matched by every *ChangelogError
	ErrChangelog = errors.New("compat: changelog does not match release")
)

// BumpViolationError is returned when a release declares a smaller bump than its changes require
type BumpViolationError struct {
	OldVersion schema.Version
	NewVersion schema.Version
	Declared   Severity
	Required   Severity
	Changes    []Change // Changes that exceed the declared bump
}

func (e *BumpViolationError) Error() string {
	msg := fmt.Sprintf("release %s -> %s declares a %s bump but changes require %s",
		e.OldVersion, e.NewVersion, e.Declared, e.Required)
	if len(e.Changes) == 0 {
		return msg
	}

	parts := make([]string, 0, len(e.Changes))
	for _, c := range e.Changes {
		parts = append(parts, c.String())
	}
	return msg + ": " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrBumpViolation) succeed
func (e *BumpViolationError) Is(target error) bool {
	return target == ErrBumpViolation
}

// ChangelogError reports a changelog that does not describe the release
type ChangelogError struct {
	Version string
	Reason  string
}

func (e *ChangelogError) Error() string {
	if e.Version == "" {
		return "changelog error: " + e.Reason
	}
	return fmt.Sprintf("changelog error for %s: %s", e.Version, e.Reason)
}

// Is makes errors.Is(err, ErrChangelog) succeed
func (e *ChangelogError) Is(target error) bool {
	return target == ErrChangelog
}
