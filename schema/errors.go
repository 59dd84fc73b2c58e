package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse is matched by every *ParseError
	ErrParse = errors.New("schema: malformed schema source")
	// ErrUnknownVersion is matched by every *UnknownVersionError
	ErrUnknownVersion = errors.New("schema: unknown version")
	// ErrDuplicateVersion is matched by every *DuplicateVersionError
	ErrDuplicateVersion = errors.New("schema: duplicate version")
)

// ParseError reports a malformed schema source
type ParseError struct {
	Source string // File name or other source label, may be empty
	Field  string // Offending field path, may be empty
	Reason string // What is wrong
	Err    error  // Underlying error, may be nil
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("schema parse error")
	if e.Source != "" {
		fmt.Fprintf(&b, " in %s", e.Source)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " at field '%s'", e.Field)
	}
	fmt.Fprintf(&b, ": %s", e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrParse) succeed
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// UnknownVersionError is returned when a version is not present in the registry
type UnknownVersionError struct {
	Version string
	Known   []string
}

func (e *UnknownVersionError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("schema version %q not registered (registry is empty)", e.Version)
	}
	return fmt.Sprintf("schema version %q not registered (known: %s)", e.Version, strings.Join(e.Known, ", "))
}

// Is makes errors.Is(err, ErrUnknownVersion) succeed
func (e *UnknownVersionError) Is(target error) bool {
	return target == ErrUnknownVersion
}

// DuplicateVersionError is returned when registering a version that already exists
type DuplicateVersionError struct {
	Version  string
	Name     string // Name of the document being registered
	Existing string // Name of the document already holding the version
}

func (e *DuplicateVersionError) Error() string {
	return fmt.Sprintf("schema version %s already registered by %q, cannot register %q",
		e.Version, e.Existing, e.Name)
}

// Is makes errors.Is(err, ErrDuplicateVersion) succeed
func (e *DuplicateVersionError) Is(target error) bool {
	return target == ErrDuplicateVersion
}

// VersionOutOfRangeError is returned when a version is valid but outside the accepted range
type VersionOutOfRangeError struct {
	Version    string
	Constraint string
}

func (e *VersionOutOfRangeError) Error() string {
	return fmt.Sprintf("schema version %q not accepted (want %s)", e.Version, e.Constraint)
}

// Is makes errors.Is(err, ErrUnknownVersion) succeed
func (e *VersionOutOfRangeError) Is(target error) bool {
	return target == ErrUnknownVersion
}
