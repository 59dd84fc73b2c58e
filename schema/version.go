package schema

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is a semantic version MAJOR.MINOR.PATCH.
// It is comparable and used as a registry key.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses a strict MAJOR.MINOR.PATCH string. A leading "v" is accepted;
// prerelease and build metadata are not.
func ParseVersion(s string) (Version, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "v")

	sv, err := semver.StrictNewVersion(trimmed)
	if err != nil {
		return Version{}, fmt.Errorf("invalid semantic version: %q", s)
	}
	if sv.Prerelease() != "" || sv.Metadata() != "" {
		return Version{}, fmt.Errorf("invalid semantic version: %q (prerelease and metadata are not allowed)", s)
	}

	return Version{Major: int(sv.Major()), Minor: int(sv.Minor()), Patch: int(sv.Patch())}, nil
}

// MustParseVersion is like ParseVersion but panics on error
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Semver returns v as a *semver.Version
func (v Version) Semver() *semver.Version {
	return semver.New(uint64(v.Major), uint64(v.Minor), uint64(v.Patch), "", "")
}

// String returns the canonical MAJOR.MINOR.PATCH form
func (v Version) String() string {
	return v.Semver().String()
}

// IsZero reports whether v is 0.0.0
func (v Version) IsZero() bool {
	return v == Version{}
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal to or after other
func (v Version) Compare(other Version) int {
	return v.Semver().Compare(other.Semver())
}

// MarshalText implements encoding.TextMarshaler
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Constraint is a version range such as "^1.1", "~1.2.0", ">= 1.0, < 2" or "1.x"
type Constraint struct {
	raw string
	c   *semver.Constraints
}

// ParseConstraint parses a version range
func ParseConstraint(s string) (*Constraint, error) {
	c, err := semver.NewConstraint(s)
	if err != nil {
		return nil, fmt.Errorf("invalid version constraint %q: %w", s, err)
	}
	return &Constraint{raw: s, c: c}, nil
}

// Check reports whether v satisfies the constraint
func (c *Constraint) Check(v Version) bool {
	return c.c.Check(v.Semver())
}

func (c *Constraint) String() string {
	return c.raw
}
