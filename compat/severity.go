package compat

import (
	"fmt"
	"strings"
)

// Severity is the semantic-version bump a change requires
type Severity int

const (
	None Severity = iota
	Patch
	Minor
	Major
)

var severityNames = [...]string{"NONE", "PATCH", "MINOR", "MAJOR"}

func (s Severity) String() string {
	if s < None || s > Major {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity parses NONE, PATCH, MINOR or MAJOR case-insensitively
func ParseSeverity(s string) (Severity, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range severityNames {
		if name == upper {
			return Severity(i), nil
		}
	}
	return None, fmt.Errorf("unknown severity %q (expected none, patch, minor or major)", s)
}

// MarshalText implements encoding.TextMarshaler
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
