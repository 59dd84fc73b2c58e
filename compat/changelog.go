package compat

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/glimte/contractgate/schema"
)

// Keep-a-Changelog section names
const (
	SectionAdded      = "Added"
	SectionChanged    = "Changed"
	SectionDeprecated = "Deprecated"
	SectionRemoved    = "Removed"
	SectionFixed      = "Fixed"
	SectionSecurity   = "Security"
)

var (
	releaseHeading = regexp.MustCompile(`^##\s+\[?([^\]\s]+)\]?(?:\s+-\s+(\S+))?\s*$`)
	otherHeading   = regexp.MustCompile(`^##\s`)
	versionLike    = regexp.MustCompile(`^v?[0-9]`)
	sectionHeading = regexp.MustCompile(`^###\s+(\S+)\s*$`)
	breakingMarker = regexp.MustCompile(`(?i)\bBREAKING\b`)
)

// ChangelogEntry is one release section of a changelog
type ChangelogEntry struct {
	Version    schema.Version
	Date       string
	Unreleased bool
	Sections   map[string][]string
}

// ImpliedSeverity returns the bump the entry's sections describe.
// Removals and items marked BREAKING are MAJOR.
func (e ChangelogEntry) ImpliedSeverity() Severity {
	severity := None
	for name, items := range e.Sections {
		if len(items) == 0 {
			continue
		}
		var s Severity
		switch name {
		case SectionRemoved:
			s = Major
		case SectionAdded, SectionChanged, SectionDeprecated:
			s = Minor
		default:
			s = Patch
		}
		for _, item := range items {
			if breakingMarker.MatchString(item) {
				s = Major
			}
		}
		if s > severity {
			severity = s
		}
	}
	return severity
}

// ParseChangelog reads Keep-a-Changelog formatted text. Entries are returned in file order.
func ParseChangelog(r io.Reader) ([]ChangelogEntry, error) {
	var (
		entries []ChangelogEntry
		current *ChangelogEntry
		section string
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if m := releaseHeading.FindStringSubmatch(line); m != nil && isReleaseToken(m[1]) {
			entry := ChangelogEntry{Date: m[2], Sections: make(map[string][]string)}
			if strings.EqualFold(m[1], "unreleased") {
				entry.Unreleased = true
			} else {
				v, err := schema.ParseVersion(m[1])
				if err != nil {
					return nil, &ChangelogError{Reason: fmt.Sprintf("line %d: invalid release heading %q: %v", lineNo, line, err)}
				}
				entry.Version = v
			}
			entries = append(entries, entry)
			current = &entries[len(entries)-1]
			section = ""
			continue
		}

		// Other level-two headings (Notes, Migration guide) end the current release
		if otherHeading.MatchString(line) {
			current = nil
			section = ""
			continue
		}

		if current == nil {
			continue
		}

		if m := sectionHeading.FindStringSubmatch(line); m != nil {
			section = m[1]
			continue
		}

		if section == "" {
			continue
		}
		if item, ok := strings.CutPrefix(line, "- "); ok {
			current.Sections[section] = append(current.Sections[section], strings.TrimSpace(item))
		} else if item, ok := strings.CutPrefix(line, "* "); ok {
			current.Sections[section] = append(current.Sections[section], strings.TrimSpace(item))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read changelog: %w", err)
	}

	return entries, nil
}

// isReleaseToken reports whether a heading token names a release rather than a prose section
func isReleaseToken(token string) bool {
	return strings.EqualFold(token, "unreleased") || versionLike.MatchString(token)
}

// LatestRelease returns the first released entry, skipping Unreleased
func LatestRelease(entries []ChangelogEntry) (ChangelogEntry, bool) {
	for _, e := range entries {
		if !e.Unreleased {
			return e, true
		}
	}
	return ChangelogEntry{}, false
}

// VerifyChangelog checks that the newest released entry documents the report's
// new version with a severity covering its classification
func VerifyChangelog(entries []ChangelogEntry, report Report) error {
	latest, ok := LatestRelease(entries)
	if !ok {
		return &ChangelogError{Version: report.NewVersion.String(), Reason: "no released entry found"}
	}

	if latest.Version != report.NewVersion {
		return &ChangelogError{
			Version: report.NewVersion.String(),
			Reason:  fmt.Sprintf("newest entry is %s", latest.Version),
		}
	}

	if implied := latest.ImpliedSeverity(); implied < report.Classification {
		return &ChangelogError{
			Version: report.NewVersion.String(),
			Reason:  fmt.Sprintf("entry describes a %s change but the schema diff is %s", implied, report.Classification),
		}
	}

	return nil
}
