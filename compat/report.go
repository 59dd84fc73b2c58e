package compat

import (
	"fmt"

	"github.com/glimte/contractgate/schema"
)

// ChangeKind identifies the kind of schema change
type ChangeKind string

const (
	NameChanged            ChangeKind = "NAME_CHANGED"
	AddedField             ChangeKind = "ADDED_FIELD"
	RemovedField           ChangeKind = "REMOVED_FIELD"
	TypeChanged            ChangeKind = "TYPE_CHANGED"
	RequiredToOptional     ChangeKind = "REQUIRED_TO_OPTIONAL"
	OptionalToRequired     ChangeKind = "OPTIONAL_TO_REQUIRED"
	EnumValueAdded         ChangeKind = "ENUM_VALUE_ADDED"
	EnumValueRemoved       ChangeKind = "ENUM_VALUE_REMOVED"
	EnumConstraintAdded    ChangeKind = "ENUM_CONSTRAINT_ADDED"
	EnumConstraintRemoved  ChangeKind = "ENUM_CONSTRAINT_REMOVED"
	FormatChanged          ChangeKind = "FORMAT_CHANGED"
	RangeTightened         ChangeKind = "RANGE_TIGHTENED"
	RangeRelaxed           ChangeKind = "RANGE_RELAXED"
	ItemsConstraintAdded   ChangeKind = "ITEMS_CONSTRAINT_ADDED"
	ItemsConstraintRemoved ChangeKind = "ITEMS_CONSTRAINT_REMOVED"
	DescriptionChanged     ChangeKind = "DESCRIPTION_CHANGED"
	DeprecationChanged     ChangeKind = "DEPRECATION_CHANGED"
)

// Change is a single detected difference between two schema versions.
// It is advisory: callers decide whether a change blocks a release.
type Change struct {
	Kind     ChangeKind `json:"kind"`
	Field    string     `json:"field"`
	Severity Severity   `json:"severity"`
	Old      string     `json:"old,omitempty"`
	New      string     `json:"new,omitempty"`
	Message  string     `json:"message"`
}

func (c Change) String() string {
	return fmt.Sprintf("[%s] %s %s: %s", c.Severity, c.Kind, c.Field, c.Message)
}

// Report is the result of comparing two schema versions
type Report struct {
	OldVersion     schema.Version `json:"oldVersion"`
	NewVersion     schema.Version `json:"newVersion"`
	Classification Severity       `json:"classification"`
	Changes        []Change       `json:"changes"`
}

// HasBreakingChanges reports whether any change is MAJOR
func (r Report) HasBreakingChanges() bool {
	return r.Classification == Major
}

// ChangesAbove returns the changes whose severity exceeds s
func (r Report) ChangesAbove(s Severity) []Change {
	var out []Change
	for _, c := range r.Changes {
		if c.Severity > s {
			out = append(out, c)
		}
	}
	return out
}

func (r *Report) add(c Change) {
	if c.Severity > r.Classification {
		r.Classification = c.Severity
	}
	r.Changes = append(r.Changes, c)
}
