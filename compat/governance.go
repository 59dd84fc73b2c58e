package compat

import (
	"fmt"

	"github.com/glimte/contractgate/schema"
)

// DeclaredBump returns the bump implied by moving from oldVersion to newVersion.
// It fails when newVersion does not come after oldVersion.
func DeclaredBump(oldVersion, newVersion schema.Version) (Severity, error) {
	oldSemver, newSemver := oldVersion.Semver(), newVersion.Semver()
	if !newSemver.GreaterThan(oldSemver) {
		return None, fmt.Errorf("new version %s must be greater than old version %s", newVersion, oldVersion)
	}

	switch {
	case newSemver.Major() != oldSemver.Major():
		return Major, nil
	case newSemver.Minor() != oldSemver.Minor():
		return Minor, nil
	default:
		return Patch, nil
	}
}

// Enforce fails with *BumpViolationError when the report needs a larger bump than declared
func Enforce(report Report, declared Severity) error {
	if report.Classification <= declared {
		return nil
	}

	return &BumpViolationError{
		OldVersion: report.OldVersion,
		NewVersion: report.NewVersion,
		Declared:   declared,
		Required:   report.Classification,
		Changes:    report.ChangesAbove(declared),
	}
}

// CheckRelease compares two documents and enforces the bump declared by their versions.
// The report is returned even when the check fails.
func CheckRelease(oldDoc, newDoc *schema.Document) (Report, error) {
	report := Compare(oldDoc, newDoc)

	declared, err := DeclaredBump(oldDoc.Version(), newDoc.Version())
	if err != nil {
		return report, err
	}

	return report, Enforce(report, declared)
}
