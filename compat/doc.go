// Package compat classifies the difference between two contract versions.
//
// Compare walks the old and new schema documents and reports every detected
// change with the semantic-version bump it demands:
//
//	report := compat.Compare(oldDoc, newDoc)
//	fmt.Println(report.Classification) // NONE, PATCH, MINOR or MAJOR
//
// The policy is deliberately conservative. Removing any documented field is
// MAJOR. Making an optional field required is MAJOR. Adding an enum value
// or an optional field is MINOR.
//
// Release governance builds on the report: CheckRelease fails when the
// version pair declares a smaller bump than the changes require, and
// VerifyChangelog applies the same rule to the newest CHANGELOG entry.
package compat
