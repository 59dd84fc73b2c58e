package compat

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/glimte/contractgate/schema"
)

// Compare classifies every change from oldDoc to newDoc. It never fails;
// identical documents yield NONE with no changes.
func Compare(oldDoc, newDoc *schema.Document) Report {
	report := Report{
		OldVersion:     oldDoc.Version(),
		NewVersion:     newDoc.Version(),
		Classification: None,
		Changes:        make([]Change, 0),
	}

	if oldDoc.Name() != newDoc.Name() {
		report.add(Change{
			Kind:     NameChanged,
			Severity: Major,
			Old:      oldDoc.Name(),
			New:      newDoc.Name(),
			Message:  fmt.Sprintf("document renamed from %q to %q", oldDoc.Name(), newDoc.Name()),
		})
	}

	if oldDoc.Description() != newDoc.Description() {
		report.add(Change{
			Kind:     DescriptionChanged,
			Severity: Patch,
			Old:      oldDoc.Description(),
			New:      newDoc.Description(),
			Message:  "document description changed",
		})
	}

	compareFields(&report, "", oldDoc.Fields(), newDoc.Fields())
	return report
}

// compareFields diffs two field lists: removed and modified fields in old order, then added fields in new order
func compareFields(report *Report, parent string, oldFields, newFields []schema.FieldSpec) {
	newByName := make(map[string]schema.FieldSpec, len(newFields))
	for _, f := range newFields {
		newByName[f.Name] = f
	}
	oldNames := make(map[string]struct{}, len(oldFields))

	for _, old := range oldFields {
		oldNames[old.Name] = struct{}{}
		path := schema.JoinPath(parent, old.Name)

		updated, exists := newByName[old.Name]
		if !exists {
			msg := "optional field removed"
			if old.Required {
				msg = "required field removed"
			}
			report.add(Change{
				Kind:     RemovedField,
				Field:    path,
				Severity: Major,
				Old:      string(old.Type),
				Message:  msg,
			})
			continue
		}

		compareField(report, path, old, updated)
	}

	for _, f := range newFields {
		if _, exists := oldNames[f.Name]; exists {
			continue
		}
		severity := Minor
		msg := "optional field added"
		if f.Required {
			severity = Major
			msg = "required field added"
		}
		report.add(Change{
			Kind:     AddedField,
			Field:    schema.JoinPath(parent, f.Name),
			Severity: severity,
			New:      string(f.Type),
			Message:  msg,
		})
	}
}

// compareField diffs a field present in both versions
func compareField(report *Report, path string, old, updated schema.FieldSpec) {
	switch {
	case old.Required && !updated.Required:
		report.add(Change{
			Kind:     RequiredToOptional,
			Field:    path,
			Severity: Minor,
			Old:      "required",
			New:      "optional",
			Message:  "field is no longer required",
		})
	case !old.Required && updated.Required:
		report.add(Change{
			Kind:     OptionalToRequired,
			Field:    path,
			Severity: Major,
			Old:      "optional",
			New:      "required",
			Message:  "field became required",
		})
	}

	if old.Type != updated.Type {
		report.add(Change{
			Kind:     TypeChanged,
			Field:    path,
			Severity: Major,
			Old:      string(old.Type),
			New:      string(updated.Type),
			Message:  fmt.Sprintf("type changed from %s to %s", old.Type, updated.Type),
		})
		compareDocs(report, path, old, updated)
		return
	}

	compareFormat(report, path, old, updated)
	compareEnum(report, path, old, updated)
	compareRanges(report, path, old, updated)
	compareItems(report, path, old, updated)

	if len(old.Fields) > 0 || len(updated.Fields) > 0 {
		compareFields(report, path, old.Fields, updated.Fields)
	}

	compareDocs(report, path, old, updated)
}

func compareFormat(report *Report, path string, old, updated schema.FieldSpec) {
	oldFormat, newFormat := old.Format.Canonical(), updated.Format.Canonical()

	if oldFormat != newFormat {
		severity := Major
		msg := fmt.Sprintf("format changed from %s to %s", oldFormat, newFormat)
		switch {
		case newFormat == schema.FormatNone:
			severity = Minor
			msg = fmt.Sprintf("format %s dropped", oldFormat)
		case oldFormat == schema.FormatNone:
			msg = fmt.Sprintf("format %s added", newFormat)
		}
		report.add(Change{
			Kind:     FormatChanged,
			Field:    path,
			Severity: severity,
			Old:      string(oldFormat),
			New:      string(newFormat),
			Message:  msg,
		})
		return
	}

	if old.UUIDVersion != updated.UUIDVersion {
		severity := Major
		if updated.UUIDVersion == 0 {
			severity = Minor
		}
		report.add(Change{
			Kind:     FormatChanged,
			Field:    path,
			Severity: severity,
			Old:      uuidVersionLabel(old.UUIDVersion),
			New:      uuidVersionLabel(updated.UUIDVersion),
			Message:  fmt.Sprintf("UUID version changed from %s to %s", uuidVersionLabel(old.UUIDVersion), uuidVersionLabel(updated.UUIDVersion)),
		})
	}
}

func compareEnum(report *Report, path string, old, updated schema.FieldSpec) {
	switch {
	case !old.HasEnum() && !updated.HasEnum():
		return
	case !old.HasEnum():
		report.add(Change{
			Kind:     EnumConstraintAdded,
			Field:    path,
			Severity: Major,
			New:      fmt.Sprint(updated.Enum),
			Message:  "values restricted to an enum set",
		})
		return
	case !updated.HasEnum():
		report.add(Change{
			Kind:     EnumConstraintRemoved,
			Field:    path,
			Severity: Minor,
			Old:      fmt.Sprint(old.Enum),
			Message:  "enum restriction removed",
		})
		return
	}

	for _, value := range old.Enum {
		if !slices.Contains(updated.Enum, value) {
			report.add(Change{
				Kind:     EnumValueRemoved,
				Field:    path,
				Severity: Major,
				Old:      value,
				Message:  fmt.Sprintf("enum value %q removed", value),
			})
		}
	}
	for _, value := range updated.Enum {
		if !slices.Contains(old.Enum, value) {
			report.add(Change{
				Kind:     EnumValueAdded,
				Field:    path,
				Severity: Minor,
				New:      value,
				Message:  fmt.Sprintf("enum value %q added", value),
			})
		}
	}
}

// compareRanges diffs lower bounds, upper bounds and patterns
func compareRanges(report *Report, path string, old, updated schema.FieldSpec) {
	compareBound(report, path, "minimum", old.Minimum, updated.Minimum, true)
	compareBound(report, path, "maximum", old.Maximum, updated.Maximum, false)
	compareBound(report, path, "min_length", intToFloat(old.MinLength), intToFloat(updated.MinLength), true)
	compareBound(report, path, "max_length", intToFloat(old.MaxLength), intToFloat(updated.MaxLength), false)

	if old.Pattern != updated.Pattern {
		kind, severity, msg := RangeTightened, Major, "pattern changed"
		switch {
		case updated.Pattern == "":
			kind, severity, msg = RangeRelaxed, Minor, "pattern removed"
		case old.Pattern == "":
			msg = "pattern added"
		}
		report.add(Change{
			Kind:     kind,
			Field:    path,
			Severity: severity,
			Old:      old.Pattern,
			New:      updated.Pattern,
			Message:  msg,
		})
	}
}

// compareBound reports a tightened or relaxed bound; lower bounds tighten when raised, upper bounds when lowered
func compareBound(report *Report, path, name string, old, updated *float64, lower bool) {
	var tightened bool
	switch {
	case old == nil && updated == nil:
		return
	case old == nil:
		tightened = true
	case updated == nil:
		tightened = false
	case *old == *updated:
		return
	case lower:
		tightened = *updated > *old
	default:
		tightened = *updated < *old
	}

	change := Change{
		Field: path,
		Old:   boundLabel(old),
		New:   boundLabel(updated),
	}
	if tightened {
		change.Kind = RangeTightened
		change.Severity = Major
	} else {
		change.Kind = RangeRelaxed
		change.Severity = Minor
	}
	change.Message = fmt.Sprintf("%s changed from %s to %s", name, change.Old, change.New)

	report.add(change)
}

func compareItems(report *Report, path string, old, updated schema.FieldSpec) {
	itemsPath := path + "[]"
	switch {
	case old.Items == nil && updated.Items == nil:
		return
	case old.Items == nil:
		report.add(Change{
			Kind:     ItemsConstraintAdded,
			Field:    itemsPath,
			Severity: Major,
			New:      string(updated.Items.Type),
			Message:  "array elements restricted to " + string(updated.Items.Type),
		})
	case updated.Items == nil:
		report.add(Change{
			Kind:     ItemsConstraintRemoved,
			Field:    itemsPath,
			Severity: Minor,
			Old:      string(old.Items.Type),
			Message:  "array element restriction removed",
		})
	default:
		compareField(report, itemsPath, *old.Items, *updated.Items)
	}
}

// compareDocs reports documentation-only changes
func compareDocs(report *Report, path string, old, updated schema.FieldSpec) {
	if old.Description != updated.Description {
		report.add(Change{
			Kind:     DescriptionChanged,
			Field:    path,
			Severity: Patch,
			Old:      old.Description,
			New:      updated.Description,
			Message:  "description changed",
		})
	}
	if old.Deprecated != updated.Deprecated {
		msg := "field deprecated"
		if !updated.Deprecated {
			msg = "field no longer deprecated"
		}
		report.add(Change{
			Kind:     DeprecationChanged,
			Field:    path,
			Severity: Patch,
			Old:      strconv.FormatBool(old.Deprecated),
			New:      strconv.FormatBool(updated.Deprecated),
			Message:  msg,
		})
	}
}

func intToFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func boundLabel(v *float64) string {
	if v == nil {
		return "none"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func uuidVersionLabel(v int) string {
	if v == 0 {
		return "any"
	}
	return "v" + strconv.Itoa(v)
}
