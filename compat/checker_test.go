package compat

import (
	"testing"

	"github.com/glimte/contractgate/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseSchema = `
name: Organization
version: 1.0.0
fields:
  - {name: external_id, type: string, format: uuid, uuid_version: 7, required: true}
  - {name: name, type: string, required: true, min_length: 1, max_length: 255}
  - {name: category, type: string, required: true}
  - {name: address, type: string, required: true}
  - {name: rating, type: number, minimum: 0, maximum: 5}
  - {name: partnership_status, type: enum, enum: [partner, potential_partner]}
  - name: tags
    type: array
    items: {type: string}
  - name: contacts
    type: object
    fields:
      - {name: email, type: string, format: email}
`

func parse(t *testing.T, src string) *schema.Document {
	t.Helper()
	doc, err := schema.Parse([]byte(src))
	require.NoError(t, err)
	return doc
}

// withFields builds a document at version from field specs
func withFields(t *testing.T, version string, fields ...schema.FieldSpec) *schema.Document {
	t.Helper()
	doc, err := schema.NewDocument("Organization", schema.MustParseVersion(version), fields)
	require.NoError(t, err)
	return doc
}

func float(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func changeKinds(r Report) []ChangeKind {
	out := make([]ChangeKind, 0, len(r.Changes))
	for _, c := range r.Changes {
		out = append(out, c.Kind)
	}
	return out
}

func TestCompareIdentical(t *testing.T) {
	t.Run("same document is NONE", func(t *testing.T) {
		doc := parse(t, baseSchema)

		report := Compare(doc, doc)

		assert.Equal(t, None, report.Classification)
		assert.Empty(t, report.Changes)
		assert.NotNil(t, report.Changes)
		assert.False(t, report.HasBreakingChanges())
	})

	t.Run("equal content at different versions is NONE", func(t *testing.T) {
		oldDoc := parse(t, baseSchema)
		newDoc := withFields(t, "1.0.1", oldDoc.Fields()...)

		report := Compare(oldDoc, newDoc)

		assert.Equal(t, None, report.Classification)
		assert.Equal(t, "1.0.0", report.OldVersion.String())
		assert.Equal(t, "1.0.1", report.NewVersion.String())
	})
}

func TestCompareFieldSet(t *testing.T) {
	t.Run("adding an optional field is MINOR", func(t *testing.T) {
		oldDoc := parse(t, baseSchema)
		fields := append(oldDoc.Fields(), schema.FieldSpec{Name: "founded_year", Type: schema.TypeInteger, Minimum: float(1800)})
		newDoc := withFields(t, "1.1.0", fields...)

		report := Compare(oldDoc, newDoc)

		assert.Equal(t, Minor, report.Classification)
		require.Len(t, report.Changes, 1)
		assert.Equal(t, AddedField, report.Changes[0].Kind)
		assert.Equal(t, "founded_year", report.Changes[0].Field)
		assert.Equal(t, Minor, report.Changes[0].Severity)
	})

	t.Run("adding a required field is MAJOR", func(t *testing.T) {
		oldDoc := parse(t, baseSchema)
		fields := append(oldDoc.Fields(), schema.FieldSpec{Name: "tax_id", Type: schema.TypeString, Required: true})
		newDoc := withFields(t, "2.0.0", fields...)

		report := Compare(oldDoc, newDoc)

		assert.Equal(t, Major, report.Classification)
		require.Len(t, report.Changes, 1)
		assert.Equal(t, AddedField, report.Changes[0].Kind)
		assert.Equal(t, "required field added", report.Changes[0].Message)
	})

	t.Run("removing a required field is MAJOR", func(t *testing.T) {
		oldDoc := parse(t, baseSchema)
		var fields []schema.FieldSpec
		for _, f := range oldDoc.Fields() {
			if f.Name != "address" {
				fields = append(fields, f)
			}
		}
		newDoc := withFields(t, "2.0.0", fields...)

		report := Compare(oldDoc, newDoc)

		assert.Equal(t, Major, report.Classification)
		assert.True(t, report.HasBreakingChanges())
		require.Len(t, report.Changes, 1)
		assert.Equal(t, RemovedField, report.Changes[0].Kind)
		assert.Equal(t, "address", report.Changes[0].Field)
	})

	t.Run("removing an optional field is MAJOR", func(t *testing.T) {
		oldDoc := withFields(t, "1.0.0",
			schema.FieldSpec{Name: "name", Type: schema.TypeString, Required: true},
			schema.FieldSpec{Name: "nickname", Type: schema.TypeString},
		)
		newDoc := withFields(t, "1.1.0", schema.FieldSpec{Name: "name", Type: schema.TypeString, Required: true})

		report := Compare(oldDoc, newDoc)

		assert.Equal(t, Major, report.Classification)
		assert.Equal(t, []ChangeKind{RemovedField}, changeKinds(report))
	})

	t.Run("changes follow old order then added fields", func(t *testing.T) {
		oldDoc := withFields(t, "1.0.0",
			schema.FieldSpec{Name: "a", Type: schema.TypeString},
			schema.FieldSpec{Name: "b", Type: schema.TypeString},
			schema.FieldSpec{Name: "c", Type: schema.TypeString},
		)
		newDoc := withFields(t, "2.0.0",
			schema.FieldSpec{Name: "z", Type: schema.TypeString},
			schema.FieldSpec{Name: "c", Type: schema.TypeInteger},
			schema.FieldSpec{Name: "a", Type: schema.TypeString},
		)

		report := Compare(oldDoc, newDoc)

		require.Len(t, report.Changes, 3)
		assert.Equal(t, "b", report.Changes[0].Field)
		assert.Equal(t, RemovedField, report.Changes[0].Kind)
		assert.Equal(t, "c", report.Changes[1].Field)
		assert.Equal(t, TypeChanged, report.Changes[1].Kind)
		assert.Equal(t, "z", report.Changes[2].Field)
		assert.Equal(t, AddedField, report.Changes[2].Kind)
	})
}

func TestCompareRequiredness(t *testing.T) {
	t.Run("required to optional is MINOR", func(t *testing.T) {
		oldDoc := withFields(t, "1.0.0", schema.FieldSpec{Name: "address", Type: schema.TypeString, Required: true})
		newDoc := withFields(t, "1.1.0", schema.FieldSpec{Name: "address", Type: schema.TypeString})

		report := Compare(oldDoc, newDoc)

		assert.Equal(t, Minor, report.Classification)
		assert.Equal(t, []ChangeKind{RequiredToOptional}, changeKinds(report))
	})

	t.Run("optional to required is MAJOR", func(t *testing.T) {
		oldDoc := withFields(t, "1.0.0", schema.FieldSpec{Name: "address", Type: schema.TypeString})
		newDoc := withFields(t, "2.0.0", schema.FieldSpec{Name: "address", Type: schema.TypeString, Required: true})

		report := Compare(oldDoc, newDoc)

		assert.Equal(t, Major, report.Classification)
		assert.Equal(t, []ChangeKind{OptionalToRequired}, changeKinds(report))
	})
}

func TestCompareTypes(t *testing.T) {
	t.Run("type change is MAJOR and skips constraint diffs", func(t *testing.T) {
		oldDoc := withFields(t, "1.0.0", schema.FieldSpec{Name: "rating", Type: schema.TypeNumber, Minimum: float(0)})
		newDoc := withFields(t, "2.0.0", schema.FieldSpec{Name: "rating", Type: schema.TypeString})

		report := Compare(oldDoc, newDoc)

		assert.Equal(t, Major, report.Classification)
		require.Len(t, report.Changes, 1)
		assert.Equal(t, TypeChanged, report.Changes[0].Kind)
		assert.Equal(t, "number", report.Changes[0].Old)
		assert.Equal(t, "string", report.Changes[0].New)
	})

	t.Run("nested field changes use dotted paths", func(t *testing.T) {
		oldDoc := parse(t, baseSchema)
		fields := oldDoc.Fields()
		for i := range fields {
			if fields[i].Name == "contacts" {
				fields[i].Fields[0].Type = schema.TypeObject
				fields[i].Fields[0].Format = schema.FormatNone
			}
		}
		newDoc := withFields(t, "2.0.0", fields...)

		report := Compare(oldDoc, newDoc)

		require.Len(t, report.Changes, 1)
		assert.Equal(t, "contacts.email", report.Changes[0].Field)
		assert.Equal(t, TypeChanged, report.Changes[0].Kind)
	})
}

func TestCompareEnums(t *testing.T) {
	status := func(values ...string) schema.FieldSpec {
		return schema.FieldSpec{Name: "partnership_status", Type: schema.TypeEnum, Enum: values}
	}

	t.Run("adding an enum value is MINOR", func(t *testing.T) {
		oldDoc := withFields(t, "1.0.0", status("partner", "potential_partner"))
		newDoc := withFields(t, "1.1.0", status("partner", "potential_partner", "previously_cooperated"))

		report := Compare(oldDoc, newDoc)

		assert.Equal(t, Minor, report.Classification)
		require.Len(t, report.Changes, 1)
		assert.Equal(t, EnumValueAdded, report.Changes[0].Kind)
		assert.Equal(t, "previously_cooperated", report.Changes[0].New)
	})

	t.Run("any superset is never MAJOR", func(t *testing.T) {
		supersets := [][]string{
			{"partner", "potential_partner"},
			{"potential_partner", "partner"},
			{"a", "partner", "b", "potential_partner"},
			{"partner", "potential_partner", "x", "y", "z"},
		}
		oldDoc := withFields(t, "1.0.0", status("partner", "potential_partner"))
		for _, values := range supersets {
			report := Compare(oldDoc, withFields(t, "1.1.0", status(values...)))
			assert.LessOrEqual(t, report.Classification, Minor, "values %v", values)
		}
	})

	t.Run("removing an enum value is MAJOR", func(t *testing.T) {
		oldDoc := withFields(t, "1.0.0", status("partner", "potential_partner"))
		newDoc := withFields(t, "2.0.0", status("partner"))

		report := Compare(oldDoc, newDoc)

		assert.Equal(t, Major, report.Classification)
		assert.Equal(t, []ChangeKind{EnumValueRemoved}, changeKinds(report))
		assert.Equal(t, "potential_partner", report.Changes[0].Old)
	})

	t.Run("adding an enum restriction is MAJOR and dropping it is MINOR", func(t *testing.T) {
		free := withFields(t, "1.0.0", schema.FieldSpec{Name: "category", Type: schema.TypeString})
		restricted := withFields(t, "2.0.0", schema.FieldSpec{Name: "category", Type: schema.TypeString, Enum: []string{"Cafe", "Bar"}})

		added := Compare(free, restricted)
		assert.Equal(t, Major, added.Classification)
		assert.Equal(t, []ChangeKind{EnumConstraintAdded}, changeKinds(added))

		dropped := Compare(restricted, withFields(t, "2.1.0", schema.FieldSpec{Name: "category", Type: schema.TypeString}))
		assert.Equal(t, Minor, dropped.Classification)
		assert.Equal(t, []ChangeKind{EnumConstraintRemoved}, changeKinds(dropped))
	})
}

func TestCompareConstraints(t *testing.T) {
	t.Run("formats", func(t *testing.T) {
		plain := schema.FieldSpec{Name: "website", Type: schema.TypeString}
		uri := schema.FieldSpec{Name: "website", Type: schema.TypeString, Format: schema.FormatURI}
		url := schema.FieldSpec{Name: "website", Type: schema.TypeString, Format: schema.FormatURL}

		assert.Equal(t, Major, Compare(withFields(t, "1.0.0", plain), withFields(t, "2.0.0", uri)).Classification)
		assert.Equal(t, Minor, Compare(withFields(t, "1.0.0", uri), withFields(t, "1.1.0", plain)).Classification)
		assert.Equal(t, None, Compare(withFields(t, "1.0.0", url), withFields(t, "1.0.1", uri)).Classification)
	})

	t.Run("uuid versions", func(t *testing.T) {
		v4 := schema.FieldSpec{Name: "id", Type: schema.TypeString, Format: schema.FormatUUID, UUIDVersion: 4}
		v7 := schema.FieldSpec{Name: "id", Type: schema.TypeString, Format: schema.FormatUUID, UUIDVersion: 7}
		anyVersion := schema.FieldSpec{Name: "id", Type: schema.TypeString, Format: schema.FormatUUID}

		changed := Compare(withFields(t, "1.0.0", v4), withFields(t, "2.0.0", v7))
		assert.Equal(t, Major, changed.Classification)
		assert.Equal(t, "v4", changed.Changes[0].Old)
		assert.Equal(t, "v7", changed.Changes[0].New)

		relaxed := Compare(withFields(t, "1.0.0", v7), withFields(t, "1.1.0", anyVersion))
		assert.Equal(t, Minor, relaxed.Classification)
		assert.Equal(t, "any", relaxed.Changes[0].New)
	})

	t.Run("numeric ranges", func(t *testing.T) {
		rating := func(min, max *float64) schema.FieldSpec {
			return schema.FieldSpec{Name: "rating", Type: schema.TypeNumber, Minimum: min, Maximum: max}
		}
		base := withFields(t, "1.0.0", rating(float(0), float(5)))

		tests := []struct {
			name     string
			field    schema.FieldSpec
			kind     ChangeKind
			severity Severity
		}{
			{"raised minimum", rating(float(1), float(5)), RangeTightened, Major},
			{"lowered maximum", rating(float(0), float(4)), RangeTightened, Major},
			{"lowered minimum", rating(float(-1), float(5)), RangeRelaxed, Minor},
			{"raised maximum", rating(float(0), float(10)), RangeRelaxed, Minor},
			{"dropped maximum", rating(float(0), nil), RangeRelaxed, Minor},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				report := Compare(base, withFields(t, "1.1.0", tt.field))
				require.Len(t, report.Changes, 1)
				assert.Equal(t, tt.kind, report.Changes[0].Kind)
				assert.Equal(t, tt.severity, report.Classification)
			})
		}

		added := Compare(withFields(t, "1.0.0", rating(nil, nil)), base)
		assert.Equal(t, Major, added.Classification)
		assert.Len(t, added.Changes, 2)
	})

	t.Run("string lengths and patterns", func(t *testing.T) {
		name := func(max *int, pattern string) schema.FieldSpec {
			return schema.FieldSpec{Name: "name", Type: schema.TypeString, MaxLength: max, Pattern: pattern}
		}

		shorter := Compare(withFields(t, "1.0.0", name(intPtr(255), "")), withFields(t, "2.0.0", name(intPtr(100), "")))
		assert.Equal(t, Major, shorter.Classification)
		assert.Equal(t, "255", shorter.Changes[0].Old)
		assert.Equal(t, "100", shorter.Changes[0].New)

		withPattern := Compare(withFields(t, "1.0.0", name(nil, "")), withFields(t, "2.0.0", name(nil, "^[A-Z]")))
		assert.Equal(t, Major, withPattern.Classification)
		assert.Equal(t, "pattern added", withPattern.Changes[0].Message)

		noPattern := Compare(withFields(t, "1.0.0", name(nil, "^[A-Z]")), withFields(t, "1.1.0", name(nil, "")))
		assert.Equal(t, Minor, noPattern.Classification)
		assert.Equal(t, RangeRelaxed, noPattern.Changes[0].Kind)
	})

	t.Run("array items", func(t *testing.T) {
		untyped := schema.FieldSpec{Name: "tags", Type: schema.TypeArray}
		strings := schema.FieldSpec{Name: "tags", Type: schema.TypeArray, Items: &schema.FieldSpec{Type: schema.TypeString}}
		ints := schema.FieldSpec{Name: "tags", Type: schema.TypeArray, Items: &schema.FieldSpec{Type: schema.TypeInteger}}

		added := Compare(withFields(t, "1.0.0", untyped), withFields(t, "2.0.0", strings))
		assert.Equal(t, []ChangeKind{ItemsConstraintAdded}, changeKinds(added))
		assert.Equal(t, Major, added.Classification)

		removed := Compare(withFields(t, "1.0.0", strings), withFields(t, "1.1.0", untyped))
		assert.Equal(t, []ChangeKind{ItemsConstraintRemoved}, changeKinds(removed))
		assert.Equal(t, Minor, removed.Classification)

		retyped := Compare(withFields(t, "1.0.0", strings), withFields(t, "2.0.0", ints))
		require.Len(t, retyped.Changes, 1)
		assert.Equal(t, "tags[]", retyped.Changes[0].Field)
		assert.Equal(t, TypeChanged, retyped.Changes[0].Kind)
	})
}

func TestCompareDocumentation(t *testing.T) {
	t.Run("description and deprecation are PATCH", func(t *testing.T) {
		oldDoc := withFields(t, "1.0.0", schema.FieldSpec{Name: "address", Type: schema.TypeString, Description: "Street address"})
		newDoc := withFields(t, "1.0.1", schema.FieldSpec{Name: "address", Type: schema.TypeString, Description: "Postal address", Deprecated: true})

		report := Compare(oldDoc, newDoc)

		assert.Equal(t, Patch, report.Classification)
		assert.Equal(t, []ChangeKind{DescriptionChanged, DeprecationChanged}, changeKinds(report))
	})
}

func TestCompareName(t *testing.T) {
	t.Run("renamed document is MAJOR", func(t *testing.T) {
		oldDoc := parse(t, baseSchema)
		newDoc, err := schema.NewDocument("Company", schema.MustParseVersion("1.0.1"), oldDoc.Fields())
		require.NoError(t, err)

		report := Compare(oldDoc, newDoc)

		assert.Equal(t, Major, report.Classification)
		require.Len(t, report.Changes, 1)
		assert.Equal(t, NameChanged, report.Changes[0].Kind)
		assert.Equal(t, "Organization", report.Changes[0].Old)
		assert.Equal(t, "Company", report.Changes[0].New)
		assert.True(t, report.HasBreakingChanges())
	})
}

func TestCompareFixtures(t *testing.T) {
	t.Run("1.0.0 to 1.1.0 is MINOR", func(t *testing.T) {
		oldDoc, err := schema.ParseFile("../schema/testdata/organization-1.0.0.yaml")
		require.NoError(t, err)
		newDoc, err := schema.ParseFile("../schema/testdata/organization-1.1.0.json")
		require.NoError(t, err)

		report := Compare(oldDoc, newDoc)

		assert.Equal(t, Minor, report.Classification)
		assert.Equal(t, []ChangeKind{DescriptionChanged, EnumValueAdded, AddedField}, changeKinds(report))
		assert.Empty(t, report.ChangesAbove(Minor))
		assert.Len(t, report.ChangesAbove(Patch), 2)
	})
}
