package compat

import (
	"errors"
	"testing"

	"github.com/glimte/contractgate/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclaredBump(t *testing.T) {
	tests := []struct {
		old, new string
		want     Severity
	}{
		{"1.0.0", "1.0.1", Patch},
		{"1.0.0", "1.1.0", Minor},
		{"1.4.2", "1.5.0", Minor},
		{"1.9.9", "2.0.0", Major},
		{"1.0.0", "3.0.0", Major},
	}

	for _, tt := range tests {
		t.Run(tt.old+" to "+tt.new, func(t *testing.T) {
			got, err := DeclaredBump(schema.MustParseVersion(tt.old), schema.MustParseVersion(tt.new))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects non-increasing versions", func(t *testing.T) {
		_, err := DeclaredBump(schema.MustParseVersion("1.1.0"), schema.MustParseVersion("1.1.0"))
		assert.Error(t, err)

		_, err = DeclaredBump(schema.MustParseVersion("2.0.0"), schema.MustParseVersion("1.9.0"))
		assert.Error(t, err)
	})
}

func TestEnforce(t *testing.T) {
	report := Report{
		OldVersion:     schema.MustParseVersion("1.0.0"),
		NewVersion:     schema.MustParseVersion("1.1.0"),
		Classification: Major,
		Changes: []Change{
			{Kind: AddedField, Field: "founded_year", Severity: Minor},
			{Kind: RemovedField, Field: "address", Severity: Major, Message: "required field removed"},
		},
	}

	t.Run("declared bump covers classification", func(t *testing.T) {
		assert.NoError(t, Enforce(report, Major))
	})

	t.Run("smaller bump is a violation", func(t *testing.T) {
		err := Enforce(report, Minor)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrBumpViolation))

		var violation *BumpViolationError
		require.True(t, errors.As(err, &violation))
		assert.Equal(t, Minor, violation.Declared)
		assert.Equal(t, Major, violation.Required)
		require.Len(t, violation.Changes, 1)
		assert.Equal(t, "address", violation.Changes[0].Field)
		assert.Contains(t, err.Error(), "declares a MINOR bump but changes require MAJOR")
	})
}

func TestCheckRelease(t *testing.T) {
	base := withFields(t, "1.0.0",
		schema.FieldSpec{Name: "name", Type: schema.TypeString, Required: true},
		schema.FieldSpec{Name: "address", Type: schema.TypeString, Required: true},
	)

	t.Run("minor release removing a field fails", func(t *testing.T) {
		next := withFields(t, "1.1.0", schema.FieldSpec{Name: "name", Type: schema.TypeString, Required: true})

		report, err := CheckRelease(base, next)

		assert.True(t, errors.Is(err, ErrBumpViolation))
		assert.Equal(t, Major, report.Classification)
	})

	t.Run("major release removing a field passes", func(t *testing.T) {
		next := withFields(t, "2.0.0", schema.FieldSpec{Name: "name", Type: schema.TypeString, Required: true})

		report, err := CheckRelease(base, next)

		assert.NoError(t, err)
		assert.Equal(t, Major, report.Classification)
	})

	t.Run("patch release with documentation changes passes", func(t *testing.T) {
		next := withFields(t, "1.0.1",
			schema.FieldSpec{Name: "name", Type: schema.TypeString, Required: true, Description: "Display name"},
			schema.FieldSpec{Name: "address", Type: schema.TypeString, Required: true},
		)

		_, err := CheckRelease(base, next)
		assert.NoError(t, err)
	})

	t.Run("version going backwards fails", func(t *testing.T) {
		older := withFields(t, "0.9.0", base.Fields()...)

		_, err := CheckRelease(base, older)

		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrBumpViolation))
	})
}
