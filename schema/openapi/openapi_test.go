package openapi

import (
	"errors"
	"testing"

	"github.com/glimte/contractgate/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "testdata/organization.openapi.yaml"

func TestLoadFile(t *testing.T) {
	doc, err := LoadFile(fixture, "Organization")
	require.NoError(t, err)

	t.Run("document metadata", func(t *testing.T) {
		assert.Equal(t, "Organization", doc.Name())
		assert.Equal(t, "1.1.0", doc.Version().String())
		assert.Equal(t, "Organization records exchanged between the parser and the CRM", doc.Description())
		assert.ElementsMatch(t, []string{"external_id", "name", "category"}, doc.RequiredFields())
	})

	t.Run("fields are sorted by name", func(t *testing.T) {
		var names []string
		for _, f := range doc.Fields() {
			names = append(names, f.Name)
		}
		assert.Equal(t, []string{
			"address", "category", "contacts", "external_id", "founded_year",
			"name", "partnership_status", "rating", "tags", "website",
		}, names)
	})

	t.Run("uuid extension", func(t *testing.T) {
		f, ok := doc.Field("external_id")
		require.True(t, ok)
		assert.Equal(t, schema.FormatUUID, f.Format)
		assert.Equal(t, 7, f.UUIDVersion)
		assert.True(t, f.Required)
	})

	t.Run("string enum becomes enum type", func(t *testing.T) {
		f, ok := doc.Field("partnership_status")
		require.True(t, ok)
		assert.Equal(t, schema.TypeEnum, f.Type)
		assert.Equal(t, []string{"partner", "potential_partner", "previously_cooperated"}, f.Enum)
	})

	t.Run("constraints", func(t *testing.T) {
		name, _ := doc.Field("name")
		require.NotNil(t, name.MinLength)
		require.NotNil(t, name.MaxLength)
		assert.Equal(t, 1, *name.MinLength)
		assert.Equal(t, 255, *name.MaxLength)

		rating, _ := doc.Field("rating")
		require.NotNil(t, rating.Minimum)
		require.NotNil(t, rating.Maximum)
		assert.Equal(t, 0.0, *rating.Minimum)
		assert.Equal(t, 5.0, *rating.Maximum)

		year, _ := doc.Field("founded_year")
		assert.Equal(t, schema.TypeInteger, year.Type)
		assert.Equal(t, schema.FormatNone, year.Format)
	})

	t.Run("documentation", func(t *testing.T) {
		address, _ := doc.Field("address")
		assert.True(t, address.Deprecated)
		assert.Equal(t, "Free-form street address", address.Description)
		assert.False(t, address.Required)
	})

	t.Run("arrays and referenced objects", func(t *testing.T) {
		tags, _ := doc.Field("tags")
		require.NotNil(t, tags.Items)
		assert.Equal(t, schema.TypeString, tags.Items.Type)

		contacts, _ := doc.Field("contacts")
		assert.Equal(t, schema.TypeObject, contacts.Type)
		email, ok := contacts.Field("email")
		require.True(t, ok)
		assert.True(t, email.Required)
		assert.Equal(t, schema.FormatEmail, email.Format)
		phone, ok := contacts.Field("phone")
		require.True(t, ok)
		assert.True(t, phone.MatchPattern("+7 (495) 123-45-67"))
	})
}

func TestLoadErrors(t *testing.T) {
	t.Run("unknown component", func(t *testing.T) {
		_, err := LoadFile(fixture, "Missing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, schema.ErrParse))
		assert.Contains(t, err.Error(), `component schema "Missing" not found`)
		assert.Contains(t, err.Error(), fixture)
	})

	t.Run("non-string enum", func(t *testing.T) {
		_, err := LoadFile(fixture, "Broken")
		require.Error(t, err)

		var perr *schema.ParseError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "Broken.level", perr.Field)
	})

	t.Run("missing version", func(t *testing.T) {
		data := []byte(`
openapi: 3.0.3
info:
  title: x
paths: {}
components:
  schemas:
    A:
      type: object
      properties:
        id: {type: string}
`)
		_, err := Load(data, "A")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing info.version")
	})

	t.Run("invalid version", func(t *testing.T) {
		data := []byte(`
openapi: 3.0.3
info:
  title: x
  version: "2"
paths: {}
components:
  schemas:
    A:
      type: object
      properties:
        id: {type: string}
`)
		_, err := Load(data, "A")
		var perr *schema.ParseError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "info.version", perr.Field)
	})

	t.Run("unsupported numeric keywords", func(t *testing.T) {
		tests := []struct {
			keyword string
			want    string
		}{
			{"exclusiveMinimum: true", "exclusiveMinimum is not supported"},
			{"exclusiveMaximum: true", "exclusiveMaximum is not supported"},
			{"multipleOf: 0.5", "multipleOf is not supported"},
		}

		for _, tt := range tests {
			data := []byte(`
openapi: 3.0.3
info:
  title: x
  version: 1.0.0
paths: {}
components:
  schemas:
    A:
      type: object
      properties:
        rating: {type: number, minimum: 0, maximum: 5, ` + tt.keyword + `}
`)
			_, err := Load(data, "A")

			var perr *schema.ParseError
			require.True(t, errors.As(err, &perr), tt.keyword)
			assert.Equal(t, "A.rating", perr.Field)
			assert.Contains(t, perr.Reason, tt.want)
		}
	})

	t.Run("required nullable property", func(t *testing.T) {
		data := []byte(`
openapi: 3.0.3
info:
  title: x
  version: 1.0.0
paths: {}
components:
  schemas:
    A:
      type: object
      required: [name]
      properties:
        name: {type: string, nullable: true}
        nickname: {type: string, nullable: true}
`)
		_, err := Load(data, "A")

		var perr *schema.ParseError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "A.name", perr.Field)
		assert.Equal(t, "required property cannot be nullable", perr.Reason)
	})

	t.Run("optional nullable property is accepted", func(t *testing.T) {
		data := []byte(`
openapi: 3.0.3
info:
  title: x
  version: 1.0.0
paths: {}
components:
  schemas:
    A:
      type: object
      properties:
        nickname: {type: string, nullable: true}
`)
		doc, err := Load(data, "A")
		require.NoError(t, err)

		f, ok := doc.Field("nickname")
		require.True(t, ok)
		assert.Equal(t, schema.TypeString, f.Type)
		assert.False(t, f.Required)
	})

	t.Run("malformed document", func(t *testing.T) {
		_, err := Load([]byte("{not yaml: ["), "A")
		assert.True(t, errors.Is(err, schema.ErrParse))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile("testdata/nope.yaml", "A")
		assert.Error(t, err)
	})
}
