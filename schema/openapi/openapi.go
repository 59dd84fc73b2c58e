// Package openapi imports contract documents from OpenAPI 3 component schemas
package openapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/glimte/contractgate/schema"
)

// ExtensionUUIDVersion is the schema extension declaring the expected UUID version
const ExtensionUUIDVersion = "x-uuid-version"

// Load builds a document from the named component schema.
// The contract version is taken from info.version.
func Load(data []byte, component string) (*schema.Document, error) {
	return load("", data, component)
}

// LoadFile reads an OpenAPI document from path and imports the named component
func LoadFile(path, component string) (*schema.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read openapi file %s: %w", path, err)
	}
	return load(path, data, component)
}

func load(source string, data []byte, component string) (*schema.Document, error) {
	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, &schema.ParseError{Source: source, Reason: "invalid openapi document", Err: err}
	}

	if spec.Info == nil || spec.Info.Version == "" {
		return nil, &schema.ParseError{Source: source, Reason: "missing info.version"}
	}
	version, err := schema.ParseVersion(spec.Info.Version)
	if err != nil {
		return nil, &schema.ParseError{Source: source, Field: "info.version", Reason: "invalid version", Err: err}
	}

	if spec.Components == nil || spec.Components.Schemas[component] == nil {
		return nil, &schema.ParseError{Source: source, Reason: fmt.Sprintf("component schema %q not found", component)}
	}
	root := spec.Components.Schemas[component].Value
	if root == nil {
		return nil, &schema.ParseError{Source: source, Reason: fmt.Sprintf("component schema %q is unresolved", component)}
	}

	fields, perr := convertProperties(component, root)
	if perr != nil {
		perr.Source = source
		return nil, perr
	}

	description := root.Description
	if description == "" {
		description = spec.Info.Description
	}

	doc, err := schema.NewDocument(component, version, fields, schema.WithDescription(description))
	if err != nil {
		if errors.As(err, &perr) && perr.Source == "" {
			perr.Source = source
		}
		return nil, err
	}
	return doc, nil
}

// convertProperties maps object properties to fields in name order
func convertProperties(path string, s *openapi3.Schema) ([]schema.FieldSpec, *schema.ParseError) {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}

	fields := make([]schema.FieldSpec, 0, len(names))
	for _, name := range names {
		ref := s.Properties[name]
		if ref == nil || ref.Value == nil {
			return nil, &schema.ParseError{Field: schema.JoinPath(path, name), Reason: "unresolved property schema"}
		}
		field, err := convertSchema(schema.JoinPath(path, name), ref.Value)
		if err != nil {
			return nil, err
		}
		field.Name = name
		field.Required = required[name]
		if field.Required && nullable(ref.Value) {
			return nil, &schema.ParseError{Field: schema.JoinPath(path, name), Reason: "required property cannot be nullable"}
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// convertSchema maps a single OpenAPI schema to a field spec without name or requiredness
func convertSchema(path string, s *openapi3.Schema) (schema.FieldSpec, *schema.ParseError) {
	switch {
	case s.ExclusiveMin:
		return schema.FieldSpec{}, &schema.ParseError{Field: path, Reason: "exclusiveMinimum is not supported, use an inclusive minimum"}
	case s.ExclusiveMax:
		return schema.FieldSpec{}, &schema.ParseError{Field: path, Reason: "exclusiveMaximum is not supported, use an inclusive maximum"}
	case s.MultipleOf != nil:
		return schema.FieldSpec{}, &schema.ParseError{Field: path, Reason: "multipleOf is not supported"}
	}

	field := schema.FieldSpec{
		Description: s.Description,
		Deprecated:  s.Deprecated,
		Minimum:     s.Min,
		Maximum:     s.Max,
		Pattern:     s.Pattern,
	}

	typ, err := primaryType(path, s)
	if err != nil {
		return field, err
	}
	field.Type = typ

	if typ == schema.TypeString {
		if f := schema.Format(s.Format); f != schema.FormatNone && f.Valid() {
			field.Format = f
		}
		if s.MinLength > 0 {
			n := int(min(s.MinLength, math.MaxInt32))
			field.MinLength = &n
		}
		if s.MaxLength != nil {
			n := int(min(*s.MaxLength, math.MaxInt32))
			field.MaxLength = &n
		}
	}

	if raw, ok := s.Extensions[ExtensionUUIDVersion]; ok {
		v, convErr := toInt(raw)
		if convErr != nil {
			return field, &schema.ParseError{Field: path, Reason: "invalid " + ExtensionUUIDVersion, Err: convErr}
		}
		field.UUIDVersion = v
	}

	if len(s.Enum) > 0 {
		if typ != schema.TypeString {
			return field, &schema.ParseError{Field: path, Reason: fmt.Sprintf("enum is only supported on strings, got %s", typ)}
		}
		field.Type = schema.TypeEnum
		for _, value := range s.Enum {
			str, ok := value.(string)
			if !ok {
				return field, &schema.ParseError{Field: path, Reason: fmt.Sprintf("enum value %v is not a string", value)}
			}
			field.Enum = append(field.Enum, str)
		}
	}

	switch typ {
	case schema.TypeArray:
		if s.Items != nil && s.Items.Value != nil {
			items, err := convertSchema(path+"[]", s.Items.Value)
			if err != nil {
				return field, err
			}
			field.Items = &items
		}
	case schema.TypeObject:
		if len(s.Properties) > 0 {
			nested, err := convertProperties(path, s)
			if err != nil {
				return field, err
			}
			field.Fields = nested
		}
	}

	return field, nil
}

// nullable reports whether s accepts null, either via nullable or a "null" type
func nullable(s *openapi3.Schema) bool {
	if s.Nullable {
		return true
	}
	return s.Type != nil && s.Type.Includes("null")
}

// primaryType picks the first non-null declared type
func primaryType(path string, s *openapi3.Schema) (schema.FieldType, *schema.ParseError) {
	if s.Type != nil {
		for _, t := range *s.Type {
			if t == "null" {
				continue
			}
			ft := schema.FieldType(t)
			if !ft.Valid() || ft == schema.TypeEnum {
				return "", &schema.ParseError{Field: path, Reason: fmt.Sprintf("unsupported type %q", t)}
			}
			return ft, nil
		}
	}

	if len(s.Properties) > 0 {
		return schema.TypeObject, nil
	}
	return "", &schema.ParseError{Field: path, Reason: "missing type"}
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case json.RawMessage:
		var i int
		err := json.Unmarshal(n, &i)
		return i, err
	default:
		return 0, fmt.Errorf("unexpected value %v (%T)", v, v)
	}
}
