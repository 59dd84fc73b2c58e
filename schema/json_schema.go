package schema

import (
	"encoding/json"
	"fmt"
)

const jsonSchemaDraft = "http://json-schema.org/draft-07/schema#"

// JSONSchema renders the document as a draft-07 JSON Schema so that tools
// outside this module can validate the same payloads
func (d *Document) JSONSchema() ([]byte, error) {
	root := objectSchema(d.fields)

	root["$schema"] = jsonSchemaDraft
	if d.name != "" {
		root["title"] = d.name
	}
	if d.description != "" {
		root["description"] = d.description
	}

	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON schema: %w", err)
	}
	return data, nil
}

func objectSchema(fields []FieldSpec) map[string]interface{} {
	properties := make(map[string]interface{}, len(fields))
	required := make([]string, 0)

	for _, f := range fields {
		properties[f.Name] = fieldSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

func fieldSchema(f FieldSpec) map[string]interface{} {
	var schema map[string]interface{}

	switch f.Type {
	case TypeEnum:
		schema = map[string]interface{}{"type": "string"}
	case TypeObject:
		if len(f.Fields) > 0 {
			schema = objectSchema(f.Fields)
		} else {
			schema = map[string]interface{}{"type": "object"}
		}
	case TypeArray:
		schema = map[string]interface{}{"type": "array"}
		if f.Items != nil {
			schema["items"] = fieldSchema(*f.Items)
		}
	default:
		schema = map[string]interface{}{"type": string(f.Type)}
	}

	if len(f.Enum) > 0 {
		schema["enum"] = f.Enum
	}
	if f.Format != FormatNone {
		schema["format"] = string(f.Format.Canonical())
	}
	if f.Pattern != "" {
		schema["pattern"] = f.Pattern
	}
	if f.Minimum != nil {
		schema["minimum"] = *f.Minimum
	}
	if f.Maximum != nil {
		schema["maximum"] = *f.Maximum
	}
	if f.MinLength != nil {
		schema["minLength"] = *f.MinLength
	}
	if f.MaxLength != nil {
		schema["maxLength"] = *f.MaxLength
	}
	if f.Description != "" {
		schema["description"] = f.Description
	}
	if f.Deprecated {
		schema["deprecated"] = true
	}

	return schema
}
