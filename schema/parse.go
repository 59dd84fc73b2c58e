package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// rawDocument mirrors the on-disk schema source format
type rawDocument struct {
	Name        string     `yaml:"name"`
	Version     string     `yaml:"version"`
	Description string     `yaml:"description"`
	Fields      []rawField `yaml:"fields"`
}

type rawField struct {
	Name        string     `yaml:"name"`
	Type        string     `yaml:"type"`
	Required    bool       `yaml:"required"`
	Format      string     `yaml:"format"`
	UUIDVersion int        `yaml:"uuid_version"`
	Enum        []string   `yaml:"enum"`
	Minimum     *float64   `yaml:"minimum"`
	Maximum     *float64   `yaml:"maximum"`
	MinLength   *int       `yaml:"min_length"`
	MaxLength   *int       `yaml:"max_length"`
	Pattern     string     `yaml:"pattern"`
	Items       *rawField  `yaml:"items"`
	Fields      []rawField `yaml:"fields"`
	Description string     `yaml:"description"`
	Deprecated  bool       `yaml:"deprecated"`
}

// Parse parses a schema document from YAML or JSON source
func Parse(data []byte) (*Document, error) {
	return parse("", data)
}

// ParseReader reads r fully and parses the result
func ParseReader(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema source: %w", err)
	}
	return parse("", data)
}

// ParseFile parses the schema document stored at path
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	return parse(path, data)
}

func parse(source string, data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Source: source, Reason: "empty schema source"}
	}

	var raw rawDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, &ParseError{Source: source, Reason: "invalid document structure", Err: err}
	}

	if raw.Version == "" {
		return nil, &ParseError{Source: source, Reason: "missing version"}
	}
	version, err := ParseVersion(raw.Version)
	if err != nil {
		return nil, &ParseError{Source: source, Field: "version", Reason: "invalid version", Err: err}
	}

	fields := make([]FieldSpec, 0, len(raw.Fields))
	for _, rf := range raw.Fields {
		fields = append(fields, rf.toSpec())
	}

	doc, err := NewDocument(raw.Name, version, fields, WithDescription(raw.Description))
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) && perr.Source == "" {
			perr.Source = source
		}
		return nil, err
	}

	return doc, nil
}

func (rf rawField) toSpec() FieldSpec {
	spec := FieldSpec{
		Name:        rf.Name,
		Type:        FieldType(rf.Type),
		Required:    rf.Required,
		Format:      Format(rf.Format),
		UUIDVersion: rf.UUIDVersion,
		Enum:        rf.Enum,
		Minimum:     rf.Minimum,
		Maximum:     rf.Maximum,
		MinLength:   rf.MinLength,
		MaxLength:   rf.MaxLength,
		Pattern:     rf.Pattern,
		Description: rf.Description,
		Deprecated:  rf.Deprecated,
	}

	if rf.Items != nil {
		items := rf.Items.toSpec()
		spec.Items = &items
	}

	if len(rf.Fields) > 0 {
		spec.Fields = make([]FieldSpec, 0, len(rf.Fields))
		for _, child := range rf.Fields {
			spec.Fields = append(spec.Fields, child.toSpec())
		}
	}

	return spec
}
