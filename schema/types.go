package schema

import (
	"fmt"
	"regexp"
	"slices"
)

// FieldType is the declared type of a field
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
	TypeEnum    FieldType = "enum"
)

// Valid reports whether t is one of the known field types
func (t FieldType) Valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeArray, TypeObject, TypeEnum:
		return true
	}
	return false
}

// Format is a string format constraint
type Format string

const (
	FormatNone     Format = ""
	FormatUUID     Format = "uuid"
	FormatURI      Format = "uri"
	FormatURL      Format = "url" // alias of uri
	FormatDateTime Format = "date-time"
	FormatDate     Format = "date"
	FormatEmail    Format = "email"
)

// Valid reports whether f is a known format (or no format)
func (f Format) Valid() bool {
	switch f {
	case FormatNone, FormatUUID, FormatURI, FormatURL, FormatDateTime, FormatDate, FormatEmail:
		return true
	}
	return false
}

// Canonical folds aliases so that url and uri compare equal
func (f Format) Canonical() Format {
	if f == FormatURL {
		return FormatURI
	}
	return f
}

// FieldSpec describes a single field of a contract object
type FieldSpec struct {
	Name        string
	Type        FieldType
	Required    bool
	Format      Format
	UUIDVersion int      // Expected UUID version (e.g. 7); recorded, enforced only in strict mode
	Enum        []string // Ordered set of allowed values
	Minimum     *float64
	Maximum     *float64
	MinLength   *int
	MaxLength   *int
	Pattern     string
	Items       *FieldSpec  // Element spec for arrays
	Fields      []FieldSpec // Nested fields for objects
	Description string
	Deprecated  bool

	pattern *regexp.Regexp
}

// HasEnum reports whether the field restricts values to an enum set
func (f FieldSpec) HasEnum() bool {
	return len(f.Enum) > 0
}

// AllowsEnumValue reports whether value is a member of the enum set
func (f FieldSpec) AllowsEnumValue(value string) bool {
	return slices.Contains(f.Enum, value)
}

// MatchPattern reports whether s matches the field pattern. Fields without a pattern match everything.
func (f FieldSpec) MatchPattern(s string) bool {
	if f.Pattern == "" {
		return true
	}
	re := f.pattern
	if re == nil {
		compiled, err := regexp.Compile(f.Pattern)
		if err != nil {
			return false
		}
		re = compiled
	}
	return re.MatchString(s)
}

// Field looks up a nested object field by name
func (f FieldSpec) Field(name string) (FieldSpec, bool) {
	for _, child := range f.Fields {
		if child.Name == name {
			return child, true
		}
	}
	return FieldSpec{}, false
}

// Document is an immutable, versioned contract definition
type Document struct {
	name        string
	version     Version
	description string
	fields      []FieldSpec
	index       map[string]int
}

// DocumentOption configures a document at construction time
type DocumentOption func(*Document)

// WithDescription sets the document description
func WithDescription(description string) DocumentOption {
	return func(d *Document) {
		d.description = description
	}
}

// NewDocument builds a document after checking the field list for structural errors.
// The fields are deep-copied; later changes to the argument do not affect the document.
func NewDocument(name string, version Version, fields []FieldSpec, opts ...DocumentOption) (*Document, error) {
	if version.IsZero() {
		return nil, &ParseError{Reason: "missing version"}
	}

	copied := cloneFields(fields)
	if err := checkFields("", copied); err != nil {
		return nil, err
	}

	doc := &Document{
		name:    name,
		version: version,
		fields:  copied,
		index:   make(map[string]int, len(copied)),
	}
	for i, f := range copied {
		doc.index[f.Name] = i
	}

	for _, opt := range opts {
		opt(doc)
	}

	return doc, nil
}

// Name returns the object name described by the document
func (d *Document) Name() string {
	return d.name
}

// Version returns the document version
func (d *Document) Version() Version {
	return d.version
}

// Description returns the free-text description
func (d *Document) Description() string {
	return d.description
}

// Fields returns a copy of the top-level fields in declaration order
func (d *Document) Fields() []FieldSpec {
	return cloneFields(d.fields)
}

// Field returns the top-level field with the given name
func (d *Document) Field(name string) (FieldSpec, bool) {
	i, ok := d.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return cloneField(d.fields[i]), true
}

// RequiredFields returns the names of the required top-level fields in declaration order
func (d *Document) RequiredFields() []string {
	required := make([]string, 0, len(d.fields))
	for _, f := range d.fields {
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return required
}

// Len returns the number of top-level fields
func (d *Document) Len() int {
	return len(d.fields)
}

// WalkFields calls fn for every top-level field in order without copying.
// fn must not retain or modify the spec.
func (d *Document) WalkFields(fn func(FieldSpec)) {
	for _, f := range d.fields {
		fn(f)
	}
}

// checkFields verifies names, types and constraints and compiles patterns in place
func checkFields(parent string, fields []FieldSpec) error {
	seen := make(map[string]struct{}, len(fields))
	for i := range fields {
		f := &fields[i]
		path := joinPath(parent, f.Name)

		if f.Name == "" {
			return &ParseError{Field: parent, Reason: fmt.Sprintf("field #%d has no name", i+1)}
		}
		if _, dup := seen[f.Name]; dup {
			return &ParseError{Field: path, Reason: "duplicate field name"}
		}
		seen[f.Name] = struct{}{}

		if err := checkField(path, f); err != nil {
			return err
		}
	}
	return nil
}

func checkField(path string, f *FieldSpec) error {
	if !f.Type.Valid() {
		return &ParseError{Field: path, Reason: fmt.Sprintf("unknown type %q", f.Type)}
	}
	if !f.Format.Valid() {
		return &ParseError{Field: path, Reason: fmt.Sprintf("unknown format %q", f.Format)}
	}
	if f.Format != FormatNone && f.Type != TypeString {
		return &ParseError{Field: path, Reason: fmt.Sprintf("format %q requires type string, got %s", f.Format, f.Type)}
	}
	if f.UUIDVersion != 0 && (f.Format != FormatUUID || f.UUIDVersion < 1 || f.UUIDVersion > 8) {
		return &ParseError{Field: path, Reason: fmt.Sprintf("uuid_version %d requires format uuid and a version between 1 and 8", f.UUIDVersion)}
	}

	switch {
	case f.Type == TypeEnum && len(f.Enum) == 0:
		return &ParseError{Field: path, Reason: "enum type declares no values"}
	case len(f.Enum) > 0 && f.Type != TypeEnum && f.Type != TypeString:
		return &ParseError{Field: path, Reason: fmt.Sprintf("enum values require type enum or string, got %s", f.Type)}
	}
	seen := make(map[string]struct{}, len(f.Enum))
	for _, v := range f.Enum {
		if _, dup := seen[v]; dup {
			return &ParseError{Field: path, Reason: fmt.Sprintf("duplicate enum value %q", v)}
		}
		seen[v] = struct{}{}
	}

	if (f.Minimum != nil || f.Maximum != nil) && f.Type != TypeInteger && f.Type != TypeNumber {
		return &ParseError{Field: path, Reason: fmt.Sprintf("minimum/maximum require a numeric type, got %s", f.Type)}
	}
	if f.Minimum != nil && f.Maximum != nil && *f.Minimum > *f.Maximum {
		return &ParseError{Field: path, Reason: fmt.Sprintf("minimum %v exceeds maximum %v", *f.Minimum, *f.Maximum)}
	}
	if (f.MinLength != nil || f.MaxLength != nil) && f.Type != TypeString {
		return &ParseError{Field: path, Reason: fmt.Sprintf("min_length/max_length require type string, got %s", f.Type)}
	}
	if f.MinLength != nil && *f.MinLength < 0 {
		return &ParseError{Field: path, Reason: "min_length cannot be negative"}
	}
	if f.MinLength != nil && f.MaxLength != nil && *f.MinLength > *f.MaxLength {
		return &ParseError{Field: path, Reason: fmt.Sprintf("min_length %d exceeds max_length %d", *f.MinLength, *f.MaxLength)}
	}

	if f.Pattern != "" {
		if f.Type != TypeString {
			return &ParseError{Field: path, Reason: fmt.Sprintf("pattern requires type string, got %s", f.Type)}
		}
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return &ParseError{Field: path, Reason: "invalid pattern", Err: err}
		}
		f.pattern = re
	}

	if f.Items != nil {
		if f.Type != TypeArray {
			return &ParseError{Field: path, Reason: fmt.Sprintf("items require type array, got %s", f.Type)}
		}
		if err := checkField(path+"[]", f.Items); err != nil {
			return err
		}
	}

	if len(f.Fields) > 0 {
		if f.Type != TypeObject {
			return &ParseError{Field: path, Reason: fmt.Sprintf("nested fields require type object, got %s", f.Type)}
		}
		if err := checkFields(path, f.Fields); err != nil {
			return err
		}
	}

	return nil
}

func cloneFields(fields []FieldSpec) []FieldSpec {
	if fields == nil {
		return nil
	}
	out := make([]FieldSpec, len(fields))
	for i, f := range fields {
		out[i] = cloneField(f)
	}
	return out
}

func cloneField(f FieldSpec) FieldSpec {
	out := f
	out.Enum = slices.Clone(f.Enum)
	if f.Minimum != nil {
		v := *f.Minimum
		out.Minimum = &v
	}
	if f.Maximum != nil {
		v := *f.Maximum
		out.Maximum = &v
	}
	if f.MinLength != nil {
		v := *f.MinLength
		out.MinLength = &v
	}
	if f.MaxLength != nil {
		v := *f.MaxLength
		out.MaxLength = &v
	}
	if f.Items != nil {
		items := cloneField(*f.Items)
		out.Items = &items
	}
	out.Fields = cloneFields(f.Fields)
	return out
}

// JoinPath builds a dotted field path
func JoinPath(parent, field string) string {
	return joinPath(parent, field)
}

func joinPath(parent, field string) string {
	if parent == "" {
		return field
	}
	return parent + "." + field
}
