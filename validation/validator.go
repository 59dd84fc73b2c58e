package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/glimte/contractgate/contracts"
	"github.com/glimte/contractgate/schema"
)

// Validator validates records against schema documents.
// It is immutable after construction and safe for concurrent use.
type Validator struct {
	unknownFieldsFatal bool
	strictUUIDVersion  bool
}

// ValidatorOption configures the validator
type ValidatorOption func(*Validator)

// WithUnknownFieldsFatal makes UNKNOWN_FIELD errors fatal instead of warnings
func WithUnknownFieldsFatal(fatal bool) ValidatorOption {
	return func(v *Validator) {
		v.unknownFieldsFatal = fatal
	}
}

// WithStrictUUIDVersion enforces the declared UUID version nibble in addition to structure
func WithStrictUUIDVersion(strict bool) ValidatorOption {
	return func(v *Validator) {
		v.strictUUIDVersion = strict
	}
}

// New creates a new validator
func New(opts ...ValidatorOption) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks rec against doc. It never fails; problems are returned in the Result.
func (v *Validator) Validate(doc *schema.Document, rec contracts.Record) Result {
	result := Result{
		Valid:   true,
		Version: doc.Version().String(),
	}

	fields := make([]schema.FieldSpec, 0, doc.Len())
	doc.WalkFields(func(f schema.FieldSpec) {
		fields = append(fields, f)
	})

	v.validateObject("", fields, rec, &result)
	return result
}

// ValidateBatch validates every record and returns the results in input order
func (v *Validator) ValidateBatch(doc *schema.Document, recs []contracts.Record) []Result {
	results := make([]Result, len(recs))
	for i, rec := range recs {
		results[i] = v.Validate(doc, rec)
	}
	return results
}

// ValidateJSON decodes data as a JSON object and validates it.
// Only undecodable input produces an error.
func (v *Validator) ValidateJSON(doc *schema.Document, data []byte) (Result, error) {
	rec, err := contracts.DecodeRecord(data)
	if err != nil {
		return Result{}, err
	}
	return v.Validate(doc, rec), nil
}

// validateObject validates an object against its declared fields
func (v *Validator) validateObject(path string, fields []schema.FieldSpec, data map[string]interface{}, result *Result) {
	declared := make(map[string]struct{}, len(fields))

	// Check required fields
	for _, f := range fields {
		declared[f.Name] = struct{}{}
		if !f.Required {
			continue
		}
		if value, exists := data[f.Name]; !exists || value == nil {
			result.add(ValidationError{
				Field:   schema.JoinPath(path, f.Name),
				Message: "required field is missing",
				Kind:    KindMissingRequired,
				Fatal:   true,
			})
		}
	}

	// Validate declared properties that are present
	for _, f := range fields {
		value, exists := data[f.Name]
		if !exists || value == nil {
			continue
		}
		v.validateValue(schema.JoinPath(path, f.Name), f, value, result)
	}

	// Report undeclared properties in a stable order
	unknown := make([]string, 0)
	for key := range data {
		if _, ok := declared[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		result.add(ValidationError{
			Field:   schema.JoinPath(path, key),
			Message: "field is not declared in the contract",
			Kind:    KindUnknownField,
			Value:   data[key],
			Fatal:   v.unknownFieldsFatal,
		})
	}
}

// validateValue validates a single non-null value against its spec
func (v *Validator) validateValue(path string, spec schema.FieldSpec, value interface{}, result *Result) {
	if !matchesType(value, spec.Type) {
		result.add(ValidationError{
			Field:   path,
			Message: fmt.Sprintf("expected type %s, got %s", spec.Type, describe(value)),
			Kind:    KindTypeMismatch,
			Value:   value,
			Fatal:   true,
		})
		return
	}

	switch spec.Type {
	case schema.TypeString, schema.TypeEnum:
		v.validateString(path, spec, value.(string), result)
	case schema.TypeInteger, schema.TypeNumber:
		num, _ := toFloat(value)
		v.validateNumber(path, spec, num, value, result)
	case schema.TypeArray:
		v.validateArray(path, spec, value, result)
	case schema.TypeObject:
		if len(spec.Fields) > 0 {
			v.validateObject(path, spec.Fields, asObject(value), result)
		}
	}
}

// validateString validates format, pattern, length and enum constraints
func (v *Validator) validateString(path string, spec schema.FieldSpec, value string, result *Result) {
	if spec.Format != schema.FormatNone {
		if ok, msg := checkFormat(spec, value, v.strictUUIDVersion); !ok {
			result.add(ValidationError{
				Field:   path,
				Message: msg,
				Kind:    KindInvalidFormat,
				Value:   value,
				Fatal:   true,
			})
		}
	}

	if spec.Pattern != "" && !spec.MatchPattern(value) {
		result.add(ValidationError{
			Field:   path,
			Message: fmt.Sprintf("value does not match pattern: %s", spec.Pattern),
			Kind:    KindInvalidFormat,
			Value:   value,
			Fatal:   true,
		})
	}

	length := utf8.RuneCountInString(value)
	if spec.MinLength != nil && length < *spec.MinLength {
		result.add(ValidationError{
			Field:   path,
			Message: fmt.Sprintf("string length %d is less than minimum %d", length, *spec.MinLength),
			Kind:    KindOutOfRange,
			Value:   value,
			Fatal:   true,
		})
	}
	if spec.MaxLength != nil && length > *spec.MaxLength {
		result.add(ValidationError{
			Field:   path,
			Message: fmt.Sprintf("string length %d exceeds maximum %d", length, *spec.MaxLength),
			Kind:    KindOutOfRange,
			Value:   value,
			Fatal:   true,
		})
	}

	if spec.HasEnum() && !spec.AllowsEnumValue(value) {
		result.add(ValidationError{
			Field:   path,
			Message: fmt.Sprintf("value %q is not in allowed enum values: %v", value, spec.Enum),
			Kind:    KindInvalidEnumValue,
			Value:   value,
			Fatal:   true,
		})
	}
}

// validateNumber validates numeric range constraints
func (v *Validator) validateNumber(path string, spec schema.FieldSpec, num float64, raw interface{}, result *Result) {
	if spec.Minimum != nil && num < *spec.Minimum {
		result.add(ValidationError{
			Field:   path,
			Message: fmt.Sprintf("value %s is less than minimum %s", formatFloat(num), formatFloat(*spec.Minimum)),
			Kind:    KindOutOfRange,
			Value:   raw,
			Fatal:   true,
		})
	}
	if spec.Maximum != nil && num > *spec.Maximum {
		result.add(ValidationError{
			Field:   path,
			Message: fmt.Sprintf("value %s exceeds maximum %s", formatFloat(num), formatFloat(*spec.Maximum)),
			Kind:    KindOutOfRange,
			Value:   raw,
			Fatal:   true,
		})
	}
}

// validateArray validates every element against the item spec
func (v *Validator) validateArray(path string, spec schema.FieldSpec, value interface{}, result *Result) {
	if spec.Items == nil {
		return
	}

	for i, item := range asSlice(value) {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if item == nil {
			result.add(ValidationError{
				Field:   itemPath,
				Message: fmt.Sprintf("expected type %s, got null", spec.Items.Type),
				Kind:    KindTypeMismatch,
				Fatal:   true,
			})
			continue
		}
		v.validateValue(itemPath, *spec.Items, item, result)
	}
}

// matchesType checks if value matches the declared type
func matchesType(value interface{}, t schema.FieldType) bool {
	switch t {
	case schema.TypeString, schema.TypeEnum:
		_, ok := value.(string)
		return ok
	case schema.TypeNumber:
		_, ok := toFloat(value)
		return ok
	case schema.TypeInteger:
		return isInteger(value)
	case schema.TypeBoolean:
		_, ok := value.(bool)
		return ok
	case schema.TypeArray:
		if _, ok := value.([]interface{}); ok {
			return true
		}
		kind := reflect.TypeOf(value).Kind()
		return kind == reflect.Slice || kind == reflect.Array
	case schema.TypeObject:
		return asObject(value) != nil
	default:
		return false
	}
}

// toFloat converts any numeric representation to a finite float64.
// NaN and infinities are not numbers for a contract.
func toFloat(value interface{}) (float64, bool) {
	f, ok := rawFloat(value)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func rawFloat(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func isInteger(value interface{}) bool {
	switch n := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		if _, err := n.Int64(); err == nil {
			return true
		}
	}
	f, ok := toFloat(value)
	return ok && f == math.Trunc(f)
}

func asObject(value interface{}) map[string]interface{} {
	switch obj := value.(type) {
	case map[string]interface{}:
		return obj
	case contracts.Record:
		return obj
	default:
		return nil
	}
}

func asSlice(value interface{}) []interface{} {
	if items, ok := value.([]interface{}); ok {
		return items
	}

	rv := reflect.ValueOf(value)
	items := make([]interface{}, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items
}

// describe names the JSON type of a value for error messages
func describe(value interface{}) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		if f, _ := rawFloat(value); math.IsNaN(f) || math.IsInf(f, 0) {
			return formatFloat(f)
		}
		if isInteger(value) {
			return "integer"
		}
		return "number"
	}
	if asObject(value) != nil {
		return "object"
	}
	if kind := reflect.TypeOf(value).Kind(); kind == reflect.Slice || kind == reflect.Array {
		return "array"
	}
	return fmt.Sprintf("%T", value)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
