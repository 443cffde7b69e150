// Package schema provides type definitions for describing record shapes.
// A ResourceSchema lists fields in declaration order with explicit
// nullability, type parameters and defaults; the types package turns it into
// attribute columns.
package schema

import (
	"fmt"
	"strings"
)

// PrimitiveType represents the built-in primitive types
type PrimitiveType int

const (
	// Text types
	TypeString PrimitiveType = iota
	TypeText

	// Numeric types
	TypeInt
	TypeBigInt
	TypeFloat
	TypeDecimal

	// Boolean
	TypeBool

	// Time types
	TypeTimestamp
	TypeDate

	// Unique identifiers
	TypeUUID

	// JSON types
	TypeJSON
	TypeJSONB

	// Binary
	TypeBinary

	// Enum
	TypeEnum

	// Untyped values pass through unchanged
	TypeValue
)

// String returns the string representation of the primitive type
func (p PrimitiveType) String() string {
	switch p {
	case TypeString:
		return "string"
	case TypeText:
		return "text"
	case TypeInt:
		return "int"
	case TypeBigInt:
		return "bigint"
	case TypeFloat:
		return "float"
	case TypeDecimal:
		return "decimal"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	case TypeDate:
		return "date"
	case TypeUUID:
		return "uuid"
	case TypeJSON:
		return "json"
	case TypeJSONB:
		return "jsonb"
	case TypeBinary:
		return "binary"
	case TypeEnum:
		return "enum"
	case TypeValue:
		return "value"
	default:
		return "unknown"
	}
}

// ParsePrimitiveType converts a string to a PrimitiveType
func ParsePrimitiveType(s string) (PrimitiveType, error) {
	switch s {
	case "string":
		return TypeString, nil
	case "text":
		return TypeText, nil
	case "int":
		return TypeInt, nil
	case "bigint":
		return TypeBigInt, nil
	case "float":
		return TypeFloat, nil
	case "decimal":
		return TypeDecimal, nil
	case "bool":
		return TypeBool, nil
	case "timestamp":
		return TypeTimestamp, nil
	case "date":
		return TypeDate, nil
	case "uuid":
		return TypeUUID, nil
	case "json":
		return TypeJSON, nil
	case "jsonb":
		return TypeJSONB, nil
	case "binary":
		return TypeBinary, nil
	case "enum":
		return TypeEnum, nil
	case "value":
		return TypeValue, nil
	default:
		return 0, fmt.Errorf("unknown primitive type: %s", s)
	}
}

// TypeSpec represents a complete type specification with nullability and
// type parameters
type TypeSpec struct {
	BaseType   PrimitiveType // The base primitive type
	Nullable   bool          // ! = false, ? = true
	Default    interface{}   // Default value, nil when HasDefault is false
	HasDefault bool          // Track if a default was declared, nil included
	EnumValues []string      // For enum types

	// Type parameters (e.g., string(50), decimal(10,2))
	Length    *int // For string(N)
	Precision *int // For decimal(P,S)
	Scale     *int // For decimal(P,S)
}

// String returns a string representation of the TypeSpec
func (t *TypeSpec) String() string {
	var s string

	switch {
	case len(t.EnumValues) > 0:
		s = fmt.Sprintf("enum(%s)", strings.Join(t.EnumValues, ","))
	default:
		s = t.BaseType.String()
		if t.Length != nil {
			s = fmt.Sprintf("%s(%d)", s, *t.Length)
		}
		if t.Precision != nil && t.Scale != nil {
			s = fmt.Sprintf("%s(%d,%d)", s, *t.Precision, *t.Scale)
		}
	}

	if t.Nullable {
		s += "?"
	} else {
		s += "!"
	}

	return s
}

// IsNumeric returns true if the type is a numeric type
func (t *TypeSpec) IsNumeric() bool {
	return t.BaseType == TypeInt ||
		t.BaseType == TypeBigInt ||
		t.BaseType == TypeFloat ||
		t.BaseType == TypeDecimal
}

// IsText returns true if the type is a text type
func (t *TypeSpec) IsText() bool {
	return t.BaseType == TypeString ||
		t.BaseType == TypeText
}

// IsMutable returns true if values of the type can be changed in place
func (t *TypeSpec) IsMutable() bool {
	return t.BaseType == TypeJSON ||
		t.BaseType == TypeJSONB ||
		t.BaseType == TypeBinary
}

// Field represents one declared field of a resource
type Field struct {
	Name    string
	Type    *TypeSpec
	Primary bool
}

// ResourceSchema represents the declared shape of a record
type ResourceSchema struct {
	Name      string
	TableName string

	// Fields in declaration order
	Fields []*Field
	index  map[string]int
}

// NewResourceSchema creates a new ResourceSchema
func NewResourceSchema(name string) *ResourceSchema {
	return &ResourceSchema{
		Name:      name,
		Fields:    make([]*Field, 0),
		index:     make(map[string]int),
		TableName: toSnakeCase(name),
	}
}

// AddField appends a field, rejecting duplicate names
func (r *ResourceSchema) AddField(field *Field) error {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if _, exists := r.index[field.Name]; exists {
		return fmt.Errorf("resource %s already has a field named %s", r.Name, field.Name)
	}
	r.index[field.Name] = len(r.Fields)
	r.Fields = append(r.Fields, field)
	return nil
}

// Field returns the named field
func (r *ResourceSchema) Field(name string) (*Field, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.Fields[i], true
}

// HasField returns true if the resource has a field with the given name
func (r *ResourceSchema) HasField(name string) bool {
	_, exists := r.index[name]
	return exists
}

// FieldNames returns field names in declaration order
func (r *ResourceSchema) FieldNames() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// GetPrimaryKey returns the primary key field
func (r *ResourceSchema) GetPrimaryKey() (*Field, error) {
	for _, field := range r.Fields {
		if field.Primary {
			return field, nil
		}
	}
	return nil, fmt.Errorf("resource %s has no primary key", r.Name)
}

// toSnakeCase converts a string to snake_case
func toSnakeCase(s string) string {
	var result []rune
	runes := []rune(s)

	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := runes[i-1]
			// Add underscore at a camelCase boundary or at the end of an acronym
			if prev >= 'a' && prev <= 'z' {
				result = append(result, '_')
			} else if i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z' {
				result = append(result, '_')
			}
		}
		if r >= 'A' && r <= 'Z' {
			result = append(result, r+('a'-'A'))
		} else {
			result = append(result, r)
		}
	}
	return string(result)
}
