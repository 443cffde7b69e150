package schema

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// resourceDocument is the on-disk YAML form of a ResourceSchema
type resourceDocument struct {
	Name   string          `yaml:"name"`
	Table  string          `yaml:"table"`
	Fields []fieldDocument `yaml:"fields"`
}

type fieldDocument struct {
	Name     string    `yaml:"name"`
	Type     string    `yaml:"type"`
	Nullable bool      `yaml:"nullable"`
	Primary  bool      `yaml:"primary"`
	Values   []string  `yaml:"values"`
	Default  yaml.Node `yaml:"default"`
}

// LoadResource reads a resource schema from a YAML file
func LoadResource(path string) (*ResourceSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return ParseResource(data)
}

// ParseResource parses and validates a resource schema from YAML
func ParseResource(data []byte) (*ResourceSchema, error) {
	var doc resourceDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	resource := NewResourceSchema(doc.Name)
	if doc.Table != "" {
		resource.TableName = doc.Table
	}

	for _, fd := range doc.Fields {
		spec, err := ParseTypeSpec(fd.Type)
		if err != nil {
			return nil, &ValidationError{Resource: doc.Name, Field: fd.Name, Message: err.Error()}
		}
		if fd.Nullable {
			spec.Nullable = true
		}
		if len(fd.Values) > 0 {
			spec.EnumValues = fd.Values
		}
		if !fd.Default.IsZero() {
			var value interface{}
			if err := fd.Default.Decode(&value); err != nil {
				return nil, &ValidationError{Resource: doc.Name, Field: fd.Name, Message: fmt.Sprintf("invalid default: %v", err)}
			}
			spec.Default = value
			spec.HasDefault = true
		}

		field := &Field{Name: fd.Name, Type: spec, Primary: fd.Primary}
		if err := resource.AddField(field); err != nil {
			return nil, &ValidationError{Resource: doc.Name, Field: fd.Name, Message: err.Error()}
		}
	}

	if err := NewSchemaValidator().Validate(resource); err != nil {
		return nil, err
	}
	return resource, nil
}

// ParseTypeSpec parses the textual form produced by TypeSpec.String, e.g.
// "string(50)?", "decimal(10,2)" or "enum(draft,published)!". A missing
// nullability marker means not nullable.
func ParseTypeSpec(s string) (*TypeSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty type")
	}

	spec := &TypeSpec{}
	switch s[len(s)-1] {
	case '?':
		spec.Nullable = true
		s = s[:len(s)-1]
	case '!':
		s = s[:len(s)-1]
	}

	base, args, err := splitTypeArgs(s)
	if err != nil {
		return nil, err
	}

	spec.BaseType, err = ParsePrimitiveType(base)
	if err != nil {
		return nil, err
	}

	switch {
	case len(args) == 0:
	case spec.BaseType == TypeEnum:
		spec.EnumValues = args
	case spec.BaseType == TypeDecimal && len(args) == 2:
		precision, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid decimal precision %q", args[0])
		}
		scale, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("invalid decimal scale %q", args[1])
		}
		spec.Precision = &precision
		spec.Scale = &scale
	case spec.IsText() && len(args) == 1:
		length, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid string length %q", args[0])
		}
		spec.Length = &length
	default:
		return nil, fmt.Errorf("type %s does not take parameters (%s)", base, strings.Join(args, ","))
	}

	return spec, nil
}

// splitTypeArgs splits "name(a,b)" into "name" and ["a", "b"]
func splitTypeArgs(s string) (string, []string, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, nil, nil
	}
	if !strings.HasSuffix(s, ")") {
		return "", nil, fmt.Errorf("unterminated type parameters in %q", s)
	}

	var args []string
	for _, arg := range strings.Split(s[open+1:len(s)-1], ",") {
		if arg = strings.TrimSpace(arg); arg != "" {
			args = append(args, arg)
		}
	}
	return s[:open], args, nil
}
