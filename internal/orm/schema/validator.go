package schema

import (
	"fmt"
	"strings"
)

// ValidationError represents a schema validation error with context
type ValidationError struct {
	Resource string
	Field    string
	Message  string
	Hint     string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var b strings.Builder

	if e.Resource != "" {
		b.WriteString(e.Resource)
		if e.Field != "" {
			b.WriteString(".")
			b.WriteString(e.Field)
		}
		b.WriteString(": ")
	}

	b.WriteString(e.Message)

	if e.Hint != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(e.Hint)
	}

	return b.String()
}

// SchemaValidator validates resource schemas
type SchemaValidator struct {
	errors []*ValidationError
}

// NewSchemaValidator creates a new schema validator
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{
		errors: make([]*ValidationError, 0),
	}
}

// Validate validates a single resource schema
func (v *SchemaValidator) Validate(schema *ResourceSchema) error {
	v.errors = make([]*ValidationError, 0)

	if schema.Name == "" {
		v.addError("", "", "resource name is required", "add a top-level name: key")
	}

	v.validatePrimaryKey(schema)
	v.validateFields(schema)

	if len(v.errors) == 0 {
		return nil
	}
	if len(v.errors) == 1 {
		return v.errors[0]
	}

	var errMsgs []string
	for _, err := range v.errors {
		errMsgs = append(errMsgs, err.Error())
	}
	return fmt.Errorf("schema validation failed with %d errors:\n%s",
		len(v.errors), strings.Join(errMsgs, "\n"))
}

// validatePrimaryKey allows at most one non-nullable primary key
func (v *SchemaValidator) validatePrimaryKey(schema *ResourceSchema) {
	var primary []string
	for _, field := range schema.Fields {
		if !field.Primary {
			continue
		}
		primary = append(primary, field.Name)
		if field.Type.Nullable {
			v.addError(schema.Name, field.Name, "primary key cannot be nullable", "")
		}
	}
	if len(primary) > 1 {
		v.addError(schema.Name, "", fmt.Sprintf("multiple primary keys: %s", strings.Join(primary, ", ")),
			"declare primary: true on a single field")
	}
}

func (v *SchemaValidator) validateFields(schema *ResourceSchema) {
	for _, field := range schema.Fields {
		if field.Name == "" {
			v.addError(schema.Name, "", "field name is required", "")
			continue
		}
		spec := field.Type
		if spec == nil {
			v.addError(schema.Name, field.Name, "field type is required", "")
			continue
		}

		if spec.BaseType == TypeEnum && len(spec.EnumValues) == 0 {
			v.addError(schema.Name, field.Name, "enum requires at least one value",
				"use enum(a,b) or a values: list")
		}
		if spec.BaseType != TypeEnum && len(spec.EnumValues) > 0 {
			v.addError(schema.Name, field.Name, fmt.Sprintf("values are only allowed on enum fields, not %s", spec.BaseType), "")
		}
		if spec.Precision != nil && spec.Scale != nil && *spec.Scale > *spec.Precision {
			v.addError(schema.Name, field.Name,
				fmt.Sprintf("decimal scale %d exceeds precision %d", *spec.Scale, *spec.Precision), "")
		}
		if spec.HasDefault && spec.Default == nil && !spec.Nullable {
			v.addError(schema.Name, field.Name, "default is null but the field is not nullable",
				"mark the field nullable: true or remove the default")
		}
		if spec.HasDefault && spec.BaseType == TypeEnum && spec.Default != nil && !containsString(spec.EnumValues, fmt.Sprint(spec.Default)) {
			v.addError(schema.Name, field.Name, fmt.Sprintf("default %v is not one of the enum values", spec.Default), "")
		}
	}
}

func (v *SchemaValidator) addError(resource, field, message, hint string) {
	v.errors = append(v.errors, &ValidationError{
		Resource: resource,
		Field:    field,
		Message:  message,
		Hint:     hint,
	})
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
