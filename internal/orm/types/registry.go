package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/conduit-lang/attributes/internal/orm/attribute"
	"github.com/conduit-lang/attributes/internal/orm/schema"
)

// ErrUnknownType is returned when a type name has no registered factory
var ErrUnknownType = errors.New("unknown attribute type")

// Factory builds a type from a parsed type spec. The spec is nil when the
// type was resolved by a bare custom name.
type Factory func(spec *schema.TypeSpec) attribute.Type

// Registry maps type names to factories. Built-in types are registered by
// NewRegistry; applications may add their own.
type Registry struct {
	factories   map[string]Factory
	defaultType attribute.Type
	mu          sync.RWMutex
}

// NewRegistry creates a registry holding the built-in types
func NewRegistry() *Registry {
	r := &Registry{
		factories:   make(map[string]Factory),
		defaultType: Value{},
	}

	text := func(spec *schema.TypeSpec) attribute.Type {
		if spec != nil && spec.Length != nil {
			return String{Length: *spec.Length}
		}
		return String{}
	}
	integer := func(*schema.TypeSpec) attribute.Type { return Integer{} }
	json := func(*schema.TypeSpec) attribute.Type { return JSON{} }

	r.factories[schema.TypeString.String()] = text
	r.factories[schema.TypeText.String()] = text
	r.factories[schema.TypeInt.String()] = integer
	r.factories[schema.TypeBigInt.String()] = integer
	r.factories[schema.TypeFloat.String()] = func(*schema.TypeSpec) attribute.Type { return Float{} }
	r.factories[schema.TypeDecimal.String()] = func(spec *schema.TypeSpec) attribute.Type {
		d := Decimal{}
		if spec != nil && spec.Precision != nil && spec.Scale != nil {
			d.Precision, d.Scale = *spec.Precision, *spec.Scale
		}
		return d
	}
	r.factories[schema.TypeBool.String()] = func(*schema.TypeSpec) attribute.Type { return Boolean{} }
	r.factories[schema.TypeTimestamp.String()] = func(*schema.TypeSpec) attribute.Type { return Timestamp{} }
	r.factories[schema.TypeDate.String()] = func(*schema.TypeSpec) attribute.Type { return Date{} }
	r.factories[schema.TypeUUID.String()] = func(*schema.TypeSpec) attribute.Type { return UUID{} }
	r.factories[schema.TypeJSON.String()] = json
	r.factories[schema.TypeJSONB.String()] = json
	r.factories[schema.TypeBinary.String()] = func(*schema.TypeSpec) attribute.Type { return Binary{} }
	r.factories[schema.TypeEnum.String()] = func(spec *schema.TypeSpec) attribute.Type {
		if spec == nil {
			return Enum{}
		}
		return Enum{Values: append([]string(nil), spec.EnumValues...)}
	}
	r.factories[schema.TypeValue.String()] = func(*schema.TypeSpec) attribute.Type { return Value{} }

	return r
}

// Register adds a factory under name
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("type %s is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Lookup returns the factory registered under name
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	return factory, ok
}

// Names returns the registered type names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the type used for undeclared columns
func (r *Registry) Default() attribute.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultType
}

// SetDefault replaces the type used for undeclared columns
func (r *Registry) SetDefault(typ attribute.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultType = typ
}

// Resolve builds a type from its textual name, e.g. "decimal(10,2)" or
// "enum(draft,published)". Custom types are resolved by their bare name.
func (r *Registry) Resolve(name string) (attribute.Type, error) {
	spec, err := schema.ParseTypeSpec(name)
	if err == nil {
		return r.ForSpec(spec)
	}

	base := strings.TrimRight(strings.TrimSpace(name), "?!")
	if factory, ok := r.Lookup(base); ok {
		return factory(nil), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
}

// ForSpec builds the type for a schema field type
func (r *Registry) ForSpec(spec *schema.TypeSpec) (attribute.Type, error) {
	if spec == nil {
		return nil, fmt.Errorf("type spec cannot be nil")
	}
	factory, ok := r.Lookup(spec.BaseType.String())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, spec.BaseType)
	}
	return factory(spec), nil
}

// Columns converts a resource into builder columns plus a default attribute
// for every field that declares one
func (r *Registry) Columns(resource *schema.ResourceSchema) ([]attribute.Column, []*attribute.Attribute, error) {
	columns := make([]attribute.Column, 0, len(resource.Fields))
	var defaults []*attribute.Attribute

	for _, field := range resource.Fields {
		typ, err := r.ForSpec(field.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("field %s.%s: %w", resource.Name, field.Name, err)
		}
		columns = append(columns, attribute.Column{Name: field.Name, Type: typ})
		if field.Type.HasDefault {
			defaults = append(defaults, attribute.UserProvidedDefault(field.Name, field.Type.Default, typ, nil))
		}
	}

	return columns, defaults, nil
}

// Builder returns a builder for the resource. Undeclared columns use the
// registry's default type.
func (r *Registry) Builder(resource *schema.ResourceSchema, logger *zap.Logger) (*attribute.Builder, error) {
	columns, defaults, err := r.Columns(resource)
	if err != nil {
		return nil, err
	}

	config := attribute.DefaultBuilderConfig()
	config.DefaultType = r.Default()
	if logger != nil {
		config.Logger = logger.With(zap.String("resource", resource.Name))
	}
	return attribute.NewBuilder(columns, defaults, config), nil
}
