package attribute

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Column declares one attribute of a record shape
type Column struct {
	Name string
	Type Type
}

// BuilderConfig holds the collaborators a Builder needs
type BuilderConfig struct {
	// DefaultType is used for row columns that were never declared.
	// A nil DefaultType passes values through unchanged.
	DefaultType Type
	// Logger receives debug output about hydration
	Logger *zap.Logger
}

// DefaultBuilderConfig returns a configuration with a no-op logger and no
// default type
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		Logger: zap.NewNop(),
	}
}

// Builder holds a read-only template of a record shape and stamps out a new
// Set for every hydrated record. The template is never written after
// construction, so one Builder may be shared by any number of goroutines.
type Builder struct {
	template *Set
	config   BuilderConfig
}

// NewBuilder creates one uninitialized attribute per column, then overlays
// defaults with their memo cleared so every record computes its own default
func NewBuilder(columns []Column, defaults []*Attribute, config BuilderConfig) *Builder {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	template := &Set{
		order:      make([]string, 0, len(columns)),
		attributes: make(map[string]*Attribute, len(columns)),
	}
	for _, col := range columns {
		template.put(col.Name, Uninitialized(col.Name, col.Type))
	}
	for _, attr := range defaults {
		template.put(attr.Name(), attr.withoutCastValue())
	}

	return &Builder{template: template, config: config}
}

// Names returns the declared attribute names in order
func (b *Builder) Names() []string {
	return b.template.Names()
}

// Build returns a fresh set with no row data, as used for new records
func (b *Builder) Build() *Set {
	// Uninitialized attributes never memoize, so they are shared with the
	// template. Everything else gets its own empty memo.
	return b.template.Map(func(attr *Attribute) *Attribute {
		if !attr.IsInitialized() {
			return attr
		}
		return attr.withoutCastValue()
	})
}

// BuildFromDatabase hydrates a set from a row. additional declares columns
// unknown when the builder was created. Row names without a declared column
// use the configured default type and are appended in sorted order.
func (b *Builder) BuildFromDatabase(values map[string]interface{}, additional ...Column) *Set {
	set := b.buildWith(additional)

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b.write(set, name, values[name])
	}
	return set
}

// BuildFromRow hydrates a set from positional row data, keeping column order
// for undeclared columns
func (b *Builder) BuildFromRow(columns []string, values []interface{}, additional ...Column) (*Set, error) {
	if len(columns) != len(values) {
		return nil, fmt.Errorf("row has %d columns but %d values", len(columns), len(values))
	}

	set := b.buildWith(additional)
	for i, name := range columns {
		b.write(set, name, values[i])
	}
	return set, nil
}

func (b *Builder) buildWith(additional []Column) *Set {
	set := b.Build()
	for _, col := range additional {
		set.put(col.Name, Uninitialized(col.Name, col.Type))
	}
	return set
}

func (b *Builder) write(set *Set, name string, value interface{}) {
	if attr, ok := set.attributes[name]; ok {
		set.attributes[name] = attr.WithValueFromDatabase(value)
		return
	}

	b.config.Logger.Debug("undeclared column, using default type",
		zap.String("attribute", name))
	set.put(name, FromDatabase(name, value, b.config.DefaultType))
}
