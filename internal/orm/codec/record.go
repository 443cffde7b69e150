// Package codec converts attributes to and from a portable representation.
// A Record carries the attribute's name, type name, tagged raw value,
// provenance and prior; memoized values are never encoded, so a decoded
// attribute recomputes its value on first read.
package codec

import (
	"fmt"

	"github.com/conduit-lang/attributes/internal/orm/attribute"
)

// TypeResolver turns a type name back into a type. types.Registry satisfies
// it.
type TypeResolver interface {
	Resolve(name string) (attribute.Type, error)
}

// Record is the tagged portable form of one attribute
type Record struct {
	Name   string  `json:"name" yaml:"name"`
	Type   string  `json:"type,omitempty" yaml:"type,omitempty"`
	Source string  `json:"source" yaml:"source"`
	Raw    *Scalar `json:"raw,omitempty" yaml:"raw,omitempty"`
	Prior  *Record `json:"prior,omitempty" yaml:"prior,omitempty"`
}

// Encode converts an attribute and its prior chain into a Record.
// Deferred defaults are resolved so the record holds a concrete raw value.
func Encode(attr *attribute.Attribute) (*Record, error) {
	typeName, err := typeName(attr.Type())
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", attr.Name(), err)
	}

	rec := &Record{
		Name:   attr.Name(),
		Type:   typeName,
		Source: attr.Source().String(),
	}

	if attr.Source() != attribute.SourceUninitialized {
		rec.Raw, err = EncodeScalar(attr.ValueBeforeTypeCast())
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", attr.Name(), err)
		}
	}

	if prior := attr.Prior(); prior != nil {
		rec.Prior, err = Encode(prior)
		if err != nil {
			return nil, err
		}
	}

	return rec, nil
}

// Decode rebuilds an attribute from a Record. An unknown source tag fails
// with a MalformedStateError.
func Decode(rec *Record, resolver TypeResolver) (*attribute.Attribute, error) {
	if rec == nil {
		return nil, malformed("missing record")
	}

	source, err := attribute.ParseSource(rec.Source)
	if err != nil {
		return nil, &MalformedStateError{Tag: rec.Source}
	}

	typ, err := resolveType(rec.Type, resolver)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", rec.Name, err)
	}

	raw, err := rec.Raw.Decode()
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", rec.Name, err)
	}

	var prior *attribute.Attribute
	if rec.Prior != nil {
		prior, err = Decode(rec.Prior, resolver)
		if err != nil {
			return nil, err
		}
	}

	switch source {
	case attribute.SourceFromDatabase:
		return attribute.FromDatabase(rec.Name, raw, typ), nil
	case attribute.SourceFromUser:
		return attribute.FromUser(rec.Name, raw, typ, prior), nil
	case attribute.SourcePreCast:
		return attribute.PreCast(rec.Name, raw, typ), nil
	case attribute.SourceUserProvidedDefault:
		return attribute.UserProvidedDefault(rec.Name, raw, typ, prior), nil
	default:
		return attribute.Uninitialized(rec.Name, typ), nil
	}
}

// EncodeSet encodes every attribute of a set, in order
func EncodeSet(set *attribute.Set) ([]*Record, error) {
	records := make([]*Record, 0, set.Len())
	for _, name := range set.Names() {
		attr, _ := set.Get(name)
		rec, err := Encode(attr)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// DecodeSet rebuilds a set from records, keeping their order
func DecodeSet(records []*Record, resolver TypeResolver) (*attribute.Set, error) {
	attrs := make([]*attribute.Attribute, 0, len(records))
	for _, rec := range records {
		attr, err := Decode(rec, resolver)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attribute.NewSet(attrs...), nil
}

func typeName(typ attribute.Type) (string, error) {
	if typ == nil {
		return "", nil
	}
	named, ok := typ.(attribute.Named)
	if !ok {
		return "", fmt.Errorf("%w: type %T has no name", ErrUnsupportedValue, typ)
	}
	return named.TypeName(), nil
}

func resolveType(name string, resolver TypeResolver) (attribute.Type, error) {
	if name == "" {
		return nil, nil
	}
	if resolver == nil {
		return nil, fmt.Errorf("no type resolver for type %s", name)
	}
	return resolver.Resolve(name)
}
