package codec

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the key-value form of a Record, suitable for embedding in
// larger documents
type Document map[string]interface{}

// Document keys
const (
	keyName   = "name"
	keyType   = "type"
	keySource = "source"
	keyRaw    = "raw"
	keyKind   = "kind"
	keyText   = "text"
	keyPrior  = "prior"
)

// ToDocument transcribes a record into a Document
func (r *Record) ToDocument() Document {
	doc := Document{
		keyName:   r.Name,
		keySource: r.Source,
	}
	if r.Type != "" {
		doc[keyType] = r.Type
	}
	if r.Raw != nil {
		raw := map[string]interface{}{keyKind: r.Raw.Kind}
		if r.Raw.Text != "" {
			raw[keyText] = r.Raw.Text
		}
		doc[keyRaw] = raw
	}
	if r.Prior != nil {
		doc[keyPrior] = map[string]interface{}(r.Prior.ToDocument())
	}
	return doc
}

// FromDocument reads a record back from a Document. Nested maps may come
// from any decoder that produces map[string]interface{}.
func FromDocument(doc Document) (*Record, error) {
	name, err := stringField(doc, keyName, true)
	if err != nil {
		return nil, err
	}
	source, err := stringField(doc, keySource, true)
	if err != nil {
		return nil, err
	}
	typeName, err := stringField(doc, keyType, false)
	if err != nil {
		return nil, err
	}

	rec := &Record{Name: name, Type: typeName, Source: source}

	if v, ok := doc[keyRaw]; ok && v != nil {
		raw, ok := v.(map[string]interface{})
		if !ok {
			return nil, malformed("%s.%s is %T, not a map", name, keyRaw, v)
		}
		kind, err := stringField(raw, keyKind, true)
		if err != nil {
			return nil, err
		}
		text, err := stringField(raw, keyText, false)
		if err != nil {
			return nil, err
		}
		rec.Raw = &Scalar{Kind: kind, Text: text}
	}

	if v, ok := doc[keyPrior]; ok && v != nil {
		prior, ok := v.(map[string]interface{})
		if !ok {
			return nil, malformed("%s.%s is %T, not a map", name, keyPrior, v)
		}
		rec.Prior, err = FromDocument(prior)
		if err != nil {
			return nil, err
		}
	}

	return rec, nil
}

func stringField(doc map[string]interface{}, key string, required bool) (string, error) {
	v, ok := doc[key]
	if !ok || v == nil {
		if required {
			return "", malformed("missing %s", key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", malformed("%s is %T, not a string", key, v)
	}
	return s, nil
}

// Format selects a text encoding for records
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat converts a string to a Format
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatYAML:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// Marshal encodes records in the given format
func Marshal(records []*Record, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.Marshal(records)
	case FormatYAML:
		return yaml.Marshal(records)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// Unmarshal decodes records in the given format
func Unmarshal(data []byte, format Format) ([]*Record, error) {
	var records []*Record

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
		}
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}

	for i, rec := range records {
		if rec == nil {
			return nil, malformed("record %d is empty", i)
		}
	}
	return records, nil
}
