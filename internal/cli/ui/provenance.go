package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/conduit-lang/attributes/internal/orm/attribute"
)

// SourceColor returns the color used to draw an attribute source
func SourceColor(source attribute.Source) *color.Color {
	switch source {
	case attribute.SourceFromDatabase:
		return color.New(color.FgGreen)
	case attribute.SourceFromUser:
		return color.New(color.FgYellow)
	case attribute.SourcePreCast:
		return color.New(color.FgMagenta)
	case attribute.SourceUserProvidedDefault:
		return color.New(color.FgBlue)
	default:
		return color.New(color.FgHiBlack)
	}
}

// FormatValue renders an attribute value for display
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf("%q", val)
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(val))
	default:
		return fmt.Sprintf("%v", val)
	}
}

// AttributeTable lists every attribute in set with its provenance. Values
// that fail to cast are shown as the cast error.
func AttributeTable(w io.Writer, set *attribute.Set, noColor bool) *Table {
	table := NewTable(w, []string{"Name", "Type", "Source", "Value", "Original", "Changed"}, noColor)

	for _, name := range set.Names() {
		attr, _ := set.Get(name)

		typeName := fmt.Sprintf("%T", attr.Type())
		if named, ok := attr.Type().(attribute.Named); ok {
			typeName = named.TypeName()
		}

		value := "-"
		original := "-"
		changed := "-"
		if attr.IsInitialized() {
			if v, err := attr.Value(); err != nil {
				value = "error: " + err.Error()
			} else {
				value = FormatValue(v)
			}
			if v, err := attr.OriginalValue(); err == nil && v != attribute.UninitializedValue {
				original = FormatValue(v)
			}
			if c, err := attr.IsChanged(); err == nil {
				changed = fmt.Sprintf("%t", c)
			}
		}

		table.AddColoredRow(2, SourceColor(attr.Source()), name, typeName, attr.Source().String(), value, original, changed)
	}

	return table
}
